package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// SearchInput is the input schema for the search_documents tool.
type SearchInput struct {
	Query   string            `json:"query" jsonschema:"the clinical question or keywords to search for"`
	Limit   int               `json:"limit,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
	Filters map[string]string `json:"filters,omitempty" jsonschema:"metadata equality filters, e.g. {\"specialty\": \"cardiology\"}"`
	UserID  string            `json:"user_id,omitempty" jsonschema:"only search documents uploaded by this user"`
}

// SearchOutput is the output schema for the search_documents tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single ranked chunk.
type SearchResultOutput struct {
	ChunkID        string  `json:"chunk_id"`
	DocID          string  `json:"doc_id"`
	Title          string  `json:"title"`
	Section        string  `json:"section"`
	Page           int     `json:"page"`
	Specialty      string  `json:"specialty"`
	Year           int     `json:"year"`
	Text           string  `json:"text"`
	Distance       float64 `json:"distance"`
	RelevanceScore int     `json:"relevance_score"`
}

// UserInput selects an optional uploader.
type UserInput struct {
	UserID string `json:"user_id,omitempty" jsonschema:"restrict to documents uploaded by this user"`
}

// StatsOutput is the output schema for the collection_stats tool.
type StatsOutput struct {
	TotalChunks int                         `json:"total_chunks"`
	UniqueDocs  int                         `json:"unique_docs"`
	ByUser      map[string]domain.UserStats `json:"by_user,omitempty"`
}

// ListDocumentsInput is the input schema for the list_user_documents tool.
type ListDocumentsInput struct {
	UserID string `json:"user_id" jsonschema:"the uploader whose documents to list"`
}

// ListDocumentsOutput is the output schema for the list_user_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises one document.
type DocumentOutput struct {
	DocID      string `json:"doc_id"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Specialty  string `json:"specialty"`
	Year       int    `json:"year"`
	UploadDate string `json:"upload_date"`
	UploadedBy string `json:"uploaded_by"`
	Chunks     int    `json:"chunks"`
}

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	DocID string `json:"doc_id" jsonschema:"the document to delete"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	DocID   string `json:"doc_id"`
	Deleted bool   `json:"deleted"`
}

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	Path      string `json:"path" jsonschema:"local path of a .pdf or .pptx file"`
	Title     string `json:"title,omitempty" jsonschema:"document title (default: extracted from the file)"`
	Specialty string `json:"specialty,omitempty" jsonschema:"medical specialty (default: general)"`
	Year      int    `json:"year,omitempty" jsonschema:"publication year (default: current year)"`
	Type      string `json:"type,omitempty" jsonschema:"guideline, textbook, paper, notes or presentation"`
	UserID    string `json:"user_id,omitempty" jsonschema:"uploader identity (default: system)"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	DocID  string `json:"doc_id"`
	Title  string `json:"title"`
	Chunks int    `json:"chunks"`
	Tokens int    `json:"tokens"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Search the medical document collection and return ranked chunks with a 2-10 relevance score",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "collection_stats",
		Description: "Count indexed chunks and documents, overall or for one user",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_user_documents",
		Description: "List the documents a user has uploaded",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Delete every chunk of a document",
	}, s.handleDelete)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest_document",
			Description: "Extract, chunk, embed and index a local PDF or PowerPoint file",
		}, s.handleIngest)
	}
}

// handleSearch handles the search_documents tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Limit:   input.Limit,
		Filters: domain.Filter(input.Filters),
		UserID:  input.UserID,
	}
	results := s.ports.Retrieval.Search(ctx, input.Query, opts)

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		m := results[i].Metadata
		output.Results[i] = SearchResultOutput{
			ChunkID:        results[i].ChunkID,
			DocID:          m.DocID,
			Title:          m.Title,
			Section:        m.Section,
			Page:           m.Page,
			Specialty:      m.Specialty,
			Year:           m.Year,
			Text:           results[i].Text,
			Distance:       results[i].Distance,
			RelevanceScore: results[i].RelevanceScore,
		}
	}

	return nil, output, nil
}

// handleStats handles the collection_stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UserInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Retrieval.GetCollectionStats(ctx, input.UserID)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, StatsOutput{
		TotalChunks: stats.TotalChunks,
		UniqueDocs:  stats.UniqueDocs,
		ByUser:      stats.ByUser,
	}, nil
}

// handleListDocuments handles the list_user_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Retrieval.GetUserDocuments(ctx, input.UserID)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = toDocumentOutput(docs[i])
	}
	return nil, output, nil
}

// handleDelete handles the delete_document tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	deleted, err := s.ports.Retrieval.DeleteDocument(ctx, input.DocID)
	if err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{DocID: input.DocID, Deleted: deleted}, nil
}

// handleIngest handles the ingest_document tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, errors.New("ingestion is not enabled on this server")
	}

	overrides := domain.DocumentMetadata{
		Title:     input.Title,
		Specialty: input.Specialty,
		Year:      input.Year,
		Type:      input.Type,
	}
	result, err := s.ports.Ingest.IngestFile(ctx, input.Path, overrides, input.UserID)
	if err != nil {
		return nil, IngestOutput{}, fmt.Errorf("ingesting %s: %w", input.Path, err)
	}

	return nil, IngestOutput{
		DocID:  result.DocID,
		Title:  result.Title,
		Chunks: result.Chunks,
		Tokens: result.Tokens,
	}, nil
}

func toDocumentOutput(d domain.DocumentSummary) DocumentOutput {
	return DocumentOutput{
		DocID:      d.DocID,
		Title:      d.Title,
		Type:       d.Type,
		Specialty:  d.Specialty,
		Year:       d.Year,
		UploadDate: domain.FormatUploadDate(d.UploadDate),
		UploadedBy: d.UploadedBy,
		Chunks:     d.Chunks,
	}
}
