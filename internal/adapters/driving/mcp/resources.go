package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for Docia resources.
	uriScheme = "docia://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for collection totals.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Chunk and document counts for the whole collection",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	// Template for a user's documents.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "users/{userId}/documents",
		Name:        "user-documents",
		Description: "Documents uploaded by a specific user",
		MIMEType:    "application/json",
	}, s.handleUserDocumentsResource)
}

// handleStatsResource returns the collection statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Retrieval.GetCollectionStats(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

// handleUserDocumentsResource returns the documents of one uploader.
func (s *Server) handleUserDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract userId from URI: docia://users/{userId}/documents
	userID := extractUserID(req.Params.URI)
	if userID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docs, err := s.ports.Retrieval.GetUserDocuments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]DocumentOutput, len(docs))
	for i := range docs {
		infos[i] = toDocumentOutput(docs[i])
	}
	return jsonResource(req.Params.URI, infos)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractUserID extracts the user ID from a URI like docia://users/{userId}/documents.
func extractUserID(uri string) string {
	const prefix = uriScheme + "users/"
	const suffix = "/documents"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
