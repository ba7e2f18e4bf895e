package domain

import (
	"strconv"
	"time"
)

// Defaults applied when the uploader supplies no value.
const (
	// SystemUploader is the uploaded_by sentinel for documents with no user.
	SystemUploader = "system"

	// DefaultSpecialty is used for doc_id generation and metadata when unset.
	DefaultSpecialty = "general"

	// DefaultDocumentType is used when neither the user nor the extractor
	// supplies a type.
	DefaultDocumentType = "guideline"

	// DefaultSection labels chunks that carry no section.
	DefaultSection = "No section"
)

// DocumentMetadata is the user-supplied or extracted description of a document.
type DocumentMetadata struct {
	Title     string `json:"title"`
	Specialty string `json:"specialty"`
	Year      int    `json:"year"`
	Type      string `json:"type"`
	PageCount int    `json:"page_count,omitempty"`
}

// RecordMetadata is the denormalised document and chunk metadata stored on
// every record.
type RecordMetadata struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Specialty  string    `json:"specialty"`
	Year       int       `json:"year"`
	Page       int       `json:"page"`
	Section    string    `json:"section"`
	TokenCount int       `json:"token_count"`
	UploadDate time.Time `json:"upload_date"`
	UploadedBy string    `json:"uploaded_by"`
}

// Field returns the string form of a metadata field, as used by filters.
// The second return value is false for unknown fields.
func (m RecordMetadata) Field(name string) (string, bool) {
	switch name {
	case FieldDocID:
		return m.DocID, true
	case FieldTitle:
		return m.Title, true
	case FieldType:
		return m.Type, true
	case FieldSpecialty:
		return m.Specialty, true
	case FieldYear:
		return strconv.Itoa(m.Year), true
	case FieldPage:
		return strconv.Itoa(m.Page), true
	case FieldSection:
		return m.Section, true
	case FieldTokenCount:
		return strconv.Itoa(m.TokenCount), true
	case FieldUploadDate:
		return FormatUploadDate(m.UploadDate), true
	case FieldUploadedBy:
		return m.UploadedBy, true
	default:
		return "", false
	}
}

// Record is the persisted unit of the vector store.
type Record struct {
	ID        string         `json:"id"`
	Embedding []float32      `json:"-"`
	Text      string         `json:"text"`
	Metadata  RecordMetadata `json:"metadata"`
}

// ScoredRecord is a record returned by a nearest-neighbour query.
type ScoredRecord struct {
	ID       string
	Text     string
	Distance float64
	Metadata RecordMetadata
}

// DocumentSummary describes one ingested document, derived from its records.
type DocumentSummary struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Specialty  string    `json:"specialty"`
	Year       int       `json:"year"`
	UploadDate time.Time `json:"upload_date"`
	UploadedBy string    `json:"uploaded_by"`
	Chunks     int       `json:"chunks"`
}

// IngestResult reports the outcome of ingesting one file.
type IngestResult struct {
	DocID  string `json:"doc_id"`
	Title  string `json:"title"`
	Path   string `json:"path"`
	Chunks int    `json:"chunks"`
	Tokens int    `json:"tokens"`
}

// UploadDateLayout is the ISO-8601 layout used for upload_date on the wire.
const UploadDateLayout = "2006-01-02T15:04:05.000000"

// FormatUploadDate renders an upload timestamp in UploadDateLayout.
func FormatUploadDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(UploadDateLayout)
}

// ParseUploadDate parses a timestamp written by FormatUploadDate.
// RFC 3339 values are accepted as well.
func ParseUploadDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(UploadDateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
