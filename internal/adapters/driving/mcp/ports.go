package mcp

import (
	"github.com/custodia-labs/docia/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval answers searches and manages indexed documents.
	Retrieval driving.RetrievalService

	// Ingest indexes local files. Optional; the ingest tool is only
	// registered when it is set.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
