// Package mcp provides an MCP (Model Context Protocol) server adapter for Docia.
// It lets AI assistants search the medical document collection and manage
// the documents in it.
package mcp

import "errors"

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
