// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on domain and the port interfaces; the
// embedding service, vector store and extractors are injected.
package services
