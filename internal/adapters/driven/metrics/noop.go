package metrics

import (
	"time"

	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// Ensure Noop implements the interface.
var _ driven.Observer = Noop{}

// Noop discards every event.
type Noop struct{}

// SearchCompleted does nothing.
func (Noop) SearchCompleted(time.Duration, int) {}

// SearchFailed does nothing.
func (Noop) SearchFailed(string) {}

// BatchWritten does nothing.
func (Noop) BatchWritten(int, error) {}

// DocumentIngested does nothing.
func (Noop) DocumentIngested(int) {}
