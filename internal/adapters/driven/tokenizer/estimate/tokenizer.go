// Package estimate provides a dependency-free token estimate of roughly
// four characters per token.
package estimate

import (
	"unicode/utf8"

	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// CharsPerToken is the approximation for token estimation.
const CharsPerToken = 4

// Tokenizer estimates token counts from rune length.
type Tokenizer struct{}

// New creates an estimating tokenizer.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Count returns ceil(runes / CharsPerToken).
func (t *Tokenizer) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Name identifies the estimate.
func (t *Tokenizer) Name() string {
	return "estimate"
}
