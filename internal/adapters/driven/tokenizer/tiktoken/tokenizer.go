// Package tiktoken provides a BPE tokenizer adapter backed by tiktoken-go.
// Encodings are loaded from the embedded offline loader, so no network
// access is needed at runtime.
package tiktoken

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/custodia-labs/docia/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// DefaultEncoding is compatible with current GPT, Claude and Gemini token
// accounting closely enough for chunk budgeting.
const DefaultEncoding = "cl100k_base"

var loaderOnce sync.Once

// Tokenizer counts BPE tokens for one encoding.
type Tokenizer struct {
	encoding string
	tke      *tiktoken.Tiktoken
}

// New loads the named encoding. An empty name selects DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %s: %w", encoding, err)
	}
	return &Tokenizer{encoding: encoding, tke: tke}, nil
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.tke.Encode(text, nil, nil))
}

// Name returns the encoding name.
func (t *Tokenizer) Name() string {
	return t.encoding
}
