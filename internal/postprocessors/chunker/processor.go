// Package chunker provides a token-bounded, section-aware chunking processor.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docia/internal/adapters/driven/tokenizer/estimate"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/normalisers/text"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default token budget per chunk.
const DefaultChunkSize = 600

// HeadingMaxRunes is the length under which a paragraph may act as a
// section heading. Labels are truncated to this length.
const HeadingMaxRunes = 100

// Processor splits page text into chunks that stay under a token budget.
// Paragraphs are never split; a paragraph that alone exceeds the budget is
// emitted as one oversize chunk.
type Processor struct {
	chunkSize int
	tokenizer driven.Tokenizer
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk budget in tokens.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithTokenizer sets the tokenizer used for budgeting and token counts.
func WithTokenizer(t driven.Tokenizer) Option {
	return func(p *Processor) {
		if t != nil {
			p.tokenizer = t
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		tokenizer: estimate.New(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the token budget.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// PageLabel is the section label for a page with no detected heading.
func PageLabel(page int) string {
	return fmt.Sprintf("Page %d", page)
}

// Chunk splits one page of normalised text.
// An empty label defaults to PageLabel(page).
func (p *Processor) Chunk(content string, page int, label string) []domain.ChunkDraft {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if label == "" {
		label = PageLabel(page)
	}

	if n := p.tokenizer.Count(content); n < p.chunkSize {
		return []domain.ChunkDraft{{
			Text:       content,
			Page:       page,
			Section:    label,
			TokenCount: n,
		}}
	}

	paragraphs := text.Paragraphs(content)
	if len(paragraphs) == 0 {
		return nil
	}

	section := label
	if text.RuneLen(paragraphs[0]) < HeadingMaxRunes {
		section = text.Truncate(paragraphs[0], HeadingMaxRunes)
	}

	var (
		chunks     []domain.ChunkDraft
		buf        string
		bufSection = section
	)

	flush := func() {
		trimmed := strings.TrimSpace(buf)
		if trimmed == "" {
			return
		}
		chunks = append(chunks, domain.ChunkDraft{
			Text:       trimmed,
			Page:       page,
			Section:    bufSection,
			TokenCount: p.tokenizer.Count(trimmed),
		})
	}

	for i, para := range paragraphs {
		if i > 0 && isHeading(para) {
			section = text.Truncate(para, HeadingMaxRunes)
		}

		if buf == "" {
			buf = para
			bufSection = section
			continue
		}

		candidate := buf + "\n\n" + para
		if p.tokenizer.Count(candidate) < p.chunkSize {
			buf = candidate
			continue
		}

		flush()
		buf = para
		bufSection = section
	}
	flush()

	return chunks
}

// isHeading reports whether a paragraph looks like a section title: short
// and not terminated by a period.
func isHeading(para string) bool {
	return text.RuneLen(para) < HeadingMaxRunes && !strings.HasSuffix(para, ".")
}
