package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/docia/internal/normalisers/text"
)

// wordTokenizer counts whitespace-separated words, which keeps budgets in
// tests easy to reason about.
type wordTokenizer struct{}

func (wordTokenizer) Count(s string) int { return len(strings.Fields(s)) }
func (wordTokenizer) Name() string       { return "words" }

func words(n int, word string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = word
	}
	return strings.Join(parts, " ")
}

func newWordProcessor(opts ...Option) *Processor {
	return New(append([]Option{WithTokenizer(wordTokenizer{})}, opts...)...)
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.tokenizer == nil {
			t.Error("expected a default tokenizer")
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithTokenizer(nil))
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.chunkSize)
		}
		if p.tokenizer == nil {
			t.Error("nil tokenizer should be ignored")
		}
	})
}

func TestProcessor_Name(t *testing.T) {
	p := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestChunk_EmptyContent(t *testing.T) {
	p := newWordProcessor()
	if chunks := p.Chunk("  \n\n ", 1, ""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestChunk_UnderBudget(t *testing.T) {
	p := newWordProcessor()
	content := "Management of stable angina\n\n" + words(200, "beta")

	chunks := p.Chunk(content, 1, "")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != content {
		t.Errorf("chunk text should equal input")
	}
	if c.Section != "Page 1" {
		t.Errorf("expected section 'Page 1', got %q", c.Section)
	}
	if c.Page != 1 {
		t.Errorf("expected page 1, got %d", c.Page)
	}
	if c.TokenCount != 204 {
		t.Errorf("expected 204 tokens, got %d", c.TokenCount)
	}
}

func TestChunk_CustomLabel(t *testing.T) {
	p := newWordProcessor()
	chunks := p.Chunk("short slide text", 4, "Slide 4")
	if len(chunks) != 1 || chunks[0].Section != "Slide 4" {
		t.Fatalf("expected one chunk labelled 'Slide 4', got %+v", chunks)
	}
}

func TestChunk_FiveEqualParagraphs(t *testing.T) {
	p := newWordProcessor()
	paras := make([]string, 5)
	for i := range paras {
		paras[i] = words(300, fmt.Sprintf("w%d", i))
	}
	content := strings.Join(paras, "\n\n")

	chunks := p.Chunk(content, 2, "")
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.TokenCount > DefaultChunkSize {
			t.Errorf("chunk %d has %d tokens", i, c.TokenCount)
		}
		if c.Page != 2 {
			t.Errorf("chunk %d page = %d", i, c.Page)
		}
		if c.Section != "Page 2" {
			t.Errorf("chunk %d section = %q", i, c.Section)
		}
	}
}

func TestChunk_ReconstructsContent(t *testing.T) {
	p := newWordProcessor(WithChunkSize(50))
	paras := []string{
		"Heart failure",
		words(20, "a") + ".",
		words(25, "b") + ".",
		"Treatment",
		words(30, "c") + ".",
		words(10, "d") + ".",
	}
	content := strings.Join(paras, "\n\n")

	chunks := p.Chunk(content, 1, "")
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	rebuilt := strings.Join(texts, "\n\n")
	if rebuilt != content {
		t.Errorf("rebuilt content differs:\n%q\n%q", rebuilt, content)
	}
	if strings.Join(text.Paragraphs(rebuilt), "|") != strings.Join(paras, "|") {
		t.Error("paragraphs lost or duplicated")
	}
}

func TestChunk_OversizeParagraph(t *testing.T) {
	p := newWordProcessor(WithChunkSize(100))
	big := words(250, "x") + "."
	content := words(40, "a") + ".\n\n" + big + "\n\n" + words(40, "b") + "."

	chunks := p.Chunk(content, 3, "")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[1].Text != big {
		t.Error("oversize paragraph should be emitted whole")
	}
	if chunks[1].TokenCount != 250 {
		t.Errorf("expected 250 tokens, got %d", chunks[1].TokenCount)
	}
	for _, c := range []int{0, 2} {
		if chunks[c].TokenCount >= 100 {
			t.Errorf("chunk %d should be under budget, got %d", c, chunks[c].TokenCount)
		}
	}
}

func TestChunk_SectionLabels(t *testing.T) {
	p := newWordProcessor(WithChunkSize(50))
	content := strings.Join([]string{
		"Diagnosis",
		words(45, "a") + ".",
		"Treatment options",
		words(45, "b") + ".",
		"This short sentence ends with a period.",
		words(45, "c") + ".",
	}, "\n\n")

	chunks := p.Chunk(content, 7, "")

	var sections []string
	for _, c := range chunks {
		sections = append(sections, c.Section)
	}
	// "Treatment options" is absorbed into the first buffer, so it labels the
	// chunks that follow. The period-terminated sentence never becomes a label.
	want := []string{"Diagnosis", "Treatment options", "Treatment options", "Treatment options"}
	if strings.Join(sections, "|") != strings.Join(want, "|") {
		t.Errorf("sections = %v, want %v", sections, want)
	}
}

func TestChunk_FirstParagraphTooLongForHeading(t *testing.T) {
	p := newWordProcessor(WithChunkSize(30))
	long := strings.Repeat("y", 120)
	content := long + "\n\n" + words(40, "z") + "."

	chunks := p.Chunk(content, 5, "")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	if chunks[0].Section != "Page 5" {
		t.Errorf("expected fallback label, got %q", chunks[0].Section)
	}
}

func TestIsHeading(t *testing.T) {
	tests := []struct {
		para string
		want bool
	}{
		{"Introduction", true},
		{"Dosage is 5 mg.", false},
		{strings.Repeat("h", 99), true},
		{strings.Repeat("h", 100), false},
	}
	for _, tt := range tests {
		if got := isHeading(tt.para); got != tt.want {
			t.Errorf("isHeading(%.20q) = %v, want %v", tt.para, got, tt.want)
		}
	}
}
