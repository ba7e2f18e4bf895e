package pdf

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// document is the subset of a parsed PDF the extractor needs.
type document interface {
	NumPages() int
	PageText(n int) (string, error)
	MetadataTitle() string
	Close() error
}

// opener opens a PDF file for reading.
type opener func(path string) (document, error)

// openFile opens a PDF with ledongthuc/pdf.
func openFile(path string) (document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	r, err := pdf.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &ledongthucDoc{file: f, reader: r}, nil
}

type ledongthucDoc struct {
	file   *os.File
	reader *pdf.Reader
}

func (d *ledongthucDoc) NumPages() int {
	return d.reader.NumPage()
}

func (d *ledongthucDoc) MetadataTitle() string {
	info := d.reader.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(info.Key("Title").Text())
}

// PageText returns page n (1-based) as lines. Rows further apart than
// usual are separated by a blank line so paragraphs survive extraction.
//
// Rows are rebuilt from the positioned glyphs of Page.Content. The
// library's own row walker places text shown through Tm and TJ at the
// origin, which collapses LaTeX-style pages into one unspaced line.
func (d *ledongthucDoc) PageText(n int) (text string, err error) {
	page := d.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, r)
		}
	}()

	rows := groupRows(page.Content().Text)
	lines := make([]textLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, textLine{y: row.y, text: joinRow(row.glyphs)})
	}
	return layoutLines(lines), nil
}

type glyphRow struct {
	y      float64
	glyphs pdf.TextHorizontal
}

// rowTolerance is the share of the font size two baselines may differ by
// and still belong to one row.
const rowTolerance = 0.5

// groupRows clusters glyphs by baseline, top of the page first. The line
// breaks the library emits after each TJ array are dropped; rows carry
// their own breaks.
func groupRows(glyphs []pdf.Text) []glyphRow {
	sorted := make([]pdf.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if strings.Trim(g.S, "\r\n") != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows []glyphRow
	for _, g := range sorted {
		if n := len(rows); n > 0 && math.Abs(rows[n-1].y-g.Y) <= tolerance(g.FontSize) {
			rows[n-1].glyphs = append(rows[n-1].glyphs, g)
			continue
		}
		rows = append(rows, glyphRow{y: g.Y, glyphs: pdf.TextHorizontal{g}})
	}
	kept := rows[:0]
	for _, r := range rows {
		if strings.TrimSpace(joinRow(r.glyphs)) != "" {
			kept = append(kept, r)
		}
	}
	return kept
}

func tolerance(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1
	}
	return rowTolerance * fontSize
}

func (d *ledongthucDoc) Close() error {
	return d.file.Close()
}

// joinRow concatenates the glyph runs of one row, inserting a space where
// the horizontal gap suggests a word break.
func joinRow(texts pdf.TextHorizontal) string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	var prevEnd float64
	for i, t := range sorted {
		if i > 0 {
			gap := t.X - prevEnd
			if gap > 0.2*t.FontSize && !strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return b.String()
}

type textLine struct {
	y    float64
	text string
}

// paragraphGapFactor is how much larger than the median line gap a gap
// must be to start a new paragraph.
const paragraphGapFactor = 1.5

// layoutLines joins rows top to bottom, inserting blank lines at
// paragraph-sized vertical gaps.
func layoutLines(lines []textLine) string {
	if len(lines) == 0 {
		return ""
	}
	gaps := make([]float64, 0, len(lines))
	for i := 1; i < len(lines); i++ {
		gaps = append(gaps, math.Abs(lines[i-1].y-lines[i].y))
	}
	median := medianOf(gaps)

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
			if median > 0 && gaps[i-1] > paragraphGapFactor*median {
				b.WriteByte('\n')
			}
		}
		b.WriteString(l.text)
	}
	return b.String()
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
