package pdf

import (
	"strings"

	"github.com/custodia-labs/docia/internal/normalisers/text"
)

// FallbackTitle is used when neither metadata nor page text yields a title.
const FallbackTitle = "Untitled document"

// placeholderTitles are metadata titles that carry no information.
var placeholderTitles = []string{"untitled", "sin título", "documento"}

// Title heuristics for the first page.
const (
	titleScanLines  = 5
	titleMinRunes   = 10
	titleMaxRunes   = 150
	titleTruncRunes = 100
)

// extractTitle picks a title from the metadata title or the first page.
func extractTitle(metadataTitle, firstPage string) string {
	if t := strings.TrimSpace(metadataTitle); t != "" && !isPlaceholder(t) {
		return t
	}

	lines := text.Lines(firstPage)
	if len(lines) == 0 {
		return FallbackTitle
	}

	scan := lines
	if len(scan) > titleScanLines {
		scan = scan[:titleScanLines]
	}
	for _, line := range scan {
		n := text.RuneLen(line)
		if n > titleMinRunes && n < titleMaxRunes && !strings.HasSuffix(line, ".") {
			return line
		}
	}

	return text.Truncate(lines[0], titleTruncRunes)
}

func isPlaceholder(title string) bool {
	lower := strings.ToLower(title)
	for _, p := range placeholderTitles {
		if lower == p {
			return true
		}
	}
	return false
}
