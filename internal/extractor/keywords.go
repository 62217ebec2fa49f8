package extractor

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/byteowlz/lstcnt/internal/numeric"
)

// ExtractByKeywords keeps the lines of text that mention any keyword and
// returns the largest number found in them with at least MinDigits digits.
// Matching uses Unicode case folding on both sides.
func (e *Engine) ExtractByKeywords(text string, keywords []string) Result {
	// A Caser carries state and must not be shared between goroutines.
	fold := cases.Fold()

	folded := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			folded = append(folded, fold.String(kw))
		}
	}
	if len(folded) == 0 {
		return NotFound()
	}

	var retained []string
	for _, block := range strings.Split(text, "\n") {
		lower := fold.String(block)
		for _, kw := range folded {
			if strings.Contains(lower, kw) {
				retained = append(retained, block)
				break
			}
		}
	}

	var (
		best  int64
		found bool
	)
	for _, tok := range numeric.FindAll(strings.Join(retained, "\n")) {
		if tok.Digits < e.minDigits {
			continue
		}
		if !found || tok.Value > best {
			best, found = tok.Value, true
		}
	}

	if !found {
		return NotFound()
	}
	return Count(best)
}
