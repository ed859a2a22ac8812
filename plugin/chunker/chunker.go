// Package chunker splits raw document text into overlapping fixed-size
// windows for indexing.
package chunker

import (
	"strings"

	"github.com/pkg/errors"
)

// DefaultSize is the default window width in runes.
const DefaultSize = 1000

// DefaultOverlap is the default number of runes shared between
// consecutive windows.
const DefaultOverlap = 200

// Split walks text with a sliding window of width size, advancing the
// start by size-overlap each step. Windows that are empty or
// whitespace-only are skipped; kept windows are emitted verbatim so the
// original text can be reconstructed from them.
//
// overlap must be strictly smaller than size, otherwise the walk would
// never advance.
func Split(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, errors.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, errors.Errorf("chunker: overlap must be in [0, size), got overlap=%d size=%d", overlap, size)
	}

	runes := []rune(text)
	step := size - overlap

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, window)
		}
	}
	return chunks, nil
}
