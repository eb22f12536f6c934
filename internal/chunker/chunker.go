// Package chunker splits transcript text into overlapping windows so each
// extraction call stays within a bounded context size while keeping
// cross-boundary continuity.
package chunker

const (
	DefaultSize    = 6000
	DefaultOverlap = 500
)

// Split cuts text into windows of at most size characters. Every chunk after
// the first starts overlap characters before the end of the previous one, and
// the final chunk ends exactly at the end of text. Text shorter than size
// yields a single chunk equal to the whole text. Overlap must be smaller than
// size or the window would never advance.
func Split(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
	}
	if text == "" {
		return nil
	}

	var out []string
	start := 0
	for start < len(text) {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[start:end])
		if end >= len(text) {
			break
		}
		start = end - overlap
	}
	return out
}
