// Package textsplit provides the chunking capability used by the knowledge
// cache: bounded, overlapping segments cut preferentially at paragraph, line,
// and sentence boundaries (Latin and CJK punctuation) before falling back to
// raw character windows.
package textsplit

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the target chunk length in runes.
	DefaultChunkSize = 600

	// DefaultChunkOverlap is the number of trailing runes carried into the
	// next chunk.
	DefaultChunkOverlap = 120
)

// defaultSeparators is the boundary preference order: paragraph, line,
// sentence punctuation in Latin and CJK forms, word, raw characters.
var defaultSeparators = []string{"\n\n", "\n", ".", "。", "！", "?", " ", ""}

// Splitter cuts text into ordered, possibly overlapping segments.
type Splitter interface {
	Split(text string) []string
}

// Recursive is a recursive character splitter. It picks the coarsest
// separator present in the text, merges the resulting parts into chunks of at
// most ChunkSize runes with ChunkOverlap runes of overlap, and recurses with
// finer separators on any part that is itself oversized.
type Recursive struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewRecursive creates a Recursive splitter. Non-positive size or overlap
// select the defaults; overlap is clamped below the chunk size.
func NewRecursive(chunkSize, overlap int) *Recursive {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Recursive{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split cuts text into chunks. Blank input yields nil.
func (r *Recursive) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return r.split(text, r.separators)
}

func (r *Recursive) split(text string, separators []string) []string {
	if utf8.RuneCountInString(text) <= r.chunkSize {
		return []string{text}
	}

	sep, remaining := pickSeparator(text, separators)
	if sep == "" {
		return r.windows(text)
	}

	parts := strings.SplitAfter(text, sep)
	return r.merge(parts, remaining)
}

// pickSeparator returns the first separator present in text and the finer
// separators left for recursion. The empty separator always matches.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// merge accumulates parts into chunks no longer than chunkSize runes,
// carrying an overlap tail between consecutive chunks. Parts that alone
// exceed the chunk size are re-split with the remaining separators.
func (r *Recursive) merge(parts []string, remaining []string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	emit := func(keepOverlap bool) {
		if currentLen == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(current, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if !keepOverlap {
			current = nil
			currentLen = 0
			return
		}
		var tail []string
		tailLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			l := utf8.RuneCountInString(current[i])
			if tailLen+l > r.overlap {
				break
			}
			tail = append([]string{current[i]}, tail...)
			tailLen += l
		}
		current = tail
		currentLen = tailLen
	}

	for _, part := range parts {
		partLen := utf8.RuneCountInString(part)
		if partLen == 0 {
			continue
		}

		if partLen > r.chunkSize {
			emit(false)
			chunks = append(chunks, r.split(part, remaining)...)
			continue
		}

		if currentLen+partLen > r.chunkSize {
			emit(true)
		}
		current = append(current, part)
		currentLen += partLen
	}
	emit(false)

	return chunks
}

// windows hard-cuts text into chunkSize rune windows advancing by
// chunkSize-overlap runes. Last resort when no separator matches.
func (r *Recursive) windows(text string) []string {
	runes := []rune(text)
	step := r.chunkSize - r.overlap
	if step <= 0 {
		step = r.chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + r.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
