package renderer

import (
	"strings"
	"unicode"

	"github.com/muesli/reflow/wordwrap"
)

// wrappedText is display text after word wrapping, with the rune offset
// of each line's start so renderer coordinates map back to offsets.
type wrappedText struct {
	text       string
	lines      []string
	lineStarts []int
	runes      []rune
}

// wrapText wraps raw text at width and records per-line rune offsets.
// Offsets index into the wrapped text, which is what callers extract and
// split.
func wrapText(raw string, width int) wrappedText {
	if width < 1 {
		width = 80
	}
	text := wordwrap.String(raw, width)
	lines := strings.Split(text, "\n")

	starts := make([]int, len(lines))
	off := 0
	for i, line := range lines {
		starts[i] = off
		off += len([]rune(line)) + 1
	}
	return wrappedText{
		text:       text,
		lines:      lines,
		lineStarts: starts,
		runes:      []rune(text),
	}
}

// lineFor returns the index of the line containing the rune offset.
func (w wrappedText) lineFor(offset int) int {
	if offset < 0 {
		return 0
	}
	for i := len(w.lineStarts) - 1; i >= 0; i-- {
		if w.lineStarts[i] <= offset {
			return i
		}
	}
	return 0
}

// offsetAt converts a line index and column into a rune offset, clamping
// the column to the line's length.
func (w wrappedText) offsetAt(line, col int) (int, bool) {
	if line < 0 || line >= len(w.lines) {
		return 0, false
	}
	n := len([]rune(w.lines[line]))
	if col < 0 {
		col = 0
	}
	if col > n {
		col = n
	}
	return w.lineStarts[line] + col, true
}

// wordAt returns the whitespace-delimited word containing the rune
// offset, or an empty string when the offset sits on whitespace.
func (w wrappedText) wordAt(offset int) string {
	if offset < 0 || offset >= len(w.runes) || unicode.IsSpace(w.runes[offset]) {
		return ""
	}
	start := offset
	for start > 0 && !unicode.IsSpace(w.runes[start-1]) {
		start--
	}
	end := offset
	for end < len(w.runes) && !unicode.IsSpace(w.runes[end]) {
		end++
	}
	return string(w.runes[start:end])
}
