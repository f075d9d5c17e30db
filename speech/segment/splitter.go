// Package segment provides sentence segmentation for the read-aloud
// engine: a boundary-scanning splitter and a background worker that keeps
// large documents off the caller's goroutine.
package segment

import (
	"strings"
	"unicode"

	"github.com/Christian-Gennari/local-digital-library-sub001/speech"
)

const (
	// minSentenceLength rejects near-empty fragments.
	minSentenceLength = 3
	// shortSentenceLength is the span under which an abbreviation before a
	// boundary vetoes the split ("Dr. Smith" stays whole).
	shortSentenceLength = 20
)

// Splitter finds sentence boundaries in plain text: runs of [.!?] followed
// by whitespace, guarded against abbreviations, decimal numbers, initials,
// and ellipses.
type Splitter struct {
	abbreviations map[string]struct{}
}

// NewSplitter creates a splitter with the built-in abbreviation set.
func NewSplitter() *Splitter {
	return &Splitter{abbreviations: abbreviationSet()}
}

// Split segments text into sentences for one structural unit, assigning
// order-encoding ids and character spans into the original text.
func (sp *Splitter) Split(unitKey, text string) []speech.Sentence {
	runes := []rune(text)
	var sentences []speech.Sentence

	// Character spans are rune offsets into the unit text, trimmed of
	// surrounding whitespace.
	emit := func(start, end int) {
		for start < end && unicode.IsSpace(runes[start]) {
			start++
		}
		for end > start && unicode.IsSpace(runes[end-1]) {
			end--
		}
		if end-start < minSentenceLength {
			return
		}
		sentences = append(sentences, speech.Sentence{
			ID:        speech.SentenceID(unitKey, len(sentences)),
			Text:      string(runes[start:end]),
			CharStart: start,
			CharEnd:   end,
		})
	}

	lastStart := 0
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}

		punctEnd := i + 1
		for punctEnd < len(runes) && (runes[punctEnd] == '.' || runes[punctEnd] == '!' || runes[punctEnd] == '?') {
			punctEnd++
		}

		// A boundary needs trailing whitespace or end of text.
		if punctEnd < len(runes) && !unicode.IsSpace(runes[punctEnd]) {
			i = punctEnd - 1
			continue
		}
		if !sp.acceptBoundary(runes, lastStart, i) {
			i = punctEnd - 1
			continue
		}

		emit(lastStart, punctEnd)
		for punctEnd < len(runes) && unicode.IsSpace(runes[punctEnd]) {
			punctEnd++
		}
		lastStart = punctEnd
		i = punctEnd - 1
	}

	if lastStart < len(runes) {
		emit(lastStart, len(runes))
	}
	return sentences
}

// acceptBoundary decides whether the terminator at pos really ends a
// sentence that began at start.
func (sp *Splitter) acceptBoundary(runes []rune, start, pos int) bool {
	if runes[pos] != '.' {
		return true
	}

	// Ellipsis is not a boundary.
	if pos+2 < len(runes) && runes[pos+1] == '.' && runes[pos+2] == '.' {
		return false
	}

	// Decimal numbers: "3.14" never splits; a digit directly before the
	// dot with a digit after is a fraction, not a terminator.
	if pos > 0 && pos+1 < len(runes) && unicode.IsDigit(runes[pos-1]) && unicode.IsDigit(runes[pos+1]) {
		return false
	}

	word := precedingWord(runes, pos)

	// Initials like "J." are abbreviations regardless of sentence length.
	if len(word) == 1 && unicode.IsUpper([]rune(word)[0]) {
		return false
	}

	// A known abbreviation only vetoes the split when the candidate
	// sentence is suspiciously short.
	if _, ok := sp.abbreviations[strings.ToLower(word)]; ok {
		if pos-start < shortSentenceLength {
			return false
		}
	}
	return true
}

// precedingWord returns the word immediately before the terminator at pos,
// stripped of surrounding punctuation.
func precedingWord(runes []rune, pos int) string {
	end := pos
	start := end - 1
	for start >= 0 && !unicode.IsSpace(runes[start]) {
		start--
	}
	word := string(runes[start+1 : end])
	return strings.Trim(word, `"'()[]{},;:`)
}

func abbreviationSet() map[string]struct{} {
	words := []string{
		// Titles and academic suffixes.
		"mr", "mrs", "ms", "dr", "prof", "sr", "jr", "st", "rev", "hon",
		"ph.d", "m.d", "b.a", "m.a", "b.s", "m.s", "esq",
		// Latin and citation shorthand.
		"i.e", "e.g", "etc", "vs", "cf", "al", "ca", "op", "cit",
		"vol", "vols", "no", "nos", "pg", "pp", "ed", "eds", "fig",
		// Corporate.
		"inc", "ltd", "co", "corp", "llc", "dept", "div", "est",
		// Months and days.
		"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept",
		"oct", "nov", "dec", "mon", "tue", "wed", "thu", "fri", "sat", "sun",
		// Units and addresses.
		"ft", "lb", "lbs", "oz", "kg", "km", "cm", "mm", "mi", "yd",
		"hr", "hrs", "min", "mins", "sec", "secs",
		"ave", "blvd", "rd", "ln", "ct",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
