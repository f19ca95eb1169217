package prompt

import (
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/rivo/uniseg"
)

// This file holds the Unicode-aware cursor arithmetic used by the buffer
// embedded in screen (component A of the design: the buffer and its render
// cache are fused into a single type, following the teacher's screen.go
// layout). Grapheme cluster boundaries are computed with uniseg; word
// boundaries default to UAX#29 word segmentation and fall back to the
// teacher's break-character scan when a non-default word-break set is
// configured, since UAX#29 segmentation cannot be parameterized by an
// arbitrary set of break characters.

const defaultWordBreakCharacters = " \t\n"

// nextGraphemeEnd returns the position immediately after the grapheme
// cluster that starts at pos, or pos unchanged if pos is at or past the end.
func nextGraphemeEnd(text []rune, pos int) int {
	if pos >= len(text) {
		return pos
	}
	s := string(text[pos:])
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return pos + len([]rune(cluster))
}

// prevGraphemeStart returns the start position of the grapheme cluster
// immediately before pos, or 0 if pos is at or before the beginning.
func prevGraphemeStart(text []rune, pos int) int {
	if pos <= 0 {
		return 0
	}
	s := string(text[:pos])
	state := -1
	rest := s
	lastStart := 0
	offset := 0
	for len(rest) > 0 {
		cluster, remainder, _, newState := uniseg.FirstGraphemeClusterInString(rest, state)
		lastStart = offset
		offset += len([]rune(cluster))
		rest = remainder
		state = newState
	}
	return lastStart
}

// isWordBreakRune reports whether r is a member of the configured word-break
// character set.
func isWordBreakRune(r rune, breakChars string) bool {
	for _, b := range breakChars {
		if r == b {
			return true
		}
	}
	return false
}

// nextWordEnd returns the position of the end of the next word after pos,
// honoring breakChars. When breakChars is the default (whitespace only),
// word boundaries are computed with UAX#29 word segmentation so that
// punctuation runs, CJK text, and combining sequences behave the way a
// modern Unicode-aware editor should; a custom break set falls back to a
// simple break/non-break scan, matching the teacher's original algorithm.
func nextWordEnd(text []rune, pos int, breakChars string) int {
	if breakChars != defaultWordBreakCharacters {
		return scanNextWordEnd(text, pos, breakChars)
	}
	for _, w := range uax29Words(text) {
		if w.end > pos {
			return w.end
		}
	}
	return len(text)
}

// prevWordStart returns the position of the start of the previous word
// before pos, honoring breakChars (see nextWordEnd).
func prevWordStart(text []rune, pos int, breakChars string) int {
	if breakChars != defaultWordBreakCharacters {
		return scanPrevWordStart(text, pos, breakChars)
	}
	start := 0
	for _, w := range uax29Words(text) {
		if w.start >= pos {
			break
		}
		start = w.start
	}
	return start
}

// scanNextWordEnd is the teacher's original break-character scan, used when
// a non-default word-break set is configured.
func scanNextWordEnd(text []rune, pos int, breakChars string) int {
	for pos < len(text) {
		if !isWordBreakRune(text[pos], breakChars) {
			break
		}
		pos++
	}
	for pos < len(text) {
		if isWordBreakRune(text[pos], breakChars) {
			break
		}
		pos++
	}
	return pos
}

// scanPrevWordStart is the teacher's original break-character scan, used
// when a non-default word-break set is configured.
func scanPrevWordStart(text []rune, pos int, breakChars string) int {
	pos--
	for pos > 0 {
		if !isWordBreakRune(text[pos], breakChars) {
			break
		}
		pos--
	}
	for pos > 0 {
		if isWordBreakRune(text[pos-1], breakChars) {
			break
		}
		pos--
	}
	if pos < 0 {
		return 0
	}
	return pos
}

// wordSpan is a single UAX#29 segment, in code-point offsets, that counts as
// a "word" for editing purposes (i.e. it contains a letter or digit).
type wordSpan struct {
	start, end int
}

// uax29Words returns, in ascending order, the word segments of text.
// Whitespace-only and punctuation-only segments are skipped but still
// advance the running code-point offset.
func uax29Words(text []rune) []wordSpan {
	s := string(text)
	seg := words.NewSegmenter([]byte(s))
	var spans []wordSpan
	pos := 0
	for seg.Next() {
		tok := seg.Bytes()
		n := len([]rune(string(tok)))
		if containsWordRune(tok) {
			spans = append(spans, wordSpan{start: pos, end: pos + n})
		}
		pos += n
	}
	return spans
}

func containsWordRune(b []byte) bool {
	for _, r := range string(b) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
