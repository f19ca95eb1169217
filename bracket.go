package prompt

// bracketPairs maps each opening delimiter to its closing delimiter.
var bracketPairs = map[rune]rune{
	'(': ')',
	'[': ']',
	'{': '}',
}

var bracketClosers = func() map[rune]rune {
	m := make(map[rune]rune, len(bracketPairs))
	for open, closeRune := range bracketPairs {
		m[closeRune] = open
	}
	return m
}()

const (
	bracketMatchColor = fgFuchsia
	bracketErrorColor = bgRed + attrBold + fgYellow
)

// bracket implements the bracket/quote-match engine: whenever the cursor
// sits on or just after a bracket character, it paints that bracket and its
// mate (if one can be found without crossing an unbalanced nesting level or
// an unescaped quoted run) in bracketMatchColor, or in bracketErrorColor if
// no balanced mate exists.
type bracket struct {
	active bool
}

// Update recomputes the bracket-match highlight for the current cursor
// position. It is called after every cursor move and buffer edit.
func (b *bracket) Update(s *state) {
	if b.active {
		s.screen.RemoveAttrsWithValue(bracketMatchColor)
		s.screen.RemoveAttrsWithValue(bracketErrorColor)
		b.active = false
	}

	text := s.screen.Text()
	pos := s.screen.Position()

	anchor, r, isOpen := findBracketAt(text, pos)
	if anchor < 0 {
		return
	}

	mate := -1
	if isOpen {
		mate = matchForward(text, anchor, r, bracketPairs[r])
	} else {
		mate = matchBackward(text, anchor, bracketClosers[r], r)
	}

	color := bracketMatchColor
	if mate < 0 {
		color = bracketErrorColor
	}
	s.screen.AddBufferSpan(anchor, anchor+1, color)
	if mate >= 0 {
		s.screen.AddBufferSpan(mate, mate+1, color)
	}
	b.active = true
}

// findBracketAt looks for a bracket character at pos, then at pos-1
// (covering both "cursor on the bracket" and "cursor just past it").
func findBracketAt(text []rune, pos int) (anchor int, r rune, isOpen bool) {
	if pos < len(text) {
		if _, ok := bracketPairs[text[pos]]; ok {
			return pos, text[pos], true
		}
		if _, ok := bracketClosers[text[pos]]; ok {
			return pos, text[pos], false
		}
	}
	if pos-1 >= 0 && pos-1 < len(text) {
		if _, ok := bracketPairs[text[pos-1]]; ok {
			return pos - 1, text[pos-1], true
		}
		if _, ok := bracketClosers[text[pos-1]]; ok {
			return pos - 1, text[pos-1], false
		}
	}
	return -1, 0, false
}

// matchForward scans forward from an opening delimiter at pos for its
// closing mate, skipping quoted runs and honoring nesting of the same
// delimiter pair.
func matchForward(text []rune, pos int, open, closeRune rune) int {
	depth := 0
	var quote rune
	for i := pos; i < len(text); i++ {
		r := text[i]
		if quote != 0 {
			if r == '\\' {
				i++
				continue
			}
			if r == quote {
				quote = 0
			}
			continue
		}
		switch {
		case r == '\'' || r == '"':
			quote = r
		case r == open:
			depth++
		case r == closeRune:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchBackward scans backward from a closing delimiter at pos for its
// opening mate, skipping quoted runs and honoring nesting.
func matchBackward(text []rune, pos int, open, closeRune rune) int {
	depth := 0
	var quote rune
	for i := pos; i >= 0; i-- {
		r := text[i]
		if quote != 0 {
			if i > 0 && text[i-1] == '\\' {
				i--
				continue
			}
			if r == quote {
				quote = 0
			}
			continue
		}
		switch {
		case r == '\'' || r == '"':
			quote = r
		case r == closeRune:
			depth++
		case r == open:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
