package prompt

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// CompletionFunc returns the list of completion candidates for the word
// delimited by [wordStart,wordEnd) within text. text is the full input
// buffer; wordStart/wordEnd are code-point offsets into it.
type CompletionFunc func(text []rune, wordStart, wordEnd int) []string

// HintFunc returns the list of hints to display after the cursor for the
// word delimited by [wordStart,wordEnd) within text, most relevant first.
// Only the first hint is shown unless the user scrolls with hint-next /
// hint-previous.
type HintFunc func(text []rune, wordStart, wordEnd int) []string

// HighlightFunc returns attribute spans for syntax highlighting text. A
// HighlightFunc configured with WithHighlighter is stored but not called by
// the edit loop, so input text is rendered without syntax highlighting.
type HighlightFunc func(text []rune) []attrInfo

// ModifyFunc rewrites the input text and cursor position after an edit. It
// fires once per render pass from the single-threaded edit loop and never
// reenters; implementations should be side-effect free with respect to
// prompt state.
type ModifyFunc func(text []rune, pos int) ([]rune, int)

// defaultCompletionCutoff is the number of candidates above which the broker
// asks "Display all N possibilities? (y or n)" before showing the full menu,
// used when no cutoff is configured (cutoff 0).
const defaultCompletionCutoff = 100

var completionCommands = map[command]commandFunc{
	cmdComplete: func(s *state, key rune) (bool, error) {
		return s.completion.Complete(s)
	},
	cmdHintNext: func(s *state, key rune) (bool, error) {
		return s.completion.ScrollHint(s, +1)
	},
	cmdHintPrevious: func(s *state, key rune) (bool, error) {
		return s.completion.ScrollHint(s, -1)
	},
}

// completion implements the hint/completion broker: Tab-triggered candidate
// completion with longest-common-prefix extension, a full candidate menu
// for ambiguous completions (gated by a y/n cutoff prompt above a
// configurable candidate count, and paginated with a --More-- pager above
// the terminal height), and inline "as you type" hints rendered after the
// cursor.
type completion struct {
	completer CompletionFunc
	hinter    HintFunc
	highlight HighlightFunc
	modify    ModifyFunc

	cutoff         int
	beepOnAmbiguous bool
	doubleTabToComplete bool

	// menu mode state.
	active     bool
	candidates []string
	selected   int
	wordStart  int
	wordEnd    int
	lastTabPos int

	// pager state, entered when the rendered menu rows exceed the terminal's
	// usable rows.
	paging     bool
	pageStart  int

	// cutoff gate state: waiting for a y/n answer before showing the menu.
	gating bool

	// hint scroll offset into the most recently computed hint list.
	hintIndex int
	hints     []string

	// hintDelay, when nonzero, defers inline hint rendering until input
	// has been quiescent for that long rather than recomputing and
	// rendering after every keystroke. hintPending tracks whether a
	// render is owed once the delay elapses; the edit loop's read-wait
	// arms a timer for it. See SetHintDelay.
	hintDelay   time.Duration
	hintPending bool
}

// Dispatch processes completion/hint commands, and otherwise clears any
// active menu/pager/gate state so ordinary editing resumes.
func (c *completion) Dispatch(s *state, cmd command, key rune) (ok bool, err error) {
	if c.gating {
		return c.dispatchGate(s, cmd, key)
	}
	if c.paging {
		return c.dispatchPager(s, cmd, key)
	}
	if c.active {
		if fn, ok := completionCommands[cmd]; ok && cmd == cmdComplete {
			return fn(s, key)
		}
		c.applySelected(s)
		c.closeMenu(s)
		// Fall through so the triggering key is still processed normally.
		return false, nil
	}
	if fn, ok := completionCommands[cmd]; ok {
		return fn(s, key)
	}
	return false, nil
}

// Complete is invoked on Tab. It computes the candidate list for the word
// under the cursor and either extends the input by the longest common
// prefix, opens the candidate menu, or asks for confirmation first if there
// are more candidates than the configured cutoff.
func (c *completion) Complete(s *state) (bool, error) {
	if c.completer == nil {
		return true, nil
	}

	text := s.screen.Text()
	pos := s.screen.Position()
	wordStart := prevWordStart(text, pos, s.screen.wordBreakChars)
	wordEnd := pos

	candidates := c.completer(text, wordStart, wordEnd)
	if len(candidates) == 0 {
		s.screen.outbuf.WriteRune(keyCtrlG)
		return true, nil
	}

	sameSpot := c.active && wordStart == c.wordStart && wordEnd == c.wordEnd
	if len(candidates) == 1 {
		c.replaceWord(s, wordStart, wordEnd, candidates[0])
		c.closeMenu(s)
		return true, nil
	}

	lcp := longestCommonPrefix(candidates)
	word := string(text[wordStart:wordEnd])
	if len(lcp) > len(word) {
		c.replaceWord(s, wordStart, wordEnd, lcp)
		c.wordStart, c.wordEnd = wordStart, wordStart+len([]rune(lcp))
		if !c.doubleTabToComplete {
			return true, nil
		}
	} else if c.beepOnAmbiguous && !sameSpot {
		s.screen.outbuf.WriteRune(keyCtrlG)
	}

	c.candidates = candidates
	c.wordStart, c.wordEnd = wordStart, wordEnd
	cutoff := c.cutoff
	if cutoff == 0 {
		cutoff = defaultCompletionCutoff
	}
	if len(candidates) > cutoff {
		c.gating = true
		c.showGatePrompt(s)
		return true, nil
	}
	c.openMenu(s)
	return true, nil
}

func (c *completion) dispatchGate(s *state, cmd command, key rune) (bool, error) {
	switch key {
	case 'y', 'Y':
		c.gating = false
		c.openMenu(s)
	case 'n', 'N', keyCtrlC:
		c.gating = false
		c.candidates = nil
		s.screen.SetSuffix(nil)
	}
	return true, nil
}

func (c *completion) showGatePrompt(s *state) {
	prompt := fmt.Sprintf("\nDisplay all %d possibilities? (y or n)", len(c.candidates))
	s.screen.SetSuffix([]rune(prompt))
}

// openMenu renders the candidate list, paginating with a --More-- pager if
// it would overflow the terminal height.
func (c *completion) openMenu(s *state) {
	c.active = true
	c.selected = 0
	rows := c.renderRows(s)
	usable := s.screen.height - 1
	if usable < 1 {
		usable = 1
	}
	if len(rows) > usable {
		c.paging = true
		c.pageStart = 0
		c.renderPage(s, rows, usable)
		return
	}
	c.renderMenu(s, rows)
}

func (c *completion) renderRows(s *state) []string {
	width := s.screen.width
	if width <= 0 {
		width = 80
	}
	maxLen := 0
	for _, cand := range c.candidates {
		if n := len([]rune(cand)); n > maxLen {
			maxLen = n
		}
	}
	colWidth := maxLen + 2
	cols := width / colWidth
	if cols < 1 {
		cols = 1
	}
	var rows []string
	var row strings.Builder
	for i, cand := range c.candidates {
		row.WriteString(cand)
		if i%cols != cols-1 && i != len(c.candidates)-1 {
			row.WriteString(strings.Repeat(" ", colWidth-len([]rune(cand))))
		} else {
			rows = append(rows, row.String())
			row.Reset()
		}
	}
	if row.Len() > 0 {
		rows = append(rows, row.String())
	}
	return rows
}

func (c *completion) renderMenu(s *state, rows []string) {
	var buf strings.Builder
	for _, r := range rows {
		buf.WriteString("\n")
		buf.WriteString(r)
	}
	suffix := []rune(buf.String())
	s.screen.SetSuffix(suffix)
	c.highlightSelected(s)
}

func (c *completion) renderPage(s *state, rows []string, usable int) {
	end := c.pageStart + usable
	if end > len(rows) {
		end = len(rows)
	}
	var buf strings.Builder
	for _, r := range rows[c.pageStart:end] {
		buf.WriteString("\n")
		buf.WriteString(r)
	}
	if end < len(rows) {
		buf.WriteString("\n--More--")
	}
	s.screen.SetSuffix([]rune(buf.String()))
}

func (c *completion) dispatchPager(s *state, cmd command, key rune) (bool, error) {
	rows := c.renderRows(s)
	usable := s.screen.height - 1
	if usable < 1 {
		usable = 1
	}
	switch key {
	case '\r', '\n':
		c.pageStart += 1
	case ' ':
		c.pageStart += usable
	case 'q', 'n', keyCtrlC:
		c.paging = false
		c.active = false
		c.candidates = nil
		s.screen.SetSuffix(nil)
		return true, nil
	default:
		return true, nil
	}
	if c.pageStart >= len(rows) {
		c.paging = false
		c.renderMenu(s, rows)
		return true, nil
	}
	c.renderPage(s, rows, usable)
	return true, nil
}

// highlightSelected paints the currently selected candidate in reverse
// video within the rendered menu suffix.
func (c *completion) highlightSelected(s *state) {
	if c.selected < 0 || c.selected >= len(c.candidates) {
		return
	}
	rows := c.renderRows(s)
	offset := 1 // leading "\n"
	target := c.candidates[c.selected]
	for _, r := range rows {
		idx := strings.Index(r, target)
		if idx >= 0 {
			relStart := offset + idx
			relEnd := relStart + len([]rune(target))
			s.screen.AddSuffixSpan(relStart, relEnd, attrReverse)
			return
		}
		offset += len([]rune(r)) + 1
	}
}

func (c *completion) applySelected(s *state) {
	if len(c.candidates) == 0 || c.selected < 0 || c.selected >= len(c.candidates) {
		return
	}
	c.replaceWord(s, c.wordStart, c.wordEnd, c.candidates[c.selected])
}

func (c *completion) closeMenu(s *state) {
	c.active = false
	c.paging = false
	c.gating = false
	c.candidates = nil
	s.screen.SetSuffix(nil)
}

func (c *completion) replaceWord(s *state, wordStart, wordEnd int, replacement string) {
	s.screen.MoveTo(wordStart)
	s.screen.EraseTo(wordEnd)
	s.screen.Insert([]rune(replacement)...)
}

// ScrollHint moves the displayed hint index by delta, wrapping within the
// current hint list computed by the hinter callback.
func (c *completion) ScrollHint(s *state, delta int) (bool, error) {
	if c.hinter == nil || len(c.hints) == 0 {
		return true, nil
	}
	c.hintIndex = (c.hintIndex + delta + len(c.hints)) % len(c.hints)
	c.renderHint(s)
	return true, nil
}

// UpdateHint recomputes and renders the inline hint for the word under the
// cursor. It is called after every buffer mutation when a hinter is
// configured and no completion menu/pager/gate is active.
func (c *completion) UpdateHint(s *state) {
	if c.hinter == nil || c.active || c.paging || c.gating || s.history.searchDir != 0 {
		c.hintPending = false
		return
	}
	if s.screen.Position() != s.screen.End() {
		// Hints are only offered at end-of-line; a hint suffix is always
		// drawn past the end of the buffer, so showing one while editing
		// mid-line would appear detached from the cursor.
		c.hintPending = false
		s.screen.SetSuffix(nil)
		return
	}
	if c.hintDelay > 0 {
		// Clear any stale hint immediately, but defer recomputing and
		// rendering the new one until readMoreLocked's hint timer fires.
		c.hintPending = true
		s.screen.SetSuffix(nil)
		return
	}
	c.computeAndRenderHint(s)
}

// computeAndRenderHint recomputes the hint list for the word under the
// cursor and renders the current one, or clears the suffix if there are no
// hints. It is called either immediately from UpdateHint (no delay
// configured) or from the edit loop once a configured hintDelay elapses.
func (c *completion) computeAndRenderHint(s *state) {
	c.hintPending = false
	if s.screen.Position() != s.screen.End() {
		// The cursor moved away from end-of-line while the hint delay was
		// pending; don't show a now-stale, detached hint.
		s.screen.SetSuffix(nil)
		return
	}
	text := s.screen.Text()
	pos := s.screen.Position()
	wordStart := prevWordStart(text, pos, s.screen.wordBreakChars)
	c.hints = c.hinter(text, wordStart, pos)
	c.hintIndex = 0
	if len(c.hints) == 0 {
		s.screen.SetSuffix(nil)
		return
	}
	c.renderHint(s)
}

func (c *completion) renderHint(s *state) {
	hint := c.hints[c.hintIndex]
	s.screen.SetSuffix([]rune(hint))
	s.screen.AddSuffixSpan(0, len([]rune(hint)), fgDarkGray)
}

func longestCommonPrefix(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	first, last := []rune(sorted[0]), []rune(sorted[len(sorted)-1])
	n := len(first)
	if len(last) < n {
		n = len(last)
	}
	i := 0
	for i < n && first[i] == last[i] {
		i++
	}
	return string(first[:i])
}
