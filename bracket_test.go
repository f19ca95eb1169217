package prompt

import "testing"

func TestFindBracketAt(t *testing.T) {
	text := []rune("a(b)c")
	testCases := []struct {
		pos        int
		wantAnchor int
		wantOpen   bool
	}{
		{0, -1, false},
		{1, 1, true},  // cursor on '('
		{2, 1, true},  // cursor just after '(', falls back to pos-1
		{3, 3, false}, // cursor on ')'
		{4, 3, false}, // cursor just after ')'
		{5, -1, false},
	}
	for _, c := range testCases {
		anchor, _, isOpen := findBracketAt(text, c.pos)
		if anchor != c.wantAnchor || (anchor >= 0 && isOpen != c.wantOpen) {
			t.Errorf("findBracketAt(%d) = (%d, %v), want (%d, %v)", c.pos, anchor, isOpen, c.wantAnchor, c.wantOpen)
		}
	}
}

func TestMatchForwardBackward(t *testing.T) {
	text := []rune("(a(b)c)")
	if got := matchForward(text, 0, '(', ')'); got != 6 {
		t.Errorf("matchForward(outer) = %d, want 6", got)
	}
	if got := matchForward(text, 2, '(', ')'); got != 4 {
		t.Errorf("matchForward(inner) = %d, want 4", got)
	}
	if got := matchBackward(text, 6, '(', ')'); got != 0 {
		t.Errorf("matchBackward(outer) = %d, want 0", got)
	}
	if got := matchBackward(text, 4, '(', ')'); got != 2 {
		t.Errorf("matchBackward(inner) = %d, want 2", got)
	}
}

func TestMatchForwardUnbalanced(t *testing.T) {
	text := []rune("(a(b)c")
	if got := matchForward(text, 0, '(', ')'); got != -1 {
		t.Errorf("matchForward = %d, want -1", got)
	}
}

func TestMatchForwardSkipsQuotedBrackets(t *testing.T) {
	text := []rune(`("(" b)`)
	if got := matchForward(text, 0, '(', ')'); got != 6 {
		t.Errorf("matchForward = %d, want 6", got)
	}
}

func TestMatchForwardSkipsEscapedQuote(t *testing.T) {
	// The escaped quote inside the string must not terminate the quoted run
	// early, so the ')' right after it is still inside the string.
	text := []rune(`("\")" b)`)
	if got := matchForward(text, 0, '(', ')'); got != 8 {
		t.Errorf("matchForward = %d, want 8", got)
	}
}

func TestBracketUpdate(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("foo(bar)")...)
	s.screen.MoveTo(3) // cursor on '('

	s.bracket.Update(&s)
	if !s.bracket.active {
		t.Fatal("expected bracket.active after Update over a balanced pair")
	}

	foundMatch, foundError := false, false
	for _, a := range s.screen.attrs {
		switch a.value {
		case bracketMatchColor:
			foundMatch = true
		case bracketErrorColor:
			foundError = true
		}
	}
	if !foundMatch || foundError {
		t.Errorf("expected only bracketMatchColor spans, got match=%v error=%v", foundMatch, foundError)
	}

	s.screen.MoveTo(0)
	s.bracket.Update(&s)
	if s.bracket.active {
		t.Error("expected bracket.active to clear away from any bracket")
	}
}

func TestBracketUpdateUnbalanced(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("foo(bar")...)
	s.screen.MoveTo(3)

	s.bracket.Update(&s)
	foundError := false
	for _, a := range s.screen.attrs {
		if a.value == bracketErrorColor {
			foundError = true
		}
	}
	if !foundError {
		t.Error("expected bracketErrorColor span for an unmatched bracket")
	}
}
