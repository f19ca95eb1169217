package prompt

import "testing"

func TestKillRingYankEmpty(t *testing.T) {
	var r killRing
	if got := r.Yank(); got != nil {
		t.Errorf("Yank() on empty ring = %q, want nil", string(got))
	}
}

func TestKillRingAppendAccumulates(t *testing.T) {
	var r killRing
	r.Append("abc")
	r.Append("def") // killing is still true, so this extends the same entry.
	if got := string(r.Yank()); got != "abcdef" {
		t.Errorf("Yank() = %q, want %q", got, "abcdef")
	}

	r.killing = false // simulate an intervening non-kill command.
	r.Append("xyz")
	if len(r.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(r.entries))
	}
	if got := string(r.Yank()); got != "xyz" {
		t.Errorf("Yank() = %q, want %q", got, "xyz")
	}
}

func TestKillRingPrependAccumulates(t *testing.T) {
	var r killRing
	r.Prepend("world")
	r.Prepend("hello ")
	if got := string(r.Yank()); got != "hello world" {
		t.Errorf("Yank() = %q, want %q", got, "hello world")
	}
}

func TestKillRingRotate(t *testing.T) {
	var r killRing
	r.Append("a")
	r.killing = false
	r.Append("b")
	r.killing = false
	r.Append("c")

	if got := string(r.Yank()); got != "c" {
		t.Fatalf("Yank() = %q, want %q", got, "c")
	}
	r.Rotate()
	if got := string(r.Yank()); got != "b" {
		t.Errorf("Yank() after Rotate() = %q, want %q", got, "b")
	}
}

func TestKillRingSetMaxSizeTrims(t *testing.T) {
	var r killRing
	r.SetMaxSize(2)
	r.Append("a")
	r.killing = false
	r.Append("b")
	r.killing = false
	r.Append("c")

	if len(r.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(r.entries))
	}
	if r.entries[0] != "b" || r.entries[1] != "c" {
		t.Errorf("entries = %v, want [b c]", r.entries)
	}
}

func TestKillRingDispatchClearsState(t *testing.T) {
	r := killRing{killing: true, yanking: true}
	ok, err := r.Dispatch(nil, cmdInsertChar, 'a')
	if ok || err != nil {
		t.Fatalf("Dispatch(cmdInsertChar) = (%v, %v), want (false, nil)", ok, err)
	}
	if r.killing || r.yanking {
		t.Errorf("Dispatch(cmdInsertChar) left killing=%v yanking=%v, want both false", r.killing, r.yanking)
	}
}

// TestKillPrevWordToWhitespaceDiffersFromBackwardKillWord exercises the
// distinction the two commands are meant to draw: backward-kill-word
// honors word boundaries (here, UAX#29 splits "foo-bar" on the hyphen),
// while kill-prev-word-to-whitespace always stops only at whitespace.
func TestKillPrevWordToWhitespaceDiffersFromBackwardKillWord(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("foo-bar")...)
	s.screen.MoveTo(s.screen.End())

	if ok, err := killCommands[cmdBackwardKillWord](&s, 0); !ok || err != nil {
		t.Fatalf("cmdBackwardKillWord = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "foo-" {
		t.Errorf("Text() after backward-kill-word = %q, want %q", got, "foo-")
	}

	s.screen.Insert([]rune("bar")...) // restore "foo-bar" for the next command.
	s.screen.MoveTo(s.screen.End())

	if ok, err := killCommands[cmdKillPrevWordToWhitespace](&s, 0); !ok || err != nil {
		t.Fatalf("cmdKillPrevWordToWhitespace = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "" {
		t.Errorf("Text() after kill-prev-word-to-whitespace = %q, want empty", got)
	}
}

func TestKillRingDispatchKillLine(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("hello world")...)
	s.screen.MoveTo(5)

	ok, err := s.killRing.Dispatch(&s, cmdKillLine, 0)
	if !ok || err != nil {
		t.Fatalf("Dispatch(cmdKillLine) = (%v, %v), want (true, nil)", ok, err)
	}
	if string(s.screen.Text()) != "hello" {
		t.Errorf("Text() = %q, want %q", string(s.screen.Text()), "hello")
	}
	if got := string(s.killRing.Yank()); got != " world" {
		t.Errorf("Yank() = %q, want %q", got, " world")
	}
}
