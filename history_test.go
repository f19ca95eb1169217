package prompt

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestState() *state {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	return &s
}

func TestHistoryAddAndRetrieve(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("a")
	h.Add("b")
	h.Add("c")

	if got := h.entry(0); got != "c" {
		t.Errorf("entry(0) = %q, want %q", got, "c")
	}
	if got := h.entry(1); got != "b" {
		t.Errorf("entry(1) = %q, want %q", got, "b")
	}
	if got := h.entry(2); got != "a" {
		t.Errorf("entry(2) = %q, want %q", got, "a")
	}
}

func TestHistoryAddElidesAdjacentDuplicate(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("a")
	h.Add("b")
	h.Add("b")

	if len(h.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(h.entries))
	}
	if got := h.entry(0); got != "b" {
		t.Errorf("entry(0) = %q, want %q", got, "b")
	}
}

func TestHistoryAddDisabled(t *testing.T) {
	var h history // maxSize zero value is 0: history disabled.
	h.Add("a")
	if len(h.entries) != 0 {
		t.Errorf("len(entries) = %d, want 0 with history disabled", len(h.entries))
	}
}

func TestHistorySetUniqueRemovesEarlierOccurrence(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.SetUnique(true)
	h.Add("x")
	h.Add("y")
	h.Add("x")

	if len(h.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(h.entries))
	}
	if got := h.entry(0); got != "x" {
		t.Errorf("entry(0) = %q, want %q", got, "x")
	}
	if got := h.entry(1); got != "y" {
		t.Errorf("entry(1) = %q, want %q", got, "y")
	}
}

func TestHistorySetMaxSizeTrims(t *testing.T) {
	var h history
	h.SetMaxSize(2)
	h.Add("a")
	h.Add("b")
	h.Add("c")

	if len(h.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(h.entries))
	}
	if got := h.entry(0); got != "c" {
		t.Errorf("entry(0) = %q, want %q", got, "c")
	}
	if got := h.entry(1); got != "b" {
		t.Errorf("entry(1) = %q, want %q", got, "b")
	}
	if got := h.entry(2); got != "" {
		t.Errorf("entry(2) = %q, want %q (trimmed)", got, "")
	}
}

func TestHistoryPreviousNext(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("first")
	h.Add("second")

	s := newTestState()
	s.screen.Insert([]rune("typing")...)

	if ok, err := h.Previous(s); !ok || err != nil {
		t.Fatalf("Previous() = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "second" {
		t.Errorf("Text() = %q, want %q", got, "second")
	}

	if ok, err := h.Previous(s); !ok || err != nil {
		t.Fatalf("Previous() = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "first" {
		t.Errorf("Text() = %q, want %q", got, "first")
	}

	// No older entry: Previous is a no-op.
	if ok, _ := h.Previous(s); ok {
		t.Error("Previous() at oldest entry returned true, want false")
	}

	if ok, err := h.Next(s); !ok || err != nil {
		t.Fatalf("Next() = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "second" {
		t.Errorf("Text() = %q, want %q", got, "second")
	}

	if ok, err := h.Next(s); !ok || err != nil {
		t.Fatalf("Next() = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "typing" {
		t.Errorf("Text() = %q, want %q (restored pending)", got, "typing")
	}
}

// TestHistoryPrefixSearchFromPending exercises PrefixSearch's very first
// invocation (h.index == -1, the state every session starts in), which used
// to index entries out of bounds.
func TestHistoryPrefixSearchFromPending(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("select 1")
	h.Add("select 2")
	h.Add("update x")

	s := newTestState()
	s.screen.Insert([]rune("select")...)

	ok, err := h.PrefixSearch(s, -1)
	if !ok || err != nil {
		t.Fatalf("PrefixSearch(-1) = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "select 2" {
		t.Errorf("Text() = %q, want %q", got, "select 2")
	}

	ok, err = h.PrefixSearch(s, -1)
	if !ok || err != nil {
		t.Fatalf("PrefixSearch(-1) again = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "select 1" {
		t.Errorf("Text() = %q, want %q", got, "select 1")
	}
}

func TestHistoryPrefixSearchNoMatch(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("update x")

	s := newTestState()
	s.screen.Insert([]rune("select")...)

	ok, err := h.PrefixSearch(s, -1)
	if ok || err != nil {
		t.Fatalf("PrefixSearch(-1) = (%v, %v), want (false, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "select" {
		t.Errorf("Text() = %q, want unchanged %q", got, "select")
	}
}

func TestHistoryFirstAndLast(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("first")
	h.Add("second")
	h.Add("third")

	s := newTestState()
	s.screen.Insert([]rune("typing")...)

	if ok, err := h.First(s); !ok || err != nil {
		t.Fatalf("First() = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "first" {
		t.Errorf("Text() = %q, want %q", got, "first")
	}

	if ok, err := h.Last(s); !ok || err != nil {
		t.Fatalf("Last() = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "third" {
		t.Errorf("Text() = %q, want %q", got, "third")
	}
}

func TestHistoryFirstLastEmptyIsNoop(t *testing.T) {
	var h history
	h.SetMaxSize(-1)

	s := newTestState()
	if ok, _ := h.First(s); ok {
		t.Error("First() on empty history returned true, want false")
	}
	if ok, _ := h.Last(s); ok {
		t.Error("Last() on empty history returned true, want false")
	}
}

func TestHistoryReverseSearchIsCaseInsensitive(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("SELECT * FROM widgets")

	s := newTestState()

	if ok, err := h.ReverseSearch(s); !ok || err != nil {
		t.Fatalf("ReverseSearch() = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := h.AppendSearchKey(s, 's'); !ok || err != nil {
		t.Fatalf("AppendSearchKey('s') = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := h.AppendSearchKey(s, 'e'); !ok || err != nil {
		t.Fatalf("AppendSearchKey('e') = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := h.AppendSearchKey(s, 'l'); !ok || err != nil {
		t.Fatalf("AppendSearchKey('l') = (%v, %v), want (true, nil)", ok, err)
	}

	if !h.searchMatched {
		t.Fatal("expected lowercase query \"sel\" to match uppercase entry case-insensitively")
	}
	if got := string(s.screen.Text()); got != "SELECT * FROM widgets" {
		t.Errorf("Text() = %q, want %q", got, "SELECT * FROM widgets")
	}
}

func TestHistoryUpdateSearchSuffixFormat(t *testing.T) {
	var h history
	h.SetMaxSize(-1)
	h.Add("select 1")

	s := newTestState()

	if ok, err := h.ReverseSearch(s); !ok || err != nil {
		t.Fatalf("ReverseSearch() = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := h.AppendSearchKey(s, 's'); !ok || err != nil {
		t.Fatalf("AppendSearchKey('s') = (%v, %v), want (true, nil)", ok, err)
	}

	want := "\n(reverse-i-search)`s`: select 1"
	if got := string(s.screen.suffix); got != want {
		t.Errorf("suffix = %q, want %q", got, want)
	}

	// A query with no match is labeled "failed".
	if ok, err := h.AppendSearchKey(s, 'z'); !ok || err != nil {
		t.Fatalf("AppendSearchKey('z') = (%v, %v), want (true, nil)", ok, err)
	}
	want = "\n(failed reverse-i-search)`sz`: select 1"
	if got := string(s.screen.suffix); got != want {
		t.Errorf("suffix = %q, want %q", got, want)
	}
}

func TestHistorySaveFileLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")

	var h1 history
	h1.SetMaxSize(-1)
	h1.Add("one")
	h1.Add("two")
	h1.Add("three with spaces")
	if err := h1.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected history file to exist: %v", err)
	}

	var h2 history
	h2.SetMaxSize(-1)
	h2.path = path
	if err := h2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer h2.Close()

	if got := h2.entry(0); got != "three with spaces" {
		t.Errorf("entry(0) = %q, want %q", got, "three with spaces")
	}
	if got := h2.entry(1); got != "two" {
		t.Errorf("entry(1) = %q, want %q", got, "two")
	}
	if got := h2.entry(2); got != "one" {
		t.Errorf("entry(2) = %q, want %q", got, "one")
	}
}
