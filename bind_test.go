package prompt

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestParseBindingNamedKey(t *testing.T) {
	key, cmd, err := parseBinding("bind Backspace " + cmdBackwardDeleteChar)
	if err != nil {
		t.Fatalf("parseBinding: %v", err)
	}
	if key != keyBackspace {
		t.Errorf("key = %d, want %d", key, keyBackspace)
	}
	if cmd != cmdBackwardDeleteChar {
		t.Errorf("cmd = %q, want %q", cmd, cmdBackwardDeleteChar)
	}
}

func TestParseBindingControlLetter(t *testing.T) {
	key, cmd, err := parseBinding("bind Control-a " + cmdBeginningOfLine)
	if err != nil {
		t.Fatalf("parseBinding: %v", err)
	}
	if key != keyCtrlA {
		t.Errorf("key = %d, want %d", key, keyCtrlA)
	}
	if cmd != cmdBeginningOfLine {
		t.Errorf("cmd = %q, want %q", cmd, cmdBeginningOfLine)
	}
}

func TestParseBindingMeta(t *testing.T) {
	key, cmd, err := parseBinding("bind Meta-b " + cmdBackwardWord)
	if err != nil {
		t.Fatalf("parseBinding: %v", err)
	}
	if want := 'b' | keyAlt; key != want {
		t.Errorf("key = %#x, want %#x", key, want)
	}
	if cmd != cmdBackwardWord {
		t.Errorf("cmd = %q, want %q", cmd, cmdBackwardWord)
	}
}

func TestParseBindingAlias(t *testing.T) {
	_, cmd, err := parseBinding("bind Control-u unix-line-discard")
	if err != nil {
		t.Fatalf("parseBinding: %v", err)
	}
	if cmd != cmdBackwardKillLine {
		t.Errorf("cmd = %q, want %q (alias resolution)", cmd, cmdBackwardKillLine)
	}
}

func TestParseBindingUnixWordRuboutAlias(t *testing.T) {
	_, cmd, err := parseBinding("bind Control-w unix-word-rubout")
	if err != nil {
		t.Fatalf("parseBinding: %v", err)
	}
	if cmd != cmdKillPrevWordToWhitespace {
		t.Errorf("cmd = %q, want %q (alias resolution)", cmd, cmdKillPrevWordToWhitespace)
	}
}

func TestDefaultBindingsSeparateWhitespaceAndWordBreakKill(t *testing.T) {
	m := make(map[rune]command)
	if err := parseBindings(m, defaultBindings); err != nil {
		t.Fatalf("parseBindings: %v", err)
	}
	if got := m[keyCtrlW]; got != cmdKillPrevWordToWhitespace {
		t.Errorf("Control-w = %q, want %q", got, cmdKillPrevWordToWhitespace)
	}
	if got := m[keyBackspace|keyAlt]; got != cmdBackwardKillWord {
		t.Errorf("Meta-Backspace = %q, want %q", got, cmdBackwardKillWord)
	}
}

func TestParseBindingErrors(t *testing.T) {
	testCases := []string{
		"bind Control-Control-a " + cmdBeginningOfLine,
		"bind Meta-Meta-b " + cmdBackwardWord,
		"bind a bogus-command",
		"not-a-binding",
	}
	for _, tc := range testCases {
		if _, _, err := parseBinding(tc); err == nil {
			t.Errorf("parseBinding(%q) = nil error, want an error", tc)
		}
	}
}

func TestParseBindingsTogglesMetaCase(t *testing.T) {
	m := make(map[rune]command)
	if err := parseBindings(m, "bind Meta-b "+cmdBackwardWord); err != nil {
		t.Fatalf("parseBindings: %v", err)
	}
	if m['b'|keyAlt] != cmdBackwardWord {
		t.Errorf("m[Meta-b] = %q, want %q", m['b'|keyAlt], cmdBackwardWord)
	}
	if m['B'|keyAlt] != cmdBackwardWord {
		t.Errorf("m[Meta-B] = %q, want %q", m['B'|keyAlt], cmdBackwardWord)
	}
}

func TestCurrentLineIndent(t *testing.T) {
	testCases := []struct {
		text string
		pos  int
		want string
	}{
		{"  foo\n", 6, "  "},
		{"\tfoo\n", 5, "\t"},
		{"foo\n", 4, ""},
		{"foo", 3, ""}, // no trailing newline at pos-1
		{"", 0, ""},
	}
	for _, c := range testCases {
		text := []rune(c.text)
		if got := currentLineIndent(text, c.pos); got != c.want {
			t.Errorf("currentLineIndent(%q, %d) = %q, want %q", c.text, c.pos, got, c.want)
		}
	}
}

func TestInsertContinuationNewlineIndents(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.indentMultiline = true
	s.screen.Insert([]rune("  foo")...)

	insertContinuationNewline(&s)

	if got, want := string(s.screen.Text()), "  foo\n  "; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestCmdCapitalizeWord(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("hello WORLD")...)
	s.screen.MoveTo(0)

	if ok, err := baseCommands[cmdCapitalizeWord](&s, 0); !ok || err != nil {
		t.Fatalf("cmdCapitalizeWord = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "Hello WORLD" {
		t.Errorf("Text() = %q, want %q", got, "Hello WORLD")
	}
	if got := s.screen.Position(); got != len("Hello") {
		t.Errorf("Position() = %d, want %d (end of word)", got, len("Hello"))
	}
}

func TestCmdUpcaseWord(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("hello world")...)
	s.screen.MoveTo(0)

	if ok, err := baseCommands[cmdUpcaseWord](&s, 0); !ok || err != nil {
		t.Fatalf("cmdUpcaseWord = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "HELLO world" {
		t.Errorf("Text() = %q, want %q", got, "HELLO world")
	}
}

func TestCmdDowncaseWord(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("HELLO world")...)
	s.screen.MoveTo(0)

	if ok, err := baseCommands[cmdDowncaseWord](&s, 0); !ok || err != nil {
		t.Fatalf("cmdDowncaseWord = (%v, %v), want (true, nil)", ok, err)
	}
	if got := string(s.screen.Text()); got != "hello world" {
		t.Errorf("Text() = %q, want %q", got, "hello world")
	}
}

func TestCmdCancelOnEmptyBufferReturnsEOF(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)

	ok, err := baseCommands[cmdCancel](&s, 0)
	if !ok || !errors.Is(err, io.EOF) {
		t.Fatalf("cmdCancel on empty buffer = (%v, %v), want (true, io.EOF)", ok, err)
	}
}

func TestCmdCancelOnNonEmptyBufferEchoesAndReturnsErrCanceled(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("select 1")...)
	s.screen.MoveTo(3)

	ok, err := baseCommands[cmdCancel](&s, 0)
	if !ok || !errors.Is(err, ErrCanceled) {
		t.Fatalf("cmdCancel on non-empty buffer = (%v, %v), want (true, ErrCanceled)", ok, err)
	}
	if got := s.screen.outbuf.String(); !strings.HasSuffix(got, "^C\r\n") {
		t.Errorf("outbuf = %q, want it to end with %q", got, "^C\r\n")
	}
}

func TestInsertContinuationNewlineNoIndentByDefault(t *testing.T) {
	var s state
	s.screen.Init()
	s.screen.Reset(nil)
	s.screen.Insert([]rune("  foo")...)

	insertContinuationNewline(&s)

	if got, want := string(s.screen.Text()), "  foo\n"; got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}
