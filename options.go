package prompt

import (
	"io"
	"os"
	"time"
)

// Option defines the interface for Prompt options.
type Option interface {
	apply(p *Prompt)
}

type ttyOption struct {
	tty *os.File
}

func (o *ttyOption) apply(p *Prompt) {
	p.fd = int(o.tty.Fd())
	p.in = o.tty
	p.out = o.tty
}

// WithTTY allows configuring a prompt with a different TTY than stdin/stdout.
func WithTTY(tty *os.File) Option {
	return &ttyOption{
		tty: tty,
	}
}

type inputOption struct {
	r io.Reader
}

func (o *inputOption) apply(p *Prompt) {
	p.in = o.r
}

// WithInput allows configuring the input reader for a Prompt. This option is
// primarily useful for tests.
func WithInput(r io.Reader) Option {
	return &inputOption{
		r: r,
	}
}

type outputOption struct {
	w io.Writer
}

func (o *outputOption) apply(p *Prompt) {
	p.out = o.w
}

// WithOutput allows configuring the output writer for a Prompt. This option is
// primarily useful for tests.
func WithOutput(w io.Writer) Option {
	return &outputOption{
		w: w,
	}
}

type sizeOption struct {
	width, height int
}

func (o *sizeOption) apply(p *Prompt) {
	p.mu.state.screen.SetSize(o.width, o.height)
}

// WithSize allows configuring the initial width and height of a Prompt.
// Typically, the width and height of the terminal are automatically determined.
// This option is primarily useful for tests in conjunction with the WithInput
// and WithOutput options.
func WithSize(width, height int) Option {
	return &sizeOption{
		width:  width,
		height: height,
	}
}

type inputFinishedOption struct {
	fn func(text string) bool
}

func (o inputFinishedOption) apply(p *Prompt) {
	p.mu.state.inputFinished = o.fn
}

// WithInputFinished allows configuring a callback that will be invoked when
// enter is pressed to determine if the input is considered complete or not. If
// the input is not complete, a newline is instead inserted into the input.
func WithInputFinished(fn func(text string) bool) Option {
	return inputFinishedOption{fn}
}

type completerOption struct {
	fn CompletionFunc
}

func (o completerOption) apply(p *Prompt) {
	p.mu.state.completion.completer = o.fn
}

// WithCompleter configures the callback invoked by the complete command
// (bound to Tab by default) to produce completion candidates for the word
// under the cursor.
func WithCompleter(fn CompletionFunc) Option {
	return completerOption{fn}
}

type hinterOption struct {
	fn HintFunc
}

func (o hinterOption) apply(p *Prompt) {
	p.mu.state.completion.hinter = o.fn
}

// WithHinter configures the callback invoked after every edit to produce
// inline hint text displayed after the cursor.
func WithHinter(fn HintFunc) Option {
	return hinterOption{fn}
}

type highlighterOption struct {
	fn HighlightFunc
}

func (o highlighterOption) apply(p *Prompt) {
	p.mu.state.completion.highlight = o.fn
}

// WithHighlighter stores a callback that produces syntax-highlighting
// attribute spans for the input text. The edit loop does not call it, so
// input text is rendered without syntax highlighting.
func WithHighlighter(fn HighlightFunc) Option {
	return highlighterOption{fn}
}

type modifyCallbackOption struct {
	fn ModifyFunc
}

func (o modifyCallbackOption) apply(p *Prompt) {
	p.mu.state.completion.modify = o.fn
}

// WithModifyCallback configures a callback that can rewrite the input text
// and cursor position after each edit. It fires once per render pass from
// the single-threaded edit loop and must not call back into the Prompt.
func WithModifyCallback(fn ModifyFunc) Option {
	return modifyCallbackOption{fn}
}

type maxHistorySizeOption struct {
	n int
}

func (o maxHistorySizeOption) apply(p *Prompt) {
	p.mu.state.history.SetMaxSize(o.n)
}

// SetMaxHistorySize configures the maximum number of history entries
// retained. A value of -1 means unbounded, 0 disables history entirely.
func SetMaxHistorySize(n int) Option {
	return maxHistorySizeOption{n}
}

type uniqueHistoryOption struct {
	unique bool
}

func (o uniqueHistoryOption) apply(p *Prompt) {
	p.mu.state.history.SetUnique(o.unique)
}

// SetUniqueHistory configures whether duplicate history entries (not just
// adjacent ones) are elided, moving the existing entry to the most recent
// position instead of adding a second copy.
func SetUniqueHistory(unique bool) Option {
	return uniqueHistoryOption{unique}
}

type historyFileOption struct {
	path string
}

func (o historyFileOption) apply(p *Prompt) {
	p.mu.state.history.path = o.path
	if err := p.mu.state.history.Load(); err != nil {
		debugPrintf("history: load %q: %v\n", o.path, err)
	}
}

// WithHistoryFile configures the path of the libedit-format history file to
// load from and append to as lines are accepted.
func WithHistoryFile(path string) Option {
	return historyFileOption{path}
}

type wordBreakCharactersOption struct {
	chars string
}

func (o wordBreakCharactersOption) apply(p *Prompt) {
	if o.chars == "" {
		o.chars = defaultWordBreakCharacters
	}
	p.mu.state.screen.wordBreakChars = o.chars
}

// SetWordBreakCharacters configures the set of characters that separate
// words for word-motion and word-erase commands. The zero value restores
// the default (whitespace only), which is also the only configuration that
// uses UAX#29 word segmentation; any other value switches word motion to a
// plain break-character scan.
func SetWordBreakCharacters(chars string) Option {
	return wordBreakCharactersOption{chars}
}

type completionCutoffOption struct {
	n int
}

func (o completionCutoffOption) apply(p *Prompt) {
	p.mu.state.completion.cutoff = o.n
}

// SetCompletionCountCutoff configures the candidate count above which the
// completion broker asks "Display all N possibilities? (y or n)" before
// showing the full candidate menu.
func SetCompletionCountCutoff(n int) Option {
	return completionCutoffOption{n}
}

type beepOnAmbiguousOption struct {
	beep bool
}

func (o beepOnAmbiguousOption) apply(p *Prompt) {
	p.mu.state.completion.beepOnAmbiguous = o.beep
}

// SetBeepOnAmbiguous configures whether completing to an ambiguous set of
// candidates (with no further common prefix to extend to) rings the bell.
func SetBeepOnAmbiguous(beep bool) Option {
	return beepOnAmbiguousOption{beep}
}

type doubleTabToCompleteOption struct {
	double bool
}

func (o doubleTabToCompleteOption) apply(p *Prompt) {
	p.mu.state.completion.doubleTabToComplete = o.double
}

// SetDoubleTabToComplete configures whether, after extending the input by
// the longest common prefix of an ambiguous completion, the candidate menu
// opens in the same Tab press (true) or a second Tab press is required to
// open it (false, the default).
func SetDoubleTabToComplete(double bool) Option {
	return doubleTabToCompleteOption{double}
}

type noColorOption struct {
	noColor bool
}

func (o noColorOption) apply(p *Prompt) {
	p.mu.state.screen.noColor = o.noColor
}

// SetNoColor disables all SGR color/attribute escape sequences (hints,
// bracket-match highlighting, and completion menu selection), leaving
// cursor movement and erase
// sequences untouched.
func SetNoColor(noColor bool) Option {
	return noColorOption{noColor}
}

type killRingSizeOption struct {
	n int
}

func (o killRingSizeOption) apply(p *Prompt) {
	p.mu.state.killRing.SetMaxSize(o.n)
}

// SetKillRingSize configures the maximum number of entries the kill ring
// retains. The default is 60.
func SetKillRingSize(n int) Option {
	return killRingSizeOption{n}
}

type hintDelayOption struct {
	d time.Duration
}

func (o hintDelayOption) apply(p *Prompt) {
	p.mu.state.completion.hintDelay = o.d
}

// SetHintDelay configures how long the input must be quiescent before an
// inline hint is computed and rendered. The zero value (the default)
// renders a hint after every edit; a nonzero delay avoids calling the
// hinter on every keystroke of a fast typist.
func SetHintDelay(d time.Duration) Option {
	return hintDelayOption{d}
}

type bracketedPasteOption struct {
	enable bool
}

func (o bracketedPasteOption) apply(p *Prompt) {
	p.bracketedPaste = o.enable
}

// SetBracketedPaste configures whether ReadLine asks the terminal (via the
// standard \x1b[?2004h/l sequences) to wrap pasted text in start/end
// markers. When enabled, pasted text is inserted verbatim without running
// per-character commands, so characters that would otherwise trigger a
// binding (or a newline that would otherwise submit the input) are
// inserted as plain text instead.
func SetBracketedPaste(enable bool) Option {
	return bracketedPasteOption{enable}
}

type indentMultilineOption struct {
	indent bool
}

func (o indentMultilineOption) apply(p *Prompt) {
	p.mu.state.indentMultiline = o.indent
}

// SetIndentMultiline configures whether the newline inserted by enter or
// finish-or-enter (when the input is not yet finished) copies the leading
// whitespace of the line just completed, so continuation lines of an
// indented block start pre-indented.
func SetIndentMultiline(indent bool) Option {
	return indentMultilineOption{indent}
}
