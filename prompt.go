package prompt

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// errSuspend is returned internally by dispatchKeyLocked to signal that
// ReadLine should suspend the process (Ctrl-Z) rather than terminate the
// edit loop.
var errSuspend = errors.New("prompt: suspend")

type state struct {
	history    history
	killRing   killRing
	screen     screen
	completion completion
	bracket    bracket

	// pasting is true between a keyPasteStart and keyPasteEnd marker sent
	// by a bracketed-paste-aware terminal. While true, input bytes are
	// inserted verbatim and bypass command dispatch entirely, so pasted
	// text (including embedded newlines or characters that would
	// otherwise trigger bindings) never runs commands. See
	// SetBracketedPaste.
	pasting bool

	// indentMultiline, when set, copies the leading whitespace of the
	// line just completed onto the new line inserted by enter /
	// finish-or-enter when the input is not yet finished. See
	// SetIndentMultiline.
	indentMultiline bool

	// inputFinished is a callback invoked by the finish-or-enter command to
	// determine if the input is considered complete. If the callback is nil, or it
	// returns true, the input is considered complete and ReadLine will return the
	// input. Otherwise, a newline is inserted into the input. See the
	// WithInputFinished option for configuration.
	inputFinished func(text string) bool
}

// Prompt contains the state for reading single or multi-line input from a
// terminal. Similar to readline, libedit, and other CLI line reading libraries,
// Prompt provides support for basic editing functionality such as cursor
// movement, deletion, a kill ring, and history.
//
// Prompt supports a common subset of the universe of key input sequences which
// are used by ~75% of the terminals in the terminfo database, including most
// modern terminals. Prompt itself does not use terminfo. Additionally, Prompt
// requires that the terminal handle a minimal set of ANSI escape sequences for
// rendering text:
//
//   - cursor-up:           ESC[A
//   - cursor-down:         ESC[B
//   - cursor-right:        ESC[C
//   - cursor-left:         ESC[D
//   - cursor-home:         ESC[H
//   - erase-line-to-right: ESC[K
//   - erase-screen-below:  ESC[J
//   - erase-screen:        ESC[2J
//
// Prompt eschews using more advanced terminal operations such as insert/delete
// character and insert mode. This decision results in Prompt having to
// re-render more lines of text on editing operations, yet for line editing the
// difference usually amounts to sending a few hundred bytes to the terminal
// (for a long line). On modern hardware and networks, this amount of data is
// trivial. The benefit of eschewing more advanced terminal operations is that
// the same rendering output is used for all terminals as opposed to the
// libedit/readline approach which requires intimate knowledge of the terminal
// capabilities (via terminfo) and which can sometimes go horribly wrong
// resulting in corruption of the rendered text.
type Prompt struct {
	fd  int
	in  io.Reader
	out io.Writer

	// inBytes and inBuf are used by the reader loop to read data from the input.
	inBytes []byte
	inBuf   [256]byte
	prompt  []rune

	// bindings holds key bindings, mapping key input to an command to perform. If a
	// key is not present in the binding map it is inserted at the current cursor
	// position.
	bindings map[rune]command

	// asyncPrint lets other goroutines print output above the prompt while
	// ReadLine is blocked on terminal input. See Print.
	asyncPrint asyncPrint

	// bracketedPaste, when set, tells the terminal (via the standard
	// \x1b[?2004h/l sequences) to wrap pasted text in keyPasteStart/
	// keyPasteEnd markers so it can be inserted verbatim. See
	// SetBracketedPaste.
	bracketedPaste bool

	mu struct {
		sync.Mutex
		state state
	}
}

// New creates a new Prompt using the supplied options. If no options are
// specified, the Prompt uses os.Stdin and os.Stdout for input and output.
func New(options ...Option) *Prompt {
	p := &Prompt{
		in:       os.Stdin,
		out:      os.Stdout,
		bindings: make(map[rune]command),
	}

	if err := parseBindings(p.bindings, defaultBindings); err != nil {
		panic(err)
	}

	p.mu.state.screen.Init()
	// Default history size; SetMaxHistorySize overrides it.
	p.mu.state.history.SetMaxSize(1000)
	p.asyncPrint.init()
	for _, opt := range options {
		opt.apply(p)
	}

	type fdGetter interface {
		Fd() uintptr
	}
	if f, ok := p.in.(fdGetter); ok {
		p.fd = int(f.Fd())
	}
	return p
}

// Close closes the Prompt, releasing any open resources. If a history file
// is configured, it is rewritten in full (oldest first, trimmed to the
// configured max size) before the underlying file is closed.
func (p *Prompt) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := &p.mu.state.history
	if h.path != "" {
		if err := h.SaveFile(h.path); err != nil {
			return wrapHistoryErr("save", err)
		}
	}
	return h.Close()
}

// BindKey binds keyspec (the same syntax accepted in the default bindings
// table, e.g. "Control-x" or "Meta-Left") to the named command. It replaces
// any existing binding for that key.
func (p *Prompt) BindKey(keyspec, cmd string) error {
	key, bound, err := parseBinding("bind " + keyspec + " " + cmd)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindings[key] = bound
	return nil
}

// Print writes msg above the current input line without disturbing it. It
// is safe to call from any goroutine, including while another goroutine is
// blocked in ReadLine.
func (p *Prompt) Print(msg string) {
	p.asyncPrint.push(msg)
}

// ReadLine reads a line of input. If the user cancels the input with Ctrl-C
// (a non-empty buffer), ErrCanceled is returned. If the input stream itself
// ends (e.g. Ctrl-D on an empty line), io.EOF is returned instead.
func (p *Prompt) ReadLine(prompt string) (string, error) {
	if os.Getenv("TERM") == "dumb" || (p.fd != -1 && !term.IsTerminal(p.fd)) {
		return p.readLineFallback(prompt)
	}

	if err := p.updateSize(); err != nil {
		return "", err
	}

	if p.fd != -1 {
		// If we have a file descriptor, set up SIGWINCH handling so we can get notified
		// of changes in the terminal's size.
		winch := make(chan os.Signal, 1)
		signal.Notify(winch, syscall.SIGWINCH)
		go func() {
			for range winch {
				_ = p.updateSize()
			}
		}()
		defer func() {
			signal.Stop(winch)
			close(winch)
		}()

		// Put the terminal into raw mode, restoring the
		// original mode on exit.
		saved, err := term.MakeRaw(p.fd)
		if err != nil {
			return "", err
		}
		defer term.Restore(p.fd, saved)

		if p.bracketedPaste {
			io.WriteString(p.out, "\x1b[?2004h")
			defer io.WriteString(p.out, "\x1b[?2004l")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.mu.state.screen.Reset([]rune(prompt))
	if err := p.mu.state.screen.Flush(p.out); err != nil {
		return "", err
	}

	for {
		// Loop processing keys from the input.
		result, pendingEscape, err := p.processInputLocked()
		if err != nil {
			if errors.Is(err, errSuspend) {
				if serr := p.suspendLocked(); serr != nil {
					return "", serr
				}
				continue
			}
			return "", err
		} else if len(result) > 0 {
			return result, nil
		}

		if err := p.readMoreLocked(pendingEscape); err != nil {
			return "", err
		}
	}
}

// readLineFallback provides a plain line-oriented read/echo path for
// non-TTY or unsupported ($TERM=dumb) output streams, bypassing raw mode
// and all VT rendering.
func (p *Prompt) readLineFallback(prompt string) (string, error) {
	if _, err := io.WriteString(p.out, prompt); err != nil {
		return "", err
	}
	r := bufio.NewReader(p.in)
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) == 0 {
			return "", io.EOF
		}
		if err != io.EOF {
			return "", err
		}
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if len(line) > 0 {
		p.mu.Lock()
		p.mu.state.history.Add(line)
		p.mu.Unlock()
	}
	return line, nil
}

// readResult is the outcome of one attempt to read more bytes from p.in.
type readResult struct {
	n   int
	err error
}

// readMoreLocked blocks (with p.mu unlocked) until more input bytes arrive,
// an async Print message needs draining, or (when pendingEscape is true) a
// bounded timeout elapses with nothing else happening, at which point a
// lone unresolved ESC is resolved as a standalone Escape keypress.
func (p *Prompt) readMoreLocked(pendingEscape bool) error {
	// Preserve any partial escape sequence already buffered.
	if len(p.inBytes) > 0 {
		n := copy(p.inBuf[:], p.inBytes)
		p.inBytes = p.inBuf[:n]
	}
	readBuf := p.inBuf[len(p.inBytes):]

	readCh := make(chan readResult, 1)
	go func() {
		n, err := p.in.Read(readBuf)
		readCh <- readResult{n: n, err: err}
	}()

	var timeout <-chan time.Time
	if pendingEscape {
		timer := time.NewTimer(escapeTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	// If UpdateHint deferred rendering (SetHintDelay configured a nonzero
	// delay), wait for that deadline alongside the escape timeout and the
	// next read; whichever fires first wins.
	var hintTimeout <-chan time.Time
	if c := &p.mu.state.completion; c.hintPending && c.hintDelay > 0 {
		timer := time.NewTimer(c.hintDelay)
		defer timer.Stop()
		hintTimeout = timer.C
	}

	p.mu.Unlock()
	defer p.mu.Lock()

	for {
		select {
		case res := <-readCh:
			if res.err != nil {
				return res.err
			}
			p.mu.Lock()
			p.inBytes = p.inBuf[:res.n+len(p.inBytes)]
			p.mu.Unlock()
			return nil

		case <-p.asyncPrint.wake:
			p.mu.Lock()
			p.drainAsyncPrintLocked()
			p.mu.Unlock()

		case <-timeout:
			p.mu.Lock()
			// Consume the lone ESC byte and dispatch it as a standalone
			// Escape keypress.
			p.inBytes = p.inBytes[1:]
			err := p.dispatchKeyLocked(keyEscape)
			if err == nil {
				err = p.mu.state.screen.Flush(p.out)
			}
			p.mu.Unlock()
			if err != nil {
				return err
			}
			timeout = nil

		case <-hintTimeout:
			p.mu.Lock()
			p.mu.state.completion.computeAndRenderHint(&p.mu.state)
			err := p.mu.state.screen.Flush(p.out)
			p.mu.Unlock()
			if err != nil {
				return err
			}
			hintTimeout = nil
		}
	}
}

// drainAsyncPrintLocked prints any pending async messages above the
// current input line, then re-renders the prompt and input text.
func (p *Prompt) drainAsyncPrintLocked() {
	msgs := p.asyncPrint.drain()
	if len(msgs) == 0 {
		return
	}
	s := &p.mu.state
	// Erase the frame from its top row down, write the messages there, and
	// redraw the prompt and input below them.
	savedPos := s.screen.Position()
	s.screen.moveCursor(0, 0)
	s.screen.outbuf.WriteString("\x1b[J")
	for _, m := range msgs {
		s.screen.outbuf.WriteString(m)
		s.screen.outbuf.WriteString("\r\n")
	}
	s.screen.invalidateLines()
	s.screen.cursorPos, s.screen.cursorX, s.screen.cursorY = 0, 0, 0
	s.screen.renderText(len(s.screen.text))
	s.screen.MoveTo(savedPos)
	_ = s.screen.Flush(p.out)
}

// suspendLocked restores cooked terminal mode, raises SIGTSTP against this
// process, and re-enters raw mode with a full screen refresh once the shell
// resumes the process with SIGCONT.
func (p *Prompt) suspendLocked() error {
	if p.fd == -1 {
		return nil
	}

	saved, err := term.GetState(p.fd)
	if err != nil {
		return err
	}
	if err := term.Restore(p.fd, saved); err != nil {
		return err
	}

	cont := make(chan os.Signal, 1)
	signal.Notify(cont, syscall.SIGCONT)
	defer signal.Stop(cont)

	_ = syscall.Kill(syscall.Getpid(), syscall.SIGTSTP)
	<-cont

	if _, err := term.MakeRaw(p.fd); err != nil {
		return err
	}
	p.mu.state.screen.Refresh()
	return p.mu.state.screen.Flush(p.out)
}

// processInputLocked consumes as many complete keys as are buffered,
// dispatching each. It reports the accepted line (if any), and whether the
// remaining buffered bytes are an unresolved escape sequence prefix that
// readMoreLocked should apply escapeTimeout to.
func (p *Prompt) processInputLocked() (result string, pendingEscape bool, err error) {
	for err == nil {
		var key rune
		origInBytes := p.inBytes
		key, p.inBytes = parseKey(p.inBytes)
		if key == utf8.RuneError {
			pendingEscape = isPendingEscape(p.inBytes)
			break
		}
		debugPrintf(" input: %q -> %s\n",
			origInBytes[:len(origInBytes)-len(p.inBytes)], debugKey(key))
		err = p.dispatchKeyLocked(key)
	}

	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, ErrCanceled) {
		// Flush any buffered rendering commands, including the "^C" echo
		// written by cmdCancel.
		if ferr := p.mu.state.screen.Flush(p.out); ferr != nil && err == nil {
			err = ferr
		}
	}

	if errors.Is(err, io.EOF) {
		if text := string(p.mu.state.screen.Text()); len(text) > 0 {
			p.mu.state.history.Add(text)
			return text, false, nil
		}
	}
	return "", pendingEscape, err
}

func (p *Prompt) updateSize() error {
	if p.fd == -1 {
		return nil
	}

	width, height, err := term.GetSize(p.fd)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.mu.state.screen.SetSize(width, height)
	return p.mu.state.screen.Flush(p.out)
}

func (p *Prompt) dispatchKeyLocked(key rune) error {
	s := &p.mu.state

	if key == keyPasteStart {
		s.pasting = true
		return nil
	}
	if key == keyPasteEnd {
		s.pasting = false
		return nil
	}
	if s.pasting {
		if key == '\r' {
			key = '\n'
		}
		s.screen.Insert(key)
		return nil
	}

	cmd := p.bindings[key]
	if cmd == "" {
		cmd = cmdInsertChar
	}
	if cmd == cmdSuspend {
		return errSuspend
	}

	err := p.dispatchChainLocked(s, cmd, key)
	if err == nil {
		if fn := s.completion.modify; fn != nil {
			text, pos := fn(append([]rune(nil), s.screen.Text()...), s.screen.Position())
			if string(text) != string(s.screen.Text()) || pos != s.screen.Position() {
				s.screen.MoveTo(0)
				s.screen.EraseTo(s.screen.End())
				s.screen.Insert(text...)
				s.screen.MoveTo(pos)
			}
		}
		s.bracket.Update(s)
		s.completion.UpdateHint(s)
	}
	return err
}

func (p *Prompt) dispatchChainLocked(s *state, cmd command, key rune) error {
	if ok, err := s.killRing.Dispatch(s, cmd, key); err != nil {
		return err
	} else if ok {
		return nil
	}

	if ok, err := s.history.Dispatch(s, cmd, key); err != nil {
		return err
	} else if ok {
		return nil
	}

	if ok, err := s.completion.Dispatch(s, cmd, key); err != nil {
		return err
	} else if ok {
		return nil
	}

	if fn, ok := baseCommands[cmd]; ok {
		_, err := fn(s, key)
		return err
	}

	return nil
}
