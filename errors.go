package prompt

import "github.com/pkg/errors"

// ErrTerminalUnsupported reports a terminal Prompt cannot drive (not a TTY,
// or $TERM=dumb). ReadLine does not return it: on such a terminal it reads
// a plain line instead and returns that read's own error, if any.
var ErrTerminalUnsupported = errors.New("prompt: unsupported terminal")

// ErrCanceled is returned by ReadLine when the user cancels the current
// input with Ctrl-C (cancel-line) while the buffer is non-empty. The
// terminal has already echoed "^C" followed by a newline, and the
// returned string is always empty; this is distinct from io.EOF, which
// ReadLine returns when the input stream itself ends (e.g. Ctrl-D on an
// empty line, or the underlying reader closing).
var ErrCanceled = errors.New("prompt: canceled")

// historyErr wraps a failure saving the history file. History I/O failures
// are never fatal to ReadLine: Prompt.Close returns a save failure wrapped
// in this type, and a load failure in WithHistoryFile is only written to
// the debug log.
type historyErr struct {
	op  string
	err error
}

func (e *historyErr) Error() string {
	return "prompt: history " + e.op + ": " + e.err.Error()
}

func (e *historyErr) Unwrap() error {
	return e.err
}

func wrapHistoryErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &historyErr{op: op, err: errors.WithStack(err)}
}

// terminalWriteErr wraps a failure writing rendered output to the
// terminal. Unlike history errors, a terminal write error aborts the
// in-progress ReadLine call since the editor can no longer reliably render.
type terminalWriteErr struct {
	err error
}

func (e *terminalWriteErr) Error() string {
	return "prompt: terminal write: " + e.err.Error()
}

func (e *terminalWriteErr) Unwrap() error {
	return e.err
}

func wrapTerminalWriteErr(err error) error {
	if err == nil {
		return nil
	}
	return &terminalWriteErr{err: errors.WithStack(err)}
}
