package prompt

import (
	"os"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// dbg holds the lazily-initialized debug logger, gated by $PROMPT_DEBUG so
// that enabling it never costs anything in normal operation.
var dbg = struct {
	sync.Once
	log zerolog.Logger
	on  bool
}{}

func initDebug() {
	path := os.Getenv("PROMPT_DEBUG")
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		return
	}
	dbg.log = zerolog.New(f).With().Timestamp().Logger()
	dbg.on = true
}

// debugPrintf logs a formatted debug message, a no-op unless $PROMPT_DEBUG
// names a writable file.
func debugPrintf(format string, args ...interface{}) {
	dbg.Do(initDebug)
	if !dbg.on {
		return
	}
	dbg.log.Debug().Msgf(format, args...)
}

// debugEvent returns a structured log event tagged with component, for call
// sites that want fields rather than a printf-style message. It is a no-op
// event (Msg/Send discard silently) unless debugging is enabled.
func debugEvent(component string) *zerolog.Event {
	dbg.Do(initDebug)
	if !dbg.on {
		return nil
	}
	return dbg.log.Debug().Str("component", component)
}

func debugKey(r rune) string {
	if r < 32 {
		return "Control-" + string(rune(r+0x60))
	}

	var s string
	switch b := r & ^(keyAlt | keyCtrl); b {
	case utf8.RuneError:
		s = "<incomplete>"
	case keyBackspace:
		s = "<backspace>"
	case keyUnknown:
		s = "<unknown>"
	case keyUp:
		s = "<up>"
	case keyDown:
		s = "<down>"
	case keyLeft:
		s = "<left>"
	case keyRight:
		s = "<right>"
	case keyHome:
		s = "<home>"
	case keyEnd:
		s = "<end>"
	case keyPageUp:
		s = "<page-up>"
	case keyPageDown:
		s = "<page-down>"
	case keyDelete:
		s = "<delete>"
	case keyPasteStart:
		s = "<paste-start>"
	case keyPasteEnd:
		s = "<paste-end>"
	default:
		s = string(b)
	}

	if (r & keyAlt) != 0 {
		s = "Meta-" + s
	}
	if (r & keyCtrl) != 0 {
		s = "Control-" + s
	}
	return s
}
