package failure

import (
	"errors"

	"github.com/rs/zerolog"
)

// Severity is the level a Recorder writes an entry at.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

// Recorder receives one diagnostic entry per translated failure. err carries
// internal detail for operators and never reaches the response body.
// Implementations must be safe for concurrent use.
type Recorder interface {
	Record(sev Severity, msg string, err error)
}

type nopRecorder struct{}

func (nopRecorder) Record(Severity, string, error) {}

// zerologRecorder writes entries through a zerolog.Logger.
type zerologRecorder struct {
	lg *zerolog.Logger
}

// ZerologRecorder adapts lg to a Recorder. Errors wrapped with
// github.com/pkg/errors get their stack attached (see sysutil.SetupLogger),
// and recovered panics log the captured goroutine stack.
func ZerologRecorder(lg *zerolog.Logger) Recorder {
	if lg == nil {
		nop := zerolog.Nop()
		lg = &nop
	}
	return zerologRecorder{lg: lg}
}

func (r zerologRecorder) Record(sev Severity, msg string, err error) {
	ev := r.event(sev)
	if err != nil {
		var pe *PanicError
		if errors.As(err, &pe) {
			ev = ev.Interface("panic", pe.Value).Bytes("stack", pe.Stack)
		}
		ev = ev.Stack().Err(err)
	}
	ev.Msg(msg)
}

func (r zerologRecorder) event(sev Severity) *zerolog.Event {
	switch sev {
	case SeverityDebug:
		return r.lg.Debug()
	case SeverityInfo:
		return r.lg.Info()
	case SeverityWarn:
		return r.lg.Warn()
	default:
		return r.lg.Error()
	}
}
