package monitoring

import "fmt"

// Level classifies a status message for the user.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// String returns the level tag used in log output.
func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Status is one classified message from an operation.
type Status struct {
	Level   Level
	Message string
}

// Reporter collects classified status messages from a content operation and
// mirrors them to the package logger. Every failure path reports a message
// before the operation returns, so nothing is silently swallowed.
type Reporter struct {
	statuses []Status
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) report(level Level, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	r.statuses = append(r.statuses, Status{Level: level, Message: msg})
	Logf("[%s] %s", level, msg)
}

// Infof records an informational status.
func (r *Reporter) Infof(format string, v ...interface{}) {
	r.report(LevelInfo, format, v...)
}

// Warnf records a warning status.
func (r *Reporter) Warnf(format string, v ...interface{}) {
	r.report(LevelWarning, format, v...)
}

// Errorf records an error status.
func (r *Reporter) Errorf(format string, v ...interface{}) {
	r.report(LevelError, format, v...)
}

// Statuses returns a snapshot of the recorded messages in report order.
func (r *Reporter) Statuses() []Status {
	out := make([]Status, len(r.statuses))
	copy(out, r.statuses)
	return out
}

// HasLevel reports whether any recorded status carries the given level.
func (r *Reporter) HasLevel(level Level) bool {
	for _, s := range r.statuses {
		if s.Level == level {
			return true
		}
	}
	return false
}
