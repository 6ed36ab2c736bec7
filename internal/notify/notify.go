// Package notify carries user-facing messages with a severity.
package notify

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Severity of a notification.
type Severity int

const (
	Info Severity = iota
	Success
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Notifier receives user-facing messages.
type Notifier interface {
	Notify(sev Severity, msg string)
}

// Log writes notifications through zerolog.
type Log struct {
	Logger *zerolog.Logger
}

func (l Log) Notify(sev Severity, msg string) {
	logger := l.Logger
	if logger == nil {
		logger = &log.Logger
	}
	var ev *zerolog.Event
	switch sev {
	case Warn:
		ev = logger.Warn()
	case Error:
		ev = logger.Error()
	default:
		ev = logger.Info()
	}
	ev.Str("severity", sev.String()).Msg(msg)
}

// Message is a recorded notification.
type Message struct {
	Severity Severity
	Text     string
}

// Recorder keeps notifications in memory and optionally forwards them.
type Recorder struct {
	Next Notifier

	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Notify(sev Severity, msg string) {
	r.mu.Lock()
	r.messages = append(r.messages, Message{Severity: sev, Text: msg})
	r.mu.Unlock()
	if r.Next != nil {
		r.Next.Notify(sev, msg)
	}
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Count returns how many messages of the given severity were recorded.
func (r *Recorder) Count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}
