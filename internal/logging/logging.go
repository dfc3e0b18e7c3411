package logging

import "log"

// Provides a simple logger interface for the application

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// StdLogger writes to the standard log package. Debug messages are
// emitted only when Verbose is set.
type StdLogger struct {
	Verbose bool
}

func (l StdLogger) Debug(msg string, args ...any) {
	if l.Verbose {
		log.Printf("DEBUG: "+msg, args...)
	}
}
func (StdLogger) Info(msg string, args ...any)  { log.Printf("INFO: "+msg, args...) }
func (StdLogger) Warn(msg string, args ...any)  { log.Printf("WARN: "+msg, args...) }
func (StdLogger) Error(msg string, args ...any) { log.Printf("ERROR: "+msg, args...) }

// Nop discards everything. Components that take an optional logger
// substitute Nop for nil so call sites never have to check.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}

// OrNop returns l, or a Nop logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop{}
	}
	return l
}
