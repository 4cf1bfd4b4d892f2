package sandbox

import "time"

// Config bounds a runtime.
type Config struct {
	Timeout       time.Duration // per execution
	MaxCallStack  int
	EnableConsole bool
}

// Result is the outcome of one execution.
type Result struct {
	Value    any
	Console  []LogEntry
	Duration time.Duration
}

// LogEntry is one console call.
type LogEntry struct {
	Level   string
	Message string
	Time    time.Time
}

// DefaultConfig returns the limits used for script checks.
func DefaultConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		MaxCallStack:  1024,
		EnableConsole: true,
	}
}
