package journal

import "time"

// Status is the state of a build attempt.
type Status string

const (
	StatusRunning    Status = "running"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusTimeout    Status = "timeout"
	StatusRolledBack Status = "rolled_back"
)

// Terminal reports whether s is a finished state.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusTimeout, StatusRolledBack:
		return true
	}
	return false
}

// Outcome is what Finish records.
type Outcome struct {
	Status   Status
	ExitCode *int
	Summary  string
	Stdout   []byte
	Stderr   []byte
}

// Entry is one journaled build attempt.
type Entry struct {
	Seq        int64
	ID         string
	Program    string
	Language   string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     Status
	ExitCode   *int
	Summary    string
	Stdout     []byte
	Stderr     []byte
}

// Duration returns how long the build ran, or zero while it runs.
func (e Entry) Duration() time.Duration {
	if e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}
