package execshell

import "sync/atomic"

// Conventional exit status values.
const (
	ExitStatusSuccess         = 0
	ExitStatusFailure         = 1
	ExitStatusSyntaxError     = 2
	ExitStatusCommandNotFound = 127
	ExitStatusSignalOffset    = 128
)

// ExitStatus holds the result of the most recently completed foreground command.
type ExitStatus struct {
	value atomic.Int32
}

// NewExitStatus constructs an exit status initialized to success.
func NewExitStatus() *ExitStatus {
	return &ExitStatus{}
}

// Set records a new exit status.
func (exitStatus *ExitStatus) Set(code int) {
	exitStatus.value.Store(int32(code))
}

// Get returns the most recent exit status.
func (exitStatus *ExitStatus) Get() int {
	return int(exitStatus.value.Load())
}
