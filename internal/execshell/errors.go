package execshell

import (
	"errors"
	"fmt"
)

const (
	launchErrorTemplateConstant              = "%s: %v"
	internalConsistencyErrorTemplateConstant = "internal consistency violation during %s: %v"
	unknownProcessTemplateConstant           = "%w: process %d"
	noChildrenTemplateConstant               = "%w: %v"
	foregroundOccupiedTemplateConstant       = "%w: job %d"
)

var (
	// ErrDeliveryNotHeld indicates shared job state was touched while notifications could be delivered.
	ErrDeliveryNotHeld = errors.New("child status delivery is not held")
	// ErrUnknownProcess indicates a status report named a process no job owns.
	ErrUnknownProcess = errors.New("status report for unknown process")
	// ErrNoChildren indicates the wait primitive found no child processes.
	ErrNoChildren = errors.New("no child processes")
	// ErrEmptyArguments indicates a launch request without a program name.
	ErrEmptyArguments = errors.New("no program name provided")
	// ErrForegroundOccupied indicates a second job was about to enter the foreground.
	ErrForegroundOccupied = errors.New("another job is already in the foreground")
)

// LaunchError reports a program that could not be started; the user has already been told.
type LaunchError struct {
	ProgramName string
	Cause       error
}

// Error describes the launch failure.
func (launchError *LaunchError) Error() string {
	return fmt.Sprintf(launchErrorTemplateConstant, launchError.ProgramName, launchError.Cause)
}

// Unwrap exposes the underlying start failure.
func (launchError *LaunchError) Unwrap() error {
	return launchError.Cause
}

// InternalConsistencyError reports that job tracking and the operating system disagree.
// The interpreter cannot continue after one.
type InternalConsistencyError struct {
	Operation string
	Cause     error
}

// Error describes the violation.
func (consistencyError *InternalConsistencyError) Error() string {
	return fmt.Sprintf(internalConsistencyErrorTemplateConstant, consistencyError.Operation, consistencyError.Cause)
}

// Unwrap exposes the underlying failure.
func (consistencyError *InternalConsistencyError) Unwrap() error {
	return consistencyError.Cause
}
