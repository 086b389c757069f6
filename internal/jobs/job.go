package jobs

import (
	"fmt"
	"syscall"
)

// Status enumerates job lifecycle states.
type Status int

const (
	// StatusForeground marks the single job the shell waits on before running the next statement.
	StatusForeground Status = iota
	// StatusBackground marks a running job the shell does not wait on.
	StatusBackground
	// StatusStopped marks a job suspended by a stop signal.
	StatusStopped
	// StatusNeedsTerminal marks a background job stopped because it tried to use the terminal.
	StatusNeedsTerminal
	// StatusTerminatedViaExit marks a job whose processes exited normally.
	StatusTerminatedViaExit
	// StatusTerminatedViaSignal marks a job whose last process was killed by a signal.
	StatusTerminatedViaSignal
)

const (
	statusForegroundLabelConstant          = "Foreground"
	statusBackgroundLabelConstant          = "Running"
	statusStoppedLabelConstant             = "Stopped"
	statusNeedsTerminalLabelConstant       = "Stopped (tty)"
	statusTerminatedViaExitLabelConstant   = "Done"
	statusTerminatedViaSignalLabelConstant = "Killed"
	statusUnknownLabelTemplateConstant     = "unknown(%d)"
	unsetJobIdentifierConstant             = 0
)

// String returns the label used when listing jobs.
func (status Status) String() string {
	switch status {
	case StatusForeground:
		return statusForegroundLabelConstant
	case StatusBackground:
		return statusBackgroundLabelConstant
	case StatusStopped:
		return statusStoppedLabelConstant
	case StatusNeedsTerminal:
		return statusNeedsTerminalLabelConstant
	case StatusTerminatedViaExit:
		return statusTerminatedViaExitLabelConstant
	case StatusTerminatedViaSignal:
		return statusTerminatedViaSignalLabelConstant
	default:
		return fmt.Sprintf(statusUnknownLabelTemplateConstant, int(status))
	}
}

// Terminated reports whether no further transitions are possible.
func (status Status) Terminated() bool {
	return status == StatusTerminatedViaExit || status == StatusTerminatedViaSignal
}

// ProcessState enumerates the states of a single member process.
type ProcessState int

const (
	// ProcessRunning marks a member that has not been reported on, or was resumed.
	ProcessRunning ProcessState = iota
	// ProcessStopped marks a member suspended by a stop signal.
	ProcessStopped
	// ProcessExited marks a member reaped after a normal exit.
	ProcessExited
	// ProcessSignaled marks a member reaped after being killed by a signal.
	ProcessSignaled
)

// Reaped reports whether the member will never be reported on again.
func (state ProcessState) Reaped() bool {
	return state == ProcessExited || state == ProcessSignaled
}

// Process is a snapshot of one member process of a job.
type Process struct {
	ID       int
	State    ProcessState
	ExitCode int
	Signal   syscall.Signal
}

// Job is one shell-level unit of execution.
type Job struct {
	identifier     int
	status         Status
	aliveCount     int
	processGroupID int
	commandLine    string
	members        []*Process
}

// Identifier returns the job id, or zero when the job is not registered.
func (job *Job) Identifier() int {
	return job.identifier
}

// Status returns the current job status.
func (job *Job) Status() Status {
	return job.status
}

// AliveCount returns the number of member processes not yet reaped.
func (job *Job) AliveCount() int {
	return job.aliveCount
}

// ProcessGroupID returns the process group shared by every member, or zero before launch.
func (job *Job) ProcessGroupID() int {
	return job.processGroupID
}

// CommandLine returns the text shown when reporting on the job.
func (job *Job) CommandLine() string {
	return job.commandLine
}

// SetCommandLine records the text shown when reporting on the job.
func (job *Job) SetCommandLine(commandLine string) {
	job.commandLine = commandLine
}

// SetStatus moves the job to the provided status.
// Terminal statuses are final; later calls are ignored.
func (job *Job) SetStatus(status Status) {
	if job.status.Terminated() {
		return
	}
	job.status = status
}

// Processes returns copies of the member process records in launch order.
func (job *Job) Processes() []Process {
	snapshot := make([]Process, 0, len(job.members))
	for _, member := range job.members {
		snapshot = append(snapshot, *member)
	}
	return snapshot
}

// RecordExit marks the member as exited and reports whether the job just lost its last live member.
func (job *Job) RecordExit(processID int, exitCode int) (bool, error) {
	member, lookupError := job.liveMember(processID)
	if lookupError != nil {
		return false, lookupError
	}
	member.State = ProcessExited
	member.ExitCode = exitCode
	return job.reap(StatusTerminatedViaExit), nil
}

// RecordSignal marks the member as killed by signal and reports whether the job just lost its last live member.
func (job *Job) RecordSignal(processID int, signal syscall.Signal) (bool, error) {
	member, lookupError := job.liveMember(processID)
	if lookupError != nil {
		return false, lookupError
	}
	member.State = ProcessSignaled
	member.Signal = signal
	return job.reap(StatusTerminatedViaSignal), nil
}

// RecordStop marks the member as stopped and moves the job to the stopped status.
// A background job stopped for terminal access moves to StatusNeedsTerminal instead.
func (job *Job) RecordStop(processID int, signal syscall.Signal) error {
	member, lookupError := job.liveMember(processID)
	if lookupError != nil {
		return lookupError
	}
	member.State = ProcessStopped
	member.Signal = signal
	if job.status == StatusBackground && (signal == syscall.SIGTTIN || signal == syscall.SIGTTOU) {
		job.SetStatus(StatusNeedsTerminal)
		return nil
	}
	job.SetStatus(StatusStopped)
	return nil
}

// Resume marks stopped members as running and moves the job to the provided status.
func (job *Job) Resume(status Status) {
	for _, member := range job.members {
		if member.State == ProcessStopped {
			member.State = ProcessRunning
			member.Signal = 0
		}
	}
	job.SetStatus(status)
}

// Abandon marks every live member as exited without a known status.
// It is used when the operating system reports no remaining children.
func (job *Job) Abandon() {
	for _, member := range job.members {
		if !member.State.Reaped() {
			member.State = ProcessExited
		}
	}
	if job.aliveCount > 0 {
		job.aliveCount = 0
		job.SetStatus(StatusTerminatedViaExit)
	}
}

func (job *Job) addMember(processID int) {
	if len(job.members) == 0 {
		job.processGroupID = processID
	}
	job.members = append(job.members, &Process{ID: processID, State: ProcessRunning})
	job.aliveCount++
}

func (job *Job) liveMember(processID int) (*Process, error) {
	for _, member := range job.members {
		if member.ID != processID {
			continue
		}
		if member.State.Reaped() {
			return nil, fmt.Errorf(processAlreadyReapedTemplateConstant, ErrProcessNotAlive, processID, job.identifier)
		}
		return member, nil
	}
	return nil, fmt.Errorf(processNotMemberTemplateConstant, ErrProcessNotMember, processID, job.identifier)
}

func (job *Job) reap(terminalStatus Status) bool {
	if job.aliveCount == 0 {
		return false
	}
	job.aliveCount--
	if job.aliveCount > 0 {
		return false
	}
	job.SetStatus(terminalStatus)
	return true
}
