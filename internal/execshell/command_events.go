package execshell

import "github.com/temirov/minibash/internal/jobs"

// LaunchedCommand identifies a command handed to the launcher.
type LaunchedCommand struct {
	JobIdentifier int
	ProcessID     int
	Arguments     []string
	Background    bool
}

// CommandOutcome summarizes a foreground job after the wait returns.
type CommandOutcome struct {
	Status     jobs.Status
	ExitStatus int
}

// CommandEventObserver receives lifecycle notifications for launched commands.
// Observers run on the control goroutine only.
type CommandEventObserver interface {
	// CommandStarted notifies observers that a process was created for the command.
	CommandStarted(command LaunchedCommand)
	// CommandCompleted notifies observers that a foreground command stopped being the foreground job.
	CommandCompleted(command LaunchedCommand, outcome CommandOutcome)
	// CommandLaunchFailed reports a command whose process could not be created.
	CommandLaunchFailed(command LaunchedCommand, failure error)
}

// noopCommandEventObserver discards all command events.
type noopCommandEventObserver struct{}

// CommandStarted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandStarted(LaunchedCommand) {}

// CommandCompleted implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandCompleted(LaunchedCommand, CommandOutcome) {}

// CommandLaunchFailed implements CommandEventObserver for the no-op observer.
func (noopCommandEventObserver) CommandLaunchFailed(LaunchedCommand, error) {}

// NewNoopCommandEventObserver returns an observer that ignores every event.
func NewNoopCommandEventObserver() CommandEventObserver {
	return noopCommandEventObserver{}
}
