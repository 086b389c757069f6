package execshell

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/minibash/internal/jobs"
	"github.com/temirov/minibash/internal/notification"
)

const (
	launchFailedMessageConstant  = "unable to start program"
	launchedMessageConstant      = "started program"
	logFieldProgramConstant      = "program"
	logFieldProcessIDConstant    = "pid"
	logFieldBackgroundConstant   = "background"
	allocateJobOperationConstant = "allocate job"
	attachOperationConstant      = "attach process"
	deleteJobOperationConstant   = "delete failed job"
	foregroundOperationConstant  = "enter foreground"
)

// LaunchRequest describes one simple command to run as a new job.
type LaunchRequest struct {
	Arguments   []string
	CommandLine string
	Background  bool
}

// ProcessLauncher turns launch requests into registered jobs with running processes.
type ProcessLauncher struct {
	registry       *jobs.Registry
	gate           *notification.DeliveryGate
	lastExitStatus *ExitStatus
	starter        ProcessStarter
	observer       CommandEventObserver
	errorOutput    io.Writer
	formatter      MessageFormatter
	logger         *zap.Logger
}

// NewProcessLauncher constructs a launcher that reports start failures to errorOutput.
func NewProcessLauncher(registry *jobs.Registry, gate *notification.DeliveryGate, lastExitStatus *ExitStatus, starter ProcessStarter, observer CommandEventObserver, errorOutput io.Writer, logger *zap.Logger) *ProcessLauncher {
	if observer == nil {
		observer = NewNoopCommandEventObserver()
	}
	if errorOutput == nil {
		errorOutput = io.Discard
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessLauncher{
		registry:       registry,
		gate:           gate,
		lastExitStatus: lastExitStatus,
		starter:        starter,
		observer:       observer,
		errorOutput:    errorOutput,
		logger:         logger,
	}
}

// Launch allocates a tracked job and starts the program in a new process group.
// A program that cannot be started is reported as command not found, sets the
// last exit status to 127, and yields a *LaunchError after the job is removed.
// Any other error is fatal to the interpreter.
func (launcher *ProcessLauncher) Launch(request LaunchRequest) (*jobs.Job, error) {
	if !launcher.gate.Held() {
		return nil, ErrDeliveryNotHeld
	}
	if len(request.Arguments) == 0 {
		return nil, ErrEmptyArguments
	}
	if !request.Background {
		if occupiedError := EnsureForegroundVacant(launcher.registry, nil); occupiedError != nil {
			return nil, occupiedError
		}
	}

	job, allocateError := launcher.registry.Allocate(true)
	if allocateError != nil {
		return nil, &InternalConsistencyError{Operation: allocateJobOperationConstant, Cause: allocateError}
	}

	commandLine := request.CommandLine
	if len(commandLine) == 0 {
		commandLine = launcher.formatter.CommandLine(request.Arguments)
	}
	job.SetCommandLine(commandLine)
	if request.Background {
		job.SetStatus(jobs.StatusBackground)
	} else {
		job.SetStatus(jobs.StatusForeground)
	}

	launchedCommand := LaunchedCommand{
		JobIdentifier: job.Identifier(),
		Arguments:     request.Arguments,
		Background:    request.Background,
	}

	processID, startError := launcher.starter.Start(StartRequest{
		Arguments:  request.Arguments,
		Foreground: !request.Background,
	})
	if startError != nil {
		return nil, launcher.failLaunch(job, launchedCommand, startError)
	}

	if attachError := launcher.registry.AttachProcess(job, processID); attachError != nil {
		return nil, &InternalConsistencyError{Operation: attachOperationConstant, Cause: attachError}
	}

	launchedCommand.ProcessID = processID
	launcher.logger.Debug(
		launchedMessageConstant,
		zap.String(logFieldProgramConstant, request.Arguments[0]),
		zap.Int(logFieldProcessIDConstant, processID),
		zap.Int(logFieldJobIdentifierConstant, job.Identifier()),
		zap.Bool(logFieldBackgroundConstant, request.Background),
	)
	launcher.observer.CommandStarted(launchedCommand)
	return job, nil
}

// EnsureForegroundVacant verifies that no job other than candidate currently holds the foreground.
func EnsureForegroundVacant(registry *jobs.Registry, candidate *jobs.Job) error {
	foregroundJob, found := registry.ForegroundJob()
	if !found || foregroundJob == candidate {
		return nil
	}
	return &InternalConsistencyError{
		Operation: foregroundOperationConstant,
		Cause:     fmt.Errorf(foregroundOccupiedTemplateConstant, ErrForegroundOccupied, foregroundJob.Identifier()),
	}
}

func (launcher *ProcessLauncher) failLaunch(job *jobs.Job, launchedCommand LaunchedCommand, startError error) error {
	programName := launchedCommand.Arguments[0]
	fmt.Fprint(launcher.errorOutput, launcher.formatter.CommandNotFound(programName))
	launcher.lastExitStatus.Set(ExitStatusCommandNotFound)
	job.SetStatus(jobs.StatusTerminatedViaExit)

	if deleteError := launcher.registry.Delete(job, true); deleteError != nil {
		return &InternalConsistencyError{Operation: deleteJobOperationConstant, Cause: deleteError}
	}

	launcher.logger.Debug(
		launchFailedMessageConstant,
		zap.String(logFieldProgramConstant, programName),
		zap.Error(startError),
	)
	launchError := &LaunchError{ProgramName: programName, Cause: startError}
	launcher.observer.CommandLaunchFailed(launchedCommand, launchError)
	return launchError
}
