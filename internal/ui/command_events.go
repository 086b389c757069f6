package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/minibash/internal/execshell"
	"github.com/temirov/minibash/internal/jobs"
)

const (
	commandStartedMessageTemplateConstant          = "Started %s"
	commandCompletedMessageTemplateConstant        = "Completed %s"
	commandFailedExitStatusMessageTemplateConstant = "%s failed with exit status %d"
	commandLeftForegroundMessageTemplateConstant   = "%s left the foreground: %s"
	commandLaunchFailureMessageTemplateConstant    = "%s could not be started: %s"
	commandLabelTemplateConstant                   = "%s%s"
	jobSuffixTemplateConstant                      = " [job %d, pid %d]"
	backgroundSuffixConstant                       = " in the background"
	commandArgumentsJoinSeparatorConstant          = " "
	unknownFailureMessageConstant                  = "unknown error"
	emptyStringConstant                            = ""
)

// CommandEventFormatter builds human-readable messages for command lifecycle events.
type CommandEventFormatter struct{}

// BuildStartedMessage formats the message describing a command whose process was created.
func (formatter CommandEventFormatter) BuildStartedMessage(command execshell.LaunchedCommand) string {
	message := fmt.Sprintf(commandStartedMessageTemplateConstant, formatter.formatCommandLabel(command))
	if command.Background {
		return message + backgroundSuffixConstant
	}
	return message
}

// BuildSuccessMessage formats the message describing a foreground command that finished with status zero.
func (formatter CommandEventFormatter) BuildSuccessMessage(command execshell.LaunchedCommand) string {
	return fmt.Sprintf(commandCompletedMessageTemplateConstant, formatter.formatCommandLabel(command))
}

// BuildFailureMessage formats the message describing a command that finished with a non-zero status or stopped.
func (formatter CommandEventFormatter) BuildFailureMessage(command execshell.LaunchedCommand, outcome execshell.CommandOutcome) string {
	if !outcome.Status.Terminated() {
		return fmt.Sprintf(commandLeftForegroundMessageTemplateConstant, formatter.formatCommandLabel(command), outcome.Status)
	}
	return fmt.Sprintf(commandFailedExitStatusMessageTemplateConstant, formatter.formatCommandLabel(command), outcome.ExitStatus)
}

// BuildLaunchFailureMessage formats the message describing a command whose process could not be created.
func (formatter CommandEventFormatter) BuildLaunchFailureMessage(command execshell.LaunchedCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(commandLaunchFailureMessageTemplateConstant, formatter.formatCommandLabel(command), failureMessage)
}

func (formatter CommandEventFormatter) formatCommandLabel(command execshell.LaunchedCommand) string {
	commandLabel := strings.Join(command.Arguments, commandArgumentsJoinSeparatorConstant)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatJobSuffix(command))
}

func (formatter CommandEventFormatter) formatJobSuffix(command execshell.LaunchedCommand) string {
	if command.JobIdentifier == 0 || command.ProcessID == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(jobSuffixTemplateConstant, command.JobIdentifier, command.ProcessID)
}

// ConsoleCommandEventLogger renders command lifecycle events using a zap logger configured for human-readable output.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter CommandEventFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: CommandEventFormatter{}}
}

// CommandStarted implements execshell.CommandEventObserver by logging process creation.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.LaunchedCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements execshell.CommandEventObserver by logging how a foreground command ended.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.LaunchedCommand, outcome execshell.CommandOutcome) {
	if eventLogger == nil {
		return
	}
	if outcome.Status == jobs.StatusTerminatedViaExit && outcome.ExitStatus == execshell.ExitStatusSuccess {
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command))
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, outcome))
}

// CommandLaunchFailed implements execshell.CommandEventObserver by logging start failures.
func (eventLogger *ConsoleCommandEventLogger) CommandLaunchFailed(command execshell.LaunchedCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildLaunchFailureMessage(command, failure))
}
