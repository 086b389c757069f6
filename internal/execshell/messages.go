package execshell

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/temirov/minibash/internal/jobs"
)

const (
	shellNameConstant                     = "minibash"
	commandNotFoundTemplateConstant       = "%s: %s: command not found\n"
	backgroundStartedTemplateConstant     = "[%d] %d\n"
	jobReportTemplateConstant             = "[%d]%s  %-24s%s\n"
	currentJobMarkerConstant              = "+"
	otherJobMarkerConstant                = " "
	signalSuffixTemplateConstant          = " (%s)"
	exitCodeStatusLabelTemplateConstant   = "Exit %d"
	noSuchJobTemplateConstant             = "%s: %s: %s: no such job\n"
	noCurrentJobTemplateConstant          = "%s: %s: current: no such job\n"
	jobAlreadyTerminatedTemplateConstant  = "%s: %s: job %d has terminated\n"
	missingCommandNameMessageConstant     = "Error: No command name found\n"
	unsupportedStatementTemplateConstant  = "node type `%s` not implemented\n"
	syntaxErrorTemplateConstant           = "%s: syntax error: %v\n"
	builtinFailureTemplateConstant        = "%s: %s: %v\n"
	backgroundResumedTemplateConstant     = "[%d]%s %s &\n"
	foregroundResumedTemplateConstant     = "%s\n"
	commandArgumentsJoinSeparatorConstant = " "
)

// MessageFormatter renders the text the shell prints for users.
type MessageFormatter struct{}

// CommandNotFound formats the launch failure message.
func (formatter MessageFormatter) CommandNotFound(programName string) string {
	return fmt.Sprintf(commandNotFoundTemplateConstant, shellNameConstant, programName)
}

// BackgroundStarted formats the notice printed when a background job starts.
func (formatter MessageFormatter) BackgroundStarted(job *jobs.Job) string {
	return fmt.Sprintf(backgroundStartedTemplateConstant, job.Identifier(), job.ProcessGroupID())
}

// JobReport formats one line describing the job's status.
func (formatter MessageFormatter) JobReport(job *jobs.Job, current bool) string {
	marker := otherJobMarkerConstant
	if current {
		marker = currentJobMarkerConstant
	}
	return fmt.Sprintf(jobReportTemplateConstant, job.Identifier(), marker, formatter.statusLabel(job), job.CommandLine())
}

// NoSuchJob formats the error for a job reference that matches nothing.
func (formatter MessageFormatter) NoSuchJob(builtinName string, jobReference string) string {
	if len(jobReference) == 0 {
		return fmt.Sprintf(noCurrentJobTemplateConstant, shellNameConstant, builtinName)
	}
	return fmt.Sprintf(noSuchJobTemplateConstant, shellNameConstant, builtinName, jobReference)
}

// JobTerminated formats the error for resuming a job that already finished.
func (formatter MessageFormatter) JobTerminated(builtinName string, job *jobs.Job) string {
	return fmt.Sprintf(jobAlreadyTerminatedTemplateConstant, shellNameConstant, builtinName, job.Identifier())
}

// MissingCommandName formats the error for a command without a name.
func (formatter MessageFormatter) MissingCommandName() string {
	return missingCommandNameMessageConstant
}

// UnsupportedStatement formats the notice for a statement kind the interpreter skips.
func (formatter MessageFormatter) UnsupportedStatement(statementKind string) string {
	return fmt.Sprintf(unsupportedStatementTemplateConstant, statementKind)
}

// SyntaxError formats a parse failure.
func (formatter MessageFormatter) SyntaxError(parseError error) string {
	return fmt.Sprintf(syntaxErrorTemplateConstant, shellNameConstant, parseError)
}

// BuiltinFailure formats an error raised by a built-in command.
func (formatter MessageFormatter) BuiltinFailure(builtinName string, failure error) string {
	return fmt.Sprintf(builtinFailureTemplateConstant, shellNameConstant, builtinName, failure)
}

// BackgroundResumed formats the notice printed when bg continues a job.
func (formatter MessageFormatter) BackgroundResumed(job *jobs.Job) string {
	return fmt.Sprintf(backgroundResumedTemplateConstant, job.Identifier(), currentJobMarkerConstant, job.CommandLine())
}

// ForegroundResumed formats the command line echoed when fg continues a job.
func (formatter MessageFormatter) ForegroundResumed(job *jobs.Job) string {
	return fmt.Sprintf(foregroundResumedTemplateConstant, job.CommandLine())
}

// CommandLine joins arguments into the text shown in job reports.
func (formatter MessageFormatter) CommandLine(arguments []string) string {
	return strings.Join(arguments, commandArgumentsJoinSeparatorConstant)
}

func (formatter MessageFormatter) statusLabel(job *jobs.Job) string {
	switch job.Status() {
	case jobs.StatusTerminatedViaExit:
		lastExitCode := formatter.lastExitCode(job)
		if lastExitCode != 0 {
			return fmt.Sprintf(exitCodeStatusLabelTemplateConstant, lastExitCode)
		}
		return job.Status().String()
	case jobs.StatusTerminatedViaSignal, jobs.StatusStopped:
		signalLabel := formatter.lastSignalLabel(job)
		if len(signalLabel) == 0 {
			return job.Status().String()
		}
		return job.Status().String() + fmt.Sprintf(signalSuffixTemplateConstant, signalLabel)
	default:
		return job.Status().String()
	}
}

func (formatter MessageFormatter) lastExitCode(job *jobs.Job) int {
	members := job.Processes()
	if len(members) == 0 {
		return 0
	}
	return members[len(members)-1].ExitCode
}

func (formatter MessageFormatter) lastSignalLabel(job *jobs.Job) string {
	members := job.Processes()
	for memberIndex := len(members) - 1; memberIndex >= 0; memberIndex-- {
		if members[memberIndex].Signal != 0 {
			return unix.SignalName(members[memberIndex].Signal)
		}
	}
	return ""
}
