package interpreter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/temirov/minibash/internal/execshell"
	"github.com/temirov/minibash/internal/jobs"
)

const (
	trueBuiltinNameConstant       = "true"
	falseBuiltinNameConstant      = "false"
	jobsBuiltinNameConstant       = "jobs"
	foregroundBuiltinNameConstant = "fg"
	backgroundBuiltinNameConstant = "bg"
	jobReferencePrefixConstant    = "%"
	currentJobShorthandConstant   = "%%"
	currentJobAliasConstant       = "%+"
)

// builtinCommand runs in the shell process; arguments include the command name.
type builtinCommand func(interpreter *Interpreter, arguments []string) error

var builtinCommands = map[string]builtinCommand{
	trueBuiltinNameConstant:       runTrueBuiltin,
	falseBuiltinNameConstant:      runFalseBuiltin,
	jobsBuiltinNameConstant:       runJobsBuiltin,
	foregroundBuiltinNameConstant: runForegroundBuiltin,
	backgroundBuiltinNameConstant: runBackgroundBuiltin,
}

func runTrueBuiltin(interpreter *Interpreter, _ []string) error {
	interpreter.lastExitStatus.Set(execshell.ExitStatusSuccess)
	return nil
}

func runFalseBuiltin(interpreter *Interpreter, _ []string) error {
	interpreter.lastExitStatus.Set(execshell.ExitStatusFailure)
	return nil
}

// runJobsBuiltin lists registered jobs and forgets the ones that have finished.
func runJobsBuiltin(interpreter *Interpreter, _ []string) error {
	registeredJobs := interpreter.registry.Jobs()
	currentJob, hasCurrentJob := interpreter.registry.MostRecent()
	for _, job := range registeredJobs {
		fmt.Fprint(interpreter.output, interpreter.formatter.JobReport(job, hasCurrentJob && job == currentJob))
	}
	interpreter.lastExitStatus.Set(execshell.ExitStatusSuccess)
	return interpreter.deleteTerminatedJobs(false)
}

// runForegroundBuiltin continues a job as the foreground job and waits for it.
func runForegroundBuiltin(interpreter *Interpreter, arguments []string) error {
	job, resolved := interpreter.resolveJobArgument(foregroundBuiltinNameConstant, arguments)
	if !resolved {
		return nil
	}

	if occupiedError := execshell.EnsureForegroundVacant(interpreter.registry, job); occupiedError != nil {
		return occupiedError
	}

	fmt.Fprint(interpreter.output, interpreter.formatter.ForegroundResumed(job))
	if !interpreter.continueJob(foregroundBuiltinNameConstant, job) {
		return nil
	}
	job.Resume(jobs.StatusForeground)
	return interpreter.waitInForeground(job, strings.Fields(job.CommandLine()))
}

// runBackgroundBuiltin continues a stopped job without waiting for it.
func runBackgroundBuiltin(interpreter *Interpreter, arguments []string) error {
	job, resolved := interpreter.resolveJobArgument(backgroundBuiltinNameConstant, arguments)
	if !resolved {
		return nil
	}

	interpreter.lastExitStatus.Set(execshell.ExitStatusSuccess)
	if job.Status() == jobs.StatusBackground {
		return nil
	}
	if !interpreter.continueJob(backgroundBuiltinNameConstant, job) {
		return nil
	}
	job.Resume(jobs.StatusBackground)
	fmt.Fprint(interpreter.output, interpreter.formatter.BackgroundResumed(job))
	return nil
}

// resolveJobArgument finds the job named by the first operand, or the most recent job when there is none.
// Failures are reported and set the last exit status.
func (interpreter *Interpreter) resolveJobArgument(builtinName string, arguments []string) (*jobs.Job, bool) {
	jobReference := ""
	if len(arguments) > 1 {
		jobReference = arguments[1]
	}

	var job *jobs.Job
	var found bool
	switch jobReference {
	case "", currentJobShorthandConstant, currentJobAliasConstant:
		job, found = interpreter.registry.MostRecent()
		jobReference = ""
	default:
		identifier, parseError := strconv.Atoi(strings.TrimPrefix(jobReference, jobReferencePrefixConstant))
		if parseError == nil {
			job, found = interpreter.registry.Lookup(identifier)
		}
	}

	if !found {
		fmt.Fprint(interpreter.errorOutput, interpreter.formatter.NoSuchJob(builtinName, jobReference))
		interpreter.lastExitStatus.Set(execshell.ExitStatusFailure)
		return nil, false
	}
	if job.Status().Terminated() {
		fmt.Fprint(interpreter.errorOutput, interpreter.formatter.JobTerminated(builtinName, job))
		interpreter.lastExitStatus.Set(execshell.ExitStatusFailure)
		return nil, false
	}
	return job, true
}

// continueJob sends SIGCONT to the job's process group. A group whose members already
// exited is not an error; their reports are still pending. The job is left untouched
// when the signal fails.
func (interpreter *Interpreter) continueJob(builtinName string, job *jobs.Job) bool {
	signalError := interpreter.signaller.SignalGroup(job.ProcessGroupID(), syscall.SIGCONT)
	if signalError == nil || errors.Is(signalError, unix.ESRCH) {
		return true
	}
	fmt.Fprint(interpreter.errorOutput, interpreter.formatter.BuiltinFailure(builtinName, signalError))
	interpreter.lastExitStatus.Set(execshell.ExitStatusFailure)
	return false
}
