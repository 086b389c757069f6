package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/syntax"

	"github.com/temirov/minibash/internal/execshell"
	"github.com/temirov/minibash/internal/jobs"
	"github.com/temirov/minibash/internal/notification"
)

const (
	scriptSourceNameConstant                = ""
	asynchronousCollectionOperationConstant = "asynchronous child status collection"
	deleteFinishedJobOperationConstant      = "delete finished job"
	executingScriptMessageConstant          = "executing script"
	scriptParseFailedMessageConstant        = "script parse failed"
	scriptAbortedMessageConstant            = "script aborted"
	unsupportedStatementMessageConstant     = "skipping unsupported statement"
	logFieldRunIdentifierConstant           = "run_id"
	logFieldStatementCountConstant          = "statements"
	logFieldStatementKindConstant           = "kind"
	logFieldInteractiveConstant             = "interactive"
	interpreterStartedMessageConstant       = "interpreter ready"
	logFieldMaximumJobsConstant             = "max_jobs"
)

// Options configures an Interpreter.
// A non-nil Terminal enables interactive job control. Nil operating-system
// collaborators fall back to the real implementations.
type Options struct {
	MaximumJobs      int
	StandardInput    *os.File
	StandardOutput   *os.File
	StandardError    *os.File
	Terminal         *os.File
	JobNotifications bool
	Observer         execshell.CommandEventObserver
	Logger           *zap.Logger

	ProcessStarter     execshell.ProcessStarter
	ChildWaiter        execshell.ChildWaiter
	GroupSignaller     execshell.ProcessGroupSignaller
	TerminalController execshell.TerminalController
}

// Interpreter executes scripts one at a time on the calling goroutine.
type Interpreter struct {
	registry       *jobs.Registry
	gate           *notification.DeliveryGate
	listener       *notification.Listener
	lastExitStatus *execshell.ExitStatus
	collector      *execshell.StatusCollector
	coordinator    *execshell.ForegroundWaitCoordinator
	launcher       *execshell.ProcessLauncher
	signaller      execshell.ProcessGroupSignaller
	observer       execshell.CommandEventObserver
	parser         *syntax.Parser
	formatter      execshell.MessageFormatter
	output         io.Writer
	errorOutput    io.Writer
	interactive    bool
	notifications  bool
	logger         *zap.Logger
}

// New assembles an interpreter and its job-control collaborators.
func New(options Options) (*Interpreter, error) {
	maximumJobs := options.MaximumJobs
	if maximumJobs == 0 {
		maximumJobs = jobs.DefaultMaximumJobs
	}
	registry, registryError := jobs.NewRegistry(maximumJobs)
	if registryError != nil {
		return nil, registryError
	}

	standardInput := fileOrDefault(options.StandardInput, os.Stdin)
	standardOutput := fileOrDefault(options.StandardOutput, os.Stdout)
	standardError := fileOrDefault(options.StandardError, os.Stderr)

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := options.Observer
	if observer == nil {
		observer = execshell.NewNoopCommandEventObserver()
	}

	starter := options.ProcessStarter
	if starter == nil {
		starter = execshell.NewOSProcessStarter(standardInput, standardOutput, standardError, options.Terminal)
	}
	waiter := options.ChildWaiter
	if waiter == nil {
		waiter = execshell.NewOSChildWaiter()
	}
	signaller := options.GroupSignaller
	if signaller == nil {
		signaller = execshell.NewOSProcessGroupSignaller()
	}
	terminalController := options.TerminalController
	if terminalController == nil && options.Terminal != nil {
		terminalController = execshell.NewOSTerminalController(options.Terminal)
	}

	gate := notification.NewDeliveryGate()
	lastExitStatus := execshell.NewExitStatus()
	collector := execshell.NewStatusCollector(registry, gate, lastExitStatus, waiter)

	interpreter := &Interpreter{
		registry:       registry,
		gate:           gate,
		listener:       notification.NewListener(gate, collector.CollectPending),
		lastExitStatus: lastExitStatus,
		collector:      collector,
		coordinator:    execshell.NewForegroundWaitCoordinator(gate, waiter, collector, terminalController, logger),
		launcher:       execshell.NewProcessLauncher(registry, gate, lastExitStatus, starter, observer, standardError, logger),
		signaller:      signaller,
		observer:       observer,
		parser:         syntax.NewParser(syntax.Variant(syntax.LangBash)),
		output:         standardOutput,
		errorOutput:    standardError,
		interactive:    options.Terminal != nil,
		notifications:  options.JobNotifications,
		logger:         logger,
	}

	logger.Debug(
		interpreterStartedMessageConstant,
		zap.Bool(logFieldInteractiveConstant, interpreter.interactive),
		zap.Int(logFieldMaximumJobsConstant, maximumJobs),
	)
	return interpreter, nil
}

// Start begins asynchronous child-status delivery.
func (interpreter *Interpreter) Start() {
	interpreter.listener.Start()
}

// Close stops asynchronous child-status delivery.
func (interpreter *Interpreter) Close() {
	interpreter.listener.Stop()
}

// LastExitStatus returns the status of the most recent foreground command.
func (interpreter *Interpreter) LastExitStatus() int {
	return interpreter.lastExitStatus.Get()
}

// DeliveryHeld reports whether the control goroutine is still holding child-status delivery.
func (interpreter *Interpreter) DeliveryHeld() bool {
	return interpreter.gate.HeldByControl()
}

// JobCount returns the number of registered jobs.
func (interpreter *Interpreter) JobCount() int {
	interpreter.gate.Hold()
	defer interpreter.gate.Release()
	return interpreter.registry.Len()
}

// ExecuteScript parses the script and runs its top-level statements in order.
// User errors are reported on the error stream and reflected in the last exit
// status; the returned error is non-nil only when the shell cannot continue.
func (interpreter *Interpreter) ExecuteScript(executionContext context.Context, script string) error {
	runLogger := interpreter.logger.With(zap.String(logFieldRunIdentifierConstant, uuid.NewString()))

	interpreter.gate.Hold()
	defer interpreter.gate.Release()

	if sweepError := interpreter.sweepFinishedJobs(); sweepError != nil {
		runLogger.Debug(scriptAbortedMessageConstant, zap.Error(sweepError))
		return sweepError
	}

	parsedScript, parseError := interpreter.parser.Parse(strings.NewReader(script), scriptSourceNameConstant)
	if parseError != nil {
		runLogger.Debug(scriptParseFailedMessageConstant, zap.Error(parseError))
		fmt.Fprint(interpreter.errorOutput, interpreter.formatter.SyntaxError(parseError))
		interpreter.lastExitStatus.Set(execshell.ExitStatusSyntaxError)
		return nil
	}

	runLogger.Debug(executingScriptMessageConstant, zap.Int(logFieldStatementCountConstant, len(parsedScript.Stmts)))
	for _, statement := range parsedScript.Stmts {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if statementError := interpreter.executeStatement(runLogger, script, statement); statementError != nil {
			runLogger.Debug(scriptAbortedMessageConstant, zap.Error(statementError))
			return statementError
		}
	}
	return nil
}

func (interpreter *Interpreter) executeStatement(runLogger *zap.Logger, script string, statement *syntax.Stmt) error {
	if statement.Cmd == nil && len(statement.Redirs) == 0 {
		return nil
	}
	if unsupportedForm := unsupportedStatementForm(statement); len(unsupportedForm) > 0 {
		interpreter.reportUnsupported(runLogger, unsupportedForm)
		return nil
	}

	command, isCall := statement.Cmd.(*syntax.CallExpr)
	if !isCall {
		interpreter.reportUnsupported(runLogger, StatementKind(statement.Cmd))
		return nil
	}
	return interpreter.executeCommand(script, command, statement.Background)
}

func (interpreter *Interpreter) reportUnsupported(runLogger *zap.Logger, statementKind string) {
	runLogger.Debug(unsupportedStatementMessageConstant, zap.String(logFieldStatementKindConstant, statementKind))
	fmt.Fprint(interpreter.output, interpreter.formatter.UnsupportedStatement(statementKind))
}

func (interpreter *Interpreter) executeCommand(script string, command *syntax.CallExpr, background bool) error {
	if len(command.Args) == 0 {
		fmt.Fprint(interpreter.errorOutput, interpreter.formatter.MissingCommandName())
		return nil
	}

	expander := argumentExpander{source: script, lastExitStatus: interpreter.lastExitStatus.Get()}
	arguments := make([]string, 0, len(command.Args))
	for _, word := range command.Args {
		arguments = append(arguments, expander.expandWord(word))
	}

	if builtin, isBuiltin := builtinCommands[arguments[0]]; isBuiltin {
		return builtin(interpreter, arguments)
	}

	job, launchError := interpreter.launcher.Launch(execshell.LaunchRequest{
		Arguments:   arguments,
		CommandLine: nodeSourceText(script, command),
		Background:  background,
	})
	var userFacingFailure *execshell.LaunchError
	if errors.As(launchError, &userFacingFailure) {
		return nil
	}
	if launchError != nil {
		return launchError
	}

	if background {
		interpreter.lastExitStatus.Set(execshell.ExitStatusSuccess)
		interpreter.notify(interpreter.formatter.BackgroundStarted(job))
		return nil
	}
	return interpreter.waitInForeground(job, arguments)
}

// waitInForeground blocks until the job leaves the foreground, then deletes it if it finished.
func (interpreter *Interpreter) waitInForeground(job *jobs.Job, arguments []string) error {
	if waitError := interpreter.coordinator.RunInForeground(job); waitError != nil {
		return waitError
	}

	interpreter.observer.CommandCompleted(
		execshell.LaunchedCommand{
			JobIdentifier: job.Identifier(),
			ProcessID:     job.ProcessGroupID(),
			Arguments:     arguments,
		},
		execshell.CommandOutcome{Status: job.Status(), ExitStatus: interpreter.lastExitStatus.Get()},
	)

	if !job.Status().Terminated() {
		interpreter.notify(interpreter.formatter.JobReport(job, true))
		return nil
	}
	if deleteError := interpreter.registry.Delete(job, true); deleteError != nil {
		return &execshell.InternalConsistencyError{Operation: deleteFinishedJobOperationConstant, Cause: deleteError}
	}
	return nil
}

// sweepFinishedJobs collects pending reports, surfaces asynchronous failures, and removes terminated jobs.
func (interpreter *Interpreter) sweepFinishedJobs() error {
	interpreter.collector.CollectPending()
	if asynchronousFailure := interpreter.collector.TakeAsynchronousFailure(); asynchronousFailure != nil {
		return &execshell.InternalConsistencyError{Operation: asynchronousCollectionOperationConstant, Cause: asynchronousFailure}
	}
	return interpreter.deleteTerminatedJobs(true)
}

func (interpreter *Interpreter) deleteTerminatedJobs(announce bool) error {
	registeredJobs := interpreter.registry.Jobs()
	for jobIndex, job := range registeredJobs {
		if !job.Status().Terminated() {
			continue
		}
		if announce {
			interpreter.notify(interpreter.formatter.JobReport(job, jobIndex == len(registeredJobs)-1))
		}
		if deleteError := interpreter.registry.Delete(job, true); deleteError != nil {
			return &execshell.InternalConsistencyError{Operation: deleteFinishedJobOperationConstant, Cause: deleteError}
		}
	}
	return nil
}

// notify prints job-control notices in interactive sessions only.
func (interpreter *Interpreter) notify(message string) {
	if !interpreter.interactive || !interpreter.notifications {
		return
	}
	fmt.Fprint(interpreter.output, message)
}

func fileOrDefault(file *os.File, fallback *os.File) *os.File {
	if file == nil {
		return fallback
	}
	return file
}
