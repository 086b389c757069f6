package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/minibash/internal/console"
	"github.com/temirov/minibash/internal/interpreter"
	"github.com/temirov/minibash/internal/jobs"
	"github.com/temirov/minibash/internal/ui"
	"github.com/temirov/minibash/internal/utils"
)

const (
	applicationNameConstant                  = "minibash"
	applicationUseConstant                   = applicationNameConstant + " [script]"
	applicationShortDescriptionConstant      = "A small job-control shell"
	applicationLongDescriptionConstant       = "minibash runs simple commands in the foreground or background and manages them as jobs. Commands come from a script file or from standard input."
	maximumArgumentCountConstant             = 1
	configFileFlagNameConstant               = "config"
	configFileFlagUsageConstant              = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                 = "log-level"
	logLevelFlagUsageConstant                = "Override the configured log level."
	logFormatFlagNameConstant                = "log-format"
	logFormatFlagUsageConstant               = "Override the configured log format (structured or console)."
	commonConfigurationKeyConstant           = "common"
	commonLogLevelConfigKeyConstant          = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant         = commonConfigurationKeyConstant + ".log_format"
	shellConfigurationKeyConstant            = "shell"
	shellMaximumJobsConfigKeyConstant        = shellConfigurationKeyConstant + ".max_jobs"
	shellPromptConfigKeyConstant             = shellConfigurationKeyConstant + ".prompt"
	shellHistoryFileConfigKeyConstant        = shellConfigurationKeyConstant + ".history_file"
	shellJobNotificationsConfigKeyConstant   = shellConfigurationKeyConstant + ".job_notifications"
	defaultPromptConstant                    = "minibash> "
	environmentPrefixConstant                = "MINIBASH"
	configurationNameConstant                = "config"
	configurationTypeConstant                = "yaml"
	configurationInitializedMessageConstant  = "configuration initialized"
	configurationLogLevelFieldConstant       = "log_level"
	configurationLogFormatFieldConstant      = "log_format"
	configurationFileFieldConstant           = "config_file"
	configurationMaximumJobsFieldConstant    = "max_jobs"
	configurationLoadErrorTemplateConstant   = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant      = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant          = "unable to flush logger: %w"
	interpreterCreationErrorTemplateConstant = "unable to create interpreter: %w"
	scriptReadErrorTemplateConstant          = "unable to read script: %w"
	maximumJobsTooSmallTemplateConstant      = "shell.max_jobs must be at least %d, got %d"
	sessionStartedMessageConstant            = "shell session started"
	sessionFinishedMessageConstant           = "shell session finished"
	sessionFatalMessageConstant              = "shell cannot continue"
	logFieldInteractiveConstant              = "interactive"
	logFieldScriptPathConstant               = "script_path"
	logFieldExitStatusConstant               = "exit_status"
	loggerNotInitializedMessageConstant      = "logger not initialized"
	deliveryHeldBeforeReadMessageConstant    = "child status delivery is still held before reading input"
	exitStatusErrorTemplateConstant          = "exit status %d"
	defaultConfigurationSearchPathConstant   = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Shell  ApplicationShellConfiguration  `mapstructure:"shell"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel  utils.LogLevel  `mapstructure:"log_level"`
	LogFormat utils.LogFormat `mapstructure:"log_format"`
}

// ApplicationShellConfiguration stores job-control and prompt settings.
type ApplicationShellConfiguration struct {
	MaximumJobs      int    `mapstructure:"max_jobs"`
	Prompt           string `mapstructure:"prompt"`
	HistoryFile      string `mapstructure:"history_file"`
	JobNotifications bool   `mapstructure:"job_notifications"`
}

// ExitStatusError carries a non-zero last exit status out of Execute.
type ExitStatusError struct {
	Code int
}

// Error describes the exit status.
func (exitStatusError ExitStatusError) Error() string {
	return fmt.Sprintf(exitStatusErrorTemplateConstant, exitStatusError.Code)
}

// TerminalDetector reports whether a file is attached to a terminal.
type TerminalDetector func(file *os.File) bool

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
	sessionIdentifier      func() string
	terminalDetector       TerminalDetector
	standardInput          *os.File
	standardOutput         *os.File
	standardError          *os.File
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		sessionIdentifier:      uuid.NewString,
		terminalDetector:       isTerminal,
		standardInput:          os.Stdin,
		standardOutput:         os.Stdout,
		standardError:          os.Stderr,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.MaximumNArgs(maximumArgumentCountConstant),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:        string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant:       string(utils.LogFormatConsole),
		shellMaximumJobsConfigKeyConstant:      jobs.DefaultMaximumJobs,
		shellPromptConfigKeyConstant:           defaultPromptConstant,
		shellHistoryFileConfigKeyConstant:      "",
		shellJobNotificationsConfigKeyConstant: true,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		flagLogLevel, logLevelError := utils.ParseLogLevel(application.logLevelFlagValue)
		if logLevelError != nil {
			return fmt.Errorf(loggerCreationErrorTemplateConstant, logLevelError)
		}
		application.configuration.Common.LogLevel = flagLogLevel
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		flagLogFormat, logFormatError := utils.ParseLogFormat(application.logFormatFlagValue)
		if logFormatError != nil {
			return fmt.Errorf(loggerCreationErrorTemplateConstant, logFormatError)
		}
		application.configuration.Common.LogFormat = flagLogFormat
	}

	if application.configuration.Shell.MaximumJobs < jobs.MinimumMaximumJobs {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, fmt.Errorf(maximumJobsTooSmallTemplateConstant, jobs.MinimumMaximumJobs, application.configuration.Shell.MaximumJobs))
	}

	logLevel := application.configuration.Common.LogLevel
	logFormat := application.configuration.Common.LogFormat

	sessionIdentifier := application.sessionIdentifier()
	logger, loggerCreationError := application.loggerFactory.CreateSessionLogger(utils.LoggerOptions{
		Level:             logLevel,
		Format:            logFormat,
		SessionIdentifier: sessionIdentifier,
	})
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(logLevel)),
		zap.String(configurationLogFormatFieldConstant, string(logFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Int(configurationMaximumJobsFieldConstant, application.configuration.Shell.MaximumJobs),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		updatedContext = application.commandContextAccessor.WithSessionIdentifier(updatedContext, sessionIdentifier)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	scriptPath := ""
	if len(arguments) > 0 {
		scriptPath = arguments[0]
	}
	interactive := len(scriptPath) == 0 && application.terminalDetector(application.standardInput)

	scriptSource, sourceError := application.openScriptSource(scriptPath, interactive)
	if sourceError != nil {
		return sourceError
	}
	defer scriptSource.Close()

	interpreterOptions := interpreter.Options{
		MaximumJobs:      application.configuration.Shell.MaximumJobs,
		StandardInput:    application.standardInput,
		StandardOutput:   application.standardOutput,
		StandardError:    application.standardError,
		JobNotifications: application.configuration.Shell.JobNotifications,
		Observer:         ui.NewConsoleCommandEventLogger(application.logger),
		Logger:           application.logger,
	}
	if interactive {
		interpreterOptions.Terminal = application.standardInput
	}

	shell, creationError := interpreter.New(interpreterOptions)
	if creationError != nil {
		return fmt.Errorf(interpreterCreationErrorTemplateConstant, creationError)
	}
	shell.Start()
	defer shell.Close()

	application.logger.Info(
		sessionStartedMessageConstant,
		zap.Bool(logFieldInteractiveConstant, interactive),
		zap.String(logFieldScriptPathConstant, scriptPath),
	)

	if loopError := application.readEvalLoop(command.Context(), shell, scriptSource); loopError != nil {
		application.logger.Error(sessionFatalMessageConstant, zap.Error(loopError))
		return loopError
	}

	lastExitStatus := shell.LastExitStatus()
	application.logger.Info(sessionFinishedMessageConstant, zap.Int(logFieldExitStatusConstant, lastExitStatus))
	if lastExitStatus != 0 {
		return ExitStatusError{Code: lastExitStatus}
	}
	return nil
}

func (application *Application) openScriptSource(scriptPath string, interactive bool) (console.ScriptSource, error) {
	if len(scriptPath) > 0 {
		scriptReader, openError := console.OpenScriptFile(scriptPath)
		if openError != nil {
			return nil, openError
		}
		return scriptReader, nil
	}
	if interactive {
		return console.NewInteractivePrompt(console.PromptOptions{
			Prompt:          application.configuration.Shell.Prompt,
			HistoryFilePath: console.ResolveHistoryPath(application.configuration.Shell.HistoryFile, os.UserHomeDir),
			Logger:          application.logger,
		}), nil
	}
	return console.NewWholeScriptReader(application.standardInput), nil
}

func (application *Application) readEvalLoop(executionContext context.Context, shell *interpreter.Interpreter, scriptSource console.ScriptSource) error {
	for {
		if shell.DeliveryHeld() {
			return errors.New(deliveryHeldBeforeReadMessageConstant)
		}

		script, readError := scriptSource.NextScript()
		if errors.Is(readError, io.EOF) {
			return nil
		}
		if readError != nil {
			return fmt.Errorf(scriptReadErrorTemplateConstant, readError)
		}

		if executionError := shell.ExecuteScript(executionContext, script); executionError != nil {
			return executionError
		}
	}
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
