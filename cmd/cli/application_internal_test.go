package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/minibash/internal/interpreter"
	"github.com/temirov/minibash/internal/utils"
)

const (
	testSessionIdentifierConstant  = "0d6f9c52-7a11-4c3e-b0f4-2a9d8e1c3b70"
	testScriptFileNameConstant     = "script.sh"
	testOutputFileNameConstant     = "stdout.txt"
	testErrorFileNameConstant      = "stderr.txt"
	testInputFileNameConstant      = "stdin.txt"
	testConfigurationFileConstant  = "minibash.yaml"
	testConfigurationContent       = "shell:\n  max_jobs: 16\n  job_notifications: false\n  prompt: \"$ \"\n"
	testMaximumJobsEnvironmentName = "MINIBASH_SHELL_MAX_JOBS"
	testLogLevelEnvironmentName    = "MINIBASH_COMMON_LOG_LEVEL"
	testRepeatedScriptCount        = 300
	testRepeatedScriptContent      = "/bin/true"
)

type repeatingScriptSource struct {
	script    string
	remaining int
}

func (source *repeatingScriptSource) NextScript() (string, error) {
	if source.remaining == 0 {
		return "", io.EOF
	}
	source.remaining--
	return source.script, nil
}

func (source *repeatingScriptSource) Close() error {
	return nil
}

type applicationHarness struct {
	application *Application
	directory   string
	outputPath  string
	errorPath   string
}

func newApplicationHarness(testInstance *testing.T, standardInputContent string) applicationHarness {
	testInstance.Helper()
	directory := testInstance.TempDir()

	inputPath := filepath.Join(directory, testInputFileNameConstant)
	require.NoError(testInstance, os.WriteFile(inputPath, []byte(standardInputContent), 0o600))
	inputFile, inputError := os.Open(inputPath)
	require.NoError(testInstance, inputError)
	testInstance.Cleanup(func() { _ = inputFile.Close() })

	outputPath := filepath.Join(directory, testOutputFileNameConstant)
	outputFile, outputError := os.Create(outputPath)
	require.NoError(testInstance, outputError)
	testInstance.Cleanup(func() { _ = outputFile.Close() })

	errorPath := filepath.Join(directory, testErrorFileNameConstant)
	errorFile, errorFileError := os.Create(errorPath)
	require.NoError(testInstance, errorFileError)
	testInstance.Cleanup(func() { _ = errorFile.Close() })

	application := NewApplication()
	application.standardInput = inputFile
	application.standardOutput = outputFile
	application.standardError = errorFile
	application.terminalDetector = func(*os.File) bool { return false }
	application.sessionIdentifier = func() string { return testSessionIdentifierConstant }

	return applicationHarness{application: application, directory: directory, outputPath: outputPath, errorPath: errorPath}
}

func (harness applicationHarness) writeScript(testInstance *testing.T, content string) string {
	testInstance.Helper()
	scriptPath := filepath.Join(harness.directory, testScriptFileNameConstant)
	require.NoError(testInstance, os.WriteFile(scriptPath, []byte(content), 0o600))
	return scriptPath
}

func (harness applicationHarness) execute(arguments ...string) error {
	harness.application.rootCommand.SetArgs(append([]string{}, arguments...))
	return harness.application.Execute()
}

func readFileContent(testInstance *testing.T, path string) string {
	testInstance.Helper()
	content, readError := os.ReadFile(path)
	require.NoError(testInstance, readError)
	return string(content)
}

func TestApplicationRunsScriptFile(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "")
	scriptPath := harness.writeScript(testInstance, "/bin/echo hello\n/bin/echo world\n")

	require.NoError(testInstance, harness.execute(scriptPath))
	require.Equal(testInstance, "hello\nworld\n", readFileContent(testInstance, harness.outputPath))
}

func TestApplicationReadsPipedStandardInput(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "/bin/echo piped\n")

	require.NoError(testInstance, harness.execute())
	require.Equal(testInstance, "piped\n", readFileContent(testInstance, harness.outputPath))
}

func TestApplicationReturnsLastExitStatus(testInstance *testing.T) {
	testCases := []struct {
		name             string
		script           string
		expectedExitCode int
	}{
		{name: "explicit_exit", script: "/bin/sh -c 'exit 4'\n", expectedExitCode: 4},
		{name: "missing_program", script: "no-such-program-minibash\n", expectedExitCode: 127},
		{name: "syntax_error", script: "/bin/echo 'unterminated\n", expectedExitCode: 2},
		{name: "last_command_wins", script: "false\ntrue\n", expectedExitCode: 0},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			harness := newApplicationHarness(testInstance, "")
			scriptPath := harness.writeScript(testInstance, testCase.script)

			executionError := harness.execute(scriptPath)
			if testCase.expectedExitCode == 0 {
				require.NoError(testInstance, executionError)
				return
			}
			var exitStatusError ExitStatusError
			require.ErrorAs(testInstance, executionError, &exitStatusError)
			require.Equal(testInstance, testCase.expectedExitCode, exitStatusError.Code)
		})
	}
}

func TestApplicationRejectsInvalidInvocations(testInstance *testing.T) {
	testCases := []struct {
		name          string
		arguments     []string
		environment   map[string]string
		expectedError string
	}{
		{name: "too_many_arguments", arguments: []string{"first.sh", "second.sh"}, expectedError: "accepts at most 1 arg"},
		{name: "unknown_log_level", arguments: []string{"--log-level", "verbose"}, expectedError: "unsupported log level"},
		{name: "unknown_log_format", arguments: []string{"--log-format", "xml"}, expectedError: "unsupported log format"},
		{name: "unknown_log_level_in_environment", environment: map[string]string{testLogLevelEnvironmentName: "chatty"}, expectedError: "unsupported log level"},
		{name: "job_limit_too_small", environment: map[string]string{testMaximumJobsEnvironmentName: "1"}, expectedError: "shell.max_jobs must be at least 2"},
		{name: "missing_script", arguments: []string{"/nonexistent/minibash/script.sh"}, expectedError: "failed to open script"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			for environmentName, environmentValue := range testCase.environment {
				testInstance.Setenv(environmentName, environmentValue)
			}
			harness := newApplicationHarness(testInstance, "")

			executionError := harness.execute(testCase.arguments...)
			require.Error(testInstance, executionError)
			require.ErrorContains(testInstance, executionError, testCase.expectedError)

			var exitStatusError ExitStatusError
			require.False(testInstance, errors.As(executionError, &exitStatusError))
		})
	}
}

func TestApplicationLoadsConfigurationFileAndAttachesSession(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "")
	configurationPath := filepath.Join(harness.directory, testConfigurationFileConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(testConfigurationContent), 0o600))

	require.NoError(testInstance, harness.execute("--config", configurationPath))

	shellConfiguration := harness.application.configuration.Shell
	require.Equal(testInstance, 16, shellConfiguration.MaximumJobs)
	require.False(testInstance, shellConfiguration.JobNotifications)
	require.Equal(testInstance, "$ ", shellConfiguration.Prompt)
	require.Equal(testInstance, utils.LogLevelError, harness.application.configuration.Common.LogLevel)

	rootContext := harness.application.rootCommand.Context()
	sessionIdentifier, sessionAvailable := harness.application.commandContextAccessor.SessionIdentifier(rootContext)
	require.True(testInstance, sessionAvailable)
	require.Equal(testInstance, testSessionIdentifierConstant, sessionIdentifier)

	configurationFilePath, configurationAvailable := harness.application.commandContextAccessor.ConfigurationFilePath(rootContext)
	require.True(testInstance, configurationAvailable)
	require.Equal(testInstance, configurationPath, configurationFilePath)
}

func TestApplicationFlagsOverrideConfiguration(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "")

	require.NoError(testInstance, harness.execute("--log-level", "DEBUG", "--log-format", "structured"))
	require.Equal(testInstance, utils.LogLevelDebug, harness.application.configuration.Common.LogLevel)
	require.Equal(testInstance, utils.LogFormatStructured, harness.application.configuration.Common.LogFormat)
}

func TestReadEvalLoopSurvivesDeliveriesBetweenScripts(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "")
	shell, creationError := interpreter.New(interpreter.Options{
		StandardInput:  harness.application.standardInput,
		StandardOutput: harness.application.standardOutput,
		StandardError:  harness.application.standardError,
	})
	require.NoError(testInstance, creationError)
	shell.Start()
	testInstance.Cleanup(shell.Close)

	scriptSource := &repeatingScriptSource{script: testRepeatedScriptContent, remaining: testRepeatedScriptCount}
	require.NoError(testInstance, harness.application.readEvalLoop(context.Background(), shell, scriptSource))
	require.Zero(testInstance, scriptSource.remaining)
	require.Zero(testInstance, shell.LastExitStatus())
}
