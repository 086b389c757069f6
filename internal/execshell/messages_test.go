package execshell_test

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/minibash/internal/execshell"
	"github.com/temirov/minibash/internal/jobs"
)

func TestMessageFormatterJobReports(testInstance *testing.T) {
	testCases := []struct {
		name           string
		report         *execshell.StatusReport
		status         jobs.Status
		current        bool
		expectedOutput string
	}{
		{
			name:           "running_current",
			status:         jobs.StatusBackground,
			current:        true,
			expectedOutput: "[1]+  Running                 sleep 5\n",
		},
		{
			name:           "stopped_with_signal",
			report:         reportPointer(execshell.StoppedReport(testFirstProcessIDConstant, syscall.SIGTSTP)),
			status:         jobs.StatusForeground,
			expectedOutput: "[1]   Stopped (SIGTSTP)       sleep 5\n",
		},
		{
			name:           "done",
			report:         reportPointer(execshell.ExitedReport(testFirstProcessIDConstant, 0)),
			status:         jobs.StatusBackground,
			expectedOutput: "[1]   Done                    sleep 5\n",
		},
		{
			name:           "exit_code",
			report:         reportPointer(execshell.ExitedReport(testFirstProcessIDConstant, 3)),
			status:         jobs.StatusBackground,
			expectedOutput: "[1]   Exit 3                  sleep 5\n",
		},
		{
			name:           "killed",
			report:         reportPointer(execshell.SignaledReport(testFirstProcessIDConstant, syscall.SIGKILL)),
			status:         jobs.StatusBackground,
			expectedOutput: "[1]   Killed (SIGKILL)        sleep 5\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCollectorFixture(testInstance)
			job := fixture.launchedJob(testInstance, testCase.status, testFirstProcessIDConstant)
			job.SetCommandLine(testProgramNameConstant + " " + testProgramArgumentConstant)
			if testCase.report != nil {
				fixture.hold(testInstance)
				require.NoError(testInstance, fixture.collector.Collect(*testCase.report))
			}

			require.Equal(testInstance, testCase.expectedOutput, execshell.MessageFormatter{}.JobReport(job, testCase.current))
		})
	}
}

func TestMessageFormatterNotices(testInstance *testing.T) {
	formatter := execshell.MessageFormatter{}
	fixture := newCollectorFixture(testInstance)
	job := fixture.launchedJob(testInstance, jobs.StatusBackground, testFirstProcessIDConstant)

	require.Equal(testInstance, "minibash: nope: command not found\n", formatter.CommandNotFound("nope"))
	require.Equal(testInstance, "[1] 5100\n", formatter.BackgroundStarted(job))
	require.Equal(testInstance, "minibash: fg: current: no such job\n", formatter.NoSuchJob("fg", ""))
	require.Equal(testInstance, "minibash: fg: %4: no such job\n", formatter.NoSuchJob("fg", "%4"))
	require.Equal(testInstance, "minibash: bg: job 1 has terminated\n", formatter.JobTerminated("bg", job))
	require.Equal(testInstance, "node type `IfClause` not implemented\n", formatter.UnsupportedStatement("IfClause"))
	require.Equal(testInstance, "minibash: syntax error: bad token\n", formatter.SyntaxError(errors.New("bad token")))
	require.Equal(testInstance, "a b c", formatter.CommandLine([]string{"a", "b", "c"}))
}

func reportPointer(report execshell.StatusReport) *execshell.StatusReport {
	return &report
}
