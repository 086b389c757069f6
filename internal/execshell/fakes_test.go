package execshell_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/minibash/internal/execshell"
	"github.com/temirov/minibash/internal/jobs"
	"github.com/temirov/minibash/internal/notification"
)

const (
	testMaximumJobsConstant        = 8
	testFirstProcessIDConstant     = 5100
	testSecondProcessIDConstant    = 5101
	testThirdProcessIDConstant     = 5102
	testProgramNameConstant        = "sleep"
	testProgramArgumentConstant    = "5"
	testMissingProgramNameConstant = "doesnotexist123"
)

type scriptedWaitResult struct {
	report execshell.StatusReport
	ready  bool
	err    error
}

type scriptedChildWaiter struct {
	results        []scriptedWaitResult
	blockingCalls  int
	pollingCalls   int
	exhaustedError error
}

func (waiter *scriptedChildWaiter) WaitForAnyChild(blocking bool) (execshell.StatusReport, bool, error) {
	if blocking {
		waiter.blockingCalls++
	} else {
		waiter.pollingCalls++
	}
	if len(waiter.results) == 0 {
		if waiter.exhaustedError != nil {
			return execshell.StatusReport{}, false, waiter.exhaustedError
		}
		return execshell.StatusReport{}, false, execshell.ErrNoChildren
	}
	result := waiter.results[0]
	waiter.results = waiter.results[1:]
	return result.report, result.ready, result.err
}

func readyResult(report execshell.StatusReport) scriptedWaitResult {
	return scriptedWaitResult{report: report, ready: true}
}

type recordingProcessStarter struct {
	nextProcessID int
	startError    error
	requests      []execshell.StartRequest
}

func (starter *recordingProcessStarter) Start(request execshell.StartRequest) (int, error) {
	starter.requests = append(starter.requests, request)
	if starter.startError != nil {
		return 0, starter.startError
	}
	processID := starter.nextProcessID
	starter.nextProcessID++
	return processID, nil
}

type recordingTerminalController struct {
	givenProcessGroups []int
	reclaimCount       int
}

func (controller *recordingTerminalController) GiveTo(processGroupID int) error {
	controller.givenProcessGroups = append(controller.givenProcessGroups, processGroupID)
	return nil
}

func (controller *recordingTerminalController) Reclaim() error {
	controller.reclaimCount++
	return nil
}

type recordingCommandObserver struct {
	started   []execshell.LaunchedCommand
	completed []execshell.CommandOutcome
	failures  []error
}

func (observer *recordingCommandObserver) CommandStarted(command execshell.LaunchedCommand) {
	observer.started = append(observer.started, command)
}

func (observer *recordingCommandObserver) CommandCompleted(_ execshell.LaunchedCommand, outcome execshell.CommandOutcome) {
	observer.completed = append(observer.completed, outcome)
}

func (observer *recordingCommandObserver) CommandLaunchFailed(_ execshell.LaunchedCommand, failure error) {
	observer.failures = append(observer.failures, failure)
}

type collectorFixture struct {
	registry       *jobs.Registry
	gate           *notification.DeliveryGate
	lastExitStatus *execshell.ExitStatus
	waiter         *scriptedChildWaiter
	collector      *execshell.StatusCollector
}

func newCollectorFixture(testInstance *testing.T, results ...scriptedWaitResult) *collectorFixture {
	testInstance.Helper()
	registry, registryError := jobs.NewRegistry(testMaximumJobsConstant)
	require.NoError(testInstance, registryError)
	gate := notification.NewDeliveryGate()
	lastExitStatus := execshell.NewExitStatus()
	waiter := &scriptedChildWaiter{results: results}
	return &collectorFixture{
		registry:       registry,
		gate:           gate,
		lastExitStatus: lastExitStatus,
		waiter:         waiter,
		collector:      execshell.NewStatusCollector(registry, gate, lastExitStatus, waiter),
	}
}

func (fixture *collectorFixture) launchedJob(testInstance *testing.T, status jobs.Status, processIDs ...int) *jobs.Job {
	testInstance.Helper()
	job, allocateError := fixture.registry.Allocate(true)
	require.NoError(testInstance, allocateError)
	job.SetStatus(status)
	for _, processID := range processIDs {
		require.NoError(testInstance, fixture.registry.AttachProcess(job, processID))
	}
	return job
}

func (fixture *collectorFixture) hold(testInstance *testing.T) {
	testInstance.Helper()
	fixture.gate.Hold()
	testInstance.Cleanup(func() {
		if fixture.gate.Held() {
			fixture.gate.Release()
		}
	})
}

var testTerminationSignal = syscall.SIGTERM
