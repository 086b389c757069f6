package execshell

import (
	"errors"
	"fmt"

	"github.com/temirov/minibash/internal/jobs"
	"github.com/temirov/minibash/internal/notification"
)

// StatusCollector applies child status reports to the jobs that own the reporting processes.
// Every method requires delivery to be held, either by the control goroutine or by an in-flight delivery.
type StatusCollector struct {
	registry            *jobs.Registry
	gate                *notification.DeliveryGate
	lastExitStatus      *ExitStatus
	waiter              ChildWaiter
	asynchronousFailure error
}

// NewStatusCollector constructs a collector over the registry.
func NewStatusCollector(registry *jobs.Registry, gate *notification.DeliveryGate, lastExitStatus *ExitStatus, waiter ChildWaiter) *StatusCollector {
	return &StatusCollector{
		registry:       registry,
		gate:           gate,
		lastExitStatus: lastExitStatus,
		waiter:         waiter,
	}
}

// Collect applies exactly one transition for the report.
// Only a foreground job losing its last live process updates the last exit status.
func (collector *StatusCollector) Collect(report StatusReport) error {
	if !collector.gate.Held() {
		return ErrDeliveryNotHeld
	}

	job, found := collector.registry.JobForProcess(report.ProcessID)
	if !found {
		return fmt.Errorf(unknownProcessTemplateConstant, ErrUnknownProcess, report.ProcessID)
	}
	wasForeground := job.Status() == jobs.StatusForeground

	switch report.Kind {
	case ReportExited:
		lastMemberExited, recordError := job.RecordExit(report.ProcessID, report.ExitCode)
		if recordError != nil {
			return recordError
		}
		collector.registry.ReleaseProcess(report.ProcessID)
		if wasForeground && lastMemberExited {
			collector.lastExitStatus.Set(report.ExitCode)
		}
	case ReportSignaled:
		lastMemberExited, recordError := job.RecordSignal(report.ProcessID, report.Signal)
		if recordError != nil {
			return recordError
		}
		collector.registry.ReleaseProcess(report.ProcessID)
		if wasForeground && lastMemberExited {
			collector.lastExitStatus.Set(ExitStatusSignalOffset + int(report.Signal))
		}
	case ReportStopped:
		return job.RecordStop(report.ProcessID, report.Signal)
	}
	return nil
}

// CollectPending drains every child with a pending status change without blocking.
// It is the asynchronous delivery handler: it neither logs nor returns errors, and keeps
// the first failure for TakeAsynchronousFailure.
func (collector *StatusCollector) CollectPending() {
	for {
		report, ready, waitError := collector.waiter.WaitForAnyChild(false)
		if errors.Is(waitError, ErrNoChildren) {
			return
		}
		if waitError != nil {
			collector.recordAsynchronousFailure(waitError)
			return
		}
		if !ready {
			return
		}
		if collectError := collector.Collect(report); collectError != nil {
			collector.recordAsynchronousFailure(collectError)
		}
	}
}

// TakeAsynchronousFailure returns and clears the first failure seen by CollectPending.
func (collector *StatusCollector) TakeAsynchronousFailure() error {
	if !collector.gate.Held() {
		return ErrDeliveryNotHeld
	}
	failure := collector.asynchronousFailure
	collector.asynchronousFailure = nil
	return failure
}

// Abandon marks the job's remaining processes as gone without touching the last exit status.
func (collector *StatusCollector) Abandon(job *jobs.Job) error {
	if !collector.gate.Held() {
		return ErrDeliveryNotHeld
	}
	for _, member := range job.Processes() {
		if !member.State.Reaped() {
			collector.registry.ReleaseProcess(member.ID)
		}
	}
	job.Abandon()
	return nil
}

func (collector *StatusCollector) recordAsynchronousFailure(failure error) {
	if collector.asynchronousFailure == nil {
		collector.asynchronousFailure = failure
	}
}
