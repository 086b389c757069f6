package execshell

import (
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/minibash/internal/jobs"
	"github.com/temirov/minibash/internal/notification"
)

const (
	waitOperationNameConstant            = "wait for child"
	collectOperationNameConstant         = "collect child status"
	noChildrenWarningMessageConstant     = "no child processes left while job still counted live processes"
	terminalHandOffFailedMessageConstant = "unable to move terminal to job"
	terminalReclaimFailedMessageConstant = "unable to reclaim terminal"
	logFieldJobIdentifierConstant        = "job_id"
	logFieldProcessGroupConstant         = "process_group"
	logFieldAliveCountConstant           = "alive_count"
)

// ForegroundWaitCoordinator blocks the control goroutine until a job leaves the foreground.
type ForegroundWaitCoordinator struct {
	gate      *notification.DeliveryGate
	waiter    ChildWaiter
	collector *StatusCollector
	terminal  TerminalController
	logger    *zap.Logger
}

// NewForegroundWaitCoordinator constructs a coordinator; a nil terminal controller disables terminal hand-off.
func NewForegroundWaitCoordinator(gate *notification.DeliveryGate, waiter ChildWaiter, collector *StatusCollector, terminal TerminalController, logger *zap.Logger) *ForegroundWaitCoordinator {
	if terminal == nil {
		terminal = NoopTerminalController{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForegroundWaitCoordinator{
		gate:      gate,
		waiter:    waiter,
		collector: collector,
		terminal:  terminal,
		logger:    logger,
	}
}

// WaitForJob waits until the job stops being the foreground job or has no live processes.
// Reports for other jobs seen along the way are collected as well.
func (coordinator *ForegroundWaitCoordinator) WaitForJob(job *jobs.Job) error {
	if !coordinator.gate.Held() {
		return ErrDeliveryNotHeld
	}

	for job.Status() == jobs.StatusForeground && job.AliveCount() > 0 {
		report, ready, waitError := coordinator.waiter.WaitForAnyChild(true)
		if errors.Is(waitError, ErrNoChildren) {
			coordinator.logger.Warn(
				noChildrenWarningMessageConstant,
				zap.Int(logFieldJobIdentifierConstant, job.Identifier()),
				zap.Int(logFieldAliveCountConstant, job.AliveCount()),
			)
			return coordinator.collector.Abandon(job)
		}
		if waitError != nil {
			return &InternalConsistencyError{Operation: waitOperationNameConstant, Cause: waitError}
		}
		if !ready {
			continue
		}
		if collectError := coordinator.collector.Collect(report); collectError != nil {
			return &InternalConsistencyError{Operation: collectOperationNameConstant, Cause: collectError}
		}
	}
	return nil
}

// RunInForeground hands the terminal to the job, waits for it, and takes the terminal back.
func (coordinator *ForegroundWaitCoordinator) RunInForeground(job *jobs.Job) error {
	if handOffError := coordinator.terminal.GiveTo(job.ProcessGroupID()); handOffError != nil {
		coordinator.logger.Debug(
			terminalHandOffFailedMessageConstant,
			zap.Int(logFieldJobIdentifierConstant, job.Identifier()),
			zap.Int(logFieldProcessGroupConstant, job.ProcessGroupID()),
			zap.Error(handOffError),
		)
	}

	waitError := coordinator.WaitForJob(job)

	if reclaimError := coordinator.terminal.Reclaim(); reclaimError != nil {
		coordinator.logger.Debug(terminalReclaimFailedMessageConstant, zap.Error(reclaimError))
	}
	return waitError
}
