package execshell

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// ReportKind classifies a child status change.
type ReportKind int

const (
	// ReportUnknown covers status changes the collector does not act on.
	ReportUnknown ReportKind = iota
	// ReportExited indicates the process exited normally.
	ReportExited
	// ReportSignaled indicates the process was killed by a signal.
	ReportSignaled
	// ReportStopped indicates the process was stopped by a signal.
	ReportStopped
	// ReportContinued indicates a stopped process was resumed.
	ReportContinued
)

// StatusReport describes one status change of one child process.
type StatusReport struct {
	ProcessID int
	Kind      ReportKind
	ExitCode  int
	Signal    syscall.Signal
}

// NewStatusReport decodes a raw wait status for the process.
func NewStatusReport(processID int, waitStatus unix.WaitStatus) StatusReport {
	report := StatusReport{ProcessID: processID}
	switch {
	case waitStatus.Exited():
		report.Kind = ReportExited
		report.ExitCode = waitStatus.ExitStatus()
	case waitStatus.Signaled():
		report.Kind = ReportSignaled
		report.Signal = waitStatus.Signal()
	case waitStatus.Stopped():
		report.Kind = ReportStopped
		report.Signal = waitStatus.StopSignal()
	case waitStatus.Continued():
		report.Kind = ReportContinued
	default:
		report.Kind = ReportUnknown
	}
	return report
}

// ExitedReport builds a report for a normal exit.
func ExitedReport(processID int, exitCode int) StatusReport {
	return StatusReport{ProcessID: processID, Kind: ReportExited, ExitCode: exitCode}
}

// SignaledReport builds a report for a process killed by a signal.
func SignaledReport(processID int, signal syscall.Signal) StatusReport {
	return StatusReport{ProcessID: processID, Kind: ReportSignaled, Signal: signal}
}

// StoppedReport builds a report for a stopped process.
func StoppedReport(processID int, signal syscall.Signal) StatusReport {
	return StatusReport{ProcessID: processID, Kind: ReportStopped, Signal: signal}
}
