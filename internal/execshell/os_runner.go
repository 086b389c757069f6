package execshell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

const (
	pathSeparatorConstant       = "/"
	anyChildProcessIDConstant   = -1
	noReadyChildProcessConstant = 0
)

// StartRequest describes one process to start.
type StartRequest struct {
	Arguments      []string
	ProcessGroupID int
	Foreground     bool
}

// ProcessStarter creates processes in their own process groups.
type ProcessStarter interface {
	Start(request StartRequest) (int, error)
}

// ChildWaiter reports status changes of child processes.
type ChildWaiter interface {
	// WaitForAnyChild returns the next status change. Without blocking it reports ready=false when nothing changed.
	WaitForAnyChild(blocking bool) (StatusReport, bool, error)
}

// ProcessGroupSignaller delivers signals to whole process groups.
type ProcessGroupSignaller interface {
	SignalGroup(processGroupID int, signal syscall.Signal) error
}

// OSProcessStarter starts programs with os.StartProcess.
type OSProcessStarter struct {
	files               []*os.File
	terminal            *os.File
	environmentSupplier func() []string
}

// NewOSProcessStarter constructs a starter wiring the child's standard streams to the provided files.
// A non-nil terminal lets foreground children take over the controlling terminal.
func NewOSProcessStarter(standardInput *os.File, standardOutput *os.File, standardError *os.File, terminal *os.File) *OSProcessStarter {
	return &OSProcessStarter{
		files:               []*os.File{standardInput, standardOutput, standardError},
		terminal:            terminal,
		environmentSupplier: os.Environ,
	}
}

// Start resolves the program and starts it in the requested process group, zero meaning a new group.
func (starter *OSProcessStarter) Start(request StartRequest) (int, error) {
	if len(request.Arguments) == 0 {
		return 0, ErrEmptyArguments
	}

	executablePath, resolveError := resolveExecutable(request.Arguments[0])
	if resolveError != nil {
		return 0, resolveError
	}

	processAttributes := &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    request.ProcessGroupID,
	}
	if request.Foreground && starter.terminal != nil {
		processAttributes.Foreground = true
		processAttributes.Ctty = int(starter.terminal.Fd())
	}

	process, startError := os.StartProcess(executablePath, request.Arguments, &os.ProcAttr{
		Env:   starter.environmentSupplier(),
		Files: starter.files,
		Sys:   processAttributes,
	})
	if startError != nil {
		return 0, startError
	}

	processID := process.Pid
	// the shell reaps through wait4, so the handle is not needed
	_ = process.Release()
	return processID, nil
}

func resolveExecutable(programName string) (string, error) {
	if strings.Contains(programName, pathSeparatorConstant) {
		return programName, nil
	}
	resolvedPath, lookupError := exec.LookPath(programName)
	if lookupError != nil && !errors.Is(lookupError, exec.ErrDot) {
		return "", lookupError
	}
	return resolvedPath, nil
}

// OSChildWaiter waits with wait4 on any child of the current process.
type OSChildWaiter struct{}

// NewOSChildWaiter constructs a waiter backed by wait4.
func NewOSChildWaiter() *OSChildWaiter {
	return &OSChildWaiter{}
}

// WaitForAnyChild reports stopped and terminated children, retrying interrupted waits.
func (waiter *OSChildWaiter) WaitForAnyChild(blocking bool) (StatusReport, bool, error) {
	waitOptions := unix.WUNTRACED
	if !blocking {
		waitOptions |= unix.WNOHANG
	}

	for {
		var waitStatus unix.WaitStatus
		processID, waitError := unix.Wait4(anyChildProcessIDConstant, &waitStatus, waitOptions, nil)
		switch {
		case errors.Is(waitError, unix.EINTR):
			continue
		case errors.Is(waitError, unix.ECHILD):
			return StatusReport{}, false, fmt.Errorf(noChildrenTemplateConstant, ErrNoChildren, waitError)
		case waitError != nil:
			return StatusReport{}, false, waitError
		case processID == noReadyChildProcessConstant:
			return StatusReport{}, false, nil
		default:
			return NewStatusReport(processID, waitStatus), true, nil
		}
	}
}

// OSProcessGroupSignaller signals process groups with kill(2).
type OSProcessGroupSignaller struct{}

// NewOSProcessGroupSignaller constructs a signaller backed by kill(2).
func NewOSProcessGroupSignaller() *OSProcessGroupSignaller {
	return &OSProcessGroupSignaller{}
}

// SignalGroup sends the signal to every process in the group.
func (signaller *OSProcessGroupSignaller) SignalGroup(processGroupID int, signal syscall.Signal) error {
	return unix.Kill(-processGroupID, signal)
}
