package execshell

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// TerminalController moves the controlling terminal between the shell and foreground jobs.
type TerminalController interface {
	GiveTo(processGroupID int) error
	Reclaim() error
}

// NoopTerminalController leaves the terminal alone; used for scripts and non-terminal input.
type NoopTerminalController struct{}

// GiveTo implements TerminalController.
func (NoopTerminalController) GiveTo(int) error { return nil }

// Reclaim implements TerminalController.
func (NoopTerminalController) Reclaim() error { return nil }

// OSTerminalController sets the terminal's foreground process group with TIOCSPGRP.
type OSTerminalController struct {
	terminal          *os.File
	shellProcessGroup int
}

// NewOSTerminalController takes control of the terminal for the shell's own process group.
func NewOSTerminalController(terminal *os.File) *OSTerminalController {
	return &OSTerminalController{
		terminal:          terminal,
		shellProcessGroup: unix.Getpgrp(),
	}
}

// GiveTo makes the process group the terminal's foreground group.
func (controller *OSTerminalController) GiveTo(processGroupID int) error {
	return controller.setForegroundGroup(processGroupID)
}

// Reclaim returns the terminal to the shell.
func (controller *OSTerminalController) Reclaim() error {
	return controller.setForegroundGroup(controller.shellProcessGroup)
}

// setForegroundGroup ignores SIGTTOU only for the duration of the ioctl, so a shell in the
// background can take the terminal back while children started later keep the default disposition.
func (controller *OSTerminalController) setForegroundGroup(processGroupID int) error {
	signal.Ignore(syscall.SIGTTOU)
	defer signal.Reset(syscall.SIGTTOU)
	return unix.IoctlSetPointerInt(int(controller.terminal.Fd()), unix.TIOCSPGRP, processGroupID)
}
