// Package execshell launches external programs as shell jobs and tracks them to completion.
//
// ProcessLauncher starts each program in its own process group and registers
// it as a job. StatusCollector turns child status reports into job state
// transitions and is the only writer of job status in response to reports; it
// runs either synchronously from ForegroundWaitCoordinator or asynchronously
// from the SIGCHLD listener, never both at once. OS-facing pieces sit behind
// ProcessStarter, ChildWaiter, ProcessGroupSignaller, and TerminalController so
// the state machine can be exercised without spawning processes.
package execshell
