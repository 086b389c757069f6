// Package jobs tracks the shell's in-flight jobs.
//
// A Job groups the processes launched for one command under a single process
// group and carries the job status state machine. Registry owns every Job
// through three views: a fixed-capacity identifier table, an insertion-ordered
// sequence, and a process identifier index used to resolve child status
// reports. The package performs no locking of its own; callers serialize
// access by holding notification delivery (see package notification).
package jobs
