// Package interpreter walks parsed shell scripts and runs their simple commands as jobs.
//
// ExecuteScript is the single entry point. It holds child-status delivery for
// the whole statement list so the job registry is only touched by one path at
// a time, and releases it before returning control to the caller.
package interpreter
