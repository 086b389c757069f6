// Package notification models asynchronous child-status delivery.
//
// DeliveryGate plays the role of a signal mask: while the control goroutine
// holds it, SIGCHLD notifications stay pending and the Listener cannot run its
// handler. Releasing the gate lets pending notifications through. Exactly one
// of the two paths touches shared job state at any moment, so the job registry
// needs no locking of its own.
package notification
