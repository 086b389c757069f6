package notification

import (
	"sync"
	"sync/atomic"
)

// DeliveryGate serializes the control goroutine and the asynchronous notification handler.
type DeliveryGate struct {
	mutex       sync.Mutex
	held        atomic.Bool
	controlHeld atomic.Bool
}

// NewDeliveryGate constructs a released gate.
func NewDeliveryGate() *DeliveryGate {
	return &DeliveryGate{}
}

// Hold blocks until any in-flight delivery finishes and then keeps further notifications pending.
// Only the control goroutine calls Hold and Release.
func (gate *DeliveryGate) Hold() {
	gate.mutex.Lock()
	gate.held.Store(true)
	gate.controlHeld.Store(true)
}

// Release lets pending notifications through.
func (gate *DeliveryGate) Release() {
	gate.controlHeld.Store(false)
	gate.held.Store(false)
	gate.mutex.Unlock()
}

// Held reports whether the registry is currently protected, either by Hold or by an in-flight delivery.
func (gate *DeliveryGate) Held() bool {
	return gate.held.Load()
}

// HeldByControl reports whether the control goroutine holds the gate. In-flight deliveries do not count.
func (gate *DeliveryGate) HeldByControl() bool {
	return gate.controlHeld.Load()
}

// Deliver runs the handler once delivery is released, suppressing delivery while it runs.
func (gate *DeliveryGate) Deliver(handler func()) {
	gate.mutex.Lock()
	gate.held.Store(true)
	defer func() {
		gate.held.Store(false)
		gate.mutex.Unlock()
	}()
	handler()
}
