package notification

import (
	"os"
	"os/signal"
	"sync"

	"golang.org/x/sys/unix"
)

// pending notifications coalesce; the handler drains every ready child per delivery
const notificationBufferSizeConstant = 1

// Listener delivers SIGCHLD notifications to a handler through a DeliveryGate.
type Listener struct {
	gate         *DeliveryGate
	handler      func()
	signals      chan os.Signal
	stopSignal   chan struct{}
	stopped      chan struct{}
	startGuard   sync.Once
	stopGuard    sync.Once
	notification os.Signal
}

// NewListener constructs a listener that runs handler for every child-status notification.
func NewListener(gate *DeliveryGate, handler func()) *Listener {
	return &Listener{
		gate:         gate,
		handler:      handler,
		signals:      make(chan os.Signal, notificationBufferSizeConstant),
		stopSignal:   make(chan struct{}),
		stopped:      make(chan struct{}),
		notification: unix.SIGCHLD,
	}
}

// Start subscribes to SIGCHLD and begins delivering notifications.
func (listener *Listener) Start() {
	listener.startGuard.Do(func() {
		signal.Notify(listener.signals, listener.notification)
		go listener.run()
	})
}

// Stop unsubscribes and waits for the delivery goroutine to exit.
// It must be called while the gate is released.
func (listener *Listener) Stop() {
	listener.startGuard.Do(func() {
		close(listener.stopped)
	})
	listener.stopGuard.Do(func() {
		signal.Stop(listener.signals)
		close(listener.stopSignal)
	})
	<-listener.stopped
}

// Notify queues a notification as if SIGCHLD had arrived.
func (listener *Listener) Notify() {
	select {
	case listener.signals <- listener.notification:
	default:
	}
}

func (listener *Listener) run() {
	defer close(listener.stopped)
	for {
		select {
		case <-listener.stopSignal:
			return
		case <-listener.signals:
			listener.gate.Deliver(listener.handler)
		}
	}
}
