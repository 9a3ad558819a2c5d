package player

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Notification is a component change pushed to the brain.
type Notification struct {
	DeviceID  string
	Component Component
	Value     any
}

// NotifyFunc delivers a notification to the brain.
type NotifyFunc func(ctx context.Context, n Notification) error

// Outbox accepts notifications without waiting for delivery.
type Outbox interface {
	Install(fn NotifyFunc)
	Enqueue(n Notification)
}

// Notifier is an unbounded best-effort Outbox. Notifications enqueued before a
// NotifyFunc is installed are dropped. Delivery failures are logged and never
// retried.
type Notifier struct {
	log   *zap.Logger
	mu    sync.Mutex
	send  NotifyFunc
	queue []Notification
	wake  chan struct{}
}

// NewNotifier creates a notifier with no delivery function installed.
func NewNotifier(log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{log: log, wake: make(chan struct{}, 1)}
}

// Install sets the delivery function.
func (n *Notifier) Install(fn NotifyFunc) {
	n.log.Debug("notification function installed")
	n.mu.Lock()
	n.send = fn
	n.mu.Unlock()
}

// Enqueue queues a notification for delivery and returns immediately.
func (n *Notifier) Enqueue(note Notification) {
	n.mu.Lock()
	if n.send == nil {
		n.mu.Unlock()
		n.log.Debug("notifier not initialised yet",
			zap.String("device", note.DeviceID),
			zap.String("component", string(note.Component)),
			zap.Any("value", note.Value),
		)
		return
	}
	n.queue = append(n.queue, note)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued notifications until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-n.wake:
			n.drain(ctx)
		}
	}
}

func (n *Notifier) drain(ctx context.Context) {
	for {
		n.mu.Lock()
		if len(n.queue) == 0 {
			n.mu.Unlock()
			return
		}
		note := n.queue[0]
		n.queue[0] = Notification{}
		n.queue = n.queue[1:]
		send := n.send
		n.mu.Unlock()

		if err := send(ctx, note); err != nil {
			n.log.Warn("notification failed",
				zap.String("device", note.DeviceID),
				zap.String("component", string(note.Component)),
				zap.Error(err),
			)
		}
	}
}
