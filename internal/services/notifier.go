package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/mail"
	"github.com/campuscare/backend/internal/metrics"
)

// Notification kinds
const (
	KindReceived = "received"
	KindStatus   = "status"
	KindTask     = "task"
)

type Notification struct {
	Kind    string
	Message mail.Message
}

// Enqueuer accepts notifications without blocking the caller.
type Enqueuer interface {
	Enqueue(n Notification) bool
}

// Notifier delivers notifications on a fixed pool of worker goroutines.
// Delivery is best effort: failures are logged and counted, never retried.
type Notifier struct {
	sender      mail.Sender
	queue       chan Notification
	workerCount int
	timeout     time.Duration
	wg          sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewNotifier creates a notifier and starts its workers
func NewNotifier(sender mail.Sender, workers, queueSize int, timeout time.Duration) *Notifier {
	n := &Notifier{
		sender:      sender,
		queue:       make(chan Notification, queueSize),
		workerCount: workers,
		timeout:     timeout,
	}

	for i := 0; i < n.workerCount; i++ {
		n.wg.Add(1)
		go n.worker(i)
	}

	return n
}

func (n *Notifier) worker(id int) {
	defer n.wg.Done()

	for note := range n.queue {
		if err := n.deliver(note); err != nil {
			logger.WithNotification(note.Kind, note.Message.To).
				WithField("workerID", id).
				WithField("error", err.Error()).
				Warn("Notification delivery failed")
			metrics.RecordNotification(note.Kind, "failed")
			continue
		}
		metrics.RecordNotification(note.Kind, "sent")
	}
}

func (n *Notifier) deliver(note Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	return n.sender.Send(ctx, note.Message)
}

// Enqueue queues a notification and returns immediately. It reports false
// when the queue is full or the notifier has been stopped.
func (n *Notifier) Enqueue(note Notification) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		metrics.RecordNotification(note.Kind, "dropped")
		return false
	}

	select {
	case n.queue <- note:
		return true
	default:
		logger.WithNotification(note.Kind, note.Message.To).Warn("Notification queue full, dropping message")
		metrics.RecordNotification(note.Kind, "dropped")
		return false
	}
}

// Stop rejects new notifications and waits for queued ones to be delivered.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.wg.Wait()
	logger.Info("Notifier stopped", map[string]interface{}{"workers": n.workerCount})
}
