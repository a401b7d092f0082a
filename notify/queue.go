package notify

import (
	"errors"
	"fmt"
	"sync"

	"github.com/clinicconnect/clinic-api/util"
)

type queuedEmail struct {
	appointmentID uint
	confirmation  *ConfirmationEmail
	cancellation  *CancellationEmail
}

var (
	errQueueFull   = errors.New("notification queue full")
	errQueueClosed = errors.New("notification queue closed")
)

// Queue decouples appointment state changes from email delivery. Handlers
// enqueue after the database write commits; a single worker goroutine drains
// the channel and logs each outcome. A full or closed queue drops the message
// rather than blocking a request.
type Queue struct {
	dispatcher Dispatcher
	mu         sync.RWMutex
	closed     bool
	ch         chan queuedEmail
	done       chan struct{}
}

// NewQueue starts the delivery worker with the given buffer size.
func NewQueue(dispatcher Dispatcher, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	q := &Queue{
		dispatcher: dispatcher,
		ch:         make(chan queuedEmail, buffer),
		done:       make(chan struct{}),
	}
	go q.worker()
	return q
}

func (q *Queue) worker() {
	defer close(q.done)
	for item := range q.ch {
		switch {
		case item.confirmation != nil:
			msg := *item.confirmation
			if err := q.dispatcher.SendConfirmation(msg); err != nil {
				util.LogEmailFailed(msg.To, "confirmation", item.appointmentID, err)
				continue
			}
			util.LogEmailDispatched(msg.To, "confirmation", item.appointmentID)
		case item.cancellation != nil:
			msg := *item.cancellation
			if err := q.dispatcher.SendCancellation(msg); err != nil {
				util.LogEmailFailed(msg.To, "cancellation", item.appointmentID, err)
				continue
			}
			util.LogEmailDispatched(msg.To, "cancellation", item.appointmentID)
		}
	}
}

// enqueue hands the item to the worker without ever blocking. The read lock
// against closed prevents a send racing Close's close(q.ch).
func (q *Queue) enqueue(item queuedEmail) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	default:
		return errQueueFull
	}
}

// EnqueueConfirmation schedules a confirmation email. Never blocks.
func (q *Queue) EnqueueConfirmation(appointmentID uint, msg ConfirmationEmail) {
	if err := q.enqueue(queuedEmail{appointmentID: appointmentID, confirmation: &msg}); err != nil {
		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventSuspiciousActivity,
			Email:     msg.To,
			Message:   fmt.Sprintf("Confirmation email dropped: %v", err),
		})
	}
}

// EnqueueCancellation schedules a cancellation email. Never blocks.
func (q *Queue) EnqueueCancellation(appointmentID uint, msg CancellationEmail) {
	if err := q.enqueue(queuedEmail{appointmentID: appointmentID, cancellation: &msg}); err != nil {
		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventSuspiciousActivity,
			Email:     msg.To,
			Message:   fmt.Sprintf("Cancellation email dropped: %v", err),
		})
	}
}

// Close stops accepting messages and waits for the worker to drain the queue.
// Enqueues after Close are dropped and logged.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	q.mu.Unlock()
	<-q.done
}
