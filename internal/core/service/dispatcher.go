package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vendora/inventory/internal/core/domain"
	"github.com/vendora/inventory/internal/port"
)

const publishTimeout = 5 * time.Second

// EventDispatcher decouples post-commit event delivery from the transaction
// that produced the event. Events are queued on a buffered channel and pushed
// to the publisher by a worker pool; a saturated queue drops the event and
// logs it rather than stalling a committed operation.
type EventDispatcher struct {
	publisher port.EventPublisher
	logger    *zap.Logger
	queue     chan domain.Event
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewEventDispatcher(publisher port.EventPublisher, logger *zap.Logger, queueSize, workers int) *EventDispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 1
	}

	d := &EventDispatcher{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan domain.Event, queueSize),
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.workerLoop()
	}

	return d
}

// Dispatch queues an event without blocking the caller.
func (d *EventDispatcher) Dispatch(event domain.Event) {
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("event", event.EventName()))
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *EventDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *EventDispatcher) workerLoop() {
	defer d.wg.Done()

	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Warn("event publish failed",
				zap.String("event", event.EventName()),
				zap.Error(err))
		}
		cancel()
	}
}
