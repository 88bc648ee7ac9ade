package events

import (
	"context"
	"errors"
	"sync"
	"time"

	interfaces "github.com/sheikh-saqib/jobs-ledger/internal/interfaces"
	"go.uber.org/zap"
)

var (
	ErrQueueFull       = errors.New("event queue full")
	ErrPublisherClosed = errors.New("event publisher closed")
)

type envelope struct {
	topic string
	event any
}

// AsyncPublisher hands events to a backend publisher from a single
// background goroutine. Publish never blocks: when the queue is full the
// event is dropped. Each event is attempted at most once.
type AsyncPublisher struct {
	next    interfaces.EventPublisher
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex // guards closed and sends on queue
	closed bool
	queue  chan envelope
	done   chan struct{}
}

// NewAsyncPublisher starts the delivery goroutine. buffer is the queue
// capacity; timeout bounds each backend call.
func NewAsyncPublisher(next interfaces.EventPublisher, buffer int, timeout time.Duration, logger *zap.Logger) *AsyncPublisher {
	if buffer < 1 {
		buffer = 1
	}
	p := &AsyncPublisher{
		next:    next,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan envelope, buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.queue <- envelope{topic: topic, event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)

	for env := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		err := p.next.Publish(ctx, env.topic, env.event)
		cancel()
		if err != nil {
			p.logger.Error("event delivery failed", zap.String("topic", env.topic), zap.Error(err))
		}
	}
}

// Shutdown stops accepting events and waits for queued ones to be delivered
// until ctx expires, then closes the backend. Undelivered events are lost.
func (p *AsyncPublisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	var err error
	select {
	case <-p.done:
	case <-ctx.Done():
		p.logger.Warn("event queue not drained before shutdown", zap.Int("pending", len(p.queue)))
		err = ctx.Err()
	}
	return errors.Join(err, p.next.Close())
}

func (p *AsyncPublisher) Close() error {
	return p.Shutdown(context.Background())
}

var _ interfaces.EventPublisher = (*AsyncPublisher)(nil)
