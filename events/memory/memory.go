// Package memory implements events.Publisher with in-process Go channels.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/andresqui0416/Melotech-Artist/events"
)

// InMemoryPublisher implements events.Publisher using Go channels. The
// subscriber set is the only shared mutable state; all mutation goes through
// Subscribe/Unsubscribe and publish iterates a snapshot taken under the lock,
// so a subscriber removed mid-broadcast never corrupts the iteration.
type InMemoryPublisher struct {
	mu          sync.RWMutex
	subscribers map[<-chan *events.Event]chan *events.Event
	cancels     map[<-chan *events.Event]context.CancelFunc
	bufferSize  int
	closed      bool
	logger      *slog.Logger
}

// NewInMemoryPublisher creates a new in-memory event publisher. bufferSize is
// the per-subscriber channel capacity; a subscriber whose buffer is full has
// that event dropped rather than blocking the broadcast.
func NewInMemoryPublisher(bufferSize int, logger *slog.Logger) *InMemoryPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryPublisher{
		subscribers: make(map[<-chan *events.Event]chan *events.Event),
		cancels:     make(map[<-chan *events.Event]context.CancelFunc),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Publish sends an event to all current subscribers. Delivery to each
// subscriber is attempted exactly once against the set registered at call
// time; a full subscriber buffer is logged and skipped, never propagated.
func (p *InMemoryPublisher) Publish(ctx context.Context, event *events.Event) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// The read lock is held for the whole loop: sends are non-blocking, and
	// Unsubscribe/Close need the write lock, so a channel can never be closed
	// out from under a send in progress.
	p.mu.RLock()
	defer p.mu.RUnlock()

	snapshot := make([]chan *events.Event, 0, len(p.subscribers))
	for _, sub := range p.subscribers {
		snapshot = append(snapshot, sub)
	}

	dropped := 0
	for _, sub := range snapshot {
		select {
		case sub <- event:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Subscriber is slow, skip this update to prevent blocking
			dropped++
		}
	}

	if dropped > 0 {
		p.logger.Warn("dropped event for slow subscribers",
			slog.String("type", string(event.Type)),
			slog.Int("dropped", dropped),
			slog.Int("subscribers", len(snapshot)))
	}

	return nil
}

// Subscribe returns a channel that receives all subsequent events. The
// subscription is removed when ctx is cancelled or Unsubscribe is called,
// whichever comes first.
func (p *InMemoryPublisher) Subscribe(ctx context.Context) (<-chan *events.Event, error) {
	subCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	ch := make(chan *events.Event, p.bufferSize)
	p.subscribers[ch] = ch
	p.cancels[ch] = cancel
	p.mu.Unlock()

	// Unsubscribe and Close cancel subCtx, so the watchdog never outlives
	// the subscription it watches.
	go func() {
		<-subCtx.Done()
		p.Unsubscribe(ch)
	}()

	return ch, nil
}

// Unsubscribe removes a subscription. No-op if the channel is not registered.
func (p *InMemoryPublisher) Unsubscribe(ch <-chan *events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub, ok := p.subscribers[ch]
	if !ok {
		return
	}
	delete(p.subscribers, ch)
	if cancel, ok := p.cancels[ch]; ok {
		cancel()
		delete(p.cancels, ch)
	}
	close(sub)
}

// Close closes the publisher and all subscriptions
func (p *InMemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for ch, sub := range p.subscribers {
		if cancel, ok := p.cancels[ch]; ok {
			cancel()
		}
		close(sub)
	}
	p.subscribers = make(map[<-chan *events.Event]chan *events.Event)
	p.cancels = make(map[<-chan *events.Event]context.CancelFunc)

	return nil
}
