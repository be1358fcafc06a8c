// Package redis implements events.Publisher over Redis Pub/Sub so multiple
// portal instances can fan out to each other's dashboards. Delivery remains
// best effort: there is no cross-instance ordering and no replay.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/andresqui0416/Melotech-Artist/events"
	"github.com/andresqui0416/Melotech-Artist/models"
)

const eventChannel = "melotech:submission_events"

// RedisPublisher implements event publishing via Redis Pub/Sub
type RedisPublisher struct {
	client *goredis.Client

	mu      sync.Mutex
	pubsubs map[<-chan *events.Event]*goredis.PubSub
	cancels map[<-chan *events.Event]context.CancelFunc
}

// NewRedisPublisher creates a new Redis-based event publisher
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{
		client:  client,
		pubsubs: make(map[<-chan *events.Event]*goredis.PubSub),
		cancels: make(map[<-chan *events.Event]context.CancelFunc),
	}, nil
}

// Publish publishes an event to the shared Redis channel
func (r *RedisPublisher) Publish(ctx context.Context, event *events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := r.client.Publish(ctx, eventChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}

	return nil
}

// Subscribe subscribes to submission events from Redis
func (r *RedisPublisher) Subscribe(ctx context.Context) (<-chan *events.Event, error) {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(subCtx, eventChannel)

	ch := make(chan *events.Event, 100)

	r.mu.Lock()
	r.pubsubs[ch] = pubsub
	r.cancels[ch] = cancel
	r.mu.Unlock()

	go func() {
		defer close(ch)
		defer r.remove(ch)

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}

				event, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					continue
				}

				select {
				case ch <- event:
				case <-subCtx.Done():
					return
				default:
					// Drop if the subscriber is not keeping up
				}
			}
		}
	}()

	return ch, nil
}

// Unsubscribe removes a subscription obtained from Subscribe.
func (r *RedisPublisher) Unsubscribe(ch <-chan *events.Event) {
	r.mu.Lock()
	cancel, ok := r.cancels[ch]
	r.mu.Unlock()

	if ok {
		cancel()
	}
}

func (r *RedisPublisher) remove(ch <-chan *events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pubsub, ok := r.pubsubs[ch]; ok {
		_ = pubsub.Close()
	}
	delete(r.pubsubs, ch)
	delete(r.cancels, ch)
}

// Close closes the Redis connection and all subscriptions
func (r *RedisPublisher) Close() error {
	r.mu.Lock()
	for ch, cancel := range r.cancels {
		cancel()
		if pubsub, ok := r.pubsubs[ch]; ok {
			_ = pubsub.Close()
		}
	}
	r.pubsubs = make(map[<-chan *events.Event]*goredis.PubSub)
	r.cancels = make(map[<-chan *events.Event]context.CancelFunc)
	r.mu.Unlock()

	return r.client.Close()
}

// decodeEvent rehydrates a wire envelope into a typed event so in-process
// consumers see the same payload types the memory publisher delivers.
func decodeEvent(payload []byte) (*events.Event, error) {
	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case events.TypeNewSubmission, events.TypeSubmissionUpdated:
		var sub models.Submission
		if err := json.Unmarshal(env.Data, &sub); err != nil {
			return nil, err
		}
		return &events.Event{Type: env.Type, Data: &sub}, nil
	case events.TypeSubmissionDeleted:
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil {
			return nil, err
		}
		return &events.Event{Type: env.Type, Data: id}, nil
	default:
		var msg events.ConnectionMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, err
		}
		return &events.Event{Type: env.Type, Data: msg}, nil
	}
}
