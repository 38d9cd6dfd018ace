package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"recanto_verde_backend/pkg/utils"

	"github.com/go-redis/redis/v8"
)

const subscriberBuffer = 256

// MemoryBroker fans events out to in-process subscribers.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[chan Event]struct{})}
}

// Publish never blocks; a subscriber with a full buffer misses the event.
func (b *MemoryBroker) Publish(ctx context.Context, evt Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("publishing %s: broker closed", evt.Type)
	}
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			utils.LogWarn("Subscriber buffer full, event dropped", map[string]interface{}{"event": evt.Type})
		}
	}
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("subscribing: broker closed")
	}
	ch := make(chan Event, subscriberBuffer)
	b.subs[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}()
	return ch, nil
}

// Close ends every subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}

// DefaultRedisChannel is the pub/sub channel floor events travel on.
const DefaultRedisChannel = "floor:events"

// RedisBroker relays events through a redis pub/sub channel so every server
// instance sees events published by the others.
type RedisBroker struct {
	client  *redis.Client
	channel string
}

// NewRedisBroker wraps an existing client. Close closes the client.
func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBroker{client: client, channel: channel}
}

func (b *RedisBroker) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", evt.Type, err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publishing %s to redis: %w", evt.Type, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context) (<-chan Event, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns can be missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribing to redis channel %s: %w", b.channel, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					utils.LogError(err, "Discarding malformed event from redis", map[string]interface{}{"channel": msg.Channel})
					continue
				}
				select {
				case out <- evt:
				default:
					utils.LogWarn("Subscriber buffer full, event dropped", map[string]interface{}{"event": evt.Type})
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
