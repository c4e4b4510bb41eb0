// Package events carries catalog change notifications out of the process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Action names a catalog mutation.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent describes one committed catalog mutation.
type ChangeEvent struct {
	Action   Action    `json:"action"`
	Category string    `json:"category"`
	Title    string    `json:"title"`
	OldTitle string    `json:"old_title,omitempty"`
	At       time.Time `json:"at"`
}

// Notifier receives committed changes.
type Notifier interface {
	Notify(ctx context.Context, ev ChangeEvent) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(context.Context, ChangeEvent) error { return nil }

// RedisNotifier publishes events as JSON on a Redis channel.
type RedisNotifier struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisNotifier returns a notifier publishing on channel.
func NewRedisNotifier(client redis.UniversalClient, channel string) *RedisNotifier {
	return &RedisNotifier{client: client, channel: channel}
}

func (n *RedisNotifier) Notify(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}

// Subscribe streams events published on channel until ctx is done.
func Subscribe(ctx context.Context, client redis.UniversalClient, channel string) (<-chan ChangeEvent, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	out := make(chan ChangeEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev ChangeEvent
				if json.Unmarshal([]byte(msg.Payload), &ev) != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
