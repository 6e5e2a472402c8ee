package docstore

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"attendhub/internal/metrics"
)

// Event is one change notification from the record store. Event names are
// "<collection>.create", "<collection>.update" or "<collection>.delete";
// Document carries the affected document (the id alone for deletes).
type Event struct {
	Event      string          `json:"event"`
	Collection string          `json:"collection"`
	Document   json.RawMessage `json:"document"`
}

// Subscriber delivers store change events from redis pub/sub. Delivery is
// at-least-once and unordered; consumers must replace by id or refetch,
// never blind-append.
type Subscriber struct {
	client *redis.Client
	prefix string
}

// NewSubscriber builds a subscriber over the store's event channels.
func NewSubscriber(client *redis.Client, prefix string) *Subscriber {
	if prefix == "" {
		prefix = "store.events"
	}
	return &Subscriber{client: client, prefix: prefix}
}

// Subscribe streams events for the named collections until ctx is
// cancelled. Cancelling ctx releases the underlying subscription and
// closes the returned channel; no callbacks outlive it.
func (s *Subscriber) Subscribe(ctx context.Context, collections ...string) (<-chan Event, error) {
	channels := make([]string, 0, len(collections))
	for _, col := range collections {
		channels = append(channels, s.prefix+"."+col)
	}

	sub := s.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					continue
				}
				metrics.ChangeEvents.WithLabelValues(evt.Collection).Inc()
				select {
				case out <- evt:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
