package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRecentEvents is how many events the recent list keeps
	DefaultRecentEvents = 500
)

// EventStore publishes registry events to Redis.
//
// Events are an outbound feed for dashboards and other consumers. Nothing
// is ever read back into the registry.
type EventStore struct {
	client    *redis.Client
	keepCount int64
}

// NewEventStore creates a new Redis event store
func NewEventStore(client *redis.Client, keep int) *EventStore {
	if keep <= 0 {
		keep = DefaultRecentEvents
	}
	return &EventStore{
		client:    client,
		keepCount: int64(keep),
	}
}

// Publish sends the event on the events channel and records it in the
// capped recent events list, in a single pipeline round trip.
func (s *EventStore) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Publish(ctx, EventsChannel(), data)
	pipe.LPush(ctx, RecentEventsKey(), data)
	pipe.LTrim(ctx, RecentEventsKey(), 0, s.keepCount-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Recent returns up to n of the most recent events, newest first.
func (s *EventStore) Recent(ctx context.Context, n int) ([]domain.Event, error) {
	if n <= 0 {
		return []domain.Event{}, nil
	}

	raw, err := s.client.LRange(ctx, RecentEventsKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent events: %w", err)
	}

	events := make([]domain.Event, 0, len(raw))
	for _, item := range raw {
		var event domain.Event
		if err := json.Unmarshal([]byte(item), &event); err != nil {
			// Skip entries written by an incompatible version
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Ping checks the connection.
func (s *EventStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
