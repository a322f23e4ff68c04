// Package notify announces newly written result records on a Redis channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/okian/balance/internal/domain/model"
)

// EventRecordCreated is the type of every published event.
const EventRecordCreated = "record.created"

// Event is the JSON payload published for a record. Answers are omitted.
type Event struct {
	Type      string     `json:"type"`
	RecordID  string     `json:"record_id"`
	OwnerID   string     `json:"owner_id"`
	Score     float64    `json:"score"`
	Label     string     `json:"label"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// NewEvent builds the event for rec.
func NewEvent(rec model.ResultRecord) Event {
	return Event{
		Type:      EventRecordCreated,
		RecordID:  rec.ID,
		OwnerID:   rec.OwnerID,
		Score:     rec.Score,
		Label:     rec.Label,
		CreatedAt: rec.CreatedAt,
	}
}

// publisher is the subset of *goredis.Client used here.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *goredis.IntCmd
}

// RedisPublisher publishes record events to one channel.
type RedisPublisher struct {
	client  publisher
	closer  func() error
	channel string
}

// NewRedisPublisher connects to addr and verifies the connection.
func NewRedisPublisher(ctx context.Context, addr, channel string) (*RedisPublisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPublisher{client: rdb, closer: rdb.Close, channel: channel}, nil
}

// NewPublisher wraps an existing client, e.g. a shared *goredis.Client.
func NewPublisher(client publisher, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// RecordCreated publishes the event for rec.
func (p *RedisPublisher) RecordCreated(ctx context.Context, rec model.ResultRecord) error {
	raw, err := json.Marshal(NewEvent(rec))
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Close closes the connection when the publisher owns it.
func (p *RedisPublisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// Noop drops every event.
type Noop struct{}

// RecordCreated does nothing.
func (Noop) RecordCreated(context.Context, model.ResultRecord) error { return nil }

// Close does nothing.
func (Noop) Close() error { return nil }
