package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// userChannelPrefix is followed by the user id; subscribers fan out to sockets
	userChannelPrefix = "forum:notify:"
	// inboxPrefix keys a capped list of recent events per user
	inboxPrefix = "forum:inbox:"

	DefaultInboxSize = 100
	inboxTTL         = 30 * 24 * time.Hour
)

// RedisPublisher publishes events on a per-user channel and keeps a capped inbox
type RedisPublisher struct {
	client    redis.Cmdable
	inboxSize int64
}

// NewRedisPublisher creates a publisher; inboxSize <= 0 uses DefaultInboxSize
func NewRedisPublisher(client redis.Cmdable, inboxSize int) *RedisPublisher {
	if inboxSize <= 0 {
		inboxSize = DefaultInboxSize
	}
	return &RedisPublisher{client: client, inboxSize: int64(inboxSize)}
}

// Notify implements Notifier
func (p *RedisPublisher) Notify(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	inbox := InboxKey(e.UserID.String())
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, inbox, payload)
		pipe.LTrim(ctx, inbox, 0, p.inboxSize-1)
		pipe.Expire(ctx, inbox, inboxTTL)
		pipe.Publish(ctx, ChannelName(e.UserID.String()), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Inbox returns up to limit recent events for a user, newest first
func (p *RedisPublisher) Inbox(ctx context.Context, userID string, limit int64) ([]Event, error) {
	raw, err := p.client.LRange(ctx, InboxKey(userID), 0, limit-1).Result()
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var e Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

// ChannelName returns the pub/sub channel for a user
func ChannelName(userID string) string {
	return userChannelPrefix + userID
}

// InboxKey returns the list key for a user
func InboxKey(userID string) string {
	return inboxPrefix + userID
}
