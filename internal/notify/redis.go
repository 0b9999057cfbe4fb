package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v9"
)

// inboxLength caps how many notifications are kept per user.
const inboxLength = 50

// RedisNotifier publishes notifications on a per-user channel and keeps a short inbox list so a
// client that was offline can catch up on its next pull.
type RedisNotifier struct {
	client *redis.Client
}

// RedisSettings are the connection parameters for the notification Redis.
type RedisSettings struct {
	Address  string
	Password string
	DB       int
}

// NewRedisNotifier creates a notifier connected to the given Redis instance.
func NewRedisNotifier(settings RedisSettings) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{
			Addr:     settings.Address,
			Password: settings.Password,
			DB:       settings.DB,
		}),
	}
}

// Ping checks the connection.
func (r *RedisNotifier) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisNotifier) Close() error {
	return r.client.Close()
}

// Notify publishes n and appends it to the user's inbox in one round trip.
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) error {
	payload, err := encode(n)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Publish(ctx, ChannelKey(n.UID), payload)
		pipe.RPush(ctx, InboxKey(n.UID), payload)
		pipe.LTrim(ctx, InboxKey(n.UID), -inboxLength, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish notification to %s: %w", n.UID, err)
	}
	return nil
}

// ChannelKey is the pub/sub channel a user's devices subscribe to.
func ChannelKey(uid string) string {
	return "notifications:" + uid
}

// InboxKey is the list holding a user's most recent notifications.
func InboxKey(uid string) string {
	return "notifications:inbox:" + uid
}

func encode(n Notification) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encode notification: %w", err)
	}
	return string(data), nil
}
