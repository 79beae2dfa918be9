// internal/realtime/redis.go
package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ideamarket-backend/internal/config"
)

func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisBroker shares events between server instances over Redis pub/sub.
// Each table has its own channel "<prefix>:<table>"; one pattern
// subscription per process feeds the local hub, which applies filters.
type RedisBroker struct {
	client *redis.Client
	prefix string
	pubsub *redis.PubSub
	hub    *hub
	done   chan struct{}
}

func NewRedisBroker(ctx context.Context, client *redis.Client, prefix string, buffer int) (*RedisBroker, error) {
	pubsub := client.PSubscribe(ctx, prefix+":*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s:*: %w", prefix, err)
	}

	b := &RedisBroker{
		client: client,
		prefix: prefix,
		pubsub: pubsub,
		hub:    newHub(buffer),
		done:   make(chan struct{}),
	}
	go b.run()
	return b, nil
}

func (b *RedisBroker) channel(table string) string {
	return b.prefix + ":" + table
}

func (b *RedisBroker) run() {
	defer close(b.done)

	for msg := range b.pubsub.Channel() {
		var event Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logrus.WithError(err).WithField("channel", msg.Channel).Warn("Dropping malformed realtime event")
			continue
		}
		b.hub.dispatch(event)
	}
}

func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	if b.hub.isClosed() {
		return ErrBrokerClosed
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode realtime event: %w", err)
	}
	return b.client.Publish(ctx, b.channel(event.Table), payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, table string, filter Filter) (*Subscription, error) {
	return b.hub.subscribe(ctx, table, filter)
}

func (b *RedisBroker) Close() error {
	b.hub.close()
	err := b.pubsub.Close()
	<-b.done
	return err
}
