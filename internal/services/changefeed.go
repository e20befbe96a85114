package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	appconfig "ephemeral-photo-backend/internal/config"
	"ephemeral-photo-backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/rs/zerolog/log"
)

const changeBuffer = 64

// LocalChangeFeed fans changes out to in-process subscribers. Used when
// Redis is disabled, i.e. a single instance serves every client.
type LocalChangeFeed struct {
	mu   sync.RWMutex
	subs map[chan models.Change]chan struct{}
}

// NewLocalChangeFeed creates an in-process change feed
func NewLocalChangeFeed() *LocalChangeFeed {
	return &LocalChangeFeed{subs: make(map[chan models.Change]chan struct{})}
}

// Publish delivers change to every subscriber, waiting for slow ones
// until ctx is done so that order is preserved.
func (f *LocalChangeFeed) Publish(ctx context.Context, change models.Change) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch, done := range f.subs {
		select {
		case ch <- change:
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribe returns a channel of changes that is closed when ctx is done
func (f *LocalChangeFeed) Subscribe(ctx context.Context) (<-chan models.Change, error) {
	ch := make(chan models.Change, changeBuffer)
	done := make(chan struct{})

	f.mu.Lock()
	f.subs[ch] = done
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		close(done)
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// RedisChangeFeed distributes changes between instances over Redis pub/sub
type RedisChangeFeed struct {
	client  *redis.Client
	channel string
}

// NewRedisClient creates a client for the change feed. Maintenance
// notifications are off: pub/sub connections must not be handed over.
func NewRedisClient(cfg appconfig.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
}

// NewRedisChangeFeed creates a change feed on the given pub/sub channel
func NewRedisChangeFeed(client *redis.Client, channel string) *RedisChangeFeed {
	return &RedisChangeFeed{client: client, channel: channel}
}

// Publish sends change to every instance subscribed to the channel
func (f *RedisChangeFeed) Publish(ctx context.Context, change models.Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish change: %w", err)
	}
	return nil
}

// Subscribe returns a channel of changes that is closed when ctx is done.
// Undecodable messages are logged and dropped.
func (f *RedisChangeFeed) Subscribe(ctx context.Context) (<-chan models.Change, error) {
	pubsub := f.client.Subscribe(ctx, f.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}

	out := make(chan models.Change, changeBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change models.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					log.Error().Err(err).Str("channel", f.channel).Msg("Failed to decode change")
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
