package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/solenne/chorus/internal/player/application/ports"
)

// checkpointKey is where the playback snapshot lives. One session per
// process means one key.
const checkpointKey = "chorus:checkpoint"

// Compile-time checks for the checkpoint stores.
var (
	_ ports.CheckpointStore = (*RedisCheckpointStore)(nil)
	_ ports.CheckpointStore = (*NoopCheckpointStore)(nil)
)

// RedisCheckpointConfig contains the redis connection configuration.
type RedisCheckpointConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisCheckpointStore persists playback checkpoints in redis so a
// restarted process can resume volume and playback policy.
type RedisCheckpointStore struct {
	client *redislib.Client
}

// NewRedisCheckpointStore connects to redis and verifies the connection
// with a few pings before giving up.
func NewRedisCheckpointStore(config RedisCheckpointConfig) (*RedisCheckpointStore, error) {
	client := redislib.NewClient(&redislib.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	attempts := 3
	backoff := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()

		if lastErr == nil {
			return &RedisCheckpointStore{client: client}, nil
		}
		if attempt < attempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to redis: %w", lastErr)
}

// Save stores the checkpoint, replacing any previous one.
func (s *RedisCheckpointStore) Save(ctx context.Context, cp ports.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := s.client.Set(ctx, checkpointKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Load returns the latest checkpoint, or nil if none exists.
func (s *RedisCheckpointStore) Load(ctx context.Context) (*ports.Checkpoint, error) {
	payload, err := s.client.Get(ctx, checkpointKey).Bytes()
	if errors.Is(err, redislib.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp ports.Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &cp, nil
}

// Close releases the redis client.
func (s *RedisCheckpointStore) Close() error {
	return s.client.Close()
}

// NoopCheckpointStore is used by builds without persistence, such as the
// demo site.
type NoopCheckpointStore struct{}

// Save discards the checkpoint.
func (NoopCheckpointStore) Save(context.Context, ports.Checkpoint) error { return nil }

// Load reports that no checkpoint exists.
func (NoopCheckpointStore) Load(context.Context) (*ports.Checkpoint, error) { return nil, nil }
