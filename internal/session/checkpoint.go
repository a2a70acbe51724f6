package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aixgo-dev/vidsense/agent"
)

// ErrCheckpointNotFound means no checkpoint exists for the session.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Backend persists conversation checkpoints keyed by session id. The
// in-memory store is authoritative while the process lives; a backend
// lets conversations survive restarts.
type Backend interface {
	Save(ctx context.Context, sessionID string, state *agent.State) error
	Load(ctx context.Context, sessionID string) (*agent.State, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}

// checkpointBlob is the serialized form. Only the conversation and its
// evidence are durable; routing scratch fields are per-turn.
type checkpointBlob struct {
	Messages  []agent.Message  `json:"messages"`
	Documents []agent.Document `json:"documents"`
}

func marshalCheckpoint(state *agent.State) ([]byte, error) {
	blob := checkpointBlob{Messages: state.Messages, Documents: state.Documents}
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}

func unmarshalCheckpoint(data []byte) (*agent.State, error) {
	var blob checkpointBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return &agent.State{Messages: blob.Messages, Documents: blob.Documents}, nil
}

// MemoryBackend keeps checkpoints in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryBackend creates an in-memory checkpoint backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{blobs: make(map[string][]byte)}
}

func (b *MemoryBackend) Save(_ context.Context, sessionID string, state *agent.State) error {
	data, err := marshalCheckpoint(state)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.blobs[sessionID] = data
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Load(_ context.Context, sessionID string) (*agent.State, error) {
	b.mu.RLock()
	data, ok := b.blobs[sessionID]
	b.mu.RUnlock()
	if !ok {
		return nil, ErrCheckpointNotFound
	}
	return unmarshalCheckpoint(data)
}

func (b *MemoryBackend) Delete(_ context.Context, sessionID string) error {
	b.mu.Lock()
	delete(b.blobs, sessionID)
	b.mu.Unlock()
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

// RedisBackend stores checkpoints in Redis with the session TTL.
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix defaults to "vidsense:checkpoint:".
	Prefix string
	// TTL bounds checkpoint lifetime; 0 means no expiry.
	TTL time.Duration
}

// NewRedisBackend connects to Redis and verifies the connection.
func NewRedisBackend(cfg RedisConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisBackendFromClient(client, cfg.Prefix, cfg.TTL), nil
}

// NewRedisBackendFromClient wraps an existing client. Useful for
// testing with miniredis.
func NewRedisBackendFromClient(client *redis.Client, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "vidsense:checkpoint:"
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

func (b *RedisBackend) key(sessionID string) string {
	return b.prefix + sessionID
}

func (b *RedisBackend) Save(ctx context.Context, sessionID string, state *agent.State) error {
	data, err := marshalCheckpoint(state)
	if err != nil {
		return err
	}
	if err := b.client.Set(ctx, b.key(sessionID), data, b.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (b *RedisBackend) Load(ctx context.Context, sessionID string) (*agent.State, error) {
	data, err := b.client.Get(ctx, b.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	return unmarshalCheckpoint(data)
}

func (b *RedisBackend) Delete(ctx context.Context, sessionID string) error {
	if err := b.client.Del(ctx, b.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
