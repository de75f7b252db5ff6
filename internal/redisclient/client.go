package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// releaseLockScript deletes the lock only while it still holds our token
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb), nil
}

// NewFromRedis wraps an existing connection
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func documentKey(name string) string {
	return fmt.Sprintf("storefront:config:%s", name)
}

// GetDocument returns the raw configuration document cached under name
func (c *Client) GetDocument(ctx context.Context, name string) ([]byte, bool, error) {
	doc, err := c.rdb.Get(ctx, documentKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get document %s: %w", name, err)
	}
	return doc, true, nil
}

// SetDocument caches a raw configuration document with TTL
func (c *Client) SetDocument(ctx context.Context, name string, doc []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, documentKey(name), doc, ttl).Err()
}

// DeleteDocument drops the cached document for name
func (c *Client) DeleteDocument(ctx context.Context, name string) error {
	return c.rdb.Del(ctx, documentKey(name)).Err()
}

// SetIdempotencyKey stores an idempotency key with TTL
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// ProcessedEventTTL bounds how long processed event ids are remembered
const ProcessedEventTTL = 24 * time.Hour

// IsEventProcessed reports whether eventID was marked processed
func (c *Client) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return c.CheckIdempotencyKey(ctx, "event:"+eventID)
}

// MarkEventProcessed remembers eventID for ProcessedEventTTL
func (c *Client) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	return c.SetIdempotencyKey(ctx, "event:"+eventID, eventType, ProcessedEventTTL)
}

// Lock is a held distributed lock
type Lock struct {
	key   string
	token string
}

// AcquireLock acquires a distributed lock. It returns nil without error when
// the lock is held elsewhere.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (*Lock, error) {
	lock := &Lock{key: fmt.Sprintf("lock:%s", lockKey), token: uuid.New().String()}
	ok, err := c.rdb.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return nil, nil
	}
	return lock, nil
}

// ReleaseLock releases a lock if it has not expired and been taken over
func (c *Client) ReleaseLock(ctx context.Context, lock *Lock) error {
	if lock == nil {
		return nil
	}
	return c.releaseScript.Run(ctx, c.rdb, []string{lock.key}, lock.token).Err()
}
