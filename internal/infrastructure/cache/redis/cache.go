// Package redis caches completed assessments keyed by catalog version and
// FNOL fingerprint.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/claim-assessor/internal/core/domain"
	"github.com/kirillkom/claim-assessor/internal/infrastructure/resilience"
)

const (
	DefaultKeyPrefix = "claims:assessment:"
	DefaultTTL       = 24 * time.Hour
)

type commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type Cache struct {
	client   commands
	closer   io.Closer
	prefix   string
	ttl      time.Duration
	executor *resilience.Executor
}

type Options struct {
	Password           string
	DB                 int
	KeyPrefix          string
	TTL                time.Duration
	ResilienceExecutor *resilience.Executor
}

// New connects to addr and pings it before returning.
func New(ctx context.Context, addr string, options Options) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: options.Password,
		DB:       options.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	c := newCache(client, options)
	c.closer = client
	return c, nil
}

func newCache(client commands, options Options) *Cache {
	c := &Cache{
		client:   client,
		prefix:   options.KeyPrefix,
		ttl:      options.TTL,
		executor: options.ResilienceExecutor,
	}
	if c.prefix == "" {
		c.prefix = DefaultKeyPrefix
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	return c
}

func (c *Cache) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (*domain.ClaimAssessment, bool, error) {
	var raw []byte
	err := c.execute(ctx, "redis.get", func(ctx context.Context) error {
		var err error
		raw, err = c.client.Get(ctx, c.prefix+key).Bytes()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, resilience.WrapTemporary("redis get", err, classifyRedisError)
	}

	var a domain.ClaimAssessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached assessment: %w", err)
	}
	return &a, true, nil
}

func (c *Cache) Put(ctx context.Context, key string, assessment *domain.ClaimAssessment) error {
	if assessment == nil {
		return nil
	}
	payload, err := json.Marshal(assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	err = c.execute(ctx, "redis.set", func(ctx context.Context) error {
		return c.client.Set(ctx, c.prefix+key, payload, c.ttl).Err()
	})
	if err != nil {
		return resilience.WrapTemporary("redis set", err, classifyRedisError)
	}
	return nil
}

func (c *Cache) execute(ctx context.Context, operation string, call func(context.Context) error) error {
	if c.executor == nil {
		return call(ctx)
	}
	return c.executor.Execute(ctx, operation, call, classifyRedisError)
}

// A cache miss is a normal answer, not a failure.
var transientRedisError = resilience.TransientClassifier(func(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
})

func classifyRedisError(err error) resilience.ErrorClassification {
	if errors.Is(err, redis.Nil) {
		return resilience.ErrorClassification{}
	}
	return transientRedisError(err)
}
