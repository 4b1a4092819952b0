// Package cache keeps recently authorized vehicles close to the gate so a
// plate read does not always hit Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

const (
	plateKeyPrefix      = "plate:"
	generationKeyPrefix = "plate-gen:"
	generationTTL       = 24 * time.Hour
)

// ErrStaleEntry is returned by Set when the plate was invalidated after the
// caller read its generation. The entry is not written.
var ErrStaleEntry = errors.New("plate changed since lookup")

// PlateCache stores vehicles by normalized plate. Writers bump a per-plate
// generation on Invalidate; readers take the generation before loading from
// the database and pass it to Set, so a value loaded before a revoke is never
// written back over it.
type PlateCache interface {
	// Get reports whether plateNumber is cached. A miss is (nil, false, nil).
	Get(ctx context.Context, plateNumber string) (*domain.Vehicle, bool, error)
	Generation(ctx context.Context, plateNumber string) (int64, error)
	Set(ctx context.Context, vehicle *domain.Vehicle, generation int64) error
	Invalidate(ctx context.Context, plateNumber string) error
}

func plateKey(plateNumber string) string {
	return plateKeyPrefix + plateNumber
}

func generationKey(plateNumber string) string {
	return generationKeyPrefix + plateNumber
}

type RedisPlateCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPlateCache(client *redis.Client, ttl time.Duration) *RedisPlateCache {
	return &RedisPlateCache{client: client, ttl: ttl}
}

// Connect dials addr and pings it before handing back a cache.
func Connect(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisPlateCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed (%s): %w", addr, err)
	}
	return NewRedisPlateCache(client, ttl), nil
}

func (c *RedisPlateCache) Get(ctx context.Context, plateNumber string) (*domain.Vehicle, bool, error) {
	raw, err := c.client.Get(ctx, plateKey(plateNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("PlateCache.Get: %w", err)
	}

	var vehicle domain.Vehicle
	if err := json.Unmarshal(raw, &vehicle); err != nil {
		// corrupt entry, treat as miss and let the caller refill it
		_ = c.client.Del(ctx, plateKey(plateNumber)).Err()
		return nil, false, nil
	}
	return &vehicle, true, nil
}

func (c *RedisPlateCache) Generation(ctx context.Context, plateNumber string) (int64, error) {
	n, err := c.client.Get(ctx, generationKey(plateNumber)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("PlateCache.Generation: %w", err)
	}
	return n, nil
}

// Set writes vehicle only while the plate generation still equals generation.
func (c *RedisPlateCache) Set(ctx context.Context, vehicle *domain.Vehicle, generation int64) error {
	if vehicle == nil || vehicle.PlateNumber == "" {
		return nil
	}
	raw, err := json.Marshal(vehicle)
	if err != nil {
		return fmt.Errorf("PlateCache.Set: %w", err)
	}

	genKey := generationKey(vehicle.PlateNumber)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return ErrStaleEntry
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, plateKey(vehicle.PlateNumber), raw, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStaleEntry), errors.Is(err, redis.TxFailedErr):
		return ErrStaleEntry
	}
	return fmt.Errorf("PlateCache.Set: %w", err)
}

// Invalidate drops the entry and bumps the generation in one transaction.
func (c *RedisPlateCache) Invalidate(ctx context.Context, plateNumber string) error {
	genKey := generationKey(plateNumber)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, plateKey(plateNumber))
		return nil
	})
	if err != nil {
		return fmt.Errorf("PlateCache.Invalidate: %w", err)
	}
	return nil
}

func (c *RedisPlateCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Noop is used when no Redis address is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.Vehicle, bool, error) { return nil, false, nil }
func (Noop) Generation(context.Context, string) (int64, error)          { return 0, nil }
func (Noop) Set(context.Context, *domain.Vehicle, int64) error          { return nil }
func (Noop) Invalidate(context.Context, string) error                   { return nil }
