// Package sequence implements order number allocation on Redis counters.
package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/domain/trade"
)

const defaultKeyPrefix = "seq:order:"

// counterTTL keeps yesterday's counters around long enough for audits while
// letting Redis reclaim them afterwards. Daily keys mean the sequence resets
// at midnight by construction.
const counterTTL = 72 * time.Hour

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisNumberGenerator allocates order numbers with one INCR (or INCRBY for
// batches) per call. INCR is atomic on the server, so concurrent workers and
// separate processes can never receive the same sequence value.
type RedisNumberGenerator struct {
	client    *redis.Client
	keyPrefix string
	now       func() time.Time
}

// NewRedisNumberGenerator creates a generator with its own Redis client
func NewRedisNumberGenerator(cfg RedisConfig) (*RedisNumberGenerator, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisNumberGeneratorWithClient(client, defaultKeyPrefix), nil
}

// NewRedisNumberGeneratorWithClient creates a generator with an existing
// Redis client. Useful for testing or sharing a client across components.
func NewRedisNumberGeneratorWithClient(client *redis.Client, keyPrefix string) *RedisNumberGenerator {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisNumberGenerator{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Next allocates the next order number for the owner and channel
func (g *RedisNumberGenerator) Next(ctx context.Context, ownerKey string, channel trade.Channel) (string, error) {
	ownerKey, err := trade.NormalizeOwnerKey(ownerKey)
	if err != nil {
		return "", err
	}
	if !channel.IsValid() {
		return "", shared.NewDomainError("INVALID_CHANNEL", fmt.Sprintf("Unknown sales channel %q", channel))
	}

	day := g.now()
	key := g.counterKey(ownerKey, channel, day)

	seq, err := g.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNumberGeneration, err)
	}
	if seq == 1 {
		// Best effort; an unexpired counter only delays reclamation
		g.client.Expire(ctx, key, counterTTL)
	}

	return trade.FormatNumber(ownerKey, channel, day, seq), nil
}

// PreGenerate reserves n consecutive sequence values with a single INCRBY
// and returns the corresponding numbers in ascending order
func (g *RedisNumberGenerator) PreGenerate(ctx context.Context, ownerKey string, channel trade.Channel, n int) ([]string, error) {
	if n <= 0 {
		return nil, shared.NewDomainError("INVALID_BATCH_SIZE", "Batch size must be positive")
	}
	ownerKey, err := trade.NormalizeOwnerKey(ownerKey)
	if err != nil {
		return nil, err
	}
	if !channel.IsValid() {
		return nil, shared.NewDomainError("INVALID_CHANNEL", fmt.Sprintf("Unknown sales channel %q", channel))
	}

	day := g.now()
	key := g.counterKey(ownerKey, channel, day)

	upper, err := g.client.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNumberGeneration, err)
	}
	if upper == int64(n) {
		g.client.Expire(ctx, key, counterTTL)
	}

	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		numbers[i] = trade.FormatNumber(ownerKey, channel, day, upper-int64(n)+1+int64(i))
	}
	return numbers, nil
}

func (g *RedisNumberGenerator) counterKey(ownerKey string, channel trade.Channel, day time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", g.keyPrefix, ownerKey, channel, day.Format("20060102"))
}

// Ping checks if the Redis connection is alive
func (g *RedisNumberGenerator) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (g *RedisNumberGenerator) Close() error {
	return g.client.Close()
}

var _ trade.NumberGenerator = (*RedisNumberGenerator)(nil)
