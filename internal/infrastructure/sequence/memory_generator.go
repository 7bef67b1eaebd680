package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supplyhub/backend/internal/domain/shared"
	"github.com/supplyhub/backend/internal/domain/trade"
)

// MemoryNumberGenerator is an in-process implementation for tests and local
// development. It holds the same per-(owner, channel, day) counter semantics
// as the Redis generator but offers no cross-process safety.
type MemoryNumberGenerator struct {
	mu       sync.Mutex
	counters map[string]int64
	now      func() time.Time
}

// NewMemoryNumberGenerator creates an empty in-memory generator
func NewMemoryNumberGenerator() *MemoryNumberGenerator {
	return &MemoryNumberGenerator{
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

// Next allocates the next order number for the owner and channel
func (g *MemoryNumberGenerator) Next(ctx context.Context, ownerKey string, channel trade.Channel) (string, error) {
	numbers, err := g.PreGenerate(ctx, ownerKey, channel, 1)
	if err != nil {
		return "", err
	}
	return numbers[0], nil
}

// PreGenerate reserves n consecutive sequence values
func (g *MemoryNumberGenerator) PreGenerate(_ context.Context, ownerKey string, channel trade.Channel, n int) ([]string, error) {
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
	key := fmt.Sprintf("%s:%s:%s", ownerKey, channel, day.Format("20060102"))

	g.mu.Lock()
	g.counters[key] += int64(n)
	upper := g.counters[key]
	g.mu.Unlock()

	numbers := make([]string, n)
	for i := 0; i < n; i++ {
		numbers[i] = trade.FormatNumber(ownerKey, channel, day, upper-int64(n)+1+int64(i))
	}
	return numbers, nil
}

var _ trade.NumberGenerator = (*MemoryNumberGenerator)(nil)
