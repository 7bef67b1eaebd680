package sequence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supplyhub/backend/internal/domain/trade"
)

func fixedClock() func() time.Time {
	day := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return day }
}

func TestMemoryNumberGenerator_Next(t *testing.T) {
	g := NewMemoryNumberGenerator()
	g.now = fixedClock()
	ctx := context.Background()

	t.Run("sequences are consecutive per owner and channel", func(t *testing.T) {
		first, err := g.Next(ctx, "ACME", trade.ChannelSpreadsheet)
		require.NoError(t, err)
		second, err := g.Next(ctx, "ACME", trade.ChannelSpreadsheet)
		require.NoError(t, err)

		assert.Equal(t, "ACMESS202601150001", first)
		assert.Equal(t, "ACMESS202601150002", second)
	})

	t.Run("channels count independently", func(t *testing.T) {
		n, err := g.Next(ctx, "ACME", trade.ChannelManual)
		require.NoError(t, err)
		assert.Equal(t, "ACMEMN202601150001", n)
	})

	t.Run("owner key is normalized", func(t *testing.T) {
		n, err := g.Next(ctx, " acme ", trade.ChannelSpreadsheet)
		require.NoError(t, err)
		assert.Equal(t, "ACMESS202601150003", n)
	})

	t.Run("rejects bad inputs", func(t *testing.T) {
		_, err := g.Next(ctx, "TOOLONG", trade.ChannelSpreadsheet)
		assert.Error(t, err)

		_, err = g.Next(ctx, "ACME", trade.Channel("ZZ"))
		assert.Error(t, err)
	})

	t.Run("every number validates", func(t *testing.T) {
		n, err := g.Next(ctx, "WH01", trade.ChannelAPI)
		require.NoError(t, err)
		assert.NoError(t, trade.ValidateNumberFormat(n))
	})
}

func TestMemoryNumberGenerator_PreGenerate(t *testing.T) {
	g := NewMemoryNumberGenerator()
	g.now = fixedClock()
	ctx := context.Background()

	batch, err := g.PreGenerate(ctx, "ACME", trade.ChannelSpreadsheet, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ACMESS202601150001",
		"ACMESS202601150002",
		"ACMESS202601150003",
	}, batch)

	next, err := g.Next(ctx, "ACME", trade.ChannelSpreadsheet)
	require.NoError(t, err)
	assert.Equal(t, "ACMESS202601150004", next)

	_, err = g.PreGenerate(ctx, "ACME", trade.ChannelSpreadsheet, 0)
	assert.Error(t, err)
}

func TestMemoryNumberGenerator_Concurrent(t *testing.T) {
	g := NewMemoryNumberGenerator()
	g.now = fixedClock()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	results := make(chan string, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := g.Next(ctx, "ACME", trade.ChannelSpreadsheet)
			require.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for n := range results {
		assert.False(t, seen[n], "duplicate number %s", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}
