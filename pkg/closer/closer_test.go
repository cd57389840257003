package closer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AhmadZaarour/store-manager-web-app/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClose_LIFO(t *testing.T) {
	c := NewCloser(0, logger.NewNop())

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"postgres", "redis", "http"} {
		c.Add(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, []string{"http", "redis", "postgres"}, order)
}

func TestClose_CollectsErrors(t *testing.T) {
	c := NewCloser(0, logger.NewNop())
	boom := errors.New("boom")

	closed := false
	c.AddFunc("pool", func() { closed = true })
	c.Add("kafka", func(context.Context) error { return boom })

	err := c.Close(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "kafka")
	assert.True(t, closed)

	assert.Equal(t, err, c.Close(context.Background()))
}

func TestClose_ForcesRemainingAfterTimeout(t *testing.T) {
	c := NewCloser(100*time.Millisecond, logger.NewNop())

	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	var (
		mu          sync.Mutex
		stuckCalls  int
		firstClosed bool
	)
	c.Add("first", func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		firstClosed = ctx.Err() == nil
		return nil
	})
	c.Add("stuck", func(context.Context) error {
		mu.Lock()
		stuckCalls++
		call := stuckCalls
		mu.Unlock()

		if call == 1 {
			<-block
			return nil
		}
		return errors.New("still busy")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forced close stuck")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, stuckCalls)
	assert.True(t, firstClosed)
}
