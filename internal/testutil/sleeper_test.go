package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleeperSpy_RecordsWithoutWaiting(t *testing.T) {
	spy := &SleeperSpy{}

	start := time.Now()
	require.NoError(t, spy.Sleep(context.Background(), 10*time.Second))
	require.NoError(t, spy.Sleep(context.Background(), 30*time.Second))
	assert.Less(t, time.Since(start), time.Second)

	assert.Equal(t, []time.Duration{10 * time.Second, 30 * time.Second}, spy.Slept())
}

func TestSleeperSpy_CancelledContext(t *testing.T) {
	spy := &SleeperSpy{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := spy.Sleep(ctx, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, spy.Slept())
}
