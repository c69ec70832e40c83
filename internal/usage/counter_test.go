package usage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewCounter(mr.Addr())
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)

	require.NoError(t, c.Record(ctx, true))
	require.NoError(t, c.Record(ctx, true))
	require.NoError(t, c.Record(ctx, false))

	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.OK)
	assert.Equal(t, int64(1), stats.Failed)

	today, err := c.Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), today)
}

func TestNewCounterUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewCounter(addr)
	assert.Error(t, err)
}
