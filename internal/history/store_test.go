package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Record(ctx, "price of btc?", "Bitcoin is $60,000.", 200, 1500*time.Millisecond)
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, int64(1500), rec.DurationMs)

	_, err = s.Record(ctx, "top 3", "LLM error: quota", 500, 20*time.Millisecond)
	require.NoError(t, err)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "top 3", recent[0].Input)
	assert.Equal(t, 500, recent[0].Status)
	assert.Equal(t, "price of btc?", recent[1].Input)
	assert.Equal(t, "Bitcoin is $60,000.", recent[1].Answer)
	assert.False(t, recent[1].CreatedAt.IsZero())

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRecentLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, fmt.Sprintf("q%d", i), "a", 200, 0)
		require.NoError(t, err)
	}

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "q4", recent[0].Input)
	assert.Equal(t, "q3", recent[1].Input)

	recent, err = s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestRecentEmpty(t *testing.T) {
	s := newTestStore(t)

	recent, err := s.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.NotNil(t, recent)
}
