package backup

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type flag struct{ v atomic.Bool }

func (f *flag) NeedsBackup() bool      { return f.v.Load() }
func (f *flag) ClearNeedsBackup() bool { return f.v.CompareAndSwap(true, false) }

type countingTarget struct {
	mu sync.Mutex
	n  int
}

func (c *countingTarget) BackupBoards(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *countingTarget) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRun_OnlyWhenFlagged(t *testing.T) {
	f := &flag{}
	target := &countingTarget{}
	s := New(f, target, time.Minute, discard())
	ctx := context.Background()

	assert.False(t, s.Run(ctx))
	assert.Equal(t, 0, target.count())

	f.v.Store(true)
	assert.True(t, s.Run(ctx))
	assert.False(t, s.Run(ctx), "flag is cleared by the first run")
	assert.Equal(t, 1, target.count())
}

func TestStop_TakesFinalBackup(t *testing.T) {
	f := &flag{}
	target := &countingTarget{}
	s := New(f, target, time.Hour, discard())
	require.NoError(t, s.Start())

	f.v.Store(true)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.Equal(t, 1, target.count())
	assert.False(t, f.NeedsBackup())
}

func TestStop_NothingPending(t *testing.T) {
	target := &countingTarget{}
	s := New(&flag{}, target, time.Hour, discard())
	require.NoError(t, s.Start())

	s.Stop(context.Background())

	assert.Equal(t, 0, target.count())
}

func TestStart_RunsOnSchedule(t *testing.T) {
	f := &flag{}
	f.v.Store(true)
	target := &countingTarget{}
	s := New(f, target, time.Second, discard())
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Eventually(t, func() bool { return target.count() == 1 }, 3*time.Second, 50*time.Millisecond)
}
