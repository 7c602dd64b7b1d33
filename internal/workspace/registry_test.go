package workspace

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/kanban-boards/internal/model"
)

type memBridge struct {
	mu    sync.Mutex
	loads int
	data  map[string][]model.Board
}

func (m *memBridge) LoadBoards(_ context.Context, userID string) []model.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return model.CloneBoards(m.data[userID])
}

func (m *memBridge) SaveBoards(_ context.Context, boards []model.Board, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[userID] = model.CloneBoards(boards)
	return true
}

func (m *memBridge) SetNeedsBackup(bool) {}

func newTestRegistry() (*Registry, *memBridge) {
	bridge := &memBridge{data: map[string][]model.Board{
		"1": {{ID: "a", Title: "A", UserID: "1"}},
	}}
	return New(bridge, slog.New(slog.NewTextHandler(io.Discard, nil))), bridge
}

func TestGet_LoadsOnceAndReuses(t *testing.T) {
	reg, bridge := newTestRegistry()
	ctx := context.Background()

	first := reg.Get(ctx, "1")
	second := reg.Get(ctx, "1")

	assert.Same(t, first, second)
	assert.Equal(t, 1, bridge.loads)
	assert.Equal(t, "a", first.ActiveBoardID())
}

func TestGet_SeparateStatePerUser(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	one := reg.Get(ctx, "1")
	two := reg.Get(ctx, "2")

	assert.NotSame(t, one, two)
	assert.Empty(t, two.Boards())
	assert.Equal(t, 2, reg.Len())
}

func TestDrop_ReloadsFromStorage(t *testing.T) {
	reg, bridge := newTestRegistry()
	ctx := context.Background()

	s := reg.Get(ctx, "1")
	_, err := s.CreateBoard(ctx, "B")
	require.NoError(t, err)

	reg.Drop("1")
	assert.Equal(t, 0, reg.Len())

	reloaded := reg.Get(ctx, "1")
	assert.NotSame(t, s, reloaded)
	assert.Len(t, reloaded.Boards(), 2)
	assert.Equal(t, 0, reloaded.HistoryLen(), "history does not survive a user switch")
	assert.Equal(t, 2, bridge.loads)
}

func TestGet_ConcurrentFirstUseYieldsOneState(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	const n = 16
	got := make([]any, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = reg.Get(ctx, "1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, got[0], got[i])
	}
}
