package board

import (
	"context"
	"log/slog"

	"github.com/sakif/kanban-boards/internal/model"
)

// DefaultHistoryCapacity is how many undo steps are kept.
const DefaultHistoryCapacity = 100

// history is a bounded stack of deep-copied board collections. When full, the
// oldest snapshot is dropped.
type history struct {
	capacity  int
	snapshots [][]model.Board
}

func newHistory(capacity int) *history {
	return &history{capacity: capacity}
}

func (h *history) push(snapshot []model.Board) {
	if len(h.snapshots) == h.capacity {
		copy(h.snapshots, h.snapshots[1:])
		h.snapshots = h.snapshots[:len(h.snapshots)-1]
	}
	h.snapshots = append(h.snapshots, snapshot)
}

func (h *history) pop() ([]model.Board, bool) {
	if len(h.snapshots) == 0 {
		return nil, false
	}
	last := h.snapshots[len(h.snapshots)-1]
	h.snapshots[len(h.snapshots)-1] = nil
	h.snapshots = h.snapshots[:len(h.snapshots)-1]
	return last, true
}

func (h *history) len() int { return len(h.snapshots) }

func (h *history) clear() { h.snapshots = nil }

// Undo restores the snapshot taken before the most recent mutation and saves
// it. The state being replaced is discarded; there is no redo. It reports
// false when the history is empty.
func (s *State) Undo(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.history.pop()
	if !ok {
		return false, nil
	}
	s.boards = snapshot
	s.repairActive()
	s.recorder.RecordUndo()

	s.logger.Debug("undo applied",
		slog.String("user_id", s.userID),
		slog.Int("remaining", s.history.len()),
	)
	return true, s.persist(ctx)
}
