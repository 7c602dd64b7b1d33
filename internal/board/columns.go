package board

import (
	"context"
	"strings"

	"github.com/sakif/kanban-boards/internal/model"
)

// An empty boardID in the column operations means the active board.

// CreateColumn appends a column to the board. An empty color uses the
// last column colour.
func (s *State) CreateColumn(ctx context.Context, boardID, title, color string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.resolveBoard(boardID)
	if b == nil {
		return "", nil
	}
	title, err := requireTitle("title", title)
	if err != nil {
		return "", err
	}
	color = pick(color, s.palette.Column)

	s.checkpoint()
	col := model.Column{ID: s.newID(), Title: title, Color: color, Tasks: []model.Card{}}
	b.Columns = append(b.Columns, col)
	s.palette.Column = color
	return col.ID, s.persist(ctx)
}

// EditColumn changes the title and colour of a column.
func (s *State) EditColumn(ctx context.Context, boardID, columnID, title, color string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.resolveBoard(boardID)
	if b == nil {
		return nil
	}
	ci := b.ColumnIndex(columnID)
	if ci < 0 {
		return nil
	}
	title, err := requireTitle("title", title)
	if err != nil {
		return err
	}
	color = pick(color, s.palette.Column)

	s.checkpoint()
	b.Columns[ci].Title = title
	b.Columns[ci].Color = color
	s.palette.Column = color
	return s.persist(ctx)
}

// DeleteColumn removes a column together with all of its cards.
func (s *State) DeleteColumn(ctx context.Context, boardID, columnID string, confirm ConfirmFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.resolveBoard(boardID)
	if b == nil {
		return nil
	}
	ci := b.ColumnIndex(columnID)
	if ci < 0 {
		return nil
	}
	if confirm == nil || !confirm(ctx, "Delete column?") {
		return nil
	}

	s.checkpoint()
	b.Columns = append(b.Columns[:ci], b.Columns[ci+1:]...)
	return s.persist(ctx)
}

// MoveColumn moves a column to targetIndex in the board's column order.
// The index is taken after the column has been removed and is clamped to
// [0, len(columns)].
func (s *State) MoveColumn(ctx context.Context, boardID, columnID string, targetIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.resolveBoard(boardID)
	if b == nil {
		return nil
	}
	from := b.ColumnIndex(columnID)
	if from < 0 {
		return nil
	}

	s.checkpoint()
	col := b.Columns[from]
	rest := append(b.Columns[:from:from], b.Columns[from+1:]...)
	b.Columns = insertAt(rest, clamp(targetIndex, len(rest)), col)
	return s.persist(ctx)
}

func pick(color, fallback string) string {
	if c := strings.TrimSpace(color); c != "" {
		return c
	}
	return fallback
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func insertAt[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
