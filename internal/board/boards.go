package board

import (
	"context"
	"strings"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/model"
)

func requireTitle(field, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return title, nil
}

// CreateBoard appends an empty board and makes it active.
func (s *State) CreateBoard(ctx context.Context, title string) (string, error) {
	title, err := requireTitle("title", title)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoint()
	b := model.Board{
		ID:      s.newID(),
		Title:   title,
		UserID:  model.OwnerID(s.userID),
		Columns: []model.Column{},
	}
	s.boards = append(s.boards, b)
	s.activeBoardID = b.ID
	return b.ID, s.persist(ctx)
}

// RenameBoard replaces the board title in place.
func (s *State) RenameBoard(ctx context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.boardIndex(id)
	if i < 0 {
		return nil
	}
	title, err := requireTitle("title", title)
	if err != nil {
		return err
	}

	s.checkpoint()
	s.boards[i].Title = title
	return s.persist(ctx)
}

// DeleteBoard removes the board and everything on it once confirm approves.
// When the deleted board was active, the first remaining board takes over.
func (s *State) DeleteBoard(ctx context.Context, id string, confirm ConfirmFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.boardIndex(id)
	if i < 0 {
		return nil
	}
	if confirm == nil || !confirm(ctx, "Delete board and all of its content?") {
		return nil
	}

	s.checkpoint()
	s.boards = append(s.boards[:i], s.boards[i+1:]...)
	if s.activeBoardID == id {
		s.activeBoardID = ""
	}
	s.repairActive()
	return s.persist(ctx)
}
