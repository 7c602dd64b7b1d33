package board

import (
	"context"

	"github.com/sakif/kanban-boards/internal/model"
)

// Card operations other than MoveCard work on the active board.

// CreateCard appends a card to a column of the active board. Empty colours
// use the last card colours.
func (s *State) CreateCard(ctx context.Context, columnID, title, color, textColor string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.active()
	if b == nil {
		return "", nil
	}
	ci := b.ColumnIndex(columnID)
	if ci < 0 {
		return "", nil
	}
	title, err := requireTitle("title", title)
	if err != nil {
		return "", err
	}
	color = pick(color, s.palette.Card)
	textColor = pick(textColor, s.palette.CardText)

	s.checkpoint()
	card := model.Card{ID: s.newID(), Title: title, Color: color, TextColor: textColor}
	b.Columns[ci].Tasks = append(b.Columns[ci].Tasks, card)
	s.palette.Card, s.palette.CardText = color, textColor
	return card.ID, s.persist(ctx)
}

// EditCard updates a card and moves it to the end of newColumnID, which may be
// its current column. An empty newColumnID keeps the current column.
func (s *State) EditCard(ctx context.Context, cardID, newColumnID, title, color, textColor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.active()
	if b == nil {
		return nil
	}
	from, idx := b.FindCard(cardID)
	if from < 0 {
		return nil
	}
	to := from
	if newColumnID != "" {
		if to = b.ColumnIndex(newColumnID); to < 0 {
			return nil
		}
	}
	title, err := requireTitle("title", title)
	if err != nil {
		return err
	}
	color = pick(color, s.palette.Card)
	textColor = pick(textColor, s.palette.CardText)

	s.checkpoint()
	card := b.Columns[from].Tasks[idx]
	b.Columns[from].Tasks = append(b.Columns[from].Tasks[:idx], b.Columns[from].Tasks[idx+1:]...)
	card.Title, card.Color, card.TextColor = title, color, textColor
	b.Columns[to].Tasks = append(b.Columns[to].Tasks, card)
	s.palette.Card, s.palette.CardText = color, textColor
	return s.persist(ctx)
}

// DeleteCard removes a card from the active board.
func (s *State) DeleteCard(ctx context.Context, cardID string, confirm ConfirmFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.active()
	if b == nil {
		return nil
	}
	ci, ti := b.FindCard(cardID)
	if ci < 0 {
		return nil
	}
	if confirm == nil || !confirm(ctx, "Delete card?") {
		return nil
	}

	s.checkpoint()
	b.Columns[ci].Tasks = append(b.Columns[ci].Tasks[:ti], b.Columns[ci].Tasks[ti+1:]...)
	return s.persist(ctx)
}

// MoveCard relocates a card from one column to another on the same board.
// targetIndex is taken after the card has been removed from its source and is
// clamped to [0, len(destination)], so moving a card onto its own position is
// a no-op on the order.
func (s *State) MoveCard(ctx context.Context, fromBoardID, fromColumnID, cardID, toColumnID string, targetIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.resolveBoard(fromBoardID)
	if b == nil {
		return nil
	}
	from := b.ColumnIndex(fromColumnID)
	to := b.ColumnIndex(toColumnID)
	if from < 0 || to < 0 {
		return nil
	}
	idx := b.Columns[from].CardIndex(cardID)
	if idx < 0 {
		return nil
	}

	s.checkpoint()
	card := b.Columns[from].Tasks[idx]
	b.Columns[from].Tasks = append(b.Columns[from].Tasks[:idx], b.Columns[from].Tasks[idx+1:]...)
	dest := b.Columns[to].Tasks
	b.Columns[to].Tasks = insertAt(dest, clamp(targetIndex, len(dest)), card)
	return s.persist(ctx)
}
