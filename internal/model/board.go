// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Board is the top-level container of columns. Every board belongs to exactly
// one user; UserID is stamped by the repository on every save.
//
// The `json:"..."` tags fix the on-disk shape of boards.json. Field order is
// the serialization order, so the file keeps a stable key order across writes.
type Board struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	UserID  OwnerID  `json:"userId,omitempty"`
	Columns []Column `json:"columns"`
}

// Column is an ordered container of cards within a board.
// Order in Board.Columns is the display and drag-and-drop order.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
	Tasks []Card `json:"tasks"`
}

// Card is a single kanban item. It is stored under the "tasks" key for
// compatibility with existing data files.
type Card struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
}

// OwnerID references User.ID from a board record.
//
// WHY NOT int?
// Older data files carry userId as a JSON string ("7") while newer ones carry a
// number (7). OwnerID accepts both on read and always writes a string, so the
// repository can compare owners without caring how they were stored.
type OwnerID string

// UnmarshalJSON accepts a JSON string, a JSON number, or null.
func (o *OwnerID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = OwnerID(strings.TrimSpace(s))
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("model: userId must be a string or number, got %s", data)
	}
	*o = OwnerID(data)
	return nil
}

// looseID reads an id stored as a JSON string or number. Files written by
// older clients carry numeric card and column ids.
type looseID string

func (l *looseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = looseID(s)
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("model: id must be a string or number, got %s", data)
		}
		*l = looseID(data)
	}
	return nil
}

// UnmarshalJSON accepts numeric ids; they are written back as strings.
func (b *Board) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID      looseID  `json:"id"`
		Title   string   `json:"title"`
		UserID  OwnerID  `json:"userId"`
		Columns []Column `json:"columns"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Board{ID: string(raw.ID), Title: raw.Title, UserID: raw.UserID, Columns: raw.Columns}
	return nil
}

// UnmarshalJSON accepts numeric ids; they are written back as strings.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    looseID `json:"id"`
		Title string  `json:"title"`
		Color string  `json:"color"`
		Tasks []Card  `json:"tasks"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Column{ID: string(raw.ID), Title: raw.Title, Color: raw.Color, Tasks: raw.Tasks}
	return nil
}

// UnmarshalJSON accepts numeric ids; they are written back as strings.
func (c *Card) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        looseID `json:"id"`
		Title     string  `json:"title"`
		Color     string  `json:"color"`
		TextColor string  `json:"textColor"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Card{ID: string(raw.ID), Title: raw.Title, Color: raw.Color, TextColor: raw.TextColor}
	return nil
}

// OwnerFromUserID converts a numeric user id into an owner reference.
func OwnerFromUserID(id int) OwnerID {
	return OwnerID(strconv.Itoa(id))
}

// Matches reports whether the owner refers to the given user id.
// Both sides are string-normalised, so "7", " 7" and 7 all match.
func (o OwnerID) Matches(userID string) bool {
	return strings.TrimSpace(string(o)) == strings.TrimSpace(userID)
}

// Normalize guarantees the "always an array" invariant for columns and tasks,
// so a board decoded from `"columns": null` behaves like an empty board.
func (b *Board) Normalize() {
	if b.Columns == nil {
		b.Columns = []Column{}
	}
	for i := range b.Columns {
		if b.Columns[i].Tasks == nil {
			b.Columns[i].Tasks = []Card{}
		}
	}
}

// Clone returns a deep copy of the board. Snapshots for undo history are built
// from clones, so later mutations never reach into a stored snapshot.
func (b Board) Clone() Board {
	out := b
	out.Columns = make([]Column, len(b.Columns))
	for i, col := range b.Columns {
		out.Columns[i] = col
		out.Columns[i].Tasks = make([]Card, len(col.Tasks))
		copy(out.Columns[i].Tasks, col.Tasks)
	}
	return out
}

// CloneBoards deep-copies a board collection. A nil input yields an empty slice.
func CloneBoards(boards []Board) []Board {
	out := make([]Board, len(boards))
	for i := range boards {
		out[i] = boards[i].Clone()
	}
	return out
}

// ColumnIndex returns the index of the column with the given id, or -1.
func (b *Board) ColumnIndex(columnID string) int {
	for i := range b.Columns {
		if b.Columns[i].ID == columnID {
			return i
		}
	}
	return -1
}

// FindCard locates a card anywhere on the board.
// It returns the column index and the card index, or (-1, -1) when absent.
func (b *Board) FindCard(cardID string) (int, int) {
	for ci := range b.Columns {
		if ti := b.Columns[ci].CardIndex(cardID); ti >= 0 {
			return ci, ti
		}
	}
	return -1, -1
}

// CardIndex returns the index of the card with the given id, or -1.
func (c *Column) CardIndex(cardID string) int {
	for i := range c.Tasks {
		if c.Tasks[i].ID == cardID {
			return i
		}
	}
	return -1
}
