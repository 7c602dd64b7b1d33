// Package repository is the data layer between the services and the store.
//
// WHY INTERFACES HERE?
// The board state machine, the bridge and the user service depend on these
// interfaces, not on *Boards or *Users. Tests hand them in-memory fakes, and
// main.go hands them the store-backed implementations in this package.
package repository

import (
	"context"

	"github.com/sakif/kanban-boards/internal/model"
)

// BoardRepository is the per-user view over the boards collection.
type BoardRepository interface {
	// LoadForUser returns only the boards owned by userID.
	LoadForUser(ctx context.Context, userID string) []model.Board
	// SaveForUser replaces every board owned by userID with boards.
	SaveForUser(ctx context.Context, userID string, boards []model.Board) error
	// BackupBoards snapshots the boards collection. Best effort.
	BackupBoards(ctx context.Context)
}

// UserRepository is CRUD over the users collection.
type UserRepository interface {
	GetAll(ctx context.Context) []model.User
	// GetByID returns nil when the user does not exist.
	GetByID(ctx context.Context, id int) *model.User
	Insert(ctx context.Context, username, password string) (*model.User, error)
	Update(ctx context.Context, user model.User) error
	Delete(ctx context.Context, id int) error
}
