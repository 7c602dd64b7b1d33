// Package bridge is the boundary between a board State and the repositories.
//
// Nothing that fails behind the bridge crosses it as an error: a failed save
// becomes false, a missing user becomes nil, and the cause goes to the log.
package bridge

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/atomic"

	"github.com/sakif/kanban-boards/internal/board"
	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/repository"
)

var _ board.Bridge = (*Local)(nil)

// Recorder receives save results. metrics.Collector satisfies it.
type Recorder interface {
	RecordSave(ok bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordSave(bool) {}

// Local is an in-process bridge over the repositories.
type Local struct {
	boards   repository.BoardRepository
	users    repository.UserRepository
	logger   *slog.Logger
	recorder Recorder

	needsBackup atomic.Bool

	mu       sync.RWMutex
	onSwitch []func(userID string)
}

// New creates the bridge. recorder may be nil.
func New(boards repository.BoardRepository, users repository.UserRepository, logger *slog.Logger, recorder Recorder) *Local {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Local{
		boards:   boards,
		users:    users,
		logger:   logger,
		recorder: recorder,
	}
}

// LoadBoards returns the boards owned by userID.
func (l *Local) LoadBoards(ctx context.Context, userID string) []model.Board {
	return l.boards.LoadForUser(ctx, userID)
}

// SaveBoards takes a backup of the boards collection and then merges the
// user's boards into it. The backup never blocks the save.
func (l *Local) SaveBoards(ctx context.Context, boards []model.Board, userID string) bool {
	l.boards.BackupBoards(ctx)

	if err := l.boards.SaveForUser(ctx, userID, boards); err != nil {
		l.logger.Error("save-boards failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		l.recorder.RecordSave(false)
		return false
	}
	l.recorder.RecordSave(true)
	return true
}

// SetNeedsBackup is advisory: it asks for a backup at the next scheduled run
// and at shutdown.
func (l *Local) SetNeedsBackup(flag bool) {
	l.needsBackup.Store(flag)
}

// NeedsBackup reports the flag.
func (l *Local) NeedsBackup() bool {
	return l.needsBackup.Load()
}

// ClearNeedsBackup resets the flag and reports whether it was set.
func (l *Local) ClearNeedsBackup() bool {
	return l.needsBackup.CompareAndSwap(true, false)
}

// GetUser returns the user with the given id, or nil when there is none or
// the id is not a number.
func (l *Local) GetUser(ctx context.Context, userID string) *model.User {
	id, err := strconv.Atoi(strings.TrimSpace(userID))
	if err != nil {
		l.logger.Debug("get-user with non-numeric id", slog.String("user_id", userID))
		return nil
	}
	return l.users.GetByID(ctx, id)
}

// OnSwitchUser registers fn to run on every SwitchUser.
func (l *Local) OnSwitchUser(fn func(userID string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSwitch = append(l.onSwitch, fn)
}

// SwitchUser asks to return to user selection. It is fire-and-forget: the
// registered hooks run and nothing is reported back.
func (l *Local) SwitchUser(userID string) {
	l.mu.RLock()
	hooks := append([]func(string){}, l.onSwitch...)
	l.mu.RUnlock()

	l.logger.Info("switch-user", slog.String("user_id", userID))
	for _, fn := range hooks {
		fn(userID)
	}
}
