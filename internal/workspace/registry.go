// Package workspace keeps one board State per signed-in user.
package workspace

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/kanban-boards/internal/board"
)

// Registry maps user ids to their loaded board State. A State is loaded from
// the bridge on first use and dropped when the user switches away.
type Registry struct {
	bridge board.Bridge
	opts   []board.Option
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]*board.State
}

// New creates an empty registry. opts are applied to every State it creates.
func New(bridge board.Bridge, logger *slog.Logger, opts ...board.Option) *Registry {
	return &Registry{
		bridge: bridge,
		opts:   opts,
		logger: logger,
		states: make(map[string]*board.State),
	}
}

// Get returns the user's State, loading it if needed.
func (r *Registry) Get(ctx context.Context, userID string) *board.State {
	r.mu.Lock()
	if s, ok := r.states[userID]; ok {
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	// Load runs unlocked; when two first uses race, the first stored State wins.
	s := board.New(r.bridge, userID, r.opts...)
	s.Load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.states[userID]; ok {
		return existing
	}
	r.states[userID] = s
	r.logger.Info("workspace opened", slog.String("user_id", userID))
	return s
}

// Drop forgets the user's State. The next Get reloads from storage.
func (r *Registry) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.states[userID]; ok {
		delete(r.states, userID)
		r.logger.Info("workspace closed", slog.String("user_id", userID))
	}
}

// Len is the number of open workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
