package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/goccy/go-json"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/store"
)

// compile-time check
var _ BoardRepository = (*Boards)(nil)

// Boards implements BoardRepository on top of a store.Store.
//
// MERGE-BY-REPLACEMENT:
// SaveForUser reads the whole collection, keeps every record owned by someone
// else (in their original order), drops every record owned by userID and
// appends the incoming boards stamped with userID. A board the caller leaves
// out is deleted. There is no revision check: two processes saving the same
// file can still lose each other's writes.
//
// Other users' records are carried through as raw JSON. Only their "userId"
// is decoded, so a record this package cannot model (or does not understand
// at all) is written back as it was read.
type Boards struct {
	store  *store.Store
	logger *slog.Logger

	// mu keeps one read-modify-write from interleaving with another in this
	// process. It does nothing across processes.
	mu sync.Mutex
}

// NewBoards creates the board repository.
func NewBoards(s *store.Store, logger *slog.Logger) *Boards {
	return &Boards{store: s, logger: logger}
}

// LoadForUser returns the user's boards in stored order. Owner ids are
// compared as trimmed strings, so a board stored with "userId": 7 matches "7".
// A record that does not decode is skipped by the store and logged there.
func (r *Boards) LoadForUser(ctx context.Context, userID string) []model.Board {
	all := store.ReadAll[model.Board](ctx, r.store, store.Boards)

	owned := make([]model.Board, 0, len(all))
	for _, b := range all {
		if b.UserID.Matches(userID) {
			b.Normalize()
			owned = append(owned, b)
		}
	}
	return owned
}

// SaveForUser merges the user's boards back into the collection.
// It returns an apperror.ErrPersistence error when the collection cannot be
// read or the write fails; nothing is written in the first case.
func (r *Boards) SaveForUser(ctx context.Context, userID string, boards []model.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.store.ReadRecords(ctx, store.Boards)
	if err != nil {
		return apperror.PersistenceFailed("reading boards", err)
	}

	merged := make([]json.RawMessage, 0, len(records)+len(boards))
	for _, rec := range records {
		if !ownedBy(rec, userID) {
			merged = append(merged, rec)
		}
	}
	owner := model.OwnerID(userID)
	for _, b := range boards {
		b = b.Clone()
		b.UserID = owner
		b.Normalize()
		raw, err := json.Marshal(b)
		if err != nil {
			return apperror.PersistenceFailed("encoding boards", err)
		}
		merged = append(merged, raw)
	}

	if werr := store.WriteAll(ctx, r.store, store.Boards, merged); werr != nil {
		return apperror.PersistenceFailed("saving boards", werr)
	}

	r.logger.Debug("boards saved",
		slog.String("user_id", userID),
		slog.Int("boards", len(boards)),
		slog.Int("total", len(merged)),
	)
	return nil
}

// ownedBy reports whether rec is a board record owned by userID. Anything
// that is not an object, or whose userId is neither a string nor a number,
// belongs to nobody.
func ownedBy(rec json.RawMessage, userID string) bool {
	var head struct {
		UserID model.OwnerID `json:"userId"`
	}
	if err := json.Unmarshal(rec, &head); err != nil {
		return false
	}
	return head.UserID != "" && head.UserID.Matches(userID)
}

// BackupBoards delegates to the store.
func (r *Boards) BackupBoards(ctx context.Context) {
	r.store.BackupBoards(ctx)
}
