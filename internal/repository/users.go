package repository

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/store"
)

var _ UserRepository = (*Users)(nil)

// Users implements UserRepository on top of a store.Store.
// Deleting a user leaves that user's boards in place.
//
// Writes work on the raw records, like Boards.SaveForUser: a record that does
// not decode as a user is kept as it was, and nothing is written when the
// collection cannot be read.
type Users struct {
	store  *store.Store
	logger *slog.Logger
	mu     sync.Mutex
}

// NewUsers creates the user repository.
func NewUsers(s *store.Store, logger *slog.Logger) *Users {
	return &Users{store: s, logger: logger}
}

// GetAll returns every readable user in stored order.
func (r *Users) GetAll(ctx context.Context) []model.User {
	return store.ReadAll[model.User](ctx, r.store, store.Users)
}

// GetByID returns the user with id, or nil.
func (r *Users) GetByID(ctx context.Context, id int) *model.User {
	for _, u := range r.GetAll(ctx) {
		if u.ID == id {
			return &u
		}
	}
	return nil
}

// Insert appends a user with id max(existing)+1, or 1 for an empty list.
func (r *Users) Insert(ctx context.Context, username, password string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.records(ctx)
	if err != nil {
		return nil, err
	}
	next := 1
	for _, rec := range records {
		if id, ok := userIDOf(rec); ok && id >= next {
			next = id + 1
		}
	}

	user := model.User{ID: next, Username: username, Password: password}
	if err := r.write(ctx, records, user, -1); err != nil {
		return nil, err
	}

	r.logger.Info("user inserted", slog.Int("user_id", user.ID))
	return &user, nil
}

// Update replaces the stored record with the same id.
func (r *Users) Update(ctx context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.records(ctx)
	if err != nil {
		return err
	}
	idx := indexOfUser(records, user.ID)
	if idx < 0 {
		return apperror.NotFound("user", strconv.Itoa(user.ID))
	}
	return r.write(ctx, records, user, idx)
}

// Delete removes the user record only; boards are not cascaded.
func (r *Users) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.records(ctx)
	if err != nil {
		return err
	}
	idx := indexOfUser(records, id)
	if idx < 0 {
		return apperror.NotFound("user", strconv.Itoa(id))
	}
	records = append(records[:idx], records[idx+1:]...)

	if werr := store.WriteAll(ctx, r.store, store.Users, records); werr != nil {
		return apperror.PersistenceFailed("saving users", werr)
	}

	r.logger.Info("user deleted", slog.Int("user_id", id))
	return nil
}

func (r *Users) records(ctx context.Context) ([]json.RawMessage, error) {
	records, err := r.store.ReadRecords(ctx, store.Users)
	if err != nil {
		return nil, apperror.PersistenceFailed("reading users", err)
	}
	return records, nil
}

// write stores user at records[idx], or appends it when idx is negative.
func (r *Users) write(ctx context.Context, records []json.RawMessage, user model.User, idx int) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return apperror.PersistenceFailed("encoding user", err)
	}
	if idx < 0 {
		records = append(records, raw)
	} else {
		records[idx] = raw
	}
	if werr := store.WriteAll(ctx, r.store, store.Users, records); werr != nil {
		return apperror.PersistenceFailed("saving users", werr)
	}
	return nil
}

func userIDOf(rec json.RawMessage) (int, bool) {
	var head struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(rec, &head); err != nil {
		return 0, false
	}
	return head.ID, true
}

func indexOfUser(records []json.RawMessage, id int) int {
	for i, rec := range records {
		if got, ok := userIDOf(rec); ok && got == id {
			return i
		}
	}
	return -1
}
