package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/store"
)

func TestInsert_AssignsMaxPlusOne(t *testing.T) {
	s, _ := newTestStore(t)
	repo := NewUsers(s, testLogger())
	ctx := context.Background()

	first, err := repo.Insert(ctx, "ana", "pw")
	if err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if first.ID != 1 {
		t.Errorf("first id = %d, want 1", first.ID)
	}

	// Gaps are not reused: ids follow the current maximum.
	if werr := store.WriteAll(ctx, s, store.Users, []model.User{{ID: 4, Username: "x"}, {ID: 2, Username: "y"}}); werr != nil {
		t.Fatal(werr)
	}
	next, err := repo.Insert(ctx, "bo", "pw")
	if err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if next.ID != 5 {
		t.Errorf("next id = %d, want 5", next.ID)
	}
}

func TestGetByID(t *testing.T) {
	s, _ := newTestStore(t)
	repo := NewUsers(s, testLogger())
	ctx := context.Background()
	if _, err := repo.Insert(ctx, "ana", "pw"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		id       int
		wantUser bool
	}{
		{name: "existing user", id: 1, wantUser: true},
		{name: "missing user is nil", id: 42, wantUser: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repo.GetByID(ctx, tt.id)
			if (got != nil) != tt.wantUser {
				t.Errorf("GetByID(%d) = %+v, wantUser %v", tt.id, got, tt.wantUser)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	s, _ := newTestStore(t)
	repo := NewUsers(s, testLogger())
	ctx := context.Background()
	u, _ := repo.Insert(ctx, "ana", "pw")

	u.Username = "ana maria"
	if err := repo.Update(ctx, *u); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if got := repo.GetByID(ctx, u.ID); got.Username != "ana maria" {
		t.Errorf("username = %q", got.Username)
	}

	err := repo.Update(ctx, model.User{ID: 99, Username: "ghost"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDelete_DoesNotCascadeToBoards(t *testing.T) {
	s, _ := newTestStore(t)
	users := NewUsers(s, testLogger())
	boards := NewBoards(s, testLogger())
	ctx := context.Background()

	u, _ := users.Insert(ctx, "ana", "pw")
	owner := model.OwnerFromUserID(u.ID)
	if err := boards.SaveForUser(ctx, string(owner), []model.Board{{ID: "a", Title: "mine"}}); err != nil {
		t.Fatal(err)
	}

	if err := users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if users.GetByID(ctx, u.ID) != nil {
		t.Error("user still present after Delete")
	}
	if got := boards.LoadForUser(ctx, string(owner)); len(got) != 1 {
		t.Errorf("orphaned boards = %d, want 1", len(got))
	}

	if err := users.Delete(ctx, u.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
