package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/auth"
	"github.com/sakif/kanban-boards/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users map[int]model.User
	// set to simulate a storage failure on writes
	writeErr error
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[int]model.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetAll(context.Context) []model.User {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) *model.User {
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	return &u
}

func (f *fakeUserRepo) Insert(_ context.Context, username, password string) (*model.User, error) {
	if f.writeErr != nil {
		return nil, apperror.PersistenceFailed("saving users", f.writeErr)
	}
	next := 1
	for id := range f.users {
		if id >= next {
			next = id + 1
		}
	}
	u := model.User{ID: next, Username: username, Password: password}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", "x")
	}
	if f.writeErr != nil {
		return apperror.PersistenceFailed("saving users", f.writeErr)
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int) error {
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", "x")
	}
	delete(f.users, id)
	return nil
}

type loginCounter map[string]int

func (c loginCounter) RecordLogin(result string) { c[result]++ }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGate(t *testing.T, repo *fakeUserRepo, master string, perMinute int) (*AccessGate, *auth.TokenService, loginCounter) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	rec := loginCounter{}
	gate := NewAccessGate(repo, tokens, auth.NewPasswordChecker(master), NewLoginLimiter(perMinute), rec, testLogger())
	return gate, tokens, rec
}

// =========================================================================
// ACCESS GATE
// =========================================================================

func TestLogin(t *testing.T) {
	repo := newFakeUserRepo(model.User{ID: 7, Username: "ana", Password: "pw"})

	tests := []struct {
		name     string
		userID   int
		password string
		master   string
		wantErr  error
	}{
		{name: "correct password", userID: 7, password: "pw"},
		{name: "master password", userID: 7, password: "master-key", master: "master-key"},
		{name: "wrong password", userID: 7, password: "nope", wantErr: apperror.ErrUnauthorized},
		{name: "unknown user is an auth failure", userID: 99, password: "pw", wantErr: apperror.ErrUnauthorized},
		{name: "empty password", userID: 7, password: "", wantErr: apperror.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate, tokens, _ := newTestGate(t, repo, tt.master, 0)

			session, err := gate.Login(context.Background(), tt.userID, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() unexpected error: %v", err)
			}
			sub, err := tokens.Validate(session.Token)
			if err != nil {
				t.Fatalf("issued token does not validate: %v", err)
			}
			if sub != "7" {
				t.Errorf("token subject = %q, want 7", sub)
			}
			if session.User != (model.Profile{ID: 7, Username: "ana"}) {
				t.Errorf("session user = %+v", session.User)
			}
		})
	}
}

func TestLogin_SameMessageForUnknownUserAndWrongPassword(t *testing.T) {
	repo := newFakeUserRepo(model.User{ID: 1, Username: "ana", Password: "pw"})
	gate, _, _ := newTestGate(t, repo, "", 0)
	ctx := context.Background()

	_, unknown := gate.Login(ctx, 2, "pw")
	_, wrong := gate.Login(ctx, 1, "bad")

	if unknown.Error() != wrong.Error() {
		t.Errorf("messages differ: %q vs %q", unknown.Error(), wrong.Error())
	}
}

func TestLogin_Throttled(t *testing.T) {
	repo := newFakeUserRepo(
		model.User{ID: 1, Username: "ana", Password: "pw"},
		model.User{ID: 2, Username: "bo", Password: "pw"},
	)
	gate, _, rec := newTestGate(t, repo, "", 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := gate.Login(ctx, 1, "bad"); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Fatalf("attempt %d: error = %v", i+1, err)
		}
	}
	if _, err := gate.Login(ctx, 1, "pw"); !errors.Is(err, apperror.ErrRateLimited) {
		t.Fatalf("4th attempt error = %v, want ErrRateLimited", err)
	}
	// Other users have their own bucket.
	if _, err := gate.Login(ctx, 2, "pw"); err != nil {
		t.Fatalf("user 2 login error = %v", err)
	}

	if rec[LoginRejected] != 3 || rec[LoginThrottled] != 1 || rec[LoginSuccess] != 1 {
		t.Errorf("recorded = %v", rec)
	}
}

// =========================================================================
// USER SERVICE
// =========================================================================

func newTestUserService(t *testing.T, repo *fakeUserRepo) *UserService {
	t.Helper()
	gate, _, _ := newTestGate(t, repo, "", 0)
	return NewUserService(repo, gate, testLogger())
}

func TestCreateUser(t *testing.T) {
	tests := []struct {
		name      string
		username  string
		password  string
		wantErr   error
		wantField string
		wantName  string
	}{
		{name: "valid", username: "  ana  ", password: "pw", wantName: "ana"},
		{name: "missing username", username: "   ", password: "pw", wantErr: apperror.ErrValidation, wantField: "username"},
		{name: "missing password", username: "ana", password: "", wantErr: apperror.ErrValidation, wantField: "password"},
		{name: "username too long", username: string(make([]byte, MaxUsernameLength+1)), password: "pw", wantErr: apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestUserService(t, newFakeUserRepo())

			p, err := svc.CreateUser(context.Background(), tt.username, tt.password)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				var appErr *apperror.AppError
				if tt.wantField != "" && errors.As(err, &appErr) && appErr.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.ID != 1 || p.Username != tt.wantName {
				t.Errorf("profile = %+v", p)
			}
		})
	}
}

func TestCreateUser_StorageFailure(t *testing.T) {
	repo := newFakeUserRepo()
	repo.writeErr = errors.New("disk full")
	svc := newTestUserService(t, repo)

	_, err := svc.CreateUser(context.Background(), "ana", "pw")

	if !errors.Is(err, apperror.ErrPersistence) {
		t.Errorf("error = %v, want ErrPersistence", err)
	}
}

func TestListUsers_HidesPasswords(t *testing.T) {
	repo := newFakeUserRepo(
		model.User{ID: 1, Username: "ana", Password: "secret"},
		model.User{ID: 2, Username: "bo", Password: "secret"},
	)
	svc := newTestUserService(t, repo)

	got := svc.ListUsers(context.Background())

	want := []model.Profile{{ID: 1, Username: "ana"}, {ID: 2, Username: "bo"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("ListUsers() = %+v, want %+v", got, want)
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("requires the current password", func(t *testing.T) {
		repo := newFakeUserRepo(model.User{ID: 1, Username: "ana", Password: "pw"})
		svc := newTestUserService(t, repo)

		_, err := svc.UpdateUser(ctx, 1, "wrong", "new name", "")

		if !errors.Is(err, apperror.ErrForbidden) {
			t.Fatalf("error = %v, want ErrForbidden", err)
		}
		if repo.users[1].Username != "ana" {
			t.Error("user changed despite failed gate")
		}
	})

	t.Run("renames and keeps password when none given", func(t *testing.T) {
		repo := newFakeUserRepo(model.User{ID: 1, Username: "ana", Password: "pw"})
		svc := newTestUserService(t, repo)

		p, err := svc.UpdateUser(ctx, 1, "pw", " Ana Maria ", "")

		if err != nil {
			t.Fatalf("UpdateUser() error: %v", err)
		}
		if p.Username != "Ana Maria" || repo.users[1].Password != "pw" {
			t.Errorf("stored = %+v", repo.users[1])
		}
	})

	t.Run("replaces password", func(t *testing.T) {
		repo := newFakeUserRepo(model.User{ID: 1, Username: "ana", Password: "pw"})
		svc := newTestUserService(t, repo)

		if _, err := svc.UpdateUser(ctx, 1, "pw", "", "pw2"); err != nil {
			t.Fatalf("UpdateUser() error: %v", err)
		}
		if repo.users[1].Password != "pw2" || repo.users[1].Username != "ana" {
			t.Errorf("stored = %+v", repo.users[1])
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		svc := newTestUserService(t, newFakeUserRepo())

		_, err := svc.UpdateUser(ctx, 5, "pw", "x", "")

		if !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeUserRepo(model.User{ID: 1, Username: "ana", Password: "pw"})
	gate, tokens, _ := newTestGate(t, repo, "", 0)
	svc := NewUserService(repo, gate, testLogger())

	session, err := gate.Login(ctx, 1, "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.DeleteUser(ctx, 1, "bad"); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("DeleteUser(bad password) error = %v, want ErrForbidden", err)
	}
	if _, err := tokens.Validate(session.Token); err != nil {
		t.Fatalf("a failed delete ended the session: %v", err)
	}

	if err := svc.DeleteUser(ctx, 1, "pw"); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := svc.GetUser(ctx, 1); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUser after delete error = %v, want ErrNotFound", err)
	}
	if _, err := tokens.Validate(session.Token); err == nil {
		t.Error("session token still valid after the user was deleted")
	}
}
