package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/auth"
	"github.com/sakif/kanban-boards/internal/model"
	"github.com/sakif/kanban-boards/internal/service"
)

// unknownUsername is what the board header shows when the signed-in user no
// longer exists.
const unknownUsername = "unknown"

// UserLookup is the user half of bridge.Local. SwitchUser drops whatever
// is held for a user who has just been deleted.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) *model.User
	SwitchUser(userID string)
}

// UserHandler serves the user list shown at sign-in and its management.
type UserHandler struct {
	users  *service.UserService
	lookup UserLookup
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, lookup UserLookup, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, lookup: lookup, logger: logger}
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	CurrentPassword string `json:"currentPassword"`
	Username        string `json:"username"`
	Password        string `json:"password"`
}

type deleteUserRequest struct {
	Password string `json:"password"`
}

// HandleList returns every user without passwords.
//
// HTTP: GET /api/users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.users.ListUsers(r.Context()))
}

// HandleGet returns one user's profile.
//
// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleCreate adds a user.
//
// HTTP: POST /api/users
// REQUEST BODY: {"username": "ana", "password": "..."}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.users.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

// HandleUpdate renames a user or changes the password. The current password
// is required. Empty fields keep their stored value.
//
// HTTP: PUT /api/users/{id}
// REQUEST BODY: {"currentPassword": "...", "username": "...", "password": "..."}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.users.UpdateUser(r.Context(), id, req.CurrentPassword, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleDelete removes a user and ends their sessions. Their boards stay in
// storage.
//
// HTTP: DELETE /api/users/{id}
// REQUEST BODY: {"password": "..."}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req deleteUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.DeleteUser(r.Context(), id, req.Password); err != nil {
		writeError(w, err)
		return
	}
	h.lookup.SwitchUser(strconv.Itoa(id))
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the signed-in user's profile.
//
// HTTP: GET /api/users/me
// Auth: Required
//
// RequireAuth already rejects sessions of deleted users; a user deleted
// between that check and this lookup is shown as "unknown".
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if user := h.lookup.GetUser(r.Context(), userID); user != nil {
		writeJSON(w, http.StatusOK, user.Profile())
		return
	}

	h.logger.Warn("session for missing user", slog.String("user_id", userID))
	id, _ := strconv.Atoi(userID)
	writeJSON(w, http.StatusOK, model.Profile{ID: id, Username: unknownUsername})
}

func userIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "user id must be a positive number")
	}
	return id, nil
}
