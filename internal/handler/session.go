package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/kanban-boards/internal/apperror"
	"github.com/sakif/kanban-boards/internal/auth"
	"github.com/sakif/kanban-boards/internal/service"
)

// Authenticator is the login half of service.AccessGate.
type Authenticator interface {
	Login(ctx context.Context, userID int, password string) (*service.Session, error)
}

// UserSwitcher is the session half of bridge.Local.
type UserSwitcher interface {
	SwitchUser(userID string)
}

// SessionHandler signs users in and out.
//
//   - HandleLogin  → check the password, issue the session cookie
//   - HandleLogout → "switch user": drop the workspace, clear the cookie
type SessionHandler struct {
	gate     Authenticator
	switcher UserSwitcher
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(gate Authenticator, switcher UserSwitcher, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{gate: gate, switcher: switcher, logger: logger}
}

type loginRequest struct {
	UserID   int    `json:"userId"`
	Password string `json:"password"`
}

// HandleLogin checks the password for the chosen user.
//
// HTTP: POST /api/session
// REQUEST BODY: {"userId": 7, "password": "..."}
//
// The token is returned in the body and as an HttpOnly cookie. The browser
// UI relies on the cookie; scripts can send the token as a Bearer header.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.UserID <= 0 {
		writeError(w, apperror.ValidationFailed("userId", "userId is required"))
		return
	}

	session, err := h.gate.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, session)
}

// HandleLogout returns the caller to user selection.
//
// HTTP: DELETE /api/session
// Auth: Required
//
// Since sessions are stateless JWTs, logging out only deletes the cookie. The
// token itself stays valid until it expires. What does change server-side is
// the workspace: the switch hook drops it, along with its undo history.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		h.switcher.SwitchUser(userID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
