package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sakif/kanban-boards/internal/model"
)

// CookieName is the cookie that carries the session token.
const CookieName = "kanban_session"

// contextKey is package-private so no other package can read or shadow the
// user id stored in the request context.
type contextKey string

const userIDKey contextKey = "userID"

// UserLookup resolves a token subject to a user. bridge.Local satisfies it.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) *model.User
}

// RequireAuth rejects requests without a valid session token with 401 and
// stores the token's user id in the request context otherwise. A token
// whose user no longer exists is rejected the same way.
//
// The token is read from "Authorization: Bearer <jwt>" first and from the
// session cookie second, so both a browser UI and a script can use the API.
func RequireAuth(tokens *TokenService, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil || users.GetUser(r.Context(), userID) == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"sign in to continue"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying userID, as RequireAuth does.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the signed-in user id, or ("", false).
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok {
			return tokens.Validate(strings.TrimSpace(raw))
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
