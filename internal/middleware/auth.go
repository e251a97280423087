package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/evanmcd/splitnest/internal/auth"
	"github.com/evanmcd/splitnest/internal/store"
)

const sessionCookieName = "splitnest_session"

// RequireAuth validates the session cookie, resolves the user, and
// populates AuthContext. Callers without a valid session get a JSON
// 401; authorization beyond identity is the handlers' job.
func RequireAuth(sessions *store.SessionStore, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}
			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}
			user, err := users.GetByID(sess.UserID)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}
			ac := auth.AuthContext{UserID: user.ID, Role: user.Role}
			if user.HouseholdID != nil {
				ac.HouseholdID = *user.HouseholdID
			}
			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "authentication required",
		"code":  "unauthorized",
	})
}
