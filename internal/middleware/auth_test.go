package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evanmcd/splitnest/internal/auth"
	"github.com/evanmcd/splitnest/internal/database"
	"github.com/evanmcd/splitnest/internal/model"
	"github.com/evanmcd/splitnest/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, *store.UserStore, *model.User, *model.Session) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	sessions := store.NewSessionStore(db)

	user, err := users.Create("mw@example.com", "Middleware", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := sessions.Create(user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sessions, users, user, sess
}

func TestRequireAuthValidSession(t *testing.T) {
	sessions, users, user, sess := setupAuthTest(t)

	var got auth.AuthContext
	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != user.ID {
		t.Errorf("auth user = %d, want %d", got.UserID, user.ID)
	}
	if got.HouseholdID != 0 {
		t.Errorf("household = %d, want 0 for unaffiliated user", got.HouseholdID)
	}
}

func TestRequireAuthMissingCookie(t *testing.T) {
	sessions, users, _, _ := setupAuthTest(t)

	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run without a session")
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
}

func TestRequireAuthBadToken(t *testing.T) {
	sessions, users, _, _ := setupAuthTest(t)

	handler := RequireAuth(sessions, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run with a bogus token")
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "bogus"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
