package store

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/evanmcd/splitnest/internal/database"
	"github.com/evanmcd/splitnest/internal/model"
)

func testDB(t *testing.T) *Stores {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// Ensure foreign keys are enforced (modernc/sqlite may not honor DSN param for :memory:)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &Stores{
		DB:         db,
		Users:      NewUserStore(db),
		Households: NewHouseholdStore(db),
		Removals:   NewRemovalStore(db),
		Expenses:   NewExpenseStore(db),
		Sessions:   NewSessionStore(db),
	}
}

// Stores bundles every store over one test database.
type Stores struct {
	DB         *sql.DB
	Users      *UserStore
	Households *HouseholdStore
	Removals   *RemovalStore
	Expenses   *ExpenseStore
	Sessions   *SessionStore
}

var testUserSeq int

func createTestUser(t *testing.T, s *Stores) *model.User {
	t.Helper()
	testUserSeq++
	u, err := s.Users.Create(fmt.Sprintf("user%d@example.com", testUserSeq), fmt.Sprintf("User %d", testUserSeq), "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func createTestHousehold(t *testing.T, s *Stores, admin *model.User) *model.Household {
	t.Helper()
	testUserSeq++
	h, err := s.Households.Create("Test House", fmt.Sprintf("HH-TEST%02d", testUserSeq%100), admin.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if err := s.Users.SetHousehold(admin.ID, h.ID, model.RoleAdmin); err != nil {
		t.Fatalf("set household: %v", err)
	}
	return h
}

func addMember(t *testing.T, s *Stores, h *model.Household) *model.User {
	t.Helper()
	u := createTestUser(t, s)
	if err := s.Users.SetHousehold(u.ID, h.ID, model.RoleMember); err != nil {
		t.Fatalf("set household: %v", err)
	}
	return u
}
