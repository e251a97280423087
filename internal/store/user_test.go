package store

import (
	"testing"

	"github.com/evanmcd/splitnest/internal/model"
)

func TestUserCreateAndGet(t *testing.T) {
	s := testDB(t)

	u, err := s.Users.Create("alice@example.com", "Alice", "hash123")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if u.HouseholdID != nil {
		t.Error("new user should have no household")
	}
	if u.Role != model.RoleMember {
		t.Errorf("role = %q, want %q", u.Role, model.RoleMember)
	}

	got, err := s.Users.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got == nil || got.ID != u.ID {
		t.Fatalf("get by email = %+v, want id %d", got, u.ID)
	}
}

func TestUserGetMissing(t *testing.T) {
	s := testDB(t)

	got, err := s.Users.GetByID(9999)
	if err != nil {
		t.Fatalf("get missing user: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing user, got %+v", got)
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	s := testDB(t)

	if _, err := s.Users.Create("dup@example.com", "One", "h"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := s.Users.Create("dup@example.com", "Two", "h")
	if err == nil {
		t.Fatal("expected error for duplicate email")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestUserSetAndClearHousehold(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)

	got, err := s.Users.GetByID(admin.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.HouseholdID == nil || *got.HouseholdID != h.ID {
		t.Fatalf("household_id = %v, want %d", got.HouseholdID, h.ID)
	}
	if got.Role != model.RoleAdmin {
		t.Errorf("role = %q, want %q", got.Role, model.RoleAdmin)
	}

	if err := s.Users.ClearHousehold(admin.ID); err != nil {
		t.Fatalf("clear household: %v", err)
	}
	got, err = s.Users.GetByID(admin.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.HouseholdID != nil {
		t.Errorf("household_id = %v, want nil", got.HouseholdID)
	}
	if got.Role != model.RoleMember {
		t.Errorf("role after clear = %q, want %q", got.Role, model.RoleMember)
	}
}

func TestUserListAndCountByHousehold(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)
	addMember(t, s, h)
	addMember(t, s, h)
	createTestUser(t, s) // unaffiliated, must not be counted

	members, err := s.Users.ListByHousehold(h.ID)
	if err != nil {
		t.Fatalf("list by household: %v", err)
	}
	if len(members) != 3 {
		t.Errorf("len(members) = %d, want 3", len(members))
	}

	count, err := s.Users.CountByHousehold(h.ID)
	if err != nil {
		t.Fatalf("count by household: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}
