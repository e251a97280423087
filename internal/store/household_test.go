package store

import (
	"testing"
)

func TestHouseholdCreateAndGet(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)

	h, err := s.Households.Create("Maple St", "HH-ABC234", admin.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if h.InviteCode != "HH-ABC234" {
		t.Errorf("invite_code = %q, want %q", h.InviteCode, "HH-ABC234")
	}

	got, err := s.Households.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got == nil || got.Name != "Maple St" {
		t.Fatalf("get by id = %+v", got)
	}
}

func TestHouseholdDuplicateInviteCode(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)

	if _, err := s.Households.Create("One", "HH-SAME22", admin.ID); err != nil {
		t.Fatalf("create household: %v", err)
	}
	_, err := s.Households.Create("Two", "HH-SAME22", admin.ID)
	if err == nil {
		t.Fatal("expected error for duplicate invite code")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestHouseholdGetByInviteCodeCaseInsensitive(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)

	h, err := s.Households.Create("Case House", "HH-XYZ789", admin.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	got, err := s.Households.GetByInviteCode("hh-xyz789")
	if err != nil {
		t.Fatalf("get by invite code: %v", err)
	}
	if got == nil || got.ID != h.ID {
		t.Fatalf("lowercase lookup = %+v, want id %d", got, h.ID)
	}

	got, err = s.Households.GetByInviteCode("HH-NOPE99")
	if err != nil {
		t.Fatalf("get by unknown code: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown code, got %+v", got)
	}
}

func TestHouseholdUpdateInviteCode(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h, err := s.Households.Create("Rotate", "HH-OLD234", admin.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}

	if err := s.Households.UpdateInviteCode(h.ID, "HH-NEW234"); err != nil {
		t.Fatalf("update invite code: %v", err)
	}

	if got, _ := s.Households.GetByInviteCode("HH-OLD234"); got != nil {
		t.Error("old invite code should no longer resolve")
	}
	got, err := s.Households.GetByInviteCode("HH-NEW234")
	if err != nil {
		t.Fatalf("get by new code: %v", err)
	}
	if got == nil || got.ID != h.ID {
		t.Fatalf("new code lookup = %+v, want id %d", got, h.ID)
	}
}

func TestHouseholdDelete(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)

	if err := s.Households.Delete(h.ID); err != nil {
		t.Fatalf("delete household: %v", err)
	}
	got, err := s.Households.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get deleted household: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}
