package store

import (
	"testing"
	"time"

	"github.com/evanmcd/splitnest/internal/model"
)

func TestExpenseInsertWithSplits(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)
	m := addMember(t, s, h)

	e, err := s.Expenses.Insert(h.ID, "groceries", 90, admin.ID, admin.ID, "food", time.Now().UTC())
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	if e.ID == 0 {
		t.Error("expected non-zero ID")
	}

	sp, err := s.Expenses.InsertSplit(e.ID, m.ID, 45)
	if err != nil {
		t.Fatalf("insert split: %v", err)
	}
	if sp.Status != model.SplitPending {
		t.Errorf("status = %q, want %q", sp.Status, model.SplitPending)
	}

	splits, err := s.Expenses.ListSplits(e.ID)
	if err != nil {
		t.Fatalf("list splits: %v", err)
	}
	if len(splits) != 1 || splits[0].OwedBy != m.ID || splits[0].Amount != 45 {
		t.Errorf("splits = %+v", splits)
	}
}

func TestExpenseSettleSplitIdempotent(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)
	m := addMember(t, s, h)

	e, err := s.Expenses.Insert(h.ID, "rent", 1000, admin.ID, admin.ID, "general", time.Now().UTC())
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	sp, err := s.Expenses.InsertSplit(e.ID, m.ID, 500)
	if err != nil {
		t.Fatalf("insert split: %v", err)
	}

	changed, err := s.Expenses.SettleSplit(sp.ID)
	if err != nil {
		t.Fatalf("settle split: %v", err)
	}
	if changed != 1 {
		t.Errorf("first settle changed = %d, want 1", changed)
	}

	got, err := s.Expenses.GetSplitByID(sp.ID)
	if err != nil {
		t.Fatalf("get split: %v", err)
	}
	if got.Status != model.SplitSettled {
		t.Errorf("status = %q, want %q", got.Status, model.SplitSettled)
	}
	if got.SettledAt == nil {
		t.Error("settled_at should be set")
	}

	// Settling again is a no-op.
	changed, err = s.Expenses.SettleSplit(sp.ID)
	if err != nil {
		t.Fatalf("settle split again: %v", err)
	}
	if changed != 0 {
		t.Errorf("second settle changed = %d, want 0", changed)
	}
}

func TestExpenseSettleAllWithIsOneDirectional(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)
	m := addMember(t, s, h)

	// Two expenses paid by admin, owed by m.
	for _, amount := range []float64{30, 20} {
		e, err := s.Expenses.Insert(h.ID, "x", amount, admin.ID, admin.ID, "general", time.Now().UTC())
		if err != nil {
			t.Fatalf("insert expense: %v", err)
		}
		if _, err := s.Expenses.InsertSplit(e.ID, m.ID, amount/2); err != nil {
			t.Fatalf("insert split: %v", err)
		}
	}
	// One expense the other way: paid by m, owed by admin.
	e, err := s.Expenses.Insert(h.ID, "y", 40, m.ID, m.ID, "general", time.Now().UTC())
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	reverse, err := s.Expenses.InsertSplit(e.ID, admin.ID, 20)
	if err != nil {
		t.Fatalf("insert split: %v", err)
	}

	count, err := s.Expenses.SettleAllWith(m.ID, admin.ID)
	if err != nil {
		t.Fatalf("settle all with: %v", err)
	}
	if count != 2 {
		t.Errorf("settled count = %d, want 2", count)
	}

	// The reverse-direction split is untouched.
	got, err := s.Expenses.GetSplitByID(reverse.ID)
	if err != nil {
		t.Fatalf("get split: %v", err)
	}
	if got.Status != model.SplitPending {
		t.Errorf("reverse split status = %q, want %q", got.Status, model.SplitPending)
	}
}

func TestExpenseListPendingByHousehold(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)
	m := addMember(t, s, h)

	e, err := s.Expenses.Insert(h.ID, "dinner", 60, admin.ID, admin.ID, "food", time.Now().UTC())
	if err != nil {
		t.Fatalf("insert expense: %v", err)
	}
	sp1, err := s.Expenses.InsertSplit(e.ID, m.ID, 30)
	if err != nil {
		t.Fatalf("insert split: %v", err)
	}
	sp2, err := s.Expenses.InsertSplit(e.ID, admin.ID, 30)
	if err != nil {
		t.Fatalf("insert split: %v", err)
	}
	if _, err := s.Expenses.SettleSplit(sp2.ID); err != nil {
		t.Fatalf("settle split: %v", err)
	}

	pending, err := s.Expenses.ListPendingByHousehold(h.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("len(pending) = %d, want 1", len(pending))
	}
	p := pending[0]
	if p.SplitID != sp1.ID || p.OwedBy != m.ID || p.PaidBy != admin.ID || p.Amount != 30 {
		t.Errorf("pending = %+v", p)
	}
}

func TestExpenseListByHousehold(t *testing.T) {
	s := testDB(t)
	admin := createTestUser(t, s)
	h := createTestHousehold(t, s, admin)

	for _, desc := range []string{"first", "second"} {
		if _, err := s.Expenses.Insert(h.ID, desc, 10, admin.ID, admin.ID, "general", time.Now().UTC()); err != nil {
			t.Fatalf("insert expense: %v", err)
		}
	}

	expenses, err := s.Expenses.ListByHousehold(h.ID)
	if err != nil {
		t.Fatalf("list by household: %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("len(expenses) = %d, want 2", len(expenses))
	}
}
