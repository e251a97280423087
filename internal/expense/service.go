package expense

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/evanmcd/splitnest/internal/model"
	"github.com/evanmcd/splitnest/internal/store"
)

// Events consumed by the notification layer.
const (
	EventExpenseCreated = "expense-created"
	EventSplitSettled   = "split-settled"
)

// Precondition failures returned by the ledger.
var (
	ErrNotInHousehold          = errors.New("user does not belong to a household")
	ErrInvalidAmount           = errors.New("expense total must be greater than zero")
	ErrPayerNotInHousehold     = errors.New("payer is not a member of this household")
	ErrSplitOwerNotInHousehold = errors.New("split ower is not a member of this household")
	ErrSplitNotFound           = errors.New("expense split not found")
	ErrNotSplitOwer            = errors.New("only the owing user may settle a split")
)

// Notifier delivers household-scoped events to connected clients.
type Notifier interface {
	HouseholdEvent(householdID int64, event string, payload map[string]any)
}

// Service implements the shared-expense ledger: split computation,
// settlement, and balance aggregation.
type Service struct {
	db       *sql.DB
	users    *store.UserStore
	expenses *store.ExpenseStore
	notifier Notifier
	logger   *slog.Logger
}

func NewService(db *sql.DB, users *store.UserStore, expenses *store.ExpenseStore, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		users:    users,
		expenses: expenses,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *Service) notify(householdID int64, event string, payload map[string]any) {
	if s.notifier != nil {
		s.notifier.HouseholdEvent(householdID, event, payload)
	}
}

// SplitInput is a caller-supplied unequal split row.
type SplitInput struct {
	OwedBy int64   `json:"owed_by"`
	Amount float64 `json:"amount"`
}

// CreateInput describes a new expense. PaidBy defaults to the caller;
// SpentAt defaults to now. When Splits is empty an equal split is
// computed across the household.
type CreateInput struct {
	Description string
	TotalAmount float64
	PaidBy      int64
	Category    string
	SpentAt     time.Time
	Splits      []SplitInput
}

// Create records an expense and its splits in one transaction.
//
// With no explicit splits, each non-payer member owes
// total/memberCount — the divisor includes the payer even though no
// split row is written for them, so the rows sum to
// total*(members-1)/members. That is the product's long-standing
// behaviour and is kept as-is.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*model.Expense, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.InHousehold() {
		return nil, ErrNotInHousehold
	}
	householdID := *user.HouseholdID

	if in.TotalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if in.PaidBy == 0 {
		in.PaidBy = userID
	}
	if in.Category == "" {
		in.Category = "general"
	}
	if in.SpentAt.IsZero() {
		in.SpentAt = time.Now().UTC()
	}

	members, err := s.users.ListByHousehold(householdID)
	if err != nil {
		return nil, err
	}
	memberIDs := make(map[int64]bool, len(members))
	for _, m := range members {
		memberIDs[m.ID] = true
	}
	if !memberIDs[in.PaidBy] {
		return nil, ErrPayerNotInHousehold
	}

	splits := in.Splits
	if len(splits) == 0 {
		share := in.TotalAmount / float64(len(members))
		for _, m := range members {
			if m.ID == in.PaidBy {
				continue
			}
			splits = append(splits, SplitInput{OwedBy: m.ID, Amount: share})
		}
	} else {
		for _, sp := range splits {
			if !memberIDs[sp.OwedBy] {
				return nil, ErrSplitOwerNotInHousehold
			}
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	expenses := s.expenses.WithTx(tx)
	e, err := expenses.Insert(householdID, in.Description, in.TotalAmount, in.PaidBy, userID, in.Category, in.SpentAt)
	if err != nil {
		return nil, err
	}
	for _, sp := range splits {
		created, err := expenses.InsertSplit(e.ID, sp.OwedBy, sp.Amount)
		if err != nil {
			return nil, err
		}
		e.Splits = append(e.Splits, *created)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("expense created",
		"household_id", householdID, "expense_id", e.ID,
		"total", in.TotalAmount, "splits", len(e.Splits))
	s.notify(householdID, EventExpenseCreated, map[string]any{
		"expense_id":  e.ID,
		"description": e.Description,
		"paid_by":     e.PaidBy,
		"total":       e.TotalAmount,
	})
	return e, nil
}

// SettleSplit marks one split as settled. Only the owing user may
// settle; settling an already-settled split is a no-op success.
func (s *Service) SettleSplit(ctx context.Context, userID, splitID int64) (*model.ExpenseSplit, error) {
	sp, err := s.expenses.GetSplitByID(splitID)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, ErrSplitNotFound
	}
	if sp.OwedBy != userID {
		return nil, ErrNotSplitOwer
	}

	changed, err := s.expenses.SettleSplit(splitID)
	if err != nil {
		return nil, err
	}
	sp, err = s.expenses.GetSplitByID(splitID)
	if err != nil {
		return nil, err
	}

	if changed > 0 {
		e, err := s.expenses.GetByID(sp.ExpenseID)
		if err == nil && e != nil {
			s.notify(e.HouseholdID, EventSplitSettled, map[string]any{
				"split_id":   sp.ID,
				"expense_id": sp.ExpenseID,
				"settled_by": userID,
			})
		}
	}
	return sp, nil
}

// SettleWithUser settles every pending split the caller owes on
// expenses paid by the other user, returning the count. The reverse
// direction (what the other user owes the caller) is untouched.
func (s *Service) SettleWithUser(ctx context.Context, userID, otherID int64) (int64, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	if user == nil || !user.InHousehold() {
		return 0, ErrNotInHousehold
	}

	count, err := s.expenses.SettleAllWith(userID, otherID)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.logger.Info("splits settled with user", "user_id", userID, "paid_by", otherID, "count", count)
		s.notify(*user.HouseholdID, EventSplitSettled, map[string]any{
			"settled_by": userID,
			"paid_by":    otherID,
			"count":      count,
		})
	}
	return count, nil
}

// BalanceEntry is one counterparty line in a balance projection.
type BalanceEntry struct {
	UserID int64   `json:"user_id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Balances is the per-user debt projection: what the user owes, keyed
// by payer, and what they are owed, keyed by ower.
type Balances struct {
	YouOwe     float64        `json:"you_owe"`
	YouAreOwed float64        `json:"you_are_owed"`
	Debts      []BalanceEntry `json:"debts"`
	Credits    []BalanceEntry `json:"credits"`
}

// GetBalances recomputes the caller's balances from every pending
// split in the household. A full scan per call is fine at household
// scale; no incremental ledger is kept.
func (s *Service) GetBalances(ctx context.Context, userID int64) (*Balances, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.InHousehold() {
		return nil, ErrNotInHousehold
	}
	householdID := *user.HouseholdID

	pending, err := s.expenses.ListPendingByHousehold(householdID)
	if err != nil {
		return nil, err
	}

	debts := make(map[int64]float64)
	credits := make(map[int64]float64)
	for _, p := range pending {
		if p.OwedBy == p.PaidBy {
			continue // a user never owes themselves
		}
		if p.OwedBy == userID {
			debts[p.PaidBy] += p.Amount
		}
		if p.PaidBy == userID {
			credits[p.OwedBy] += p.Amount
		}
	}

	names, err := s.memberNames(householdID)
	if err != nil {
		return nil, err
	}

	b := &Balances{
		Debts:   entries(debts, names),
		Credits: entries(credits, names),
	}
	for _, e := range b.Debts {
		b.YouOwe += e.Amount
	}
	for _, e := range b.Credits {
		b.YouAreOwed += e.Amount
	}
	return b, nil
}

// List returns the household's expenses with their splits, newest
// first.
func (s *Service) List(ctx context.Context, userID int64) ([]model.Expense, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.InHousehold() {
		return nil, ErrNotInHousehold
	}

	expenses, err := s.expenses.ListByHousehold(*user.HouseholdID)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		splits, err := s.expenses.ListSplits(expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].Splits = splits
	}
	return expenses, nil
}

func (s *Service) memberNames(householdID int64) (map[int64]string, error) {
	members, err := s.users.ListByHousehold(householdID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names, nil
}

func entries(amounts map[int64]float64, names map[int64]string) []BalanceEntry {
	out := make([]BalanceEntry, 0, len(amounts))
	for id, amount := range amounts {
		out = append(out, BalanceEntry{UserID: id, Name: names[id], Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
