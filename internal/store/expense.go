package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/evanmcd/splitnest/internal/model"
)

type ExpenseStore struct {
	db DBTX
}

func NewExpenseStore(db DBTX) *ExpenseStore {
	return &ExpenseStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *ExpenseStore) WithTx(tx *sql.Tx) *ExpenseStore {
	return &ExpenseStore{db: tx}
}

func scanExpense(scanner interface{ Scan(...any) error }) (*model.Expense, error) {
	var e model.Expense
	err := scanner.Scan(
		&e.ID, &e.HouseholdID, &e.Description, &e.TotalAmount,
		&e.PaidBy, &e.CreatedBy, &e.Category, &e.SpentAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanSplit(scanner interface{ Scan(...any) error }) (*model.ExpenseSplit, error) {
	var sp model.ExpenseSplit
	var settledAt sql.NullTime
	err := scanner.Scan(&sp.ID, &sp.ExpenseID, &sp.OwedBy, &sp.Amount, &sp.Status, &settledAt, &sp.CreatedAt)
	if err != nil {
		return nil, err
	}
	if settledAt.Valid {
		sp.SettledAt = &settledAt.Time
	}
	return &sp, nil
}

const expenseCols = `id, household_id, description, total_amount, paid_by, created_by, category, spent_at, created_at`
const splitCols = `id, expense_id, owed_by, amount, status, settled_at, created_at`

func (s *ExpenseStore) Insert(householdID int64, description string, totalAmount float64, paidBy, createdBy int64, category string, spentAt time.Time) (*model.Expense, error) {
	result, err := s.db.Exec(
		`INSERT INTO expenses (household_id, description, total_amount, paid_by, created_by, category, spent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		householdID, description, totalAmount, paidBy, createdBy, category, spentAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ExpenseStore) InsertSplit(expenseID, owedBy int64, amount float64) (*model.ExpenseSplit, error) {
	result, err := s.db.Exec(
		`INSERT INTO expense_splits (expense_id, owed_by, amount) VALUES (?, ?, ?)`,
		expenseID, owedBy, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense split: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+splitCols+` FROM expense_splits WHERE id = ?`, id)
	return scanSplit(row)
}

func (s *ExpenseStore) GetByID(id int64) (*model.Expense, error) {
	row := s.db.QueryRow(`SELECT `+expenseCols+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseStore) GetSplitByID(id int64) (*model.ExpenseSplit, error) {
	row := s.db.QueryRow(`SELECT `+splitCols+` FROM expense_splits WHERE id = ?`, id)
	sp, err := scanSplit(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense split: %w", err)
	}
	return sp, nil
}

func (s *ExpenseStore) ListSplits(expenseID int64) ([]model.ExpenseSplit, error) {
	rows, err := s.db.Query(
		`SELECT `+splitCols+` FROM expense_splits WHERE expense_id = ? ORDER BY id ASC`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expense splits: %w", err)
	}
	defer rows.Close()

	var splits []model.ExpenseSplit
	for rows.Next() {
		sp, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense split: %w", err)
		}
		splits = append(splits, *sp)
	}
	return splits, rows.Err()
}

func (s *ExpenseStore) ListByHousehold(householdID int64) ([]model.Expense, error) {
	rows, err := s.db.Query(
		`SELECT `+expenseCols+` FROM expenses WHERE household_id = ? ORDER BY spent_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// SettleSplit marks a pending split as settled. Returns the number of
// rows changed; settling an already-settled split changes nothing.
func (s *ExpenseStore) SettleSplit(splitID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE expense_splits SET status = 'settled', settled_at = datetime('now')
		 WHERE id = ? AND status = 'pending'`,
		splitID,
	)
	if err != nil {
		return 0, fmt.Errorf("settle split: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// SettleAllWith settles every pending split owed by owedBy on expenses
// paid by paidBy, returning the count settled.
func (s *ExpenseStore) SettleAllWith(owedBy, paidBy int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE expense_splits SET status = 'settled', settled_at = datetime('now')
		 WHERE owed_by = ? AND status = 'pending'
		   AND expense_id IN (SELECT id FROM expenses WHERE paid_by = ?)`,
		owedBy, paidBy,
	)
	if err != nil {
		return 0, fmt.Errorf("settle splits with user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// PendingSplit joins a pending split with its expense's payer, the
// shape balance aggregation works over.
type PendingSplit struct {
	SplitID   int64
	ExpenseID int64
	OwedBy    int64
	PaidBy    int64
	Amount    float64
}

func (s *ExpenseStore) ListPendingByHousehold(householdID int64) ([]PendingSplit, error) {
	rows, err := s.db.Query(
		`SELECT sp.id, sp.expense_id, sp.owed_by, e.paid_by, sp.amount
		 FROM expense_splits sp
		 JOIN expenses e ON e.id = sp.expense_id
		 WHERE e.household_id = ? AND sp.status = 'pending'`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending splits: %w", err)
	}
	defer rows.Close()

	var pending []PendingSplit
	for rows.Next() {
		var p PendingSplit
		if err := rows.Scan(&p.SplitID, &p.ExpenseID, &p.OwedBy, &p.PaidBy, &p.Amount); err != nil {
			return nil, fmt.Errorf("scan pending split: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}
