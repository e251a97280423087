package model

import "time"

const (
	SplitPending = "pending"
	SplitSettled = "settled"
)

type Expense struct {
	ID          int64          `json:"id"`
	HouseholdID int64          `json:"household_id"`
	Description string         `json:"description"`
	TotalAmount float64        `json:"total_amount"`
	PaidBy      int64          `json:"paid_by"`
	CreatedBy   int64          `json:"created_by"`
	Category    string         `json:"category"`
	SpentAt     time.Time      `json:"spent_at"`
	CreatedAt   time.Time      `json:"created_at"`
	Splits      []ExpenseSplit `json:"splits,omitempty"`
}

type ExpenseSplit struct {
	ID        int64      `json:"id"`
	ExpenseID int64      `json:"expense_id"`
	OwedBy    int64      `json:"owed_by"`
	Amount    float64    `json:"amount"`
	Status    string     `json:"status"`
	SettledAt *time.Time `json:"settled_at"`
	CreatedAt time.Time  `json:"created_at"`
}
