package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a recurring cost entry, independent of any customer.
type Expense struct {
	ID     string          `json:"id"`
	Date   time.Time       `json:"date"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// ExpenseRequest carries expense fields from a JSON caller.
type ExpenseRequest struct {
	Date   string          `json:"date" validate:"required"`
	Type   string          `json:"type" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
	Notes  string          `json:"notes"`
}

// ToExpense converts the request into a domain Expense without an identifier.
func (r ExpenseRequest) ToExpense() (Expense, error) {
	date, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return Expense{}, fmt.Errorf("invalid date: %w", err)
	}
	if r.Amount.IsNegative() {
		return Expense{}, fmt.Errorf("amount must not be negative")
	}
	return Expense{
		Date:   date,
		Type:   r.Type,
		Amount: r.Amount,
		Notes:  r.Notes,
	}, nil
}
