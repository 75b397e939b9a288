package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Debt is one group member's share of an expense. Its currency always equals
// the parent expense's currency.
type Debt struct {
	ID        int             `json:"id,omitempty" db:"id,omitempty"`
	ExpenseID int             `json:"expense_id,omitempty" db:"expense_id,omitempty"`
	DebtorID  int             `json:"debtor_id,omitempty" db:"debtor_id,omitempty"`
	Amount    decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	Currency  string          `json:"currency,omitempty" db:"currency,omitempty"`
	CreatedAt sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
}
