package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Expense struct {
	ID           int             `json:"id,omitempty" db:"id,omitempty"`
	GroupID      int             `json:"group_id,omitempty" db:"group_id,omitempty"`
	PayerID      int             `json:"payer_id,omitempty" db:"payer_id,omitempty"`
	Name         string          `json:"name,omitempty" db:"name,omitempty"`
	Description  string          `json:"description,omitempty" db:"description,omitempty"`
	Category     string          `json:"category,omitempty" db:"category,omitempty"`
	Amount       decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	Currency     string          `json:"currency,omitempty" db:"currency,omitempty"`
	Distribution string          `json:"distribution,omitempty" db:"distribution,omitempty"`
	CreatedAt    sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
}
