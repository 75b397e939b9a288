// Package ledger implements the debt allocation engine and the balance
// netting aggregator. Both are pure computations over data the surrounding
// handlers load from storage: allocation turns one expense into the set of
// individual debts that must exist for it, netting folds all debts between
// two parties into one signed balance per currency.
//
// All monetary arithmetic uses shopspring/decimal. Amounts carry at most two
// decimal places (the minor unit of every supported currency).
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DistributionMode is the policy by which an expense total is divided.
type DistributionMode string

const (
	Equal        DistributionMode = "equal"
	ExactAmounts DistributionMode = "exact_amounts"
	Proportional DistributionMode = "proportional"
)

// DistributionModes returns every supported distribution mode.
func DistributionModes() []DistributionMode {
	return []DistributionMode{Equal, ExactAmounts, Proportional}
}

// ParseDistributionMode validates a distribution mode name.
func ParseDistributionMode(s string) (DistributionMode, error) {
	switch DistributionMode(s) {
	case Equal, ExactAmounts, Proportional:
		return DistributionMode(s), nil
	}
	return "", fmt.Errorf("unsupported distribution mode %q", s)
}

var (
	// ErrInvalidInput reports malformed participant data. The originating
	// request must be rejected without touching storage.
	ErrInvalidInput = errors.New("invalid allocation input")

	// ErrAllocationMismatch reports that the computed debt amounts do not sum
	// exactly to the expense total. No partial result is ever returned.
	ErrAllocationMismatch = errors.New("debt amounts do not sum to the expense amount")
)

// ExactShare is one participant's verbatim amount in exact_amounts mode.
type ExactShare struct {
	UserID int
	Amount decimal.Decimal
}

// PercentShare is one participant's percentage in proportional mode.
// Percent may carry fractional digits but must lie in [0,100].
type PercentShare struct {
	UserID  int
	Percent decimal.Decimal
}

// AllocationInput describes one expense to be divided into debts. Exactly one
// of the participant fields is consulted, matching Mode.
type AllocationInput struct {
	TotalAmount decimal.Decimal
	Currency    Currency
	Mode        DistributionMode

	UserIDs       []int          // equal
	ExactShares   []ExactShare   // exact_amounts
	PercentShares []PercentShare // proportional
}

// Share is one participant's computed portion of an expense.
type Share struct {
	UserID int
	Amount decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// hasMinorUnits reports whether d fits in the currency's minor unit,
// i.e. carries no more than two decimal places.
func hasMinorUnits(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// Allocate divides input.TotalAmount among the participants according to the
// distribution mode. The returned shares always sum exactly to the total; if
// the mode cannot guarantee that (exact amounts supplied by the client,
// proportional rounding drift) the call fails with ErrAllocationMismatch.
//
// Share order is deterministic: ascending user ID for equal mode, input order
// otherwise.
func Allocate(input AllocationInput) ([]Share, error) {
	if err := validate(input); err != nil {
		return nil, err
	}

	var shares []Share
	switch input.Mode {
	case Equal:
		shares = splitEqually(input.TotalAmount, input.UserIDs)
	case ExactAmounts:
		shares = make([]Share, len(input.ExactShares))
		for i, es := range input.ExactShares {
			shares[i] = Share{UserID: es.UserID, Amount: es.Amount}
		}
	case Proportional:
		shares = make([]Share, len(input.PercentShares))
		for i, ps := range input.PercentShares {
			amount := input.TotalAmount.Mul(ps.Percent).Div(oneHundred).Round(2)
			shares[i] = Share{UserID: ps.UserID, Amount: amount}
		}
	}

	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	if !sum.Equal(input.TotalAmount) {
		return nil, fmt.Errorf("%w: got %s, expense amount is %s",
			ErrAllocationMismatch, sum.StringFixed(2), input.TotalAmount.StringFixed(2))
	}
	return shares, nil
}

// splitEqually divides the total in integer minor units. Every participant
// receives the same base share; the first total-mod-n participants in
// ascending user ID order absorb one extra minor unit each, so the shares
// always sum exactly to the total.
func splitEqually(total decimal.Decimal, userIDs []int) []Share {
	ids := make([]int, len(userIDs))
	copy(ids, userIDs)
	sort.Ints(ids)

	cents := total.Mul(oneHundred).IntPart()
	n := int64(len(ids))
	base := cents / n
	remainder := cents % n

	shares := make([]Share, len(ids))
	for i, id := range ids {
		c := base
		if int64(i) < remainder {
			c++
		}
		shares[i] = Share{UserID: id, Amount: decimal.New(c, -2)}
	}
	return shares
}

func validate(input AllocationInput) error {
	if _, err := ParseCurrency(string(input.Currency)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := ParseDistributionMode(string(input.Mode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !input.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: expense amount must be positive", ErrInvalidInput)
	}
	if !hasMinorUnits(input.TotalAmount) {
		return fmt.Errorf("%w: expense amount has more than 2 decimal places", ErrInvalidInput)
	}

	seen := make(map[int]bool)
	noDuplicate := func(userID int) error {
		if seen[userID] {
			return fmt.Errorf("%w: duplicate participant %d", ErrInvalidInput, userID)
		}
		seen[userID] = true
		return nil
	}

	switch input.Mode {
	case Equal:
		if len(input.UserIDs) == 0 {
			return fmt.Errorf("%w: no participants", ErrInvalidInput)
		}
		for _, id := range input.UserIDs {
			if err := noDuplicate(id); err != nil {
				return err
			}
		}
	case ExactAmounts:
		if len(input.ExactShares) == 0 {
			return fmt.Errorf("%w: no participants", ErrInvalidInput)
		}
		for _, es := range input.ExactShares {
			if err := noDuplicate(es.UserID); err != nil {
				return err
			}
			if es.Amount.IsNegative() {
				return fmt.Errorf("%w: negative amount for participant %d", ErrInvalidInput, es.UserID)
			}
			if !hasMinorUnits(es.Amount) {
				return fmt.Errorf("%w: amount for participant %d has more than 2 decimal places", ErrInvalidInput, es.UserID)
			}
		}
	case Proportional:
		if len(input.PercentShares) == 0 {
			return fmt.Errorf("%w: no participants", ErrInvalidInput)
		}
		for _, ps := range input.PercentShares {
			if err := noDuplicate(ps.UserID); err != nil {
				return err
			}
			if ps.Percent.IsNegative() || ps.Percent.GreaterThan(oneHundred) {
				return fmt.Errorf("%w: percent for participant %d must be between 0 and 100", ErrInvalidInput, ps.UserID)
			}
		}
	}
	return nil
}
