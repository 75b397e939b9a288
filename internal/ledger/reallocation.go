package ledger

import "github.com/shopspring/decimal"

// DebtRecord is a persisted debt row as loaded by the caller.
type DebtRecord struct {
	ID       int
	DebtorID int
	Amount   decimal.Decimal
	Currency Currency
}

// DebtUpdate changes the amount (and, after a currency change on the parent
// expense, the currency) of an existing debt row.
type DebtUpdate struct {
	ID       int
	Amount   decimal.Decimal
	Currency Currency
}

// ReallocationPlan is the complete create/update/delete set that turns the
// stored debts of an expense into the freshly allocated ones. The caller must
// apply all three lists inside a single transaction or not at all: a partial
// apply leaves debts that no longer sum to the expense amount.
type ReallocationPlan struct {
	Create []Share
	Update []DebtUpdate
	Delete []int // debt row IDs
}

// Empty reports whether the plan changes nothing.
func (p ReallocationPlan) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// PlanReallocation diffs the stored debts of an expense against newly
// allocated shares, keyed by debtor. Retained debtors whose amount and
// currency are unchanged are left alone; the rest are updated in place.
// Debtors missing from shares are deleted, debtors missing from existing are
// created. The currency is stamped on every created and updated debt so a
// debt can never disagree with its parent expense.
func PlanReallocation(existing []DebtRecord, shares []Share, currency Currency) ReallocationPlan {
	byDebtor := make(map[int]DebtRecord, len(existing))
	for _, d := range existing {
		byDebtor[d.DebtorID] = d
	}

	var plan ReallocationPlan
	kept := make(map[int]bool, len(shares))
	for _, s := range shares {
		kept[s.UserID] = true
		old, ok := byDebtor[s.UserID]
		if !ok {
			plan.Create = append(plan.Create, s)
			continue
		}
		if old.Amount.Equal(s.Amount) && old.Currency == currency {
			continue
		}
		plan.Update = append(plan.Update, DebtUpdate{ID: old.ID, Amount: s.Amount, Currency: currency})
	}
	for _, d := range existing {
		if !kept[d.DebtorID] {
			plan.Delete = append(plan.Delete, d.ID)
		}
	}
	return plan
}
