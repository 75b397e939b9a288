package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Debt is a debt row annotated with just what the aggregator needs.
type Debt struct {
	DebtorID int
	Amount   decimal.Decimal
	Currency Currency
}

// ExpenseDebts carries the debts of one expense together with its payer and
// currency, as loaded by the caller for a whole group.
type ExpenseDebts struct {
	ExpenseID int
	PayerID   int
	Currency  Currency
	Debts     []Debt
}

// BalanceEntry is one netted balance against a counterparty in one currency.
// Positive means the counterparty owes the subject user, negative means the
// subject user owes the counterparty. A zero balance is never emitted.
type BalanceEntry struct {
	CounterpartyID int             `json:"user_id"`
	Currency       Currency        `json:"currency"`
	Amount         decimal.Decimal `json:"amount"`
}

// CurrencyTotal is a one-directional per-currency sum.
type CurrencyTotal struct {
	Currency Currency        `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

type balanceKey struct {
	counterparty int
	currency     Currency
}

// Accumulator sums signed amounts per (counterparty, currency) pair. It is
// the single data structure behind netting: owed-to-me amounts are added,
// I-owe amounts are subtracted, and Drain elides pairs that cancel to zero.
type Accumulator struct {
	sums map[balanceKey]decimal.Decimal
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{sums: make(map[balanceKey]decimal.Decimal)}
}

// Add folds a signed amount into the (counterparty, currency) running sum.
func (a *Accumulator) Add(counterpartyID int, currency Currency, amount decimal.Decimal) {
	key := balanceKey{counterparty: counterpartyID, currency: currency}
	a.sums[key] = a.sums[key].Add(amount)
}

// Drain returns the accumulated balances with zero entries elided, sorted by
// counterparty then currency. The accumulator is left empty.
func (a *Accumulator) Drain() []BalanceEntry {
	entries := make([]BalanceEntry, 0, len(a.sums))
	for key, amount := range a.sums {
		if amount.IsZero() {
			continue
		}
		entries = append(entries, BalanceEntry{
			CounterpartyID: key.counterparty,
			Currency:       key.currency,
			Amount:         amount,
		})
	}
	a.sums = make(map[balanceKey]decimal.Decimal)

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CounterpartyID != entries[j].CounterpartyID {
			return entries[i].CounterpartyID < entries[j].CounterpartyID
		}
		return entries[i].Currency < entries[j].Currency
	})
	return entries
}

// TotalsByCurrency sums everything userID owes across the given debts,
// grouped by currency and sorted by currency code. Debts of other users are
// ignored; there is no netting against amounts owed to the user.
func TotalsByCurrency(userID int, debts []Debt) []CurrencyTotal {
	byCurrency := make(map[Currency]decimal.Decimal)
	for _, d := range debts {
		if d.DebtorID != userID {
			continue
		}
		byCurrency[d.Currency] = byCurrency[d.Currency].Add(d.Amount)
	}

	totals := make([]CurrencyTotal, 0, len(byCurrency))
	for currency, amount := range byCurrency {
		totals = append(totals, CurrencyTotal{Currency: currency, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Currency < totals[j].Currency })
	return totals
}

// NetBalances nets userID's position against every other member over all
// expenses of a group. Expenses paid by someone else contribute the user's
// own debt as owed-by-me to that payer; expenses paid by the user contribute
// every other debtor's debt as owed-to-me. Pairs that cancel to zero are
// absent from the result, and the result does not depend on expense order.
func NetBalances(userID int, expenses []ExpenseDebts) []BalanceEntry {
	acc := NewAccumulator()
	for _, expense := range expenses {
		if expense.PayerID == userID {
			for _, d := range expense.Debts {
				if d.DebtorID == userID {
					continue
				}
				acc.Add(d.DebtorID, d.Currency, d.Amount)
			}
			continue
		}
		for _, d := range expense.Debts {
			if d.DebtorID == userID {
				acc.Add(expense.PayerID, d.Currency, d.Amount.Neg())
			}
		}
	}
	return acc.Drain()
}
