package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTotalsByCurrency(t *testing.T) {
	debts := []Debt{
		{DebtorID: 1, Amount: dec("10.00"), Currency: EUR},
		{DebtorID: 1, Amount: dec("2.50"), Currency: EUR},
		{DebtorID: 1, Amount: dec("1500.00"), Currency: HUF},
		{DebtorID: 2, Amount: dec("99.00"), Currency: EUR}, // someone else's debt
	}

	totals := TotalsByCurrency(1, debts)
	if len(totals) != 2 {
		t.Fatalf("got %d totals, want 2", len(totals))
	}
	if totals[0].Currency != EUR || !totals[0].Amount.Equal(dec("12.50")) {
		t.Errorf("totals[0] = %+v, want 12.50 EUR", totals[0])
	}
	if totals[1].Currency != HUF || !totals[1].Amount.Equal(dec("1500.00")) {
		t.Errorf("totals[1] = %+v, want 1500.00 HUF", totals[1])
	}
}

func TestTotalsByCurrencyEmpty(t *testing.T) {
	if totals := TotalsByCurrency(1, nil); len(totals) != 0 {
		t.Fatalf("got %d totals for user with no debts, want 0", len(totals))
	}
}

func TestNetBalances(t *testing.T) {
	// User 1 paid 30.00 split three ways; user 2 paid 20.00 owed half by
	// user 1. Net against user 2: owed to me 10.00, I owe 10.00 -> elided.
	// Net against user 3: owed to me 10.00.
	expenses := []ExpenseDebts{
		{
			ExpenseID: 100, PayerID: 1, Currency: EUR,
			Debts: []Debt{
				{DebtorID: 2, Amount: dec("10.00"), Currency: EUR},
				{DebtorID: 3, Amount: dec("10.00"), Currency: EUR},
			},
		},
		{
			ExpenseID: 101, PayerID: 2, Currency: EUR,
			Debts: []Debt{
				{DebtorID: 1, Amount: dec("10.00"), Currency: EUR},
				{DebtorID: 3, Amount: dec("10.00"), Currency: EUR},
			},
		},
	}

	entries := NetBalances(1, expenses)
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want a single entry against user 3", entries)
	}
	if entries[0].CounterpartyID != 3 || !entries[0].Amount.Equal(dec("10.00")) {
		t.Errorf("entries[0] = %+v, want user 3 owing 10.00", entries[0])
	}
}

func TestNetBalancesSymmetry(t *testing.T) {
	expenses := []ExpenseDebts{
		{
			ExpenseID: 1, PayerID: 1, Currency: USD,
			Debts: []Debt{{DebtorID: 2, Amount: dec("5.00"), Currency: USD}},
		},
	}

	mine := NetBalances(1, expenses)
	theirs := NetBalances(2, expenses)
	if len(mine) != 1 || len(theirs) != 1 {
		t.Fatalf("mine = %+v, theirs = %+v, want one entry each", mine, theirs)
	}
	if !mine[0].Amount.Equal(dec("5.00")) || mine[0].CounterpartyID != 2 {
		t.Errorf("mine[0] = %+v, want +5.00 against user 2", mine[0])
	}
	if !theirs[0].Amount.Equal(dec("-5.00")) || theirs[0].CounterpartyID != 1 {
		t.Errorf("theirs[0] = %+v, want -5.00 against user 1", theirs[0])
	}
}

func TestNetBalancesCancellation(t *testing.T) {
	// Mutual 10.00 debts in the same currency cancel and are elided.
	expenses := []ExpenseDebts{
		{
			ExpenseID: 1, PayerID: 1, Currency: GBP,
			Debts: []Debt{{DebtorID: 2, Amount: dec("10.00"), Currency: GBP}},
		},
		{
			ExpenseID: 2, PayerID: 2, Currency: GBP,
			Debts: []Debt{{DebtorID: 1, Amount: dec("10.00"), Currency: GBP}},
		},
	}
	if entries := NetBalances(1, expenses); len(entries) != 0 {
		t.Fatalf("entries = %+v, want all settled", entries)
	}
}

func TestNetBalancesCurrenciesStaySeparate(t *testing.T) {
	// Equal amounts in different currencies must not cancel.
	expenses := []ExpenseDebts{
		{
			ExpenseID: 1, PayerID: 1, Currency: EUR,
			Debts: []Debt{{DebtorID: 2, Amount: dec("10.00"), Currency: EUR}},
		},
		{
			ExpenseID: 2, PayerID: 2, Currency: USD,
			Debts: []Debt{{DebtorID: 1, Amount: dec("10.00"), Currency: USD}},
		},
	}

	entries := NetBalances(1, expenses)
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want separate EUR and USD entries", entries)
	}
	if entries[0].Currency != EUR || !entries[0].Amount.Equal(dec("10.00")) {
		t.Errorf("entries[0] = %+v, want +10.00 EUR", entries[0])
	}
	if entries[1].Currency != USD || !entries[1].Amount.Equal(dec("-10.00")) {
		t.Errorf("entries[1] = %+v, want -10.00 USD", entries[1])
	}
}

func TestNetBalancesOrderIndependent(t *testing.T) {
	expenses := []ExpenseDebts{
		{ExpenseID: 1, PayerID: 1, Currency: EUR, Debts: []Debt{
			{DebtorID: 2, Amount: dec("3.00"), Currency: EUR},
			{DebtorID: 3, Amount: dec("4.00"), Currency: EUR},
		}},
		{ExpenseID: 2, PayerID: 2, Currency: EUR, Debts: []Debt{
			{DebtorID: 1, Amount: dec("7.25"), Currency: EUR},
		}},
		{ExpenseID: 3, PayerID: 3, Currency: HUF, Debts: []Debt{
			{DebtorID: 1, Amount: dec("900.00"), Currency: HUF},
			{DebtorID: 2, Amount: dec("900.00"), Currency: HUF},
		}},
	}

	want := NetBalances(1, expenses)

	permutations := [][]int{{0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, perm := range permutations {
		shuffled := make([]ExpenseDebts, len(expenses))
		for i, j := range perm {
			shuffled[i] = expenses[j]
		}
		got := NetBalances(1, shuffled)
		if len(got) != len(want) {
			t.Fatalf("permutation %v: got %d entries, want %d", perm, len(got), len(want))
		}
		for i := range got {
			if got[i].CounterpartyID != want[i].CounterpartyID ||
				got[i].Currency != want[i].Currency ||
				!got[i].Amount.Equal(want[i].Amount) {
				t.Errorf("permutation %v: entry %d = %+v, want %+v", perm, i, got[i], want[i])
			}
		}
	}
}

func TestNetBalancesEndToEnd(t *testing.T) {
	// Group {1,2,3}. Expense 1: paid by 1, 30.00 EUR equal among all three.
	// Expense 2: paid by 2, 20.00 EUR proportional 50/50 between 1 and 3.
	shares1, err := Allocate(AllocationInput{
		TotalAmount: dec("30.00"), Currency: EUR, Mode: Equal, UserIDs: []int{1, 2, 3},
	})
	if err != nil {
		t.Fatalf("Allocate(expense 1) error = %v", err)
	}
	shares2, err := Allocate(AllocationInput{
		TotalAmount: dec("20.00"), Currency: EUR, Mode: Proportional,
		PercentShares: []PercentShare{
			{UserID: 1, Percent: dec("50")},
			{UserID: 3, Percent: dec("50")},
		},
	})
	if err != nil {
		t.Fatalf("Allocate(expense 2) error = %v", err)
	}

	// The payer's own share is not stored as a debt.
	toDebts := func(payerID int, currency Currency, shares []Share) []Debt {
		var debts []Debt
		for _, s := range shares {
			if s.UserID == payerID {
				continue
			}
			debts = append(debts, Debt{DebtorID: s.UserID, Amount: s.Amount, Currency: currency})
		}
		return debts
	}

	expenses := []ExpenseDebts{
		{ExpenseID: 1, PayerID: 1, Currency: EUR, Debts: toDebts(1, EUR, shares1)},
		{ExpenseID: 2, PayerID: 2, Currency: EUR, Debts: toDebts(2, EUR, shares2)},
	}

	// User 1: owes 2 exactly what 2 owes back -> elided. Nothing against 3
	// from 1's perspective except the 10.00 owed to 1 from expense 1.
	entries := NetBalances(1, expenses)
	if len(entries) != 1 || entries[0].CounterpartyID != 3 || !entries[0].Amount.Equal(dec("10.00")) {
		t.Fatalf("user 1 entries = %+v, want only user 3 owing 10.00", entries)
	}

	// User 3 owes both payers.
	entries = NetBalances(3, expenses)
	if len(entries) != 2 {
		t.Fatalf("user 3 entries = %+v, want entries against users 1 and 2", entries)
	}
	if entries[0].CounterpartyID != 1 || !entries[0].Amount.Equal(dec("-10.00")) {
		t.Errorf("user 3 vs 1 = %+v, want -10.00", entries[0])
	}
	if entries[1].CounterpartyID != 2 || !entries[1].Amount.Equal(dec("-10.00")) {
		t.Errorf("user 3 vs 2 = %+v, want -10.00", entries[1])
	}
}

func TestAccumulatorDrain(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(2, EUR, dec("4.00"))
	acc.Add(2, EUR, dec("-4.00"))
	acc.Add(3, EUR, dec("1.00"))
	acc.Add(2, HUF, dec("250.00"))

	entries := acc.Drain()
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want zero pair elided", entries)
	}
	if entries[0].CounterpartyID != 2 || entries[0].Currency != HUF {
		t.Errorf("entries[0] = %+v, want user 2 HUF", entries[0])
	}
	if entries[1].CounterpartyID != 3 || !entries[1].Amount.Equal(dec("1.00")) {
		t.Errorf("entries[1] = %+v, want user 3 +1.00", entries[1])
	}

	if again := acc.Drain(); len(again) != 0 {
		t.Fatalf("second Drain() = %+v, want empty", again)
	}

	var zero decimal.Decimal
	acc.Add(5, USD, zero)
	if entries := acc.Drain(); len(entries) != 0 {
		t.Fatalf("zero-only entry = %+v, want elided", entries)
	}
}
