package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestAllocateEqual(t *testing.T) {
	tests := []struct {
		name    string
		total   string
		userIDs []int
		want    map[int]string
	}{
		{
			name:    "even split",
			total:   "30.00",
			userIDs: []int{1, 2, 3},
			want:    map[int]string{1: "10.00", 2: "10.00", 3: "10.00"},
		},
		{
			name:    "remainder goes to lowest user IDs",
			total:   "10.00",
			userIDs: []int{3, 1, 2},
			want:    map[int]string{1: "3.34", 2: "3.33", 3: "3.33"},
		},
		{
			name:    "two cents remainder",
			total:   "0.05",
			userIDs: []int{7, 5, 9},
			want:    map[int]string{5: "0.02", 7: "0.02", 9: "0.01"},
		},
		{
			name:    "single participant",
			total:   "42.50",
			userIDs: []int{4},
			want:    map[int]string{4: "42.50"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Allocate(AllocationInput{
				TotalAmount: dec(tt.total),
				Currency:    EUR,
				Mode:        Equal,
				UserIDs:     tt.userIDs,
			})
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}
			if len(shares) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.want))
			}
			sum := decimal.Zero
			prevID := -1
			for _, s := range shares {
				if s.UserID <= prevID {
					t.Errorf("shares not in ascending user ID order: %d after %d", s.UserID, prevID)
				}
				prevID = s.UserID
				if want := tt.want[s.UserID]; !s.Amount.Equal(dec(want)) {
					t.Errorf("user %d share = %s, want %s", s.UserID, s.Amount, want)
				}
				sum = sum.Add(s.Amount)
			}
			if !sum.Equal(dec(tt.total)) {
				t.Errorf("shares sum to %s, want %s", sum, tt.total)
			}
		})
	}
}

func TestAllocateEqualFairness(t *testing.T) {
	// Every share is floor(total/n) or one cent above, and exactly
	// total mod n participants receive the extra cent.
	total := dec("100.00")
	userIDs := []int{1, 2, 3, 4, 5, 6, 7}

	shares, err := Allocate(AllocationInput{
		TotalAmount: total,
		Currency:    USD,
		Mode:        Equal,
		UserIDs:     userIDs,
	})
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	floor := dec("14.28")
	ceil := dec("14.29")
	extras := 0
	for _, s := range shares {
		switch {
		case s.Amount.Equal(ceil):
			extras++
		case s.Amount.Equal(floor):
		default:
			t.Errorf("user %d share = %s, want %s or %s", s.UserID, s.Amount, floor, ceil)
		}
	}
	if extras != 4 { // 10000 mod 7
		t.Errorf("%d participants got the extra cent, want 4", extras)
	}
}

func TestAllocateExactAmounts(t *testing.T) {
	input := AllocationInput{
		TotalAmount: dec("25.00"),
		Currency:    HUF,
		Mode:        ExactAmounts,
		ExactShares: []ExactShare{
			{UserID: 9, Amount: dec("12.75")},
			{UserID: 2, Amount: dec("12.25")},
		},
	}
	shares, err := Allocate(input)
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	// Amounts are returned verbatim, in input order.
	for i, es := range input.ExactShares {
		if shares[i].UserID != es.UserID || !shares[i].Amount.Equal(es.Amount) {
			t.Errorf("share[%d] = {%d %s}, want {%d %s}",
				i, shares[i].UserID, shares[i].Amount, es.UserID, es.Amount)
		}
	}
}

func TestAllocateExactAmountsMismatch(t *testing.T) {
	_, err := Allocate(AllocationInput{
		TotalAmount: dec("25.00"),
		Currency:    HUF,
		Mode:        ExactAmounts,
		ExactShares: []ExactShare{
			{UserID: 1, Amount: dec("12.75")},
			{UserID: 2, Amount: dec("12.26")},
		},
	})
	if !errors.Is(err, ErrAllocationMismatch) {
		t.Fatalf("Allocate() error = %v, want ErrAllocationMismatch", err)
	}
}

func TestAllocateProportional(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		percents map[int]string
		want     map[int]string
		wantErr  error
	}{
		{
			name:     "33/33/34 adds up",
			total:    "100.00",
			percents: map[int]string{1: "33", 2: "33", 3: "34"},
			want:     map[int]string{1: "33.00", 2: "33.00", 3: "34.00"},
		},
		{
			name:     "33/33/33 drifts and is rejected",
			total:    "100.00",
			percents: map[int]string{1: "33", 2: "33", 3: "33"},
			wantErr:  ErrAllocationMismatch,
		},
		{
			name:     "half and half",
			total:    "20.00",
			percents: map[int]string{4: "50", 8: "50"},
			want:     map[int]string{4: "10.00", 8: "10.00"},
		},
		{
			name:     "fractional percents",
			total:    "200.00",
			percents: map[int]string{1: "12.5", 2: "87.5"},
			want:     map[int]string{1: "25.00", 2: "175.00"},
		},
		{
			name:     "rounding drift on uneven total",
			total:    "0.01",
			percents: map[int]string{1: "50", 2: "50"},
			wantErr:  ErrAllocationMismatch, // both round to 0.01, sum 0.02
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := AllocationInput{
				TotalAmount: dec(tt.total),
				Currency:    EUR,
				Mode:        Proportional,
			}
			for id, pct := range tt.percents {
				input.PercentShares = append(input.PercentShares, PercentShare{UserID: id, Percent: dec(pct)})
			}

			shares, err := Allocate(input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Allocate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Allocate() error = %v", err)
			}
			for _, s := range shares {
				if want := tt.want[s.UserID]; !s.Amount.Equal(dec(want)) {
					t.Errorf("user %d share = %s, want %s", s.UserID, s.Amount, want)
				}
			}
		})
	}
}

func TestAllocateInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input AllocationInput
	}{
		{
			name: "zero amount",
			input: AllocationInput{
				TotalAmount: decimal.Zero, Currency: EUR, Mode: Equal, UserIDs: []int{1},
			},
		},
		{
			name: "negative amount",
			input: AllocationInput{
				TotalAmount: dec("-5.00"), Currency: EUR, Mode: Equal, UserIDs: []int{1},
			},
		},
		{
			name: "over-precise amount",
			input: AllocationInput{
				TotalAmount: dec("10.005"), Currency: EUR, Mode: Equal, UserIDs: []int{1},
			},
		},
		{
			name: "no participants",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: EUR, Mode: Equal,
			},
		},
		{
			name: "duplicate participants",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: EUR, Mode: Equal, UserIDs: []int{1, 2, 1},
			},
		},
		{
			name: "unknown currency",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: "XXX", Mode: Equal, UserIDs: []int{1},
			},
		},
		{
			name: "unknown mode",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: EUR, Mode: "randomly", UserIDs: []int{1},
			},
		},
		{
			name: "negative exact amount",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: EUR, Mode: ExactAmounts,
				ExactShares: []ExactShare{{UserID: 1, Amount: dec("-1.00")}, {UserID: 2, Amount: dec("11.00")}},
			},
		},
		{
			name: "over-precise exact amount",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: EUR, Mode: ExactAmounts,
				ExactShares: []ExactShare{{UserID: 1, Amount: dec("4.999")}, {UserID: 2, Amount: dec("5.001")}},
			},
		},
		{
			name: "percent above 100",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: EUR, Mode: Proportional,
				PercentShares: []PercentShare{{UserID: 1, Percent: dec("101")}},
			},
		},
		{
			name: "negative percent",
			input: AllocationInput{
				TotalAmount: dec("10.00"), Currency: EUR, Mode: Proportional,
				PercentShares: []PercentShare{{UserID: 1, Percent: dec("-1")}, {UserID: 2, Percent: dec("101")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Allocate(tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Allocate() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestPlanReallocation(t *testing.T) {
	existing := []DebtRecord{
		{ID: 11, DebtorID: 1, Amount: dec("10.00"), Currency: EUR},
		{ID: 12, DebtorID: 2, Amount: dec("10.00"), Currency: EUR},
		{ID: 13, DebtorID: 3, Amount: dec("10.00"), Currency: EUR},
	}
	shares := []Share{
		{UserID: 1, Amount: dec("10.00")}, // unchanged
		{UserID: 2, Amount: dec("15.00")}, // amount changed
		{UserID: 4, Amount: dec("5.00")},  // new debtor
	}

	plan := PlanReallocation(existing, shares, EUR)

	if len(plan.Create) != 1 || plan.Create[0].UserID != 4 || !plan.Create[0].Amount.Equal(dec("5.00")) {
		t.Errorf("Create = %+v, want one share for user 4 of 5.00", plan.Create)
	}
	if len(plan.Update) != 1 || plan.Update[0].ID != 12 || !plan.Update[0].Amount.Equal(dec("15.00")) {
		t.Errorf("Update = %+v, want debt 12 set to 15.00", plan.Update)
	}
	if len(plan.Delete) != 1 || plan.Delete[0] != 13 {
		t.Errorf("Delete = %+v, want [13]", plan.Delete)
	}
}

func TestPlanReallocationCurrencyChange(t *testing.T) {
	// Changing the expense currency must rewrite every retained debt, even
	// when the amount is untouched.
	existing := []DebtRecord{
		{ID: 21, DebtorID: 1, Amount: dec("10.00"), Currency: EUR},
	}
	shares := []Share{{UserID: 1, Amount: dec("10.00")}}

	plan := PlanReallocation(existing, shares, USD)
	if len(plan.Update) != 1 || plan.Update[0].Currency != USD {
		t.Fatalf("Update = %+v, want debt 21 restamped to USD", plan.Update)
	}
}

func TestPlanReallocationNoChanges(t *testing.T) {
	existing := []DebtRecord{
		{ID: 31, DebtorID: 1, Amount: dec("7.50"), Currency: GBP},
		{ID: 32, DebtorID: 2, Amount: dec("7.50"), Currency: GBP},
	}
	shares := []Share{
		{UserID: 1, Amount: dec("7.50")},
		{UserID: 2, Amount: dec("7.50")},
	}
	if plan := PlanReallocation(existing, shares, GBP); !plan.Empty() {
		t.Fatalf("plan = %+v, want empty", plan)
	}
}
