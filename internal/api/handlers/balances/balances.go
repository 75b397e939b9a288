package balances

import (
	"context"
	"database/sql"
	"net/http"
	"splitter/internal/api/handlers"
	"splitter/internal/ledger"
	"splitter/internal/repositories/sqlconnect"
	"splitter/pkg/utils"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FUNC TO LIST EVERYTHING I OWE ACROSS ALL GROUPS
func GetMyDebtsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	type debtView struct {
		ID          int             `json:"id"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		ExpenseID   int             `json:"expense_id"`
		ExpenseName string          `json:"expense_name"`
		PayerName   string          `json:"payer_name"`
		GroupID     int             `json:"group_id"`
		GroupName   string          `json:"group_name"`
		CreatedAt   sql.NullString  `json:"created_at"`
	}

	rows, err := db.QueryContext(ctx, `
		SELECT d.id, d.amount, d.currency, e.id, e.name, u.username, g.id, g.name, d.created_at
		FROM debts d
		JOIN expenses e ON d.expense_id = e.id
		JOIN users u ON e.payer_id = u.id
		JOIN groups g ON e.group_id = g.id
		WHERE d.debtor_id = ? AND e.payer_id != ?
		ORDER BY d.created_at DESC
	`, userID, userID)
	if err != nil {
		utils.WriteError(w, "failed to fetch debts", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var debts []debtView
	for rows.Next() {
		var d debtView
		if err := rows.Scan(&d.ID, &d.Amount, &d.Currency, &d.ExpenseID, &d.ExpenseName, &d.PayerName, &d.GroupID, &d.GroupName, &d.CreatedAt); err != nil {
			utils.Logger.Errorf("error scanning debt: %v", err)
			continue
		}
		debts = append(debts, d)
	}
	if err = rows.Err(); err != nil {
		utils.WriteError(w, "error reading debts", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"count":  len(debts),
		"debts":  debts,
	})
}

// FUNC TO GET MY DEBT TOTALS PER CURRENCY
func GetMyTotalsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT d.debtor_id, d.amount, d.currency
		FROM debts d
		JOIN expenses e ON d.expense_id = e.id
		WHERE d.debtor_id = ? AND e.payer_id != ?
	`, userID, userID)
	if err != nil {
		utils.WriteError(w, "failed to fetch debts", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var debts []ledger.Debt
	for rows.Next() {
		var d ledger.Debt
		var amount, currency string
		if err := rows.Scan(&d.DebtorID, &amount, &currency); err != nil {
			utils.WriteError(w, "error reading debts", http.StatusInternalServerError)
			return
		}
		d.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			utils.WriteError(w, "error reading debts", http.StatusInternalServerError)
			return
		}
		d.Currency = ledger.Currency(currency)
		debts = append(debts, d)
	}
	if err = rows.Err(); err != nil {
		utils.WriteError(w, "error reading debts", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"totals": ledger.TotalsByCurrency(userID, debts),
	})
}

// FUNC TO GET MY NET BALANCE WITH EVERY GROUP MEMBER
//
// Positive means the counterparty owes the caller, negative means the caller
// owes them. Pairs that cancel out to zero are left out entirely.
func GetGroupBalancesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	groupID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid group ID", http.StatusBadRequest)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	isMember, err := handlers.IsGroupMember(ctx, db, groupID, userID)
	if err != nil {
		utils.WriteError(w, "failed to verify group membership", http.StatusInternalServerError)
		return
	}
	if !isMember {
		utils.WriteError(w, "you are not a member of this group", http.StatusForbidden)
		return
	}

	expenses, err := loadGroupExpenseDebts(ctx, db, groupID)
	if err != nil {
		utils.Logger.Errorf("failed to load group debts: %v", err)
		utils.WriteError(w, "failed to compute balances", http.StatusInternalServerError)
		return
	}

	entries := ledger.NetBalances(userID, expenses)

	type balanceView struct {
		CounterpartyID   int             `json:"user_id"`
		CounterpartyName string          `json:"username"`
		Currency         string          `json:"currency"`
		Amount           decimal.Decimal `json:"amount"`
	}

	balances := make([]balanceView, 0, len(entries))
	for _, entry := range entries {
		name, err := usernameByID(ctx, db, entry.CounterpartyID)
		if err != nil {
			utils.Logger.Errorf("failed to resolve username for %d: %v", entry.CounterpartyID, err)
			utils.WriteError(w, "failed to compute balances", http.StatusInternalServerError)
			return
		}
		balances = append(balances, balanceView{
			CounterpartyID:   entry.CounterpartyID,
			CounterpartyName: name,
			Currency:         string(entry.Currency),
			Amount:           entry.Amount,
		})
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":   "success",
		"group_id": groupID,
		"balances": balances,
	})
}

// loadGroupExpenseDebts reads every expense of the group with its debt rows,
// in the shape the netting engine consumes.
func loadGroupExpenseDebts(ctx context.Context, db *sql.DB, groupID int) ([]ledger.ExpenseDebts, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT e.id, e.payer_id, e.currency, d.debtor_id, d.amount, d.currency
		FROM expenses e
		JOIN debts d ON d.expense_id = e.id
		WHERE e.group_id = ?
		ORDER BY e.id
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byExpense := make(map[int]*ledger.ExpenseDebts)
	var order []int
	for rows.Next() {
		var expenseID, payerID, debtorID int
		var expenseCurrency, amount, debtCurrency string
		if err := rows.Scan(&expenseID, &payerID, &expenseCurrency, &debtorID, &amount, &debtCurrency); err != nil {
			return nil, err
		}

		ed, ok := byExpense[expenseID]
		if !ok {
			ed = &ledger.ExpenseDebts{
				ExpenseID: expenseID,
				PayerID:   payerID,
				Currency:  ledger.Currency(expenseCurrency),
			}
			byExpense[expenseID] = ed
			order = append(order, expenseID)
		}

		debtAmount, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		ed.Debts = append(ed.Debts, ledger.Debt{
			DebtorID: debtorID,
			Amount:   debtAmount,
			Currency: ledger.Currency(debtCurrency),
		})
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	expenses := make([]ledger.ExpenseDebts, 0, len(order))
	for _, id := range order {
		expenses = append(expenses, *byExpense[id])
	}
	return expenses, nil
}

func usernameByID(ctx context.Context, db *sql.DB, userID int) (string, error) {
	var name string
	err := db.QueryRowContext(ctx, "SELECT username FROM users WHERE id = ?", userID).Scan(&name)
	if err == sql.ErrNoRows {
		return "unknown", nil
	}
	return name, err
}
