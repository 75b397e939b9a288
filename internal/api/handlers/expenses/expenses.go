package expenses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"splitter/internal/api/handlers"
	"splitter/internal/ledger"
	"splitter/internal/models"
	"splitter/internal/repositories/sqlconnect"
	"splitter/pkg/utils"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// expenseRequest is the payload shared by create and update. Exactly one of
// Participants, ExactShares or PercentShares is used depending on the
// distribution mode.
type expenseRequest struct {
	GroupID       int                   `json:"group_id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Category      string                `json:"category"`
	Amount        decimal.Decimal       `json:"amount"`
	Currency      string                `json:"currency"`
	Distribution  string                `json:"distribution"`
	Participants  []int                 `json:"participants"`
	ExactShares   []ledger.ExactShare   `json:"exact_shares"`
	PercentShares []ledger.PercentShare `json:"percent_shares"`
}

// allocate validates the request against the engine and returns the computed
// shares. The error message is already safe to send to the client.
func (req *expenseRequest) allocate() ([]ledger.Share, ledger.Currency, ledger.DistributionMode, error) {
	currency, err := ledger.ParseCurrency(req.Currency)
	if err != nil {
		return nil, "", "", err
	}

	mode, err := ledger.ParseDistributionMode(req.Distribution)
	if err != nil {
		return nil, "", "", err
	}

	input := ledger.AllocationInput{
		TotalAmount:   req.Amount,
		Currency:      currency,
		Mode:          mode,
		UserIDs:       req.Participants,
		ExactShares:   req.ExactShares,
		PercentShares: req.PercentShares,
	}

	shares, err := ledger.Allocate(input)
	if err != nil {
		return nil, "", "", err
	}
	return shares, currency, mode, nil
}

// participantIDs returns every user the allocation touches, whichever field
// the mode reads from.
func (req *expenseRequest) participantIDs() []int {
	switch ledger.DistributionMode(req.Distribution) {
	case ledger.ExactAmounts:
		ids := make([]int, 0, len(req.ExactShares))
		for _, s := range req.ExactShares {
			ids = append(ids, s.UserID)
		}
		return ids
	case ledger.Proportional:
		ids := make([]int, 0, len(req.PercentShares))
		for _, s := range req.PercentShares {
			ids = append(ids, s.UserID)
		}
		return ids
	default:
		return req.Participants
	}
}

func allocationStatus(err error) int {
	if errors.Is(err, ledger.ErrAllocationMismatch) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

// FUNC TO CREATE AN EXPENSE AND ITS DEBTS
func CreateExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	var req expenseRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.WriteError(w, "expense name is required", http.StatusBadRequest)
		return
	}

	shares, currency, mode, err := req.allocate()
	if err != nil {
		utils.WriteError(w, err.Error(), allocationStatus(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	isMember, err := handlers.IsGroupMember(ctx, db, req.GroupID, userID)
	if err != nil {
		utils.WriteError(w, "failed to verify group membership", http.StatusInternalServerError)
		return
	}
	if !isMember {
		utils.WriteError(w, "you are not a member of this group", http.StatusForbidden)
		return
	}

	// Everyone the expense is split between must be in the group too.
	for _, participantID := range req.participantIDs() {
		isMember, err := handlers.IsGroupMember(ctx, db, req.GroupID, participantID)
		if err != nil {
			utils.WriteError(w, "failed to verify group membership", http.StatusInternalServerError)
			return
		}
		if !isMember {
			utils.WriteError(w, "all participants must be members of the group", http.StatusBadRequest)
			return
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (group_id, payer_id, name, description, category, amount, currency, distribution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, req.GroupID, userID, req.Name, req.Description, req.Category, req.Amount.StringFixed(2), string(currency), string(mode))
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to insert expense: %v", err)
		utils.WriteError(w, "failed to record expense, try again later!", http.StatusInternalServerError)
		return
	}

	expenseID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := insertDebts(ctx, tx, expenseID, userID, shares, currency); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to insert debts: %v", err)
		utils.WriteError(w, "failed to record debts, try again later!", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to commit transaction", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "Expense recorded successfully",
		"data": map[string]interface{}{
			"expense_id": expenseID,
			"shares":     shares,
		},
	})
}

// insertDebts writes one debt row per share, skipping the payer's own share
// and zero shares. The payer does not owe themselves.
func insertDebts(ctx context.Context, tx *sql.Tx, expenseID int64, payerID int, shares []ledger.Share, currency ledger.Currency) error {
	for _, share := range shares {
		if share.UserID == payerID || share.Amount.IsZero() {
			continue
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO debts (expense_id, debtor_id, amount, currency) VALUES (?, ?, ?, ?)",
			expenseID, share.UserID, share.Amount.StringFixed(2), string(currency))
		if err != nil {
			return err
		}
	}
	return nil
}

// FUNC TO GET AN EXPENSE WITH ITS DEBTS
func GetExpenseByIDHandler(w http.ResponseWriter, r *http.Request) {
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

	expenseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var expense models.Expense
	var payerName string
	err = db.QueryRowContext(ctx, `
		SELECT e.id, e.group_id, e.payer_id, e.name, e.description, e.category,
		       e.amount, e.currency, e.distribution, e.created_at, u.username
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		WHERE e.id = ?
	`, expenseID).Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Name,
		&expense.Description, &expense.Category, &expense.Amount, &expense.Currency,
		&expense.Distribution, &expense.CreatedAt, &payerName)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "expense not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "failed to retrieve expense", http.StatusInternalServerError)
		return
	}

	isMember, err := handlers.IsGroupMember(ctx, db, expense.GroupID, userID)
	if err != nil {
		utils.WriteError(w, "failed to verify group membership", http.StatusInternalServerError)
		return
	}
	if !isMember {
		utils.WriteError(w, "you are not a member of this group", http.StatusForbidden)
		return
	}

	type debtView struct {
		ID         int             `json:"id"`
		DebtorID   int             `json:"debtor_id"`
		DebtorName string          `json:"debtor_name"`
		Amount     decimal.Decimal `json:"amount"`
		Currency   string          `json:"currency"`
	}

	rows, err := db.QueryContext(ctx, `
		SELECT d.id, d.debtor_id, u.username, d.amount, d.currency
		FROM debts d
		JOIN users u ON d.debtor_id = u.id
		WHERE d.expense_id = ?
		ORDER BY d.debtor_id
	`, expenseID)
	if err != nil {
		utils.WriteError(w, "failed to fetch debts", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var debts []debtView
	for rows.Next() {
		var d debtView
		if err := rows.Scan(&d.ID, &d.DebtorID, &d.DebtorName, &d.Amount, &d.Currency); err != nil {
			utils.Logger.Errorf("error scanning debt: %v", err)
			continue
		}
		debts = append(debts, d)
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"expense":    expense,
			"payer_name": payerName,
			"debts":      debts,
		},
	})
}

// FUNC TO LIST A GROUP'S EXPENSES
func GetGroupExpensesHandler(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
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

	rows, err := db.QueryContext(ctx, `
		SELECT e.id, e.group_id, e.payer_id, e.name, e.description, e.category,
		       e.amount, e.currency, e.distribution, e.created_at
		FROM expenses e
		WHERE e.group_id = ?
		ORDER BY e.created_at DESC
	`, groupID)
	if err != nil {
		utils.WriteError(w, "failed to fetch expenses", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	var list []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.Name, &e.Description, &e.Category,
			&e.Amount, &e.Currency, &e.Distribution, &e.CreatedAt); err != nil {
			utils.Logger.Errorf("error scanning expense: %v", err)
			continue
		}
		list = append(list, e)
	}
	if err = rows.Err(); err != nil {
		utils.WriteError(w, "error reading expenses", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":   "success",
		"count":    len(list),
		"expenses": list,
	})
}

// FUNC TO UPDATE AN EXPENSE AND REALLOCATE ITS DEBTS
func UpdateExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	expenseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req expenseRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.WriteError(w, "expense name is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var groupID, payerID int
	err = db.QueryRowContext(ctx, "SELECT group_id, payer_id FROM expenses WHERE id = ?", expenseID).Scan(&groupID, &payerID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "expense not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "failed to retrieve expense", http.StatusInternalServerError)
		return
	}

	// Only the payer can reshape their own expense.
	if payerID != userID {
		utils.WriteError(w, "only the payer can update an expense", http.StatusForbidden)
		return
	}
	req.GroupID = groupID

	shares, currency, mode, err := req.allocate()
	if err != nil {
		utils.WriteError(w, err.Error(), allocationStatus(err))
		return
	}

	for _, participantID := range req.participantIDs() {
		isMember, err := handlers.IsGroupMember(ctx, db, groupID, participantID)
		if err != nil {
			utils.WriteError(w, "failed to verify group membership", http.StatusInternalServerError)
			return
		}
		if !isMember {
			utils.WriteError(w, "all participants must be members of the group", http.StatusBadRequest)
			return
		}
	}

	// Load the debts currently on disk, keyed by debtor, so the planner can
	// diff them against the fresh shares.
	rows, err := db.QueryContext(ctx, "SELECT id, debtor_id, amount, currency FROM debts WHERE expense_id = ?", expenseID)
	if err != nil {
		utils.WriteError(w, "failed to fetch debts", http.StatusInternalServerError)
		return
	}

	var existing []ledger.DebtRecord
	for rows.Next() {
		var rec ledger.DebtRecord
		var amount, curr string
		if err := rows.Scan(&rec.ID, &rec.DebtorID, &amount, &curr); err != nil {
			rows.Close()
			utils.WriteError(w, "failed to read debts", http.StatusInternalServerError)
			return
		}
		rec.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			rows.Close()
			utils.WriteError(w, "failed to read debts", http.StatusInternalServerError)
			return
		}
		rec.Currency = ledger.Currency(curr)
		existing = append(existing, rec)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		utils.WriteError(w, "failed to read debts", http.StatusInternalServerError)
		return
	}

	// The payer's own share and zero shares never become debt rows, so they
	// are excluded before planning.
	persistable := make([]ledger.Share, 0, len(shares))
	for _, share := range shares {
		if share.UserID == payerID || share.Amount.IsZero() {
			continue
		}
		persistable = append(persistable, share)
	}

	plan := ledger.PlanReallocation(existing, persistable, currency)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE expenses SET name = ?, description = ?, category = ?, amount = ?, currency = ?, distribution = ?
		WHERE id = ?
	`, req.Name, req.Description, req.Category, req.Amount.StringFixed(2), string(currency), string(mode), expenseID)
	if err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to update expense", http.StatusInternalServerError)
		return
	}

	if err := applyPlan(ctx, tx, int64(expenseID), plan, currency); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to apply reallocation: %v", err)
		utils.WriteError(w, "failed to update debts, try again later!", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to commit transaction", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "expense updated successfully",
		"data": map[string]interface{}{
			"expense_id": expenseID,
			"shares":     shares,
		},
	})
}

// applyPlan executes a reallocation plan inside the caller's transaction.
// Either every step lands or none do.
func applyPlan(ctx context.Context, tx *sql.Tx, expenseID int64, plan ledger.ReallocationPlan, currency ledger.Currency) error {
	for _, id := range plan.Delete {
		if _, err := tx.ExecContext(ctx, "DELETE FROM debts WHERE id = ?", id); err != nil {
			return err
		}
	}
	for _, upd := range plan.Update {
		_, err := tx.ExecContext(ctx, "UPDATE debts SET amount = ?, currency = ? WHERE id = ?",
			upd.Amount.StringFixed(2), string(upd.Currency), upd.ID)
		if err != nil {
			return err
		}
	}
	for _, share := range plan.Create {
		_, err := tx.ExecContext(ctx, "INSERT INTO debts (expense_id, debtor_id, amount, currency) VALUES (?, ?, ?, ?)",
			expenseID, share.UserID, share.Amount.StringFixed(2), string(currency))
		if err != nil {
			return err
		}
	}
	return nil
}

// FUNC TO DELETE AN EXPENSE AND ITS DEBTS
func DeleteExpenseHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	db := sqlconnect.DB
	if db == nil {
		utils.Logger.Error("DB is not initialized")
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	expenseID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, "invalid expense ID", http.StatusBadRequest)
		return
	}

	userID, ok := handlers.UserIDFromRequest(r)
	if !ok {
		utils.WriteError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var payerID int
	err = db.QueryRowContext(ctx, "SELECT payer_id FROM expenses WHERE id = ?", expenseID).Scan(&payerID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "expense not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "failed to retrieve expense", http.StatusInternalServerError)
		return
	}

	if payerID != userID {
		utils.WriteError(w, "only the payer can delete an expense", http.StatusForbidden)
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM debts WHERE expense_id = ?", expenseID); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to delete debts", http.StatusInternalServerError)
		return
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to delete expense", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to commit transaction", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "expense deleted successfully",
	})
}

// FUNC TO LIST THE SUPPORTED DISTRIBUTION MODES AND CURRENCIES
func GetExpenseMetadataHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.WriteError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"distributions": ledger.DistributionModes(),
			"currencies":    ledger.Currencies(),
			"categories": []string{
				"food", "transport", "accommodation", "entertainment",
				"utilities", "shopping", "other",
			},
		},
	})
}
