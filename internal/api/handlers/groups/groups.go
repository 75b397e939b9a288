package groups

import (
	"context"
	"database/sql"
	"encoding/json"
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

// FUNC TO CREATE A GROUP
func CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	var newGroup models.Group
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&newGroup); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	newGroup.Name = strings.TrimSpace(newGroup.Name)
	if newGroup.Name == "" {
		utils.WriteError(w, "group name is required", http.StatusBadRequest)
		return
	}

	if len(newGroup.Name) > 100 || len(newGroup.Description) > 500 {
		utils.WriteError(w, "name or description too long", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO groups (name, description, created_by) VALUES (?, ?, ?)",
		newGroup.Name, newGroup.Description, userID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to create group: %v", err)
		utils.WriteError(w, "failed to create group, try again later!", http.StatusInternalServerError)
		return
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to get last inserted ID: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'admin')", id, userID)
	if err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to assign group admin: %v", err)
		utils.WriteError(w, "failed to assign group admin", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		tx.Rollback()
		utils.Logger.Errorf("failed to commit transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "success",
		"message": "Group created successfully",
		"data": map[string]interface{}{
			"group_id":   id,
			"group_name": newGroup.Name,
			"role":       "admin",
		},
	})
}

// FUNC TO GET MY GROUPS WITH MY DEBT TOTALS PER CURRENCY
func GetMyGroupsHandler(w http.ResponseWriter, r *http.Request) {
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
		SELECT g.id, g.name
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.name
	`, userID)
	if err != nil {
		utils.WriteError(w, "failed to fetch groups", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	type groupSummary struct {
		GroupID   int                    `json:"group_id"`
		GroupName string                 `json:"group_name"`
		MyDebts   []ledger.CurrencyTotal `json:"debts_by_currency"`
	}

	var summaries []groupSummary
	for rows.Next() {
		var g groupSummary
		if err := rows.Scan(&g.GroupID, &g.GroupName); err != nil {
			utils.Logger.Errorf("error scanning group: %v", err)
			continue
		}
		summaries = append(summaries, g)
	}
	if err = rows.Err(); err != nil {
		utils.WriteError(w, "error reading groups", http.StatusInternalServerError)
		return
	}

	// The caller's debts in each group, rolled up per currency by the engine.
	for i := range summaries {
		debts, err := loadUserDebts(ctx, db, summaries[i].GroupID, userID)
		if err != nil {
			utils.Logger.Errorf("failed to load debts for group %d: %v", summaries[i].GroupID, err)
			utils.WriteError(w, "failed to compute debt totals", http.StatusInternalServerError)
			return
		}
		summaries[i].MyDebts = ledger.TotalsByCurrency(userID, debts)
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"count":  len(summaries),
		"groups": summaries,
	})
}

// loadUserDebts loads every debt the user owes inside a group, excluding
// expenses the user paid for themselves.
func loadUserDebts(ctx context.Context, db *sql.DB, groupID, userID int) ([]ledger.Debt, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT d.debtor_id, d.amount, d.currency
		FROM debts d
		JOIN expenses e ON d.expense_id = e.id
		WHERE e.group_id = ? AND d.debtor_id = ? AND e.payer_id != ?
	`, groupID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var debts []ledger.Debt
	for rows.Next() {
		var d ledger.Debt
		var amount, currency string
		if err := rows.Scan(&d.DebtorID, &amount, &currency); err != nil {
			return nil, err
		}
		d.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		d.Currency = ledger.Currency(currency)
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// FUNC TO GET GROUP DETAILS
func GetGroupByIDHandler(w http.ResponseWriter, r *http.Request) {
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

	var group models.Group
	err = db.QueryRowContext(ctx, "SELECT id, name, description, created_by FROM groups WHERE id = ?", groupID).
		Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "group not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "failed to retrieve group", http.StatusInternalServerError)
		return
	}

	isMember, err := handlers.IsGroupMember(ctx, db, groupID, userID)
	if err != nil {
		utils.WriteError(w, "failed to verify group membership", http.StatusInternalServerError)
		return
	}
	if !isMember {
		utils.WriteError(w, "you are not a member of this group", http.StatusForbidden)
		return
	}

	type member struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}

	memberRows, err := db.QueryContext(ctx, `
		SELECT u.id, u.username, m.role
		FROM group_members m
		JOIN users u ON m.user_id = u.id
		WHERE m.group_id = ?
	`, groupID)
	if err != nil {
		utils.WriteError(w, "failed to fetch group members", http.StatusInternalServerError)
		return
	}
	defer memberRows.Close()

	var members []member
	for memberRows.Next() {
		var m member
		if err := memberRows.Scan(&m.ID, &m.Username, &m.Role); err != nil {
			utils.Logger.Errorf("error scanning member: %v", err)
			continue
		}
		members = append(members, m)
	}

	// Each expense is annotated with the caller's own debt on it, if any.
	type expenseView struct {
		ID             int             `json:"id"`
		Name           string          `json:"name"`
		Amount         decimal.Decimal `json:"amount"`
		Currency       string          `json:"currency"`
		Category       string          `json:"category,omitempty"`
		Distribution   string          `json:"distribution"`
		PayerName      string          `json:"payer_name"`
		MyDebt         decimal.Decimal `json:"my_debt,omitempty"`
		IsUserInvolved bool            `json:"is_user_involved"`
	}

	expenseRows, err := db.QueryContext(ctx, `
		SELECT e.id, e.name, e.amount, e.currency, e.category, e.distribution, u.username, d.amount
		FROM expenses e
		JOIN users u ON e.payer_id = u.id
		LEFT JOIN debts d ON d.expense_id = e.id AND d.debtor_id = ?
		WHERE e.group_id = ?
		ORDER BY e.created_at DESC
	`, userID, groupID)
	if err != nil {
		utils.WriteError(w, "failed to fetch group expenses", http.StatusInternalServerError)
		return
	}
	defer expenseRows.Close()

	var expenses []expenseView
	for expenseRows.Next() {
		var e expenseView
		var myDebt sql.NullString
		if err := expenseRows.Scan(&e.ID, &e.Name, &e.Amount, &e.Currency, &e.Category, &e.Distribution, &e.PayerName, &myDebt); err != nil {
			utils.Logger.Errorf("error scanning expense: %v", err)
			continue
		}
		if myDebt.Valid {
			amount, err := decimal.NewFromString(myDebt.String)
			if err == nil {
				e.MyDebt = amount
				e.IsUserInvolved = true
			}
		}
		expenses = append(expenses, e)
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status": "success",
		"data": map[string]interface{}{
			"group":    group,
			"members":  members,
			"expenses": expenses,
		},
	})
}

// FUNC TO RENAME A GROUP
func UpdateGroupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
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

	type request struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		utils.WriteError(w, "group name is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !requireGroupAdmin(ctx, w, db, groupID, userID) {
		return
	}

	_, err = db.ExecContext(ctx, "UPDATE groups SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		req.Name, req.Description, time.Now().Format("2006-01-02 15:04:05"), groupID)
	if err != nil {
		utils.WriteError(w, "failed to update group", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "group updated successfully",
	})
}

// requireGroupAdmin writes the error response itself when the user is not an
// admin member of the group.
func requireGroupAdmin(ctx context.Context, w http.ResponseWriter, db *sql.DB, groupID, userID int) bool {
	var role string
	err := db.QueryRowContext(ctx, "SELECT role FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID).Scan(&role)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "you are not a member of this group", http.StatusForbidden)
			return false
		}
		utils.WriteError(w, "failed to verify group membership", http.StatusInternalServerError)
		return false
	}
	if role != "admin" {
		utils.WriteError(w, "only a group admin can do this", http.StatusForbidden)
		return false
	}
	return true
}

// FUNC TO ADD A MEMBER BY USERNAME
func AddMemberHandler(w http.ResponseWriter, r *http.Request) {
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

	type request struct {
		Username string `json:"username"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Username == "" {
		utils.WriteError(w, "username is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !requireGroupAdmin(ctx, w, db, groupID, userID) {
		return
	}

	var newMemberID int
	err = db.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ?", strings.ToLower(req.Username)).Scan(&newMemberID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "user not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "failed to look up user", http.StatusInternalServerError)
		return
	}

	_, err = db.ExecContext(ctx, "INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, 'member')", groupID, newMemberID)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			utils.WriteError(w, "user is already a member of this group", http.StatusConflict)
			return
		}
		utils.WriteError(w, "failed to add member", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "member added successfully",
		"data": map[string]interface{}{
			"group_id": groupID,
			"user_id":  newMemberID,
		},
	})
}

// FUNC TO REMOVE A MEMBER BY USERNAME
func RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
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

	type request struct {
		Username string `json:"username"`
	}

	var req request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !requireGroupAdmin(ctx, w, db, groupID, userID) {
		return
	}

	var memberID int
	err = db.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ?", strings.ToLower(req.Username)).Scan(&memberID)
	if err != nil {
		if err == sql.ErrNoRows {
			utils.WriteError(w, "user not found", http.StatusNotFound)
			return
		}
		utils.WriteError(w, "failed to look up user", http.StatusInternalServerError)
		return
	}

	if memberID == userID {
		utils.WriteError(w, "admins cannot remove themselves, delete the group instead", http.StatusBadRequest)
		return
	}

	res, err := db.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ? AND user_id = ?", groupID, memberID)
	if err != nil {
		utils.WriteError(w, "failed to remove member", http.StatusInternalServerError)
		return
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		utils.WriteError(w, "user is not a member of this group", http.StatusNotFound)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "member removed successfully",
	})
}

// FUNC TO DELETE A GROUP AND EVERYTHING IN IT
func DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	if !requireGroupAdmin(ctx, w, db, groupID, userID) {
		return
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		utils.Logger.Errorf("failed to start transaction: %v", err)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Debts first, then expenses, then membership, then the group itself.
	_, err = tx.ExecContext(ctx, `
		DELETE d FROM debts d
		JOIN expenses e ON d.expense_id = e.id
		WHERE e.group_id = ?
	`, groupID)
	if err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to delete group debts", http.StatusInternalServerError)
		return
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM expenses WHERE group_id = ?", groupID); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to delete group expenses", http.StatusInternalServerError)
		return
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM group_members WHERE group_id = ?", groupID); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to delete group members", http.StatusInternalServerError)
		return
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID); err != nil {
		tx.Rollback()
		utils.WriteError(w, "failed to delete group", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		utils.WriteError(w, "failed to commit transaction", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, map[string]interface{}{
		"status":  "success",
		"message": "group deleted successfully",
	})
}
