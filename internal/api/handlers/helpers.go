package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"reflect"
	"splitter/pkg/utils"
)

func CheckBlankFields(value interface{}) error {
	val := reflect.ValueOf(value)
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		if field.Kind() == reflect.String && field.String() == "" {
			return utils.ErrorHandler(errors.New("all fields are required"), "all fields are required")
		}
	}
	return nil
}

// UserIDFromRequest pulls the authenticated user ID the JWT middleware stored
// in the request context.
func UserIDFromRequest(r *http.Request) (int, bool) {
	idFloat, ok := r.Context().Value(utils.ContextKey("userId")).(float64)
	if !ok {
		return 0, false
	}
	return int(idFloat), true
}

// IsGroupMember reports whether the user belongs to the group.
func IsGroupMember(ctx context.Context, db *sql.DB, groupID, userID int) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)",
		groupID, userID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
