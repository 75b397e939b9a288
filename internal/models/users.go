package models

import "database/sql"

type User struct {
	ID                   int            `json:"id,omitempty" db:"id,omitempty"`
	FirstName            string         `json:"first_name,omitempty" db:"first_name,omitempty"`
	LastName             string         `json:"last_name,omitempty" db:"last_name,omitempty"`
	Username             string         `json:"username,omitempty" db:"username,omitempty"`
	Email                string         `json:"email,omitempty" db:"email,omitempty"`
	Password             string         `json:"password,omitempty" db:"password,omitempty"`
	Role                 string         `json:"role,omitempty" db:"role,omitempty"`
	InactiveStatus       bool           `json:"inactive_status,omitempty" db:"inactive_status,omitempty"`
	PasswordResetToken   sql.NullString `json:"-" db:"password_reset_token,omitempty"`
	PasswordTokenExpires sql.NullString `json:"-" db:"password_token_expires,omitempty"`
	PasswordChangedAt    sql.NullString `json:"-" db:"password_changed_at,omitempty"`
	CreatedAt            sql.NullString `json:"created_at,omitempty" db:"created_at,omitempty"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
