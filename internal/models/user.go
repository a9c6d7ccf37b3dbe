package models

import "time"

// User represents an application user stored in the users table.
type User struct {
	ID                 string    `db:"id" json:"id"`
	Email              string    `db:"email" json:"email"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	FullName           string    `db:"full_name" json:"full_name"`
	EmailNotifications bool      `db:"email_notifications_enabled" json:"email_notifications_enabled"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
