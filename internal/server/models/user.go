// Package models defines the server-side records persisted in PostgreSQL.
package models

import "time"

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}
