package models

import "time"

// Profile is the per-user display name and locale.
type Profile struct {
	UserID      string
	DisplayName string
	Locale      string
	UpdatedAt   time.Time
}

// Group is a named, shareable collection of entries.
type Group struct {
	ID        string
	UserID    string
	Code      string
	Name      string
	EntryIDs  []string
	CreatedAt time.Time
}
