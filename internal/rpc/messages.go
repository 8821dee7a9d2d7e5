package rpc

import "time"

// Fields is the editable part of an entry. Canonical entries, shared drafts
// and per-session autosaves all carry it.
type Fields struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
}

type Draft struct {
	Fields
	UpdatedAt time.Time `json:"updatedAt"`
}

type Autosave struct {
	Fields
	SessionID string    `json:"sessionId"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Entry is the wire form of a journal entry.
type Entry struct {
	ID      string `json:"id"`
	DateKey string `json:"dateKey"`
	Fields
	UpdatedAt time.Time           `json:"updatedAt"`
	Draft     *Draft              `json:"draft,omitempty"`
	Autosaves map[string]Autosave `json:"autosaves,omitempty"`
}

type Empty struct{}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	UserID       string `json:"userId"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type PingResponse struct {
	Status string `json:"status"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ChangeEmailRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewEmail        string `json:"newEmail"`
}

type Profile struct {
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Locale      string    `json:"locale"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type UpsertProfileRequest struct {
	DisplayName string `json:"displayName"`
	Locale      string `json:"locale"`
}

type CreateEntryRequest struct {
	DateKey string `json:"dateKey"`
	Fields
}

// ListEntriesRequest lists one day bucket, or every entry when DateKey is "".
type ListEntriesRequest struct {
	DateKey string `json:"dateKey"`
}

type ListEntriesResponse struct {
	Entries []Entry `json:"entries"`
}

// EntryRef addresses one entry inside a day bucket.
type EntryRef struct {
	DateKey string `json:"dateKey"`
	EntryID string `json:"entryId"`
}

// EditRequest carries a session's edit buffer for autosave, promotion and
// finalization.
type EditRequest struct {
	EntryRef
	SessionID string `json:"sessionId"`
	Fields
}

type AutosaveRef struct {
	EntryRef
	SessionID string `json:"sessionId"`
}

type RenameTagRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type RenameTagResponse struct {
	Updated int `json:"updated"`
}

type ImportEntriesRequest struct {
	Entries []CreateEntryRequest `json:"entries"`
}

type ImportEntriesResponse struct {
	Imported int `json:"imported"`
}

type ExportEntriesResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Group struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	EntryIDs  []string  `json:"entryIds"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

// SaveGroupRequest creates a group when ID is "" and renames it otherwise.
type SaveGroupRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GroupRef struct {
	ID string `json:"id"`
}

type SetGroupMembersRequest struct {
	ID       string   `json:"id"`
	EntryIDs []string `json:"entryIds"`
}

type WatchEntriesRequest struct {
	DateKey string `json:"dateKey"`
}

// EntriesSnapshot is the full content of a watched bucket at one point in
// time.
type EntriesSnapshot struct {
	DateKey string  `json:"dateKey"`
	Entries []Entry `json:"entries"`
}
