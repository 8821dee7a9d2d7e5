package client

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/client/models"
)

// Client is the client's view of the journal backend.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Restore(ctx context.Context, refreshToken string) (string, error)
	Logout()
	OnTokens(fn func(refreshToken string))
	ChangePassword(ctx context.Context, current, next string) error
	ChangeEmail(ctx context.Context, current, newEmail string) error

	GetProfile(ctx context.Context) (*models.Profile, error)
	UpsertProfile(ctx context.Context, displayName, locale string) (*models.Profile, error)

	EntryStore

	RenameTag(ctx context.Context, from, to string) (int, error)
	ImportEntries(ctx context.Context, entries []*models.Entry) (int, error)
	Export(ctx context.Context) (*models.Export, error)

	ListGroups(ctx context.Context) ([]*models.Group, error)
	SaveGroup(ctx context.Context, id, name string) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	SetGroupMembers(ctx context.Context, id string, entryIDs []string) (*models.Group, error)
}

// EntryStore is the part of the backend the entry editor talks to.
type EntryStore interface {
	CreateEntry(ctx context.Context, dateKey string, f models.Fields) (*models.Entry, error)
	ListEntries(ctx context.Context, dateKey string) ([]*models.Entry, error)
	GetEntry(ctx context.Context, dateKey, entryID string) (*models.Entry, error)
	SaveAutosave(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) error
	DeleteAutosave(ctx context.Context, dateKey, entryID, sessionID string) error
	PromoteToDraft(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) error
	Finalize(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) (*models.Entry, error)
	DeleteEntry(ctx context.Context, dateKey, entryID string) error
	WatchEntries(ctx context.Context, dateKey string, fn func([]*models.Entry)) error
}
