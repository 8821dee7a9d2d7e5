package autosaves

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

// Repository stores per-session edit buffers keyed by (entry, session).
type Repository interface {
	Upsert(ctx context.Context, a *models.Autosave) error
	Delete(ctx context.Context, entryID, sessionID string) error

	// ListByUser returns the autosaves of the user's entries in one bucket, or
	// in all buckets when dateKey is "".
	ListByUser(ctx context.Context, userID, dateKey string) ([]*models.Autosave, error)

	UpdateTags(ctx context.Context, entryID, sessionID string, tags []string) error
}
