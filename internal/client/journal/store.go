package journal

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/client/models"
)

// Store is the part of the backend the editor writes to.
type Store interface {
	CreateEntry(ctx context.Context, dateKey string, f models.Fields) (*models.Entry, error)
	SaveAutosave(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) error
	DeleteAutosave(ctx context.Context, dateKey, entryID, sessionID string) error
	PromoteToDraft(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) error
	Finalize(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) (*models.Entry, error)
	DeleteEntry(ctx context.Context, dateKey, entryID string) error
}
