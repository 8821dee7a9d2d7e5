package entries

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

// Repository persists canonical entry fields and the shared draft. Every
// lookup is scoped by owner and day bucket.
type Repository interface {
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	Get(ctx context.Context, userID, dateKey, id string) (*models.Entry, error)

	// List returns the entries of one bucket, or of every bucket when dateKey
	// is "", newest createdAt first.
	List(ctx context.Context, userID, dateKey string) ([]*models.Entry, error)

	UpdateFields(ctx context.Context, entry *models.Entry) error
	SetDraft(ctx context.Context, userID, dateKey, id string, draft *models.Draft) error
	UpdateTags(ctx context.Context, userID, id string, tags []string) error
	Delete(ctx context.Context, userID, dateKey, id string) error
}
