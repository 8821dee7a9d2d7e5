// Package refreshtokens declares the server-side repository contract for
// refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

// Repository persists refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every token of userID. Used after credential
	// changes.
	DeleteByUser(ctx context.Context, userID string) error
}
