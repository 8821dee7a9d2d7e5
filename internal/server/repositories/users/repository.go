package users

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

// Repository persists user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, id string, hash []byte) error
	UpdateEmail(ctx context.Context, id string, email string) error
}
