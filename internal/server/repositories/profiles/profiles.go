// Package profiles stores the per-user display name and locale.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/pgerr"
)

// Repository persists profiles.
type Repository interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

// PostgresRepository stores profiles in PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p := &models.Profile{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT display_name, locale, updated_at FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.DisplayName, &p.Locale, &p.UpdatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return p, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, display_name, locale, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			locale = EXCLUDED.locale,
			updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, p.UserID, p.DisplayName, p.Locale).Scan(&p.UpdatedAt); err != nil {
		return nil, pgerr.Wrap(err)
	}
	return p, nil
}
