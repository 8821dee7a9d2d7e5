// Package autosaves is the PostgreSQL store of per-session autosaves.
package autosaves

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/pgerr"
)

// PostgresRepository stores per-session autosaves in PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, a *models.Autosave) error {
	tags, err := models.EncodeTags(a.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO entry_autosaves (entry_id, session_id, title, body, tags, mood, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::text::jsonb, $6, $7, $8)
		ON CONFLICT (entry_id, session_id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			tags = EXCLUDED.tags,
			mood = EXCLUDED.mood,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = r.db.ExecContext(ctx, query, a.EntryID, a.SessionID, a.Title, a.Body, tags, a.Mood, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return nil
}

// Delete is idempotent: removing an autosave that does not exist succeeds.
func (r *PostgresRepository) Delete(ctx context.Context, entryID, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM entry_autosaves WHERE entry_id = $1 AND session_id = $2`, entryID, sessionID)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID, dateKey string) ([]*models.Autosave, error) {
	query := `
		SELECT a.entry_id, a.session_id, a.title, a.body, a.tags::text, a.mood, a.created_at, a.updated_at
		FROM entry_autosaves a
		JOIN entries e ON e.id = a.entry_id
		WHERE e.user_id = $1 AND ($2 = '' OR e.date_key = $2)
	`
	return dbx.QueryAll(ctx, r.db, "autosaves", func(rows *sql.Rows) (*models.Autosave, error) {
		var (
			a    models.Autosave
			tags []byte
		)
		if err := rows.Scan(&a.EntryID, &a.SessionID, &a.Title, &a.Body, &tags, &a.Mood, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		var err error
		if a.Tags, err = models.DecodeTags(tags); err != nil {
			return nil, err
		}
		return &a, nil
	}, query, userID, dateKey)
}

func (r *PostgresRepository) UpdateTags(ctx context.Context, entryID, sessionID string, tags []string) error {
	encoded, err := models.EncodeTags(tags)
	if err != nil {
		return err
	}
	query := `UPDATE entry_autosaves SET tags = $3::text::jsonb WHERE entry_id = $1 AND session_id = $2`
	res, err := r.db.ExecContext(ctx, query, entryID, sessionID, encoded)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return pgerr.RequireAffected(res)
}
