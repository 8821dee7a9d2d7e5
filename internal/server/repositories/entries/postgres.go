// Package entries provides the PostgreSQL repository for journal entries.
// Tags and drafts live in jsonb columns and travel as text.
package entries

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/pgerr"
)

const entryColumns = `id, user_id, date_key, title, body, tags::text, mood, created_at, updated_at, draft::text`

// PostgresRepository stores entries in PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.Entry, error) {
	var (
		e     models.Entry
		tags  []byte
		draft []byte
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.DateKey, &e.Title, &e.Body, &tags, &e.Mood,
		&e.CreatedAt, &e.UpdatedAt, &draft); err != nil {
		return nil, err
	}

	var err error
	if e.Tags, err = models.DecodeTags(tags); err != nil {
		return nil, err
	}
	if e.Draft, err = models.DecodeDraft(draft); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	tags, err := models.EncodeTags(entry.Tags)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO entries (user_id, date_key, title, body, tags, mood, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::text::jsonb, $6, $7, $8)
		RETURNING id
	`
	err = r.db.QueryRowContext(ctx, query, entry.UserID, entry.DateKey, entry.Title, entry.Body,
		tags, entry.Mood, entry.CreatedAt, entry.UpdatedAt).Scan(&entry.ID)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return entry, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, dateKey, id string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE user_id = $1 AND date_key = $2 AND id = $3`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, userID, dateKey, id))
	if err != nil {
		return nil, pgerr.Wrap(err)
	}
	return e, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID, dateKey string) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE user_id = $1 AND ($2 = '' OR date_key = $2)
		ORDER BY created_at DESC, id`

	return dbx.QueryAll(ctx, r.db, "entries", func(rows *sql.Rows) (*models.Entry, error) {
		return scanEntry(rows)
	}, query, userID, dateKey)
}

func (r *PostgresRepository) UpdateFields(ctx context.Context, entry *models.Entry) error {
	tags, err := models.EncodeTags(entry.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE entries
		SET title = $4, body = $5, tags = $6::text::jsonb, mood = $7, created_at = $8, updated_at = $9
		WHERE user_id = $1 AND date_key = $2 AND id = $3
	`
	res, err := r.db.ExecContext(ctx, query, entry.UserID, entry.DateKey, entry.ID,
		entry.Title, entry.Body, tags, entry.Mood, entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return pgerr.RequireAffected(res)
}

// SetDraft replaces the shared draft; a nil draft clears it.
func (r *PostgresRepository) SetDraft(ctx context.Context, userID, dateKey, id string, draft *models.Draft) error {
	encoded, err := models.EncodeDraft(draft)
	if err != nil {
		return err
	}

	query := `UPDATE entries SET draft = $4::text::jsonb WHERE user_id = $1 AND date_key = $2 AND id = $3`
	res, err := r.db.ExecContext(ctx, query, userID, dateKey, id, encoded)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return pgerr.RequireAffected(res)
}

// UpdateTags rewrites canonical tags only; updated_at is left alone so a
// rename does not look like an edit.
func (r *PostgresRepository) UpdateTags(ctx context.Context, userID, id string, tags []string) error {
	encoded, err := models.EncodeTags(tags)
	if err != nil {
		return err
	}

	query := `UPDATE entries SET tags = $3::text::jsonb WHERE user_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, id, encoded)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return pgerr.RequireAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, dateKey, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE user_id = $1 AND date_key = $2 AND id = $3`, userID, dateKey, id)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return pgerr.RequireAffected(res)
}
