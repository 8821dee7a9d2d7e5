// Package groups stores named entry collections and their membership.
package groups

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/pgerr"
)

// Repository persists groups and their members.
type Repository interface {
	Create(ctx context.Context, g *models.Group) (*models.Group, error)
	Rename(ctx context.Context, userID, id, name string) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (*models.Group, error)

	// List returns the user's groups, oldest first, with EntryIDs filled.
	List(ctx context.Context, userID string) ([]*models.Group, error)

	// ReplaceMembers sets the group's members to exactly entryIDs. It issues
	// several statements and should run inside a transaction.
	ReplaceMembers(ctx context.Context, groupID string, entryIDs []string) error
}

// PostgresRepository stores groups in PostgreSQL.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, g *models.Group) (*models.Group, error) {
	query := `
		INSERT INTO groups (user_id, code, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, g.UserID, g.Code, g.Name).Scan(&g.ID, &g.CreatedAt); err != nil {
		return nil, pgerr.Wrap(err)
	}
	if g.EntryIDs == nil {
		g.EntryIDs = []string{}
	}
	return g, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, userID, id, name string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE groups SET name = $3 WHERE user_id = $1 AND id = $2`, userID, id, name)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return pgerr.RequireAffected(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return pgerr.Wrap(err)
	}
	return pgerr.RequireAffected(res)
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Group, error) {
	g := &models.Group{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, code, name, created_at FROM groups WHERE user_id = $1 AND id = $2`, userID, id).
		Scan(&g.ID, &g.UserID, &g.Code, &g.Name, &g.CreatedAt)
	if err != nil {
		return nil, pgerr.Wrap(err)
	}

	members, err := r.members(ctx, `SELECT group_id, entry_id FROM group_members WHERE group_id = $1 ORDER BY entry_id`, id)
	if err != nil {
		return nil, err
	}
	g.EntryIDs = append([]string{}, members[g.ID]...)
	return g, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Group, error) {
	result, err := dbx.QueryAll(ctx, r.db, "groups", func(rows *sql.Rows) (*models.Group, error) {
		g := &models.Group{}
		err := rows.Scan(&g.ID, &g.UserID, &g.Code, &g.Name, &g.CreatedAt)
		return g, err
	}, `SELECT id, user_id, code, name, created_at FROM groups WHERE user_id = $1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return result, nil
	}

	members, err := r.members(ctx, `
		SELECT m.group_id, m.entry_id
		FROM group_members m
		JOIN groups g ON g.id = m.group_id
		WHERE g.user_id = $1
		ORDER BY m.entry_id`, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range result {
		g.EntryIDs = append([]string{}, members[g.ID]...)
	}
	return result, nil
}

func (r *PostgresRepository) members(ctx context.Context, query string, arg string) (map[string][]string, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select group members: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var groupID, entryID string
		if err := rows.Scan(&groupID, &entryID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		out[groupID] = append(out[groupID], entryID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) ReplaceMembers(ctx context.Context, groupID string, entryIDs []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID); err != nil {
		return pgerr.Wrap(err)
	}
	for _, id := range entryIDs {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO group_members (group_id, entry_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, groupID, id)
		if err != nil {
			return pgerr.Wrap(err)
		}
	}
	return nil
}
