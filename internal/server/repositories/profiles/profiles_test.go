package profiles

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiles_GetAndUpsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)
	ctx := context.Background()
	now := time.Now()

	getQ := `^SELECT\s+display_name,\s*locale,\s*updated_at\s+FROM\s+profiles\s+WHERE\s+user_id\s*=\s*\$1$`

	mock.ExpectQuery(getQ).WithArgs("u1").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+profiles.+ON\s+CONFLICT\s+\(user_id\).+RETURNING\s+updated_at$`).
		WithArgs("u1", "Ada Lovelace", "en").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
	p, err := repo.Upsert(ctx, &models.Profile{UserID: "u1", DisplayName: "Ada Lovelace", Locale: "en"})
	require.NoError(t, err)
	assert.Equal(t, now, p.UpdatedAt)

	mock.ExpectQuery(getQ).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"display_name", "locale", "updated_at"}).AddRow("Ada Lovelace", "en", now))
	p, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.DisplayName)
	assert.Equal(t, "u1", p.UserID)

	require.NoError(t, mock.ExpectationsWereMet())
}
