package services

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "daybook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertMeta(t *testing.T, db *sql.DB, k, v string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO metadata(key, value) VALUES(?, ?)`, k, v)
	require.NoError(t, err)
}

func getMeta(t *testing.T, db *sql.DB, k string) (string, bool) {
	t.Helper()
	var v string
	err := db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, k).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false
	}
	require.NoError(t, err)
	return v, true
}

func discardLogger() logging.Logger {
	return logging.New(io.Discard, "text", "error")
}

// ---- fake client ----

// fakeClient implements client.Client for service tests. Methods a test does
// not configure panic through the nil embedded interface.
type fakeClient struct {
	client.Client

	onTokens func(string)

	// results
	UserID   string
	AuthErr  error
	PingErr  error
	CloseErr error

	RefreshTokenRet string
	ChangeEmailErr  error
	ProfileRet      *models.Profile

	ImportRet int
	ImportErr error
	// ImportEcho reports every batch as fully imported; ImportErr is
	// returned once ImportErrAfter batches went through.
	ImportEcho     bool
	ImportErrAfter int
	ExportRet *models.Export
	ExportErr error

	RenameRet int
	GroupsRet []*models.Group

	// arguments
	LastEmail     string
	LastPassword  string
	LastRefresh   string
	LoggedOut     bool
	LastImport    []*models.Entry
	ImportBatches []int
	LastRename    [2]string
	LastMembersID string
	LastMembers   []string
}

func (f *fakeClient) OnTokens(fn func(string)) { f.onTokens = fn }
func (f *fakeClient) Close() error             { return f.CloseErr }
func (f *fakeClient) Ping(context.Context) error {
	return f.PingErr
}

func (f *fakeClient) issue() {
	if f.onTokens != nil && f.AuthErr == nil {
		f.onTokens(f.RefreshTokenRet)
	}
}

func (f *fakeClient) Register(_ context.Context, email, password string) (string, error) {
	f.LastEmail, f.LastPassword = email, password
	f.issue()
	return f.UserID, f.AuthErr
}

func (f *fakeClient) Login(_ context.Context, email, password string) (string, error) {
	f.LastEmail, f.LastPassword = email, password
	f.issue()
	return f.UserID, f.AuthErr
}

func (f *fakeClient) Restore(_ context.Context, refreshToken string) (string, error) {
	f.LastRefresh = refreshToken
	f.issue()
	return f.UserID, f.AuthErr
}

func (f *fakeClient) Logout() { f.LoggedOut = true }

func (f *fakeClient) ChangePassword(_ context.Context, current, next string) error {
	f.LastPassword = next
	f.issue()
	return f.AuthErr
}

func (f *fakeClient) ChangeEmail(_ context.Context, current, newEmail string) error {
	f.LastEmail = newEmail
	return f.ChangeEmailErr
}

func (f *fakeClient) GetProfile(context.Context) (*models.Profile, error) {
	return f.ProfileRet, nil
}

func (f *fakeClient) UpsertProfile(_ context.Context, displayName, locale string) (*models.Profile, error) {
	return &models.Profile{DisplayName: displayName, Locale: locale}, nil
}

func (f *fakeClient) ImportEntries(_ context.Context, entries []*models.Entry) (int, error) {
	f.LastImport = entries
	f.ImportBatches = append(f.ImportBatches, len(entries))
	if f.ImportErr != nil && len(f.ImportBatches) > f.ImportErrAfter {
		return 0, f.ImportErr
	}
	if f.ImportEcho {
		return len(entries), nil
	}
	return f.ImportRet, nil
}

func (f *fakeClient) Export(context.Context) (*models.Export, error) {
	return f.ExportRet, f.ExportErr
}

func (f *fakeClient) RenameTag(_ context.Context, from, to string) (int, error) {
	f.LastRename = [2]string{from, to}
	return f.RenameRet, nil
}

func (f *fakeClient) ListGroups(context.Context) ([]*models.Group, error) {
	return f.GroupsRet, nil
}

func (f *fakeClient) SetGroupMembers(_ context.Context, id string, entryIDs []string) (*models.Group, error) {
	f.LastMembersID, f.LastMembers = id, entryIDs
	return &models.Group{ID: id, EntryIDs: entryIDs}, nil
}
