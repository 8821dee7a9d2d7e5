package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/autosaves"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entries"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/groups"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/users"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type countingNotifier struct {
	mu    sync.Mutex
	calls map[string]int
}

func (n *countingNotifier) Notify(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.calls == nil {
		n.calls = make(map[string]int)
	}
	n.calls[userID]++
}

func (n *countingNotifier) count(userID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[userID]
}

// memStore backs every fake repository. Transactions are not modelled: the
// sqlmock DB only checks that Begin/Commit/Rollback happen.
type memStore struct {
	mu sync.Mutex

	users     map[string]*models.User
	tokens    map[string]*models.RefreshToken
	entries   map[string]*models.Entry
	autosaves map[string]*models.Autosave
	profiles  map[string]*models.Profile
	groups    map[string]*models.Group
	groupSeq  map[string]int

	// failOn makes the named operation return the given error.
	failOn map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*models.User{},
		tokens:    map[string]*models.RefreshToken{},
		entries:   map[string]*models.Entry{},
		autosaves: map[string]*models.Autosave{},
		profiles:  map[string]*models.Profile{},
		groups:    map[string]*models.Group{},
		groupSeq:  map[string]int{},
		failOn:    map[string]error{},
	}
}

func (m *memStore) fail(op string) error { return m.failOn[op] }

func autosaveKey(entryID, sessionID string) string { return entryID + "/" + sessionID }

func cloneFields(f models.Fields) models.Fields {
	f.Tags = append([]string{}, f.Tags...)
	return f
}

func cloneEntry(e *models.Entry) *models.Entry {
	c := *e
	c.Fields = cloneFields(e.Fields)
	if e.Draft != nil {
		d := *e.Draft
		d.Fields = cloneFields(e.Draft.Fields)
		c.Draft = &d
	}
	c.Autosaves = nil
	return &c
}

func cloneAutosave(a *models.Autosave) *models.Autosave {
	c := *a
	c.Fields = cloneFields(a.Fields)
	return &c
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.EntryIDs = append([]string{}, g.EntryIDs...)
	return &c
}

// putEntry seeds an entry directly and returns its id.
func (m *memStore) putEntry(e *models.Entry) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.entries[e.ID] = cloneEntry(e)
	return e.ID
}

func (m *memStore) putAutosave(a *models.Autosave) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autosaves[autosaveKey(a.EntryID, a.SessionID)] = cloneAutosave(a)
}

func (m *memStore) entry(id string) *models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	return cloneEntry(e)
}

func (m *memStore) autosave(entryID, sessionID string) *models.Autosave {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.autosaves[autosaveKey(entryID, sessionID)]
	if !ok {
		return nil
	}
	return cloneAutosave(a)
}

// --- repository manager ---

type fakeRepoManager struct {
	store *memStore
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{store: newMemStore()}
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository           { return fakeUsers{f.store} }
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return fakeTokens{f.store}
}
func (f *fakeRepoManager) Entries(dbx.DBTX) entries.Repository     { return fakeEntries{f.store} }
func (f *fakeRepoManager) Autosaves(dbx.DBTX) autosaves.Repository { return fakeAutosaves{f.store} }
func (f *fakeRepoManager) Profiles(dbx.DBTX) profiles.Repository   { return fakeProfiles{f.store} }
func (f *fakeRepoManager) Groups(dbx.DBTX) groups.Repository       { return fakeGroups{f.store} }

// --- users ---

type fakeUsers struct{ m *memStore }

func (r fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if err := r.m.fail("users.Create"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.users {
		if x.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.m.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if err := r.m.fail("users.GetByEmail"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.users {
		if x.Email == email {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	if err := r.m.fail("users.GetByID"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	x, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *x
	return &c, nil
}

func (r fakeUsers) UpdatePasswordHash(_ context.Context, id string, hash []byte) error {
	if err := r.m.fail("users.UpdatePasswordHash"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	x, ok := r.m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	x.PasswordHash = hash
	return nil
}

func (r fakeUsers) UpdateEmail(_ context.Context, id string, email string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.users {
		if x.Email == email && x.ID != id {
			return common.ErrorAlreadyExists
		}
	}
	x, ok := r.m.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	x.Email = email
	return nil
}

// --- refresh tokens ---

type fakeTokens struct{ m *memStore }

func (r fakeTokens) Create(_ context.Context, userID string, token string, validity time.Duration) error {
	if err := r.m.fail("tokens.Create"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.tokens[token] = &models.RefreshToken{
		ID: uuid.NewString(), UserID: userID, Token: token,
		Expires: time.Now().Add(validity), CreatedAt: time.Now(),
	}
	return nil
}

func (r fakeTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	if err := r.m.fail("tokens.Find"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r fakeTokens) Delete(_ context.Context, token string) error {
	if err := r.m.fail("tokens.Delete"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.tokens, token)
	return nil
}

func (r fakeTokens) DeleteByUser(_ context.Context, userID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k, t := range r.m.tokens {
		if t.UserID == userID {
			delete(r.m.tokens, k)
		}
	}
	return nil
}

// --- entries ---

type fakeEntries struct{ m *memStore }

func (r fakeEntries) Create(_ context.Context, e *models.Entry) (*models.Entry, error) {
	if err := r.m.fail("entries.Create"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := cloneEntry(e)
	c.ID = uuid.NewString()
	r.m.entries[c.ID] = c
	return cloneEntry(c), nil
}

func (r fakeEntries) lookup(userID, dateKey, id string) (*models.Entry, error) {
	e, ok := r.m.entries[id]
	if !ok || e.UserID != userID || (dateKey != "" && e.DateKey != dateKey) {
		return nil, common.ErrorNotFound
	}
	return e, nil
}

func (r fakeEntries) Get(_ context.Context, userID, dateKey, id string) (*models.Entry, error) {
	if err := r.m.fail("entries.Get"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	e, err := r.lookup(userID, dateKey, id)
	if err != nil {
		return nil, err
	}
	return cloneEntry(e), nil
}

func (r fakeEntries) List(_ context.Context, userID, dateKey string) ([]*models.Entry, error) {
	if err := r.m.fail("entries.List"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Entry
	for _, e := range r.m.entries {
		if e.UserID == userID && (dateKey == "" || e.DateKey == dateKey) {
			out = append(out, cloneEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r fakeEntries) UpdateFields(_ context.Context, e *models.Entry) error {
	if err := r.m.fail("entries.UpdateFields"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, err := r.lookup(e.UserID, e.DateKey, e.ID)
	if err != nil {
		return err
	}
	cur.Fields = cloneFields(e.Fields)
	cur.UpdatedAt = e.UpdatedAt
	return nil
}

func (r fakeEntries) SetDraft(_ context.Context, userID, dateKey, id string, d *models.Draft) error {
	if err := r.m.fail("entries.SetDraft"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, err := r.lookup(userID, dateKey, id)
	if err != nil {
		return err
	}
	if d == nil {
		cur.Draft = nil
		return nil
	}
	c := *d
	c.Fields = cloneFields(d.Fields)
	cur.Draft = &c
	return nil
}

func (r fakeEntries) UpdateTags(_ context.Context, userID, id string, tags []string) error {
	if err := r.m.fail("entries.UpdateTags"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, err := r.lookup(userID, "", id)
	if err != nil {
		return err
	}
	cur.Tags = append([]string{}, tags...)
	return nil
}

func (r fakeEntries) Delete(_ context.Context, userID, dateKey, id string) error {
	if err := r.m.fail("entries.Delete"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, err := r.lookup(userID, dateKey, id); err != nil {
		return err
	}
	delete(r.m.entries, id)
	for k, a := range r.m.autosaves {
		if a.EntryID == id {
			delete(r.m.autosaves, k)
		}
	}
	for _, g := range r.m.groups {
		kept := g.EntryIDs[:0]
		for _, eid := range g.EntryIDs {
			if eid != id {
				kept = append(kept, eid)
			}
		}
		g.EntryIDs = kept
	}
	return nil
}

// --- autosaves ---

type fakeAutosaves struct{ m *memStore }

func (r fakeAutosaves) Upsert(_ context.Context, a *models.Autosave) error {
	if err := r.m.fail("autosaves.Upsert"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.autosaves[autosaveKey(a.EntryID, a.SessionID)] = cloneAutosave(a)
	return nil
}

func (r fakeAutosaves) Delete(_ context.Context, entryID, sessionID string) error {
	if err := r.m.fail("autosaves.Delete"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.autosaves, autosaveKey(entryID, sessionID))
	return nil
}

func (r fakeAutosaves) ListByUser(_ context.Context, userID, dateKey string) ([]*models.Autosave, error) {
	if err := r.m.fail("autosaves.ListByUser"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Autosave
	for _, a := range r.m.autosaves {
		e, ok := r.m.entries[a.EntryID]
		if !ok || e.UserID != userID || (dateKey != "" && e.DateKey != dateKey) {
			continue
		}
		out = append(out, cloneAutosave(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return autosaveKey(out[i].EntryID, out[i].SessionID) < autosaveKey(out[j].EntryID, out[j].SessionID)
	})
	return out, nil
}

func (r fakeAutosaves) UpdateTags(_ context.Context, entryID, sessionID string, tags []string) error {
	if err := r.m.fail("autosaves.UpdateTags"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.autosaves[autosaveKey(entryID, sessionID)]
	if !ok {
		return common.ErrorNotFound
	}
	a.Tags = append([]string{}, tags...)
	return nil
}

// --- profiles ---

type fakeProfiles struct{ m *memStore }

func (r fakeProfiles) Get(_ context.Context, userID string) (*models.Profile, error) {
	if err := r.m.fail("profiles.Get"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r fakeProfiles) Upsert(_ context.Context, p *models.Profile) (*models.Profile, error) {
	if err := r.m.fail("profiles.Upsert"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *p
	c.UpdatedAt = time.Now()
	r.m.profiles[p.UserID] = &c
	out := c
	return &out, nil
}

// --- groups ---

type fakeGroups struct{ m *memStore }

func (r fakeGroups) Create(_ context.Context, g *models.Group) (*models.Group, error) {
	if err := r.m.fail("groups.Create"); err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, x := range r.m.groups {
		if x.Code == g.Code {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := cloneGroup(g)
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.m.groups[c.ID] = c
	r.m.groupSeq[c.ID] = len(r.m.groupSeq)
	return cloneGroup(c), nil
}

func (r fakeGroups) lookup(userID, id string) (*models.Group, error) {
	g, ok := r.m.groups[id]
	if !ok || g.UserID != userID {
		return nil, common.ErrorNotFound
	}
	return g, nil
}

func (r fakeGroups) Rename(_ context.Context, userID, id, name string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, err := r.lookup(userID, id)
	if err != nil {
		return err
	}
	g.Name = name
	return nil
}

func (r fakeGroups) Delete(_ context.Context, userID, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, err := r.lookup(userID, id); err != nil {
		return err
	}
	delete(r.m.groups, id)
	return nil
}

func (r fakeGroups) Get(_ context.Context, userID, id string) (*models.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, err := r.lookup(userID, id)
	if err != nil {
		return nil, err
	}
	return cloneGroup(g), nil
}

func (r fakeGroups) List(_ context.Context, userID string) ([]*models.Group, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Group
	for _, g := range r.m.groups {
		if g.UserID == userID {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.m.groupSeq[out[i].ID] < r.m.groupSeq[out[j].ID] })
	return out, nil
}

func (r fakeGroups) ReplaceMembers(_ context.Context, groupID string, entryIDs []string) error {
	if err := r.m.fail("groups.ReplaceMembers"); err != nil {
		return err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	g, ok := r.m.groups[groupID]
	if !ok {
		return common.ErrorNotFound
	}
	g.EntryIDs = append([]string{}, entryIDs...)
	return nil
}
