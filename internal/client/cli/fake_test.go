package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/importer"
	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/services"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/fatih/color"
)

var testNow = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

// fakeStore keeps entries in memory and records every write.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*models.Entry
	nextID  int
	calls   []string
	watched []string
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*models.Entry)}
}

func (s *fakeStore) record(call string) error {
	s.calls = append(s.calls, call)
	return s.err
}

func (s *fakeStore) callLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeStore) seed(dateKey string, f models.Fields) *models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("e%d", s.nextID)
	s.entries[id] = &models.Entry{ID: id, DateKey: dateKey, Fields: f, UpdatedAt: f.CreatedAt.Add(time.Minute)}
	return s.entries[id]
}

func (s *fakeStore) get(id string) *models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[id]
}

func (s *fakeStore) CreateEntry(_ context.Context, dateKey string, f models.Fields) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("create"); err != nil {
		return nil, err
	}
	s.nextID++
	id := fmt.Sprintf("e%d", s.nextID)
	e := &models.Entry{ID: id, DateKey: dateKey, Fields: f, UpdatedAt: f.CreatedAt}
	s.entries[id] = e
	out := *e
	return &out, nil
}

func (s *fakeStore) ListEntries(_ context.Context, dateKey string) ([]*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]*models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if dateKey == "" || e.DateKey == dateKey {
			c := *e
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetEntry(_ context.Context, _, entryID string) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[entryID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *e
	return &c, nil
}

func (s *fakeStore) SaveAutosave(_ context.Context, _, entryID, sessionID string, f models.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("autosave"); err != nil {
		return err
	}
	e := s.entries[entryID]
	if e.Autosaves == nil {
		e.Autosaves = map[string]models.Autosave{}
	}
	e.Autosaves[sessionID] = models.Autosave{Fields: f, SessionID: sessionID}
	return nil
}

func (s *fakeStore) DeleteAutosave(_ context.Context, _, entryID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("delete_autosave"); err != nil {
		return err
	}
	if e, ok := s.entries[entryID]; ok {
		delete(e.Autosaves, sessionID)
	}
	return nil
}

func (s *fakeStore) PromoteToDraft(_ context.Context, _, entryID, sessionID string, f models.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("promote"); err != nil {
		return err
	}
	e := s.entries[entryID]
	e.Draft = &models.Draft{Fields: f}
	delete(e.Autosaves, sessionID)
	return nil
}

func (s *fakeStore) Finalize(_ context.Context, _, entryID, sessionID string, f models.Fields) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("finalize"); err != nil {
		return nil, err
	}
	e := s.entries[entryID]
	e.Fields = f
	e.Draft = nil
	delete(e.Autosaves, sessionID)
	c := *e
	return &c, nil
}

func (s *fakeStore) DeleteEntry(_ context.Context, _, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("delete"); err != nil {
		return err
	}
	delete(s.entries, entryID)
	return nil
}

func (s *fakeStore) WatchEntries(ctx context.Context, dateKey string, _ func([]*models.Entry)) error {
	s.mu.Lock()
	s.watched = append(s.watched, dateKey)
	s.mu.Unlock()
	<-ctx.Done()
	return nil
}

type fakeAuth struct {
	regEmail, regPass     string
	loginEmail, loginPass string
	loginErr              error
	restoreErr            error
	loggedOut             bool
	passCurrent, passNext string
	emailNew              string
	profile               *models.Profile
	lastEmail             string
	pingErr               error
}

func (f *fakeAuth) Register(_ context.Context, email, password string) error {
	f.regEmail, f.regPass = email, password
	return nil
}
func (f *fakeAuth) Login(_ context.Context, email, password string) error {
	f.loginEmail, f.loginPass = email, password
	return f.loginErr
}
func (f *fakeAuth) Restore(context.Context) error { return f.restoreErr }
func (f *fakeAuth) Logout(context.Context) error {
	f.loggedOut = true
	return nil
}
func (f *fakeAuth) ChangePassword(_ context.Context, current, next string) error {
	f.passCurrent, f.passNext = current, next
	return nil
}
func (f *fakeAuth) ChangeEmail(_ context.Context, _, newEmail string) error {
	f.emailNew = newEmail
	return nil
}
func (f *fakeAuth) Profile(context.Context) (*models.Profile, error) {
	if f.profile == nil {
		return nil, common.ErrorNotFound
	}
	return f.profile, nil
}
func (f *fakeAuth) UpdateProfile(_ context.Context, displayName, locale string) (*models.Profile, error) {
	f.profile = &models.Profile{Email: "a@b.c", DisplayName: displayName, Locale: locale}
	return f.profile, nil
}
func (f *fakeAuth) SessionID(context.Context) (string, error) { return "s1", nil }
func (f *fakeAuth) LastEmail(context.Context) string          { return f.lastEmail }
func (f *fakeAuth) Ping(context.Context) error                { return f.pingErr }
func (f *fakeAuth) Close(context.Context) error               { return nil }

type fakeLibrary struct {
	groups     []*models.Group
	renamed    [2]string
	imported   string
	exportBody string
}

func (f *fakeLibrary) ImportCSV(_ context.Context, r io.Reader) (*services.ImportResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.imported = string(b)
	return &services.ImportResult{
		Rows:     3,
		Imported: 1,
		Skipped: []importer.Skip{
			{Row: 2, Reason: importer.ReasonEmpty},
			{Row: 3, Reason: importer.ReasonInvalidDate},
		},
	}, nil
}
func (f *fakeLibrary) ExportCSV(_ context.Context, w io.Writer) (*models.Export, int64, error) {
	n, err := io.WriteString(w, f.exportBody)
	return &models.Export{Count: 2}, int64(n), err
}
func (f *fakeLibrary) RenameTag(_ context.Context, from, to string) (int, error) {
	f.renamed = [2]string{from, to}
	return 4, nil
}
func (f *fakeLibrary) Groups(context.Context) ([]*models.Group, error) { return f.groups, nil }
func (f *fakeLibrary) SaveGroup(_ context.Context, id, name string) (*models.Group, error) {
	if id == "" {
		g := &models.Group{ID: fmt.Sprintf("g%d", len(f.groups)+1), Code: "ABC123", Name: name}
		f.groups = append(f.groups, g)
		return g, nil
	}
	for _, g := range f.groups {
		if g.ID == id {
			g.Name = name
			return g, nil
		}
	}
	return nil, common.ErrorNotFound
}
func (f *fakeLibrary) DeleteGroup(_ context.Context, id string) error {
	for i, g := range f.groups {
		if g.ID == id {
			f.groups = append(f.groups[:i], f.groups[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}
func (f *fakeLibrary) AddToGroup(_ context.Context, groupID string, entryIDs ...string) (*models.Group, error) {
	for _, g := range f.groups {
		if g.ID == groupID {
			g.EntryIDs = append(g.EntryIDs, entryIDs...)
			return g, nil
		}
	}
	return nil, common.ErrorNotFound
}
func (f *fakeLibrary) RemoveFromGroup(_ context.Context, groupID string, _ ...string) (*models.Group, error) {
	for _, g := range f.groups {
		if g.ID == groupID {
			g.EntryIDs = nil
			return g, nil
		}
	}
	return nil, common.ErrorNotFound
}

type testApp struct {
	*App
	store *fakeStore
	auth  *fakeAuth
	lib   *fakeLibrary
	out   *bytes.Buffer
	lines *[]string
}

// newTestApp builds a logged-in App over fakes. printlnFn output is captured
// in lines; table output goes to out.
func newTestApp(t *testing.T, input string) *testApp {
	t.Helper()

	origNoColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = origNoColor })

	lines := captureOutput(t)

	store := newFakeStore()
	auth := &fakeAuth{}
	lib := &fakeLibrary{}
	out := &bytes.Buffer{}
	logger := logging.New(io.Discard, "text", "error")

	a := &App{
		logger:         logger,
		authService:    auth,
		libraryService: lib,
		entries:        store,
		editor:         journal.NewEditor(store, "s1", time.Hour, logger),
		reader:         bufio.NewReader(strings.NewReader(input)),
		out:            out,
		now:            func() time.Time { return testNow },
		loggedIn:       true,
		email:          "a@b.c",
	}
	t.Cleanup(a.stopWatch)
	t.Cleanup(a.editor.Close)

	return &testApp{App: a, store: store, auth: auth, lib: lib, out: out, lines: lines}
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

// stubConfirm answers the confirmation prompts in order and fails the test
// when asked more often.
func stubConfirm(t *testing.T, answers ...bool) *[]string {
	t.Helper()
	var asked []string
	orig := getConfirmation
	getConfirmation = func(_ *bufio.Reader, prompt string, _ io.Writer) (bool, error) {
		asked = append(asked, prompt)
		if len(asked) > len(answers) {
			t.Fatalf("unexpected prompt %q", prompt)
		}
		return answers[len(asked)-1], nil
	}
	t.Cleanup(func() { getConfirmation = orig })
	return &asked
}
