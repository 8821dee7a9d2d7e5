package journal

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
)

// memStore mimics the server's entry semantics in memory.
type memStore struct {
	mu      sync.Mutex
	entries map[string]*models.Entry
	nextID  int
	clock   time.Time
	calls   []string
	err     error
}

func newMemStore() *memStore {
	return &memStore{
		entries: make(map[string]*models.Entry),
		clock:   time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memStore) record(call string) error {
	m.calls = append(m.calls, call)
	return m.err
}

// seed stores a finalized entry and returns its snapshot.
func (m *memStore) seed(dateKey string, f models.Fields) *models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := fmt.Sprintf("e%d", m.nextID)
	if f.CreatedAt.IsZero() {
		f.CreatedAt = m.clock
	}
	m.entries[id] = &models.Entry{ID: id, DateKey: dateKey, Fields: f.Clone(), UpdatedAt: m.tick()}
	return m.snapshotLocked(id)
}

func (m *memStore) snapshot(id string) *models.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(id)
}

func (m *memStore) snapshotLocked(id string) *models.Entry {
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	out := *e
	out.Fields = e.Fields.Clone()
	if e.Draft != nil {
		d := *e.Draft
		d.Fields = e.Draft.Fields.Clone()
		out.Draft = &d
	}
	if len(e.Autosaves) > 0 {
		out.Autosaves = make(map[string]models.Autosave, len(e.Autosaves))
		for k, a := range e.Autosaves {
			a.Fields = a.Fields.Clone()
			out.Autosaves[k] = a
		}
	} else {
		out.Autosaves = nil
	}
	return &out
}

func (m *memStore) get(id string) (*models.Entry, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return e, nil
}

func (m *memStore) CreateEntry(_ context.Context, dateKey string, f models.Fields) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("create"); err != nil {
		return nil, err
	}
	m.nextID++
	id := fmt.Sprintf("e%d", m.nextID)
	f.CreatedAt = f.CreatedAt.Truncate(time.Second)
	m.entries[id] = &models.Entry{ID: id, DateKey: dateKey, Fields: f.Clone(), UpdatedAt: f.CreatedAt}
	return m.snapshotLocked(id), nil
}

func (m *memStore) SaveAutosave(_ context.Context, dateKey, entryID, sessionID string, f models.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("autosave"); err != nil {
		return err
	}
	e, err := m.get(entryID)
	if err != nil {
		return err
	}
	if e.Autosaves == nil {
		e.Autosaves = make(map[string]models.Autosave)
	}
	e.Autosaves[sessionID] = models.Autosave{Fields: f.Clone(), SessionID: sessionID, UpdatedAt: m.tick()}
	return nil
}

func (m *memStore) DeleteAutosave(_ context.Context, dateKey, entryID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete_autosave"); err != nil {
		return err
	}
	e, err := m.get(entryID)
	if err != nil {
		return err
	}
	delete(e.Autosaves, sessionID)
	return nil
}

func (m *memStore) PromoteToDraft(_ context.Context, dateKey, entryID, sessionID string, f models.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("promote"); err != nil {
		return err
	}
	e, err := m.get(entryID)
	if err != nil {
		return err
	}
	e.Draft = &models.Draft{Fields: f.Clone(), UpdatedAt: m.tick()}
	delete(e.Autosaves, sessionID)
	return nil
}

func (m *memStore) Finalize(_ context.Context, dateKey, entryID, sessionID string, f models.Fields) (*models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("finalize"); err != nil {
		return nil, err
	}
	e, err := m.get(entryID)
	if err != nil {
		return nil, err
	}
	e.Fields = f.Clone()
	e.UpdatedAt = m.tick()
	if !e.UpdatedAt.After(e.CreatedAt) {
		e.UpdatedAt = e.CreatedAt.Add(time.Second)
	}
	e.Draft = nil
	delete(e.Autosaves, sessionID)
	return m.snapshotLocked(entryID), nil
}

func (m *memStore) DeleteEntry(_ context.Context, dateKey, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("delete"); err != nil {
		return err
	}
	if _, err := m.get(entryID); err != nil {
		return err
	}
	delete(m.entries, entryID)
	return nil
}

func (m *memStore) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// ---- manual debounce timer ----

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) afterFunc(d time.Duration, fn func()) stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{fn: fn}
	s.timers = append(s.timers, t)
	s.delays = append(s.delays, d)
	return t
}

// fire runs every timer that was not stopped, as if its delay elapsed.
func (s *fakeScheduler) fire() {
	s.mu.Lock()
	pending := make([]*fakeTimer, 0, len(s.timers))
	for _, t := range s.timers {
		if !t.stopped {
			t.stopped = true
			pending = append(pending, t)
		}
	}
	s.mu.Unlock()

	for _, t := range pending {
		t.fn()
	}
}

// fireAll runs every timer ever armed, stopped or not, to prove stale
// callbacks are harmless.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	all := append([]*fakeTimer(nil), s.timers...)
	s.mu.Unlock()
	for _, t := range all {
		t.fn()
	}
}

func newTestEditor(t *testing.T, store Store, sessionID string) (*Editor, *fakeScheduler) {
	t.Helper()
	sched := &fakeScheduler{}
	e := NewEditor(store, sessionID, 0, logging.New(io.Discard, "text", "error"))
	e.afterFunc = sched.afterFunc
	e.now = func() time.Time { return time.Date(2024, 5, 10, 14, 30, 15, 500, time.UTC) }
	return e, sched
}
