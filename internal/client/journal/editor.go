package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/richtext"
	"github.com/dmitrijs2005/daybook/internal/tags"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// DefaultDebounce is the quiet period before a pending edit is autosaved.
const DefaultDebounce = 450 * time.Millisecond

// flushTimeout bounds one autosave write started by the debounce timer.
const flushTimeout = 10 * time.Second

// Errors returned when an operation needs a selected entry or edit mode.
var (
	ErrNoEntry    = errors.New("no entry selected")
	ErrNotEditing = errors.New("not editing")
)

// Mode is the editor's state for the selected entry.
type Mode int

const (
	ModeClosed Mode = iota
	ModeRead
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeEditing:
		return "editing"
	default:
		return "closed"
	}
}

type stopper interface {
	Stop() bool
}

// Editor is safe for concurrent use. Store calls are made while holding the
// editor's lock, so a debounced autosave never overtakes Save, Back or
// Discard.
type Editor struct {
	store     Store
	sessionID string
	debounce  time.Duration
	logger    logging.Logger

	afterFunc func(d time.Duration, f func()) stopper
	now       func() time.Time

	mu        sync.Mutex
	mode      Mode
	dateKey   string
	entry     *models.Entry
	buffer    models.Fields
	baseline  models.Fields
	autosaved bool
	timer     stopper
	gen       uint64
	flushErr  error
}

// NewEditor returns a closed editor for one session. A debounce <= 0 means
// DefaultDebounce.
func NewEditor(store Store, sessionID string, debounce time.Duration, l logging.Logger) *Editor {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Editor{
		store:     store,
		sessionID: sessionID,
		debounce:  debounce,
		logger:    l.With("module", "editor"),
		afterFunc: func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) },
		now:       time.Now,
	}
}

// Mode returns the current mode.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Entry returns the latest snapshot of the selected entry, or nil.
func (e *Editor) Entry() *models.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entry
}

func (e *Editor) DateKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dateKey
}

// Fields is what the session currently shows: the edit buffer while
// editing, the read view otherwise.
func (e *Editor) Fields() models.Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.Clone()
}

// LastFlushError is the error of the most recent debounced autosave, if it
// failed.
func (e *Editor) LastFlushError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flushErr
}

// Open selects entry in read mode. Whatever was selected before is dropped
// without writing; callers leave an entry with Back or Save first.
func (e *Editor) Open(entry *models.Entry, dateKey string) error {
	if entry == nil || entry.ID == "" {
		return ErrNoEntry
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTimerLocked()
	e.mode = ModeRead
	e.entry = entry
	e.dateKey = dateKey
	e.autosaved = false
	e.flushErr = nil
	e.buffer = entry.ReadView().Clone()
	return nil
}

// Apply takes a fresh snapshot of the selected entry from the change feed.
// nil means the entry is gone and closes the editor. Snapshots of other
// entries are ignored.
func (e *Editor) Apply(entry *models.Entry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == ModeClosed {
		return
	}
	if entry == nil {
		e.closeLocked()
		return
	}
	if e.entry != nil && entry.ID != e.entry.ID {
		return
	}

	e.entry = entry
	_, e.autosaved = entry.AutosaveFor(e.sessionID)
	if e.mode == ModeRead {
		e.buffer = entry.ReadView().Clone()
	}
}

// ApplySnapshot finds the selected entry in a bucket snapshot and applies
// it. A snapshot of a different bucket is ignored.
func (e *Editor) ApplySnapshot(dateKey string, entries []*models.Entry) {
	e.mu.Lock()
	if e.mode == ModeClosed || e.entry == nil || (dateKey != "" && dateKey != e.dateKey) {
		e.mu.Unlock()
		return
	}
	id := e.entry.ID
	e.mu.Unlock()

	var found *models.Entry
	for _, en := range entries {
		if en.ID == id {
			found = en
			break
		}
	}
	e.Apply(found)
}

// StartEditing seeds the buffer from the session's own autosave, else the
// shared draft, else the canonical fields. The seed becomes the baseline.
func (e *Editor) StartEditing() error {
	if e.sessionID == "" {
		return common.ErrMissingIdentifier
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.entry == nil:
		return ErrNoEntry
	case e.mode == ModeEditing:
		return nil
	}

	var seed models.Fields
	own, hasOwn := e.entry.AutosaveFor(e.sessionID)
	switch {
	case hasOwn:
		seed = own.Fields
	case e.entry.Draft != nil:
		seed = e.entry.Draft.Fields
	default:
		seed = e.entry.Fields
	}

	e.mode = ModeEditing
	e.autosaved = hasOwn
	e.flushErr = nil
	e.buffer = seed.Clone()
	e.baseline = seed.Clone()
	return nil
}

// NewEntry creates an empty entry in the dateKey bucket at the current time
// of day and starts editing it with an empty baseline.
func (e *Editor) NewEntry(ctx context.Context, dateKey string) (*models.Entry, error) {
	if e.sessionID == "" {
		return nil, common.ErrMissingIdentifier
	}

	now := e.now()
	day, err := timex.ParseDateKey(dateKey, now.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", common.ErrorValidation, dateKey)
	}
	createdAt := timex.MergeDayAndTime(day, now)

	e.mu.Lock()
	defer e.mu.Unlock()

	created, err := e.store.CreateEntry(ctx, dateKey, models.Fields{CreatedAt: createdAt})
	if err != nil {
		return nil, err
	}

	e.stopTimerLocked()
	e.mode = ModeEditing
	e.entry = created
	e.dateKey = dateKey
	e.autosaved = false
	e.flushErr = nil
	e.baseline = models.Fields{CreatedAt: created.CreatedAt}
	e.buffer = e.baseline.Clone()
	return created, nil
}

func (e *Editor) SetTitle(title string) error {
	return e.mutate(func(f *models.Fields) error {
		f.Title = title
		return nil
	})
}

// SetBody stores HTML whose text is blank as "".
func (e *Editor) SetBody(body string) error {
	return e.mutate(func(f *models.Fields) error {
		f.Body = richtext.Clean(body)
		return nil
	})
}

func (e *Editor) SetTags(list []string) error {
	return e.mutate(func(f *models.Fields) error {
		f.Tags = tags.NormalizeAll(list)
		return nil
	})
}

func (e *Editor) AddTag(tag string) error {
	return e.mutate(func(f *models.Fields) error {
		f.Tags = tags.Add(f.Tags, tag)
		return nil
	})
}

func (e *Editor) RemoveTag(tag string) error {
	return e.mutate(func(f *models.Fields) error {
		f.Tags = tags.Remove(f.Tags, tag)
		return nil
	})
}

// SetMood accepts a key from models.Moods or "" to clear the mood.
func (e *Editor) SetMood(mood string) error {
	if _, ok := models.LookupMood(mood); mood != "" && !ok {
		return fmt.Errorf("%w: unknown mood %q", common.ErrorValidation, mood)
	}
	return e.mutate(func(f *models.Fields) error {
		f.Mood = mood
		return nil
	})
}

// SetTime keeps the entry's day, as seen in clock's location, and takes the
// time of day from clock.
func (e *Editor) SetTime(clock time.Time) error {
	return e.mutate(func(f *models.Fields) error {
		if f.CreatedAt.IsZero() {
			return fmt.Errorf("%w: entry has no date", common.ErrorValidation)
		}
		f.CreatedAt = timex.MergeDayAndTime(f.CreatedAt.In(clock.Location()), clock)
		return nil
	})
}

func (e *Editor) mutate(fn func(*models.Fields) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	if err := fn(&e.buffer); err != nil {
		return err
	}
	e.armLocked()
	return nil
}

func (e *Editor) armLocked() {
	e.stopTimerLocked()
	gen := e.gen
	e.timer = e.afterFunc(e.debounce, func() { e.flush(gen) })
}

// rearmLocked restarts the debounce after a failed write, so a dirty buffer
// still reaches the session autosave once the store is back.
func (e *Editor) rearmLocked() {
	if e.mode == ModeEditing && e.isDirtyLocked() {
		e.armLocked()
	}
}

func (e *Editor) stopTimerLocked() {
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// flush runs on the debounce timer. A timer that was re-armed or stopped in
// the meantime finds a newer generation and does nothing.
func (e *Editor) flush(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return
	}
	e.timer = nil
	e.flushLocked()
}

// Flush writes a pending debounced change now instead of waiting for the
// timer. It reports whether anything was written.
func (e *Editor) Flush() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timer == nil {
		return false
	}
	e.stopTimerLocked()
	return e.flushLocked()
}

func (e *Editor) flushLocked() bool {
	if e.mode != ModeEditing || !e.isDirtyLocked() {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	err := e.store.SaveAutosave(ctx, e.dateKey, e.entry.ID, e.sessionID, e.payloadLocked())
	e.flushErr = err
	if err != nil {
		e.logger.Warn(ctx, "autosave failed", "entry_id", e.entry.ID, "error", err)
		e.rearmLocked()
		return false
	}
	e.autosaved = true
	return true
}

func (e *Editor) payloadLocked() models.Fields {
	f := e.buffer.Clone()
	f.Body = richtext.Clean(f.Body)
	f.Tags = tags.NormalizeAll(f.Tags)
	return f
}

func (e *Editor) IsDirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isDirtyLocked()
}

func (e *Editor) isDirtyLocked() bool {
	if e.mode != ModeEditing {
		return false
	}
	return fieldsDiffer(e.buffer, e.baseline)
}

func fieldsDiffer(a, b models.Fields) bool {
	return a.Title != b.Title ||
		a.Body != b.Body ||
		tags.Fingerprint(a.Tags) != tags.Fingerprint(b.Tags) ||
		a.Mood != b.Mood ||
		!a.CreatedAt.Equal(b.CreatedAt)
}

func (e *Editor) hasOwnAutosaveLocked() bool {
	if e.autosaved {
		return true
	}
	if e.entry == nil {
		return false
	}
	_, ok := e.entry.AutosaveFor(e.sessionID)
	return ok
}

// NeedsDiscardPrompt reports whether leaving through an explicit discard
// would lose work: editing, and dirty or backed by an autosave.
func (e *Editor) NeedsDiscardPrompt() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode == ModeEditing && (e.isDirtyLocked() || e.hasOwnAutosaveLocked())
}

// IsUnsavedNewEntry reports whether the selected entry was created and never
// saved with content.
func (e *Editor) IsUnsavedNewEntry() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entry != nil && e.entry.IsUnsavedNew()
}

func (e *Editor) requireEditingLocked() error {
	if e.sessionID == "" {
		return common.ErrMissingIdentifier
	}
	if e.entry == nil {
		return ErrNoEntry
	}
	if e.mode != ModeEditing {
		return ErrNotEditing
	}
	return nil
}

// Save writes the buffer to the canonical fields. The server clears the
// shared draft and this session's autosave in the same operation.
func (e *Editor) Save(ctx context.Context) (*models.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireEditingLocked(); err != nil {
		return nil, err
	}
	e.stopTimerLocked()

	saved, err := e.store.Finalize(ctx, e.dateKey, e.entry.ID, e.sessionID, e.payloadLocked())
	if err != nil {
		e.rearmLocked()
		return nil, err
	}
	e.closeLocked()
	return saved, nil
}

// Back leaves the entry without asking. Unsaved work is promoted to the
// shared draft so other sessions see it.
func (e *Editor) Back(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode != ModeEditing {
		e.closeLocked()
		return nil
	}
	if err := e.requireEditingLocked(); err != nil {
		return err
	}
	e.stopTimerLocked()

	var err error
	if e.isDirtyLocked() || e.hasOwnAutosaveLocked() {
		err = e.store.PromoteToDraft(ctx, e.dateKey, e.entry.ID, e.sessionID, e.payloadLocked())
	} else {
		err = e.store.DeleteAutosave(ctx, e.dateKey, e.entry.ID, e.sessionID)
	}
	if err != nil {
		e.rearmLocked()
		return err
	}
	e.closeLocked()
	return nil
}

// Discard drops this session's edits. An entry that is empty both on the
// server and in the buffer is deleted outright. The shared draft is kept.
func (e *Editor) Discard(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireEditingLocked(); err != nil {
		return err
	}
	e.stopTimerLocked()

	var err error
	if e.entry.Fields.IsEmpty() && e.buffer.IsEmpty() {
		err = e.store.DeleteEntry(ctx, e.dateKey, e.entry.ID)
	} else {
		err = e.store.DeleteAutosave(ctx, e.dateKey, e.entry.ID, e.sessionID)
	}
	if err != nil {
		e.rearmLocked()
		return err
	}
	e.closeLocked()
	return nil
}

// Delete removes the selected entry in any mode.
func (e *Editor) Delete(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.entry == nil {
		return ErrNoEntry
	}
	e.stopTimerLocked()

	if err := e.store.DeleteEntry(ctx, e.dateKey, e.entry.ID); err != nil {
		e.rearmLocked()
		return err
	}
	e.closeLocked()
	return nil
}

// Close deselects without writing anything.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

func (e *Editor) closeLocked() {
	e.stopTimerLocked()
	e.mode = ModeClosed
	e.entry = nil
	e.dateKey = ""
	e.buffer = models.Fields{}
	e.baseline = models.Fields{}
	e.autosaved = false
}
