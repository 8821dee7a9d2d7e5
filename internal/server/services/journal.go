package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/richtext"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/daybook/internal/tags"
	"github.com/dmitrijs2005/daybook/internal/timex"
	"github.com/google/uuid"
)

// Notifier is told after every committed change to a user's entries.
type Notifier interface {
	Notify(userID string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// EntryRef addresses one entry inside a user's day bucket.
type EntryRef struct {
	UserID  string
	DateKey string
	EntryID string
}

// NewEntry is one entry to create, either from the editor or from an import.
type NewEntry struct {
	DateKey string
	Fields  models.Fields
}

// JournalService owns entries, their shared drafts and the per-session
// autosaves. Canonical fields only change through CreateEntry, Import and
// Finalize.
type JournalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	now         func() time.Time
}

// NewJournalService wires the journal service to the database. n is told
// about every change to a user's entries.
func NewJournalService(db *sql.DB, m repomanager.RepositoryManager, n Notifier) *JournalService {
	if n == nil {
		n = nopNotifier{}
	}
	return &JournalService{db: db, repomanager: m, notifier: n, now: time.Now}
}

// normalizeFields applies the write-boundary rules: tags normalized, blank
// bodies stored as "", mood from the known set.
func normalizeFields(f models.Fields) (models.Fields, error) {
	if !models.ValidMood(f.Mood) {
		return f, fmt.Errorf("%w: unknown mood %q", common.ErrorValidation, f.Mood)
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Body = richtext.Clean(f.Body)
	f.Tags = tags.NormalizeAll(f.Tags)
	return f, nil
}

func validateRef(ref EntryRef) error {
	if ref.UserID == "" {
		return common.ErrMissingIdentifier
	}
	if _, err := timex.ParseDateKey(ref.DateKey, time.UTC); err != nil {
		return fmt.Errorf("%w: bad date key %q", common.ErrorValidation, ref.DateKey)
	}
	// ids are uuid columns; anything else can never match a row
	if _, err := uuid.Parse(ref.EntryID); err != nil {
		return common.ErrorNotFound
	}
	return nil
}

// CreateEntry stores a new entry. A zero CreatedAt is set to now; UpdatedAt
// equals CreatedAt so a fresh entry reads as unsaved.
func (s *JournalService) CreateEntry(ctx context.Context, userID string, in NewEntry) (*models.Entry, error) {
	e, err := s.prepareEntry(userID, in)
	if err != nil {
		return nil, err
	}
	created, err := s.repomanager.Entries(s.db).Create(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("error creating entry: %w", err)
	}
	s.notifier.Notify(userID)
	return created, nil
}

func (s *JournalService) prepareEntry(userID string, in NewEntry) (*models.Entry, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	f, err := normalizeFields(in.Fields)
	if err != nil {
		return nil, err
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	f.CreatedAt = f.CreatedAt.Truncate(time.Second)

	dateKey := in.DateKey
	if dateKey == "" {
		dateKey = timex.DateKey(f.CreatedAt)
	}
	if _, err := timex.ParseDateKey(dateKey, time.UTC); err != nil {
		return nil, fmt.Errorf("%w: bad date key %q", common.ErrorValidation, dateKey)
	}

	return &models.Entry{
		UserID:    userID,
		DateKey:   dateKey,
		Fields:    f,
		UpdatedAt: f.CreatedAt,
	}, nil
}

// ListEntries returns one bucket (or every bucket when dateKey is "") with
// each entry's autosaves attached.
func (s *JournalService) ListEntries(ctx context.Context, userID, dateKey string) ([]*models.Entry, error) {
	if userID == "" {
		return nil, common.ErrMissingIdentifier
	}
	list, err := s.repomanager.Entries(s.db).List(ctx, userID, dateKey)
	if err != nil {
		return nil, err
	}
	saves, err := s.repomanager.Autosaves(s.db).ListByUser(ctx, userID, dateKey)
	if err != nil {
		return nil, err
	}
	attachAutosaves(list, saves)
	return list, nil
}

func attachAutosaves(list []*models.Entry, saves []*models.Autosave) {
	byID := make(map[string]*models.Entry, len(list))
	for _, e := range list {
		byID[e.ID] = e
	}
	for _, a := range saves {
		e, ok := byID[a.EntryID]
		if !ok {
			continue
		}
		if e.Autosaves == nil {
			e.Autosaves = make(map[string]*models.Autosave)
		}
		e.Autosaves[a.SessionID] = a
	}
}

// GetEntry returns one entry with its draft and autosaves.
func (s *JournalService) GetEntry(ctx context.Context, ref EntryRef) (*models.Entry, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	e, err := s.repomanager.Entries(s.db).Get(ctx, ref.UserID, ref.DateKey, ref.EntryID)
	if err != nil {
		return nil, err
	}
	saves, err := s.repomanager.Autosaves(s.db).ListByUser(ctx, ref.UserID, ref.DateKey)
	if err != nil {
		return nil, err
	}
	attachAutosaves([]*models.Entry{e}, saves)
	return e, nil
}

// SaveAutosave writes the session's edit buffer. The entry itself is left
// untouched.
func (s *JournalService) SaveAutosave(ctx context.Context, ref EntryRef, sessionID string, f models.Fields) error {
	if sessionID == "" {
		return common.ErrMissingIdentifier
	}
	if err := validateRef(ref); err != nil {
		return err
	}
	f, err := normalizeFields(f)
	if err != nil {
		return err
	}

	if _, err := s.repomanager.Entries(s.db).Get(ctx, ref.UserID, ref.DateKey, ref.EntryID); err != nil {
		return err
	}
	a := &models.Autosave{EntryID: ref.EntryID, SessionID: sessionID, Fields: f, UpdatedAt: s.now()}
	if err := s.repomanager.Autosaves(s.db).Upsert(ctx, a); err != nil {
		return fmt.Errorf("error saving autosave: %w", err)
	}
	s.notifier.Notify(ref.UserID)
	return nil
}

// DeleteAutosave drops the session's buffer. Deleting a missing autosave is
// not an error.
func (s *JournalService) DeleteAutosave(ctx context.Context, ref EntryRef, sessionID string) error {
	if sessionID == "" {
		return common.ErrMissingIdentifier
	}
	if err := validateRef(ref); err != nil {
		return err
	}
	if _, err := s.repomanager.Entries(s.db).Get(ctx, ref.UserID, ref.DateKey, ref.EntryID); err != nil {
		return err
	}
	if err := s.repomanager.Autosaves(s.db).Delete(ctx, ref.EntryID, sessionID); err != nil {
		return fmt.Errorf("error deleting autosave: %w", err)
	}
	s.notifier.Notify(ref.UserID)
	return nil
}

// PromoteToDraft turns the session's buffer into the entry's shared draft
// and drops the session's autosave, atomically.
func (s *JournalService) PromoteToDraft(ctx context.Context, ref EntryRef, sessionID string, f models.Fields) error {
	if sessionID == "" {
		return common.ErrMissingIdentifier
	}
	if err := validateRef(ref); err != nil {
		return err
	}
	f, err := normalizeFields(f)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Entries(tx).Get(ctx, ref.UserID, ref.DateKey, ref.EntryID); err != nil {
			return err
		}
		draft := &models.Draft{Fields: f, UpdatedAt: s.now()}
		if err := s.repomanager.Entries(tx).SetDraft(ctx, ref.UserID, ref.DateKey, ref.EntryID, draft); err != nil {
			return fmt.Errorf("error saving draft: %w", err)
		}
		if err := s.repomanager.Autosaves(tx).Delete(ctx, ref.EntryID, sessionID); err != nil {
			return fmt.Errorf("error deleting autosave: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(ref.UserID)
	return nil
}

// Finalize copies the buffer into the canonical fields, clears the shared
// draft and drops the session's autosave, atomically.
func (s *JournalService) Finalize(ctx context.Context, ref EntryRef, sessionID string, f models.Fields) (*models.Entry, error) {
	if sessionID == "" {
		return nil, common.ErrMissingIdentifier
	}
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	f, err := normalizeFields(f)
	if err != nil {
		return nil, err
	}

	var saved *models.Entry
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		e, err := s.repomanager.Entries(tx).Get(ctx, ref.UserID, ref.DateKey, ref.EntryID)
		if err != nil {
			return err
		}
		if f.CreatedAt.IsZero() {
			f.CreatedAt = e.CreatedAt
		}
		e.Fields = f
		e.UpdatedAt = s.now()
		if !e.UpdatedAt.After(e.CreatedAt) {
			e.UpdatedAt = e.CreatedAt.Add(time.Millisecond)
		}
		e.Draft = nil

		if err := s.repomanager.Entries(tx).UpdateFields(ctx, e); err != nil {
			return fmt.Errorf("error updating entry: %w", err)
		}
		if err := s.repomanager.Entries(tx).SetDraft(ctx, ref.UserID, ref.DateKey, ref.EntryID, nil); err != nil {
			return fmt.Errorf("error clearing draft: %w", err)
		}
		if err := s.repomanager.Autosaves(tx).Delete(ctx, ref.EntryID, sessionID); err != nil {
			return fmt.Errorf("error deleting autosave: %w", err)
		}
		saved = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ref.UserID)
	return saved, nil
}

// DeleteEntry removes the entry together with its draft, autosaves and group
// memberships.
func (s *JournalService) DeleteEntry(ctx context.Context, ref EntryRef) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	if err := s.repomanager.Entries(s.db).Delete(ctx, ref.UserID, ref.DateKey, ref.EntryID); err != nil {
		return err
	}
	s.notifier.Notify(ref.UserID)
	return nil
}

// RenameTag replaces from with to in the canonical tags, the draft tags and
// every autosave of the user, in one transaction. It returns how many rows
// changed.
func (s *JournalService) RenameTag(ctx context.Context, userID, from, to string) (int, error) {
	if userID == "" {
		return 0, common.ErrMissingIdentifier
	}
	from, to = tags.Normalize(from), tags.Normalize(to)
	if from == "" || to == "" {
		return 0, fmt.Errorf("%w: tag names must not be empty", common.ErrorValidation)
	}

	updated := 0
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entryRepo := s.repomanager.Entries(tx)
		list, err := entryRepo.List(ctx, userID, "")
		if err != nil {
			return err
		}
		for _, e := range list {
			if next, changed := tags.Rename(e.Tags, from, to); changed {
				if err := entryRepo.UpdateTags(ctx, userID, e.ID, next); err != nil {
					return fmt.Errorf("error renaming entry tags: %w", err)
				}
				updated++
			}
			if e.Draft == nil {
				continue
			}
			if next, changed := tags.Rename(e.Draft.Tags, from, to); changed {
				e.Draft.Tags = next
				if err := entryRepo.SetDraft(ctx, userID, e.DateKey, e.ID, e.Draft); err != nil {
					return fmt.Errorf("error renaming draft tags: %w", err)
				}
				updated++
			}
		}

		autosaveRepo := s.repomanager.Autosaves(tx)
		saves, err := autosaveRepo.ListByUser(ctx, userID, "")
		if err != nil {
			return err
		}
		for _, a := range saves {
			if next, changed := tags.Rename(a.Tags, from, to); changed {
				if err := autosaveRepo.UpdateTags(ctx, a.EntryID, a.SessionID, next); err != nil {
					return fmt.Errorf("error renaming autosave tags: %w", err)
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.notifier.Notify(userID)
	}
	return updated, nil
}

// Import creates all entries in one transaction. Either every entry is
// stored or none is.
func (s *JournalService) Import(ctx context.Context, userID string, in []NewEntry) (int, error) {
	prepared := make([]*models.Entry, 0, len(in))
	for i, ne := range in {
		e, err := s.prepareEntry(userID, ne)
		if err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
		prepared = append(prepared, e)
	}
	if len(prepared) == 0 {
		return 0, nil
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Entries(tx)
		for _, e := range prepared {
			if _, err := repo.Create(ctx, e); err != nil {
				return fmt.Errorf("error importing entry: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notifier.Notify(userID)
	return len(prepared), nil
}
