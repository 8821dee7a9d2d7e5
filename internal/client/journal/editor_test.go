package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = "2024-05-10"

func canonical(title string) models.Fields {
	return models.Fields{
		Title:     title,
		Body:      "<p>body</p>",
		Tags:      []string{"work"},
		Mood:      "fine",
		CreatedAt: time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC),
	}
}

func TestOpen_ShowsDraftOrCanonical(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEditor(t, store, "s1")

	en := store.seed(day, canonical("A"))
	require.NoError(t, e.Open(en, day))
	assert.Equal(t, ModeRead, e.Mode())
	assert.Equal(t, "A", e.Fields().Title)

	en.Draft = &models.Draft{Fields: models.Fields{Title: "D"}}
	require.NoError(t, e.Open(en, day))
	assert.Equal(t, "D", e.Fields().Title)

	assert.ErrorIs(t, e.Open(nil, day), ErrNoEntry)
}

func TestStartEditing_SeedPriority(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("canonical"))

	cases := []struct {
		name  string
		draft *models.Draft
		auto  map[string]models.Autosave
		want  string
	}{
		{name: "canonical", want: "canonical"},
		{name: "draft over canonical", draft: &models.Draft{Fields: models.Fields{Title: "draft"}}, want: "draft"},
		{
			name:  "own autosave over draft",
			draft: &models.Draft{Fields: models.Fields{Title: "draft"}},
			auto:  map[string]models.Autosave{"s1": {Fields: models.Fields{Title: "mine"}, SessionID: "s1"}},
			want:  "mine",
		},
		{
			name:  "other session's autosave ignored",
			draft: &models.Draft{Fields: models.Fields{Title: "draft"}},
			auto:  map[string]models.Autosave{"s2": {Fields: models.Fields{Title: "theirs"}, SessionID: "s2"}},
			want:  "draft",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := newTestEditor(t, store, "s1")
			snap := *en
			snap.Draft = tc.draft
			snap.Autosaves = tc.auto

			require.NoError(t, e.Open(&snap, day))
			require.NoError(t, e.StartEditing())
			assert.Equal(t, ModeEditing, e.Mode())
			assert.Equal(t, tc.want, e.Fields().Title)
			assert.False(t, e.IsDirty())
		})
	}
}

func TestStartEditingThenBack_WritesNoAutosaveOrDraft(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, sched := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	sched.fire()
	require.NoError(t, e.Back(context.Background()))

	got := store.snapshot(en.ID)
	assert.Nil(t, got.Draft)
	assert.Empty(t, got.Autosaves)
	assert.Equal(t, []string{"delete_autosave"}, store.callLog())
	assert.Equal(t, ModeClosed, e.Mode())
}

func TestDirty_FalseAfterSeedTrueAfterAnySingleMutation(t *testing.T) {
	mutations := map[string]func(*Editor) error{
		"title":      func(e *Editor) error { return e.SetTitle("B") },
		"body":       func(e *Editor) error { return e.SetBody("<p>other</p>") },
		"tags":       func(e *Editor) error { return e.SetTags([]string{"work", "home"}) },
		"add tag":    func(e *Editor) error { return e.AddTag("#home") },
		"remove tag": func(e *Editor) error { return e.RemoveTag("WORK") },
		"mood":       func(e *Editor) error { return e.SetMood("great") },
		"time": func(e *Editor) error {
			return e.SetTime(time.Date(2000, 1, 1, 21, 15, 0, 0, time.UTC))
		},
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			en := store.seed(day, canonical("A"))
			e, _ := newTestEditor(t, store, "s1")

			require.NoError(t, e.Open(en, day))
			require.NoError(t, e.StartEditing())
			require.False(t, e.IsDirty())

			require.NoError(t, mutate(e))
			assert.True(t, e.IsDirty())
		})
	}
}

func TestDirty_TagCaseAndOrderOfEqualLists(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())

	require.NoError(t, e.SetTags([]string{"#WORK"}))
	assert.False(t, e.IsDirty())

	require.NoError(t, e.SetTitle("B"))
	require.NoError(t, e.SetTitle("A"))
	assert.False(t, e.IsDirty())
}

func TestMutations_RequireEditing(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	assert.ErrorIs(t, e.SetTitle("x"), ErrNotEditing)
	require.NoError(t, e.Open(en, day))
	assert.ErrorIs(t, e.SetTitle("x"), ErrNotEditing)
	assert.NoError(t, e.StartEditing())
}

func TestSetters_NormalizeInput(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())

	require.NoError(t, e.SetBody("<p><br></p>"))
	assert.Equal(t, "", e.Fields().Body)

	require.NoError(t, e.SetTags([]string{" #Home", "home", "", "Work"}))
	assert.Equal(t, []string{"Home", "Work"}, e.Fields().Tags)

	assert.ErrorIs(t, e.SetMood("ecstatic"), common.ErrorValidation)
	require.NoError(t, e.SetMood(""))
	assert.Equal(t, "", e.Fields().Mood)

	require.NoError(t, e.SetTime(time.Date(1999, 12, 31, 22, 45, 30, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 5, 10, 22, 45, 30, 0, time.UTC), e.Fields().CreatedAt)
}

func TestDebounce_FlushesLatestBufferOnce(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, sched := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("B"))
	require.NoError(t, e.SetTitle("BC"))
	require.NoError(t, e.AddTag("Home"))

	assert.Equal(t, DefaultDebounce, sched.delays[0])
	assert.Empty(t, store.callLog())

	sched.fire()
	assert.Equal(t, []string{"autosave"}, store.callLog())

	got := store.snapshot(en.ID)
	require.Contains(t, got.Autosaves, "s1")
	assert.Equal(t, "BC", got.Autosaves["s1"].Title)
	assert.Equal(t, []string{"work", "Home"}, got.Autosaves["s1"].Tags)
	assert.Equal(t, "A", got.Title, "canonical fields untouched by autosave")
	assert.True(t, e.NeedsDiscardPrompt())
}

func TestDebounce_NoFlushWhenClean(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, sched := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("B"))
	require.NoError(t, e.SetTitle("A"))
	sched.fire()

	assert.Empty(t, store.callLog())
	assert.False(t, e.NeedsDiscardPrompt())
}

func TestFlush_WritesPendingChangeNow(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, sched := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	assert.False(t, e.Flush())

	require.NoError(t, e.SetTitle("B"))
	assert.True(t, e.Flush())
	assert.Equal(t, []string{"autosave"}, store.callLog())

	sched.fireAll()
	assert.Equal(t, []string{"autosave"}, store.callLog())
}

func TestDebounce_FailureIsRecorded(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, sched := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("B"))

	store.err = errors.New("offline")
	sched.fire()
	assert.EqualError(t, e.LastFlushError(), "offline")
	assert.True(t, e.IsDirty())
}

func TestSave_ClearsDraftAndOwnAutosave(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	ctx := context.Background()

	require.NoError(t, store.PromoteToDraft(ctx, day, en.ID, "s0", models.Fields{Title: "old draft"}))
	require.NoError(t, store.SaveAutosave(ctx, day, en.ID, "s2", models.Fields{Title: "other"}))

	e, sched := newTestEditor(t, store, "s1")
	require.NoError(t, e.Open(store.snapshot(en.ID), day))
	require.NoError(t, e.StartEditing())
	assert.Equal(t, "old draft", e.Fields().Title)

	require.NoError(t, e.SetTitle("final"))
	sched.fire()
	require.Contains(t, store.snapshot(en.ID).Autosaves, "s1")

	saved, err := e.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, "final", saved.Title)
	assert.Nil(t, saved.Draft)
	assert.NotContains(t, saved.Autosaves, "s1")
	assert.Contains(t, saved.Autosaves, "s2")
	assert.Equal(t, ModeClosed, e.Mode())

	sched.fireAll()
	assert.NotContains(t, store.snapshot(en.ID).Autosaves, "s1", "stale timer must not resurrect the autosave")
}

func TestSave_ErrorKeepsEditing(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("B"))

	store.err = errors.New("boom")
	_, err := e.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, ModeEditing, e.Mode())
	assert.Equal(t, "B", e.Fields().Title)
}

func TestFailedLeave_PendingEditStillAutosaves(t *testing.T) {
	leave := map[string]func(*Editor) error{
		"save": func(e *Editor) error {
			_, err := e.Save(context.Background())
			return err
		},
		"back":    func(e *Editor) error { return e.Back(context.Background()) },
		"discard": func(e *Editor) error { return e.Discard(context.Background()) },
		"delete":  func(e *Editor) error { return e.Delete(context.Background()) },
	}

	for name, fn := range leave {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			en := store.seed(day, canonical("A"))
			e, sched := newTestEditor(t, store, "s1")

			require.NoError(t, e.Open(en, day))
			require.NoError(t, e.StartEditing())
			require.NoError(t, e.SetTitle("B"))

			store.err = errors.New("network down")
			require.Error(t, fn(e))
			require.Equal(t, ModeEditing, e.Mode())
			require.True(t, e.IsDirty())

			store.err = nil
			sched.fire()

			saved, ok := store.snapshot(en.ID).AutosaveFor("s1")
			require.True(t, ok, "edit must reach the session autosave")
			assert.Equal(t, "B", saved.Title)
		})
	}
}

func TestDebounce_RetriesAfterFailure(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, sched := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("B"))

	store.err = errors.New("offline")
	sched.fire()
	require.Error(t, e.LastFlushError())

	store.err = nil
	assert.True(t, e.Flush())
	assert.NoError(t, e.LastFlushError())
	assert.Contains(t, store.snapshot(en.ID).Autosaves, "s1")
}

func TestBack_PromotesDirtyBuffer(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("B"))
	require.NoError(t, e.Back(context.Background()))

	got := store.snapshot(en.ID)
	require.NotNil(t, got.Draft)
	assert.Equal(t, "B", got.Draft.Title)
	assert.Equal(t, "A", got.Title)
	assert.Empty(t, got.Autosaves)
	assert.Equal(t, []string{"promote"}, store.callLog())
}

func TestBack_PromotesWhenOnlyAutosaveExists(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	require.NoError(t, store.SaveAutosave(context.Background(), day, en.ID, "s1", models.Fields{Title: "left over"}))

	e, _ := newTestEditor(t, store, "s1")
	require.NoError(t, e.Open(store.snapshot(en.ID), day))
	require.NoError(t, e.StartEditing())
	assert.False(t, e.IsDirty())
	assert.True(t, e.NeedsDiscardPrompt())

	require.NoError(t, e.Back(context.Background()))
	got := store.snapshot(en.ID)
	require.NotNil(t, got.Draft)
	assert.Equal(t, "left over", got.Draft.Title)
}

func TestBack_InReadModeJustCloses(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.Back(context.Background()))
	assert.Equal(t, ModeClosed, e.Mode())
	assert.Empty(t, store.callLog())
}

func TestDiscard_NewEmptyEntryIsDeleted(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEditor(t, store, "s1")

	created, err := e.NewEntry(context.Background(), day)
	require.NoError(t, err)
	assert.True(t, e.IsUnsavedNewEntry())
	assert.False(t, e.IsDirty())
	assert.False(t, e.NeedsDiscardPrompt())

	require.NoError(t, e.Discard(context.Background()))
	assert.Nil(t, store.snapshot(created.ID))
	assert.Equal(t, []string{"create", "delete"}, store.callLog())
}

func TestDiscard_DirtyEditKeepsEntryAndDraft(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	ctx := context.Background()
	require.NoError(t, store.PromoteToDraft(ctx, day, en.ID, "s0", models.Fields{Title: "shared"}))

	e, sched := newTestEditor(t, store, "s1")
	require.NoError(t, e.Open(store.snapshot(en.ID), day))
	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("mine"))
	sched.fire()
	require.True(t, e.NeedsDiscardPrompt())

	require.NoError(t, e.Discard(ctx))

	got := store.snapshot(en.ID)
	require.NotNil(t, got)
	assert.Equal(t, "A", got.Title)
	require.NotNil(t, got.Draft)
	assert.Equal(t, "shared", got.Draft.Title)
	assert.Empty(t, got.Autosaves)
	assert.Equal(t, ModeClosed, e.Mode())
}

func TestDiscard_NewEntryWithContentKeepsEntry(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEditor(t, store, "s1")

	created, err := e.NewEntry(context.Background(), day)
	require.NoError(t, err)
	require.NoError(t, e.SetTitle("something"))
	require.NoError(t, e.Discard(context.Background()))

	assert.NotNil(t, store.snapshot(created.ID))
}

func TestNewEntry_UsesBucketDayAndCurrentTime(t *testing.T) {
	store := newMemStore()
	e, _ := newTestEditor(t, store, "s1")

	created, err := e.NewEntry(context.Background(), "2024-04-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 14, 30, 15, 0, time.UTC), created.CreatedAt)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
	assert.Equal(t, ModeEditing, e.Mode())
	assert.Equal(t, "2024-04-01", e.DateKey())

	_, err = e.NewEntry(context.Background(), "01/04/2024")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestDelete(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	assert.ErrorIs(t, e.Delete(context.Background()), ErrNoEntry)

	require.NoError(t, e.Open(en, day))
	require.NoError(t, e.Delete(context.Background()))
	assert.Nil(t, store.snapshot(en.ID))
	assert.Equal(t, ModeClosed, e.Mode())
}

func TestMissingSessionID(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "")

	_, err := e.NewEntry(context.Background(), day)
	assert.ErrorIs(t, err, common.ErrMissingIdentifier)

	require.NoError(t, e.Open(en, day))
	assert.ErrorIs(t, e.StartEditing(), common.ErrMissingIdentifier)
	assert.Empty(t, store.callLog())
}

func TestApply(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")

	require.NoError(t, e.Open(en, day))

	upd := store.snapshot(en.ID)
	upd.Draft = &models.Draft{Fields: models.Fields{Title: "draft"}}
	e.Apply(upd)
	assert.Equal(t, "draft", e.Fields().Title, "read mode follows the feed")

	require.NoError(t, e.StartEditing())
	require.NoError(t, e.SetTitle("typing"))
	upd2 := store.snapshot(en.ID)
	upd2.Draft = &models.Draft{Fields: models.Fields{Title: "someone else"}}
	e.Apply(upd2)
	assert.Equal(t, "typing", e.Fields().Title, "edit buffer is left alone")

	other := store.seed(day, canonical("Z"))
	e.Apply(other)
	assert.Equal(t, en.ID, e.Entry().ID)

	e.Apply(nil)
	assert.Equal(t, ModeClosed, e.Mode())
}

func TestApply_TracksOwnAutosave(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	ctx := context.Background()
	require.NoError(t, store.SaveAutosave(ctx, day, en.ID, "s1", models.Fields{Title: "mine"}))

	e, _ := newTestEditor(t, store, "s1")
	require.NoError(t, e.Open(store.snapshot(en.ID), day))
	require.NoError(t, e.StartEditing())
	require.False(t, e.IsDirty())
	assert.True(t, e.NeedsDiscardPrompt(), "autosave backs the edit")

	require.NoError(t, store.DeleteAutosave(ctx, day, en.ID, "s1"))
	e.Apply(store.snapshot(en.ID))
	assert.False(t, e.NeedsDiscardPrompt(), "autosave is gone and nothing changed")

	require.NoError(t, store.SaveAutosave(ctx, day, en.ID, "s1", models.Fields{Title: "mine"}))
	e.Apply(store.snapshot(en.ID))
	assert.True(t, e.NeedsDiscardPrompt())
}

func TestApplySnapshot_ClosesWhenEntryGone(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	e, _ := newTestEditor(t, store, "s1")
	require.NoError(t, e.Open(en, day))

	e.ApplySnapshot("2024-05-11", nil)
	assert.Equal(t, ModeRead, e.Mode(), "other bucket ignored")

	e.ApplySnapshot(day, []*models.Entry{store.seed(day, canonical("B"))})
	assert.Equal(t, ModeClosed, e.Mode())
}

// Two sessions on one entry: the reader sees canonical "A" while the writer
// only autosaves, and the promoted draft "B" once the writer backs out.
func TestTwoSessions_ReaderSeesPromotedDraft(t *testing.T) {
	store := newMemStore()
	en := store.seed(day, canonical("A"))
	ctx := context.Background()

	writer, wsched := newTestEditor(t, store, "s1")
	reader, _ := newTestEditor(t, store, "s2")

	require.NoError(t, writer.Open(store.snapshot(en.ID), day))
	require.NoError(t, reader.Open(store.snapshot(en.ID), day))

	require.NoError(t, writer.StartEditing())
	require.NoError(t, writer.SetTitle("B"))
	wsched.fire()
	assert.Equal(t, "B", store.snapshot(en.ID).Autosaves["s1"].Title)

	reader.Apply(store.snapshot(en.ID))
	assert.Equal(t, "A", reader.Fields().Title)

	require.NoError(t, writer.Back(ctx))
	reader.Apply(store.snapshot(en.ID))
	assert.Equal(t, "B", reader.Fields().Title)
	assert.Equal(t, "A", store.snapshot(en.ID).Title)
}
