package journal

import (
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/richtext"
	"github.com/dmitrijs2005/daybook/internal/tags"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// PreviewLength is the rune limit of the text preview in list rows.
const PreviewLength = 140

// Row is one line of the entry list, built from the read view.
type Row struct {
	ID        string
	DateKey   string
	Title     string
	Preview   string
	TimeLabel string
	Tags      []string
	Mood      models.Mood
	HasMood   bool
	HasDraft  bool
	CreatedAt time.Time
}

// NewRow builds the list row for e from its read view.
func NewRow(e *models.Entry) Row {
	f := e.ReadView()

	title := strings.TrimSpace(f.Title)
	if title == "" {
		title = common.UntitledEntry
	}
	mood, ok := models.LookupMood(f.Mood)

	return Row{
		ID:        e.ID,
		DateKey:   e.DateKey,
		Title:     title,
		Preview:   richtext.Preview(f.Body, PreviewLength),
		TimeLabel: timex.FormatTime(f.CreatedAt.Local()),
		Tags:      tags.NormalizeAll(f.Tags),
		Mood:      mood,
		HasMood:   ok,
		HasDraft:  e.HasDraft(),
		CreatedAt: f.CreatedAt,
	}
}

// Rows returns the entries matching filter, newest first.
func Rows(entries []*models.Entry, filter *TagFilter) []Row {
	out := make([]Row, 0, len(entries))
	for _, e := range entries {
		if filter.Matches(e) {
			out = append(out, NewRow(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TagFilter is the set of active tags. An entry matches when its effective
// tags share at least one tag with the set; an empty set matches everything.
// A nil *TagFilter is an empty filter.
type TagFilter struct {
	active []string
}

func (f *TagFilter) Active() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.active...)
}

func (f *TagFilter) IsEmpty() bool {
	return f == nil || len(f.active) == 0
}

// Toggle switches tag on or off, ignoring case.
func (f *TagFilter) Toggle(tag string) {
	f.active = tags.Toggle(f.active, tag)
}

func (f *TagFilter) Clear() {
	f.active = nil
}

// Rename follows a tag rename so the filter keeps selecting the same entries.
func (f *TagFilter) Rename(from, to string) {
	f.active, _ = tags.Rename(f.active, from, to)
}

func (f *TagFilter) Matches(e *models.Entry) bool {
	if f.IsEmpty() {
		return true
	}
	return tags.Intersects(e.EffectiveTags(), f.active)
}

// AvailableTags is the union of every entry's effective tags, first spelling
// wins, sorted case-insensitively.
func AvailableTags(entries []*models.Entry) []string {
	lists := make([][]string, 0, len(entries))
	for _, e := range entries {
		lists = append(lists, e.EffectiveTags())
	}
	return tags.Union(lists...)
}

// DaysWithEntries returns the date keys that have at least one entry matching
// filter. It drives the calendar marks.
func DaysWithEntries(entries []*models.Entry, filter *TagFilter) map[string]bool {
	out := make(map[string]bool)
	for _, e := range entries {
		if filter.Matches(e) {
			out[e.DateKey] = true
		}
	}
	return out
}
