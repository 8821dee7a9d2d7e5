// Package models defines the client-side view of journal data as received
// from the server.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/richtext"
	"github.com/dmitrijs2005/daybook/internal/tags"
)

// Mood is one accepted mood key with its display emoji and label.
type Mood struct {
	Key   string
	Emoji string
	Label string
}

// Moods is ordered from worst to best.
var Moods = []Mood{
	{Key: "terrible", Emoji: "😢", Label: "Terrible"},
	{Key: "gloomy", Emoji: "🙁", Label: "Gloomy"},
	{Key: "fine", Emoji: "😐", Label: "Fine"},
	{Key: "good", Emoji: "🙂", Label: "Good"},
	{Key: "great", Emoji: "😄", Label: "Great"},
}

// LookupMood returns the mood for key; ok is false for "" and unknown keys.
func LookupMood(key string) (Mood, bool) {
	for _, m := range Moods {
		if m.Key == key {
			return m, true
		}
	}
	return Mood{}, false
}

// Fields is the editable content of an entry, draft or autosave.
type Fields struct {
	Title     string
	Body      string
	Tags      []string
	Mood      string
	CreatedAt time.Time
}

// IsEmpty reports whether f carries no content: blank title, blank body
// text, no tags and no mood.
func (f Fields) IsEmpty() bool {
	return strings.TrimSpace(f.Title) == "" &&
		richtext.IsBlank(f.Body) &&
		len(tags.NormalizeAll(f.Tags)) == 0 &&
		f.Mood == ""
}

// Clone returns a copy that does not share the tag slice.
func (f Fields) Clone() Fields {
	f.Tags = append([]string(nil), f.Tags...)
	return f
}

// Draft is the shared work-in-progress copy of an entry, visible to every
// session.
type Draft struct {
	Fields
	UpdatedAt time.Time
}

// Autosave is one session's private, periodically written buffer.
type Autosave struct {
	Fields
	SessionID string
	UpdatedAt time.Time
}

// Entry is a journal entry with its canonical fields, the optional shared
// draft and the autosaves keyed by session id.
type Entry struct {
	ID      string
	DateKey string
	Fields
	UpdatedAt time.Time
	Draft     *Draft
	Autosaves map[string]Autosave
}

// ReadView is what a session that is not editing shows: the shared draft when
// there is one, otherwise the canonical fields.
func (e *Entry) ReadView() Fields {
	if e.Draft != nil {
		return e.Draft.Fields
	}
	return e.Fields
}

// EffectiveTags are the normalized tags of the read view.
func (e *Entry) EffectiveTags() []string {
	return tags.NormalizeAll(e.ReadView().Tags)
}

func (e *Entry) AutosaveFor(sessionID string) (Autosave, bool) {
	a, ok := e.Autosaves[sessionID]
	return a, ok
}

func (e *Entry) HasDraft() bool {
	return e.Draft != nil
}

// IsUnsavedNew reports an entry that was created but never finalized with
// content: no title, no body text, and createdAt equal to updatedAt.
func (e *Entry) IsUnsavedNew() bool {
	return e.Title == "" &&
		richtext.IsBlank(e.Body) &&
		!e.CreatedAt.IsZero() &&
		e.CreatedAt.Equal(e.UpdatedAt)
}

// Profile holds the user's display settings.
type Profile struct {
	Email       string
	DisplayName string
	Locale      string
	UpdatedAt   time.Time
}

// Initials are the first letters of the first two words of the display name,
// else the first letter of the email, else "?".
func (p Profile) Initials() string {
	if parts := strings.Fields(p.DisplayName); len(parts) > 0 {
		out := firstRune(parts[0])
		if len(parts) > 1 {
			out += firstRune(parts[1])
		}
		return strings.ToUpper(out)
	}
	if p.Email != "" {
		return strings.ToUpper(firstRune(p.Email))
	}
	return "?"
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// Group is a named collection of entries.
type Group struct {
	ID        string
	Code      string
	Name      string
	EntryIDs  []string
	CreatedAt time.Time
}

// Export describes a finished CSV export waiting in object storage.
type Export struct {
	Key       string
	URL       string
	Count     int
	ExpiresAt time.Time
}
