package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Moods lists the accepted mood keys from worst to best. An empty mood means
// "not set".
var Moods = []string{"terrible", "gloomy", "fine", "good", "great"}

func ValidMood(m string) bool {
	if m == "" {
		return true
	}
	for _, v := range Moods {
		if v == m {
			return true
		}
	}
	return false
}

// Fields is the editable content shared by entries, drafts and autosaves.
type Fields struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Mood      string    `json:"mood"`
	CreatedAt time.Time `json:"createdAt"`
}

// Draft is the shared, not yet finalized version of an entry. It is stored
// as JSON in entries.draft.
type Draft struct {
	Fields
	UpdatedAt time.Time `json:"updatedAt"`
}

// Autosave is one session's in-progress edit buffer for an entry.
type Autosave struct {
	EntryID   string
	SessionID string
	Fields
	UpdatedAt time.Time
}

// Entry is the stored form of a journal entry.
type Entry struct {
	ID      string
	UserID  string
	DateKey string
	Fields
	UpdatedAt time.Time
	Draft     *Draft

	// Autosaves is keyed by session id. Repositories leave it nil; services
	// fill it when a caller needs the full picture.
	Autosaves map[string]*Autosave
}

// EncodeTags renders tags for a jsonb column. nil becomes "[]".
func EncodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encode tags: %w", err)
	}
	return string(b), nil
}

func DecodeTags(raw []byte) ([]string, error) {
	tags := []string{}
	if len(raw) == 0 {
		return tags, nil
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return tags, nil
}

// EncodeDraft renders a draft for the nullable entries.draft column.
func EncodeDraft(d *Draft) (*string, error) {
	if d == nil {
		return nil, nil
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}
	s := string(b)
	return &s, nil
}

func DecodeDraft(raw []byte) (*Draft, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	d := &Draft{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d, nil
}
