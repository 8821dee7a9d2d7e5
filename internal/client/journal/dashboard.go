package journal

import (
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// MoodCount is one bar of the mood histogram.
type MoodCount struct {
	Mood  models.Mood
	Count int
}

type TagCount struct {
	Tag   string
	Count int
}

type GroupCount struct {
	ID      string
	Name    string
	Code    string
	Members int
}

// Dashboard summarizes all of a user's entries.
type Dashboard struct {
	Total      int
	WithDrafts int
	Today      int
	Moods      []MoodCount
	NoMood     int
	TopTags    []TagCount
	Groups     []GroupCount
}

// BuildDashboard counts over the read view of entries. Moods follow the order
// of models.Moods; tags are ordered by count, then name, and cut to topTags
// (no limit when topTags <= 0).
func BuildDashboard(entries []*models.Entry, groups []*models.Group, now time.Time, topTags int) Dashboard {
	d := Dashboard{Total: len(entries)}
	today := timex.DateKey(now)

	moods := make(map[string]int, len(models.Moods))
	tagCounts := make(map[string]int)
	spelling := make(map[string]string)

	for _, e := range entries {
		if e.HasDraft() {
			d.WithDrafts++
		}
		if e.DateKey == today {
			d.Today++
		}

		f := e.ReadView()
		if _, ok := models.LookupMood(f.Mood); ok {
			moods[f.Mood]++
		} else {
			d.NoMood++
		}

		for _, t := range e.EffectiveTags() {
			k := strings.ToLower(t)
			if _, ok := spelling[k]; !ok {
				spelling[k] = t
			}
			tagCounts[k]++
		}
	}

	for _, m := range models.Moods {
		d.Moods = append(d.Moods, MoodCount{Mood: m, Count: moods[m.Key]})
	}

	for k, n := range tagCounts {
		d.TopTags = append(d.TopTags, TagCount{Tag: spelling[k], Count: n})
	}
	sort.Slice(d.TopTags, func(i, j int) bool {
		if d.TopTags[i].Count != d.TopTags[j].Count {
			return d.TopTags[i].Count > d.TopTags[j].Count
		}
		return strings.ToLower(d.TopTags[i].Tag) < strings.ToLower(d.TopTags[j].Tag)
	})
	if topTags > 0 && len(d.TopTags) > topTags {
		d.TopTags = d.TopTags[:topTags]
	}

	for _, g := range groups {
		d.Groups = append(d.Groups, GroupCount{ID: g.ID, Name: g.Name, Code: g.Code, Members: len(g.EntryIDs)})
	}
	return d
}
