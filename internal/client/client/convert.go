package client

import (
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/rpc"
)

func fromFields(f models.Fields) rpc.Fields {
	return rpc.Fields{Title: f.Title, Body: f.Body, Tags: f.Tags, Mood: f.Mood, CreatedAt: f.CreatedAt}
}

func toFields(f rpc.Fields) models.Fields {
	return models.Fields{Title: f.Title, Body: f.Body, Tags: f.Tags, Mood: f.Mood, CreatedAt: f.CreatedAt}
}

func toEntry(e *rpc.Entry) *models.Entry {
	out := &models.Entry{
		ID:        e.ID,
		DateKey:   e.DateKey,
		Fields:    toFields(e.Fields),
		UpdatedAt: e.UpdatedAt,
	}
	if e.Draft != nil {
		out.Draft = &models.Draft{Fields: toFields(e.Draft.Fields), UpdatedAt: e.Draft.UpdatedAt}
	}
	if len(e.Autosaves) > 0 {
		out.Autosaves = make(map[string]models.Autosave, len(e.Autosaves))
		for sid, a := range e.Autosaves {
			out.Autosaves[sid] = models.Autosave{Fields: toFields(a.Fields), SessionID: a.SessionID, UpdatedAt: a.UpdatedAt}
		}
	}
	return out
}

func toEntries(in []rpc.Entry) []*models.Entry {
	out := make([]*models.Entry, 0, len(in))
	for i := range in {
		out = append(out, toEntry(&in[i]))
	}
	return out
}

func toProfile(p *rpc.Profile) *models.Profile {
	return &models.Profile{Email: p.Email, DisplayName: p.DisplayName, Locale: p.Locale, UpdatedAt: p.UpdatedAt}
}

func toGroup(g *rpc.Group) *models.Group {
	return &models.Group{ID: g.ID, Code: g.Code, Name: g.Name, EntryIDs: g.EntryIDs, CreatedAt: g.CreatedAt}
}
