package grpc

import (
	"github.com/dmitrijs2005/daybook/internal/rpc"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/services"
)

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func toRPCFields(f models.Fields) rpc.Fields {
	return rpc.Fields{Title: f.Title, Body: f.Body, Tags: nonNil(f.Tags), Mood: f.Mood, CreatedAt: f.CreatedAt}
}

func fromRPCFields(f rpc.Fields) models.Fields {
	return models.Fields{Title: f.Title, Body: f.Body, Tags: f.Tags, Mood: f.Mood, CreatedAt: f.CreatedAt}
}

func toRPCEntry(e *models.Entry) rpc.Entry {
	out := rpc.Entry{
		ID:        e.ID,
		DateKey:   e.DateKey,
		Fields:    toRPCFields(e.Fields),
		UpdatedAt: e.UpdatedAt,
	}
	if e.Draft != nil {
		out.Draft = &rpc.Draft{Fields: toRPCFields(e.Draft.Fields), UpdatedAt: e.Draft.UpdatedAt}
	}
	if len(e.Autosaves) > 0 {
		out.Autosaves = make(map[string]rpc.Autosave, len(e.Autosaves))
		for sid, a := range e.Autosaves {
			out.Autosaves[sid] = rpc.Autosave{Fields: toRPCFields(a.Fields), SessionID: sid, UpdatedAt: a.UpdatedAt}
		}
	}
	return out
}

func toRPCEntries(list []*models.Entry) []rpc.Entry {
	out := make([]rpc.Entry, 0, len(list))
	for _, e := range list {
		out = append(out, toRPCEntry(e))
	}
	return out
}

func toRPCGroup(g *models.Group) rpc.Group {
	return rpc.Group{ID: g.ID, Code: g.Code, Name: g.Name, EntryIDs: nonNil(g.EntryIDs), CreatedAt: g.CreatedAt}
}

func toAuthResponse(p *services.TokenPair) *rpc.AuthResponse {
	return &rpc.AuthResponse{UserID: p.UserID, AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func entryRef(userID string, in rpc.EntryRef) services.EntryRef {
	return services.EntryRef{UserID: userID, DateKey: in.DateKey, EntryID: in.EntryID}
}
