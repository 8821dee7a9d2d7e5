package grpc

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/rpc"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/services"
	"google.golang.org/grpc"
)

func (s *GRPCServer) CreateEntry(ctx context.Context, req *rpc.CreateEntryRequest) (*rpc.Entry, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.journal.CreateEntry(ctx, userID, services.NewEntry{DateKey: req.DateKey, Fields: fromRPCFields(req.Fields)})
	if err != nil {
		return nil, toStatus(err)
	}
	out := toRPCEntry(e)
	return &out, nil
}

func (s *GRPCServer) ListEntries(ctx context.Context, req *rpc.ListEntriesRequest) (*rpc.ListEntriesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.journal.ListEntries(ctx, userID, req.DateKey)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.ListEntriesResponse{Entries: toRPCEntries(list)}, nil
}

func (s *GRPCServer) GetEntry(ctx context.Context, req *rpc.EntryRef) (*rpc.Entry, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.journal.GetEntry(ctx, entryRef(userID, *req))
	if err != nil {
		return nil, toStatus(err)
	}
	out := toRPCEntry(e)
	return &out, nil
}

func (s *GRPCServer) SaveAutosave(ctx context.Context, req *rpc.EditRequest) (*rpc.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.journal.SaveAutosave(ctx, entryRef(userID, req.EntryRef), req.SessionID, fromRPCFields(req.Fields)); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) DeleteAutosave(ctx context.Context, req *rpc.AutosaveRef) (*rpc.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.journal.DeleteAutosave(ctx, entryRef(userID, req.EntryRef), req.SessionID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) PromoteToDraft(ctx context.Context, req *rpc.EditRequest) (*rpc.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.journal.PromoteToDraft(ctx, entryRef(userID, req.EntryRef), req.SessionID, fromRPCFields(req.Fields)); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) FinalizeEntry(ctx context.Context, req *rpc.EditRequest) (*rpc.Entry, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	e, err := s.journal.Finalize(ctx, entryRef(userID, req.EntryRef), req.SessionID, fromRPCFields(req.Fields))
	if err != nil {
		return nil, toStatus(err)
	}
	out := toRPCEntry(e)
	return &out, nil
}

func (s *GRPCServer) DeleteEntry(ctx context.Context, req *rpc.EntryRef) (*rpc.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.journal.DeleteEntry(ctx, entryRef(userID, *req)); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) RenameTag(ctx context.Context, req *rpc.RenameTagRequest) (*rpc.RenameTagResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.journal.RenameTag(ctx, userID, req.From, req.To)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Tag renamed", "user_id", userID, "rows", n)
	return &rpc.RenameTagResponse{Updated: n}, nil
}

func (s *GRPCServer) ImportEntries(ctx context.Context, req *rpc.ImportEntriesRequest) (*rpc.ImportEntriesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	in := make([]services.NewEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		in = append(in, services.NewEntry{DateKey: e.DateKey, Fields: fromRPCFields(e.Fields)})
	}
	n, err := s.journal.Import(ctx, userID, in)
	if err != nil {
		return nil, toStatus(err)
	}
	s.logger.Info(ctx, "Entries imported", "user_id", userID, "count", n)
	return &rpc.ImportEntriesResponse{Imported: n}, nil
}

func (s *GRPCServer) ExportEntries(ctx context.Context, req *rpc.Empty) (*rpc.ExportEntriesResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := s.exports.Export(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "export failed", "user_id", userID, "error", err)
		return nil, toStatus(err)
	}
	return &rpc.ExportEntriesResponse{Key: res.Key, URL: res.URL, Count: res.Count, ExpiresAt: res.ExpiresAt}, nil
}

func (s *GRPCServer) ListGroups(ctx context.Context, req *rpc.Empty) (*rpc.ListGroupsResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.groups.List(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	out := make([]rpc.Group, 0, len(list))
	for _, g := range list {
		out = append(out, toRPCGroup(g))
	}
	return &rpc.ListGroupsResponse{Groups: out}, nil
}

func (s *GRPCServer) SaveGroup(ctx context.Context, req *rpc.SaveGroupRequest) (*rpc.Group, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var g *models.Group
	if req.ID == "" {
		g, err = s.groups.Create(ctx, userID, req.Name)
	} else {
		g, err = s.groups.Rename(ctx, userID, req.ID, req.Name)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	out := toRPCGroup(g)
	return &out, nil
}

func (s *GRPCServer) DeleteGroup(ctx context.Context, req *rpc.GroupRef) (*rpc.Empty, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.groups.Delete(ctx, userID, req.ID); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *GRPCServer) SetGroupMembers(ctx context.Context, req *rpc.SetGroupMembersRequest) (*rpc.Group, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	g, err := s.groups.SetMembers(ctx, userID, req.ID, req.EntryIDs)
	if err != nil {
		return nil, toStatus(err)
	}
	out := toRPCGroup(g)
	return &out, nil
}

// WatchEntries sends the bucket once, then again after every change to the
// caller's entries, until the client goes away.
func (s *GRPCServer) WatchEntries(req *rpc.WatchEntriesRequest, stream grpc.ServerStreamingServer[rpc.EntriesSnapshot]) error {
	ctx := stream.Context()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	// subscribe before the first read so no change slips between them
	changes, cancel := s.watcher.Subscribe(userID)
	defer cancel()

	s.logger.Debug(ctx, "watch started", "user_id", userID, "date_key", req.DateKey)
	for {
		list, err := s.journal.ListEntries(ctx, userID, req.DateKey)
		if err != nil {
			return toStatus(err)
		}
		if err := stream.Send(&rpc.EntriesSnapshot{DateKey: req.DateKey, Entries: toRPCEntries(list)}); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		}
	}
}
