package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// JournalClient is the client side of daybook.Journal. Every call is sent
// with the JSON content-subtype.
type JournalClient struct {
	cc grpc.ClientConnInterface
}

// NewJournalClient wraps cc.
func NewJournalClient(cc grpc.ClientConnInterface) *JournalClient {
	return &JournalClient{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, FullMethod(name), in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *JournalClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Register", in, opts)
}

func (c *JournalClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "Login", in, opts)
}

func (c *JournalClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "RefreshToken", in, opts)
}

func (c *JournalClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, "Ping", in, opts)
}

// ChangePassword revokes every refresh token of the user; the returned pair
// replaces the caller's.
func (c *JournalClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, "ChangePassword", in, opts)
}

func (c *JournalClient) ChangeEmail(ctx context.Context, in *ChangeEmailRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "ChangeEmail", in, opts)
}

func (c *JournalClient) GetProfile(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, "GetProfile", in, opts)
}

func (c *JournalClient) UpsertProfile(ctx context.Context, in *UpsertProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c.cc, "UpsertProfile", in, opts)
}

func (c *JournalClient) CreateEntry(ctx context.Context, in *CreateEntryRequest, opts ...grpc.CallOption) (*Entry, error) {
	return invoke[Entry](ctx, c.cc, "CreateEntry", in, opts)
}

func (c *JournalClient) ListEntries(ctx context.Context, in *ListEntriesRequest, opts ...grpc.CallOption) (*ListEntriesResponse, error) {
	return invoke[ListEntriesResponse](ctx, c.cc, "ListEntries", in, opts)
}

func (c *JournalClient) GetEntry(ctx context.Context, in *EntryRef, opts ...grpc.CallOption) (*Entry, error) {
	return invoke[Entry](ctx, c.cc, "GetEntry", in, opts)
}

func (c *JournalClient) SaveAutosave(ctx context.Context, in *EditRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "SaveAutosave", in, opts)
}

func (c *JournalClient) DeleteAutosave(ctx context.Context, in *AutosaveRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteAutosave", in, opts)
}

func (c *JournalClient) PromoteToDraft(ctx context.Context, in *EditRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "PromoteToDraft", in, opts)
}

func (c *JournalClient) FinalizeEntry(ctx context.Context, in *EditRequest, opts ...grpc.CallOption) (*Entry, error) {
	return invoke[Entry](ctx, c.cc, "FinalizeEntry", in, opts)
}

func (c *JournalClient) DeleteEntry(ctx context.Context, in *EntryRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteEntry", in, opts)
}

func (c *JournalClient) RenameTag(ctx context.Context, in *RenameTagRequest, opts ...grpc.CallOption) (*RenameTagResponse, error) {
	return invoke[RenameTagResponse](ctx, c.cc, "RenameTag", in, opts)
}

func (c *JournalClient) ImportEntries(ctx context.Context, in *ImportEntriesRequest, opts ...grpc.CallOption) (*ImportEntriesResponse, error) {
	return invoke[ImportEntriesResponse](ctx, c.cc, "ImportEntries", in, opts)
}

func (c *JournalClient) ExportEntries(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ExportEntriesResponse, error) {
	return invoke[ExportEntriesResponse](ctx, c.cc, "ExportEntries", in, opts)
}

func (c *JournalClient) ListGroups(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListGroupsResponse, error) {
	return invoke[ListGroupsResponse](ctx, c.cc, "ListGroups", in, opts)
}

func (c *JournalClient) SaveGroup(ctx context.Context, in *SaveGroupRequest, opts ...grpc.CallOption) (*Group, error) {
	return invoke[Group](ctx, c.cc, "SaveGroup", in, opts)
}

func (c *JournalClient) DeleteGroup(ctx context.Context, in *GroupRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "DeleteGroup", in, opts)
}

func (c *JournalClient) SetGroupMembers(ctx context.Context, in *SetGroupMembersRequest, opts ...grpc.CallOption) (*Group, error) {
	return invoke[Group](ctx, c.cc, "SetGroupMembers", in, opts)
}

// WatchEntries opens a server stream of bucket snapshots. The first snapshot
// arrives right after subscribing.
func (c *JournalClient) WatchEntries(ctx context.Context, in *WatchEntriesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[EntriesSnapshot], error) {
	stream, err := c.cc.NewStream(ctx, &JournalServiceDesc.Streams[0], FullMethod("WatchEntries"), callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchEntriesRequest, EntriesSnapshot]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
