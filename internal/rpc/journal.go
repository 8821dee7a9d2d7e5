package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the full gRPC service name.
const ServiceName = "daybook.Journal"

// FullMethod returns the gRPC path of a Journal method, e.g.
// "/daybook.Journal/Login".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// PublicMethods can be called without an access token.
var PublicMethods = map[string]struct{}{
	FullMethod("Register"):     {},
	FullMethod("Login"):        {},
	FullMethod("RefreshToken"): {},
	FullMethod("Ping"):         {},
}

// JournalServer is implemented by the server side of daybook.Journal.
type JournalServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*AuthResponse, error)
	ChangeEmail(context.Context, *ChangeEmailRequest) (*Empty, error)

	GetProfile(context.Context, *Empty) (*Profile, error)
	UpsertProfile(context.Context, *UpsertProfileRequest) (*Profile, error)

	CreateEntry(context.Context, *CreateEntryRequest) (*Entry, error)
	ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error)
	GetEntry(context.Context, *EntryRef) (*Entry, error)
	SaveAutosave(context.Context, *EditRequest) (*Empty, error)
	DeleteAutosave(context.Context, *AutosaveRef) (*Empty, error)
	PromoteToDraft(context.Context, *EditRequest) (*Empty, error)
	FinalizeEntry(context.Context, *EditRequest) (*Entry, error)
	DeleteEntry(context.Context, *EntryRef) (*Empty, error)

	RenameTag(context.Context, *RenameTagRequest) (*RenameTagResponse, error)
	ImportEntries(context.Context, *ImportEntriesRequest) (*ImportEntriesResponse, error)
	ExportEntries(context.Context, *Empty) (*ExportEntriesResponse, error)

	ListGroups(context.Context, *Empty) (*ListGroupsResponse, error)
	SaveGroup(context.Context, *SaveGroupRequest) (*Group, error)
	DeleteGroup(context.Context, *GroupRef) (*Empty, error)
	SetGroupMembers(context.Context, *SetGroupMembersRequest) (*Group, error)

	WatchEntries(*WatchEntriesRequest, grpc.ServerStreamingServer[EntriesSnapshot]) error
}

// UnimplementedJournalServer answers every call with codes.Unimplemented.
// Embed it to implement only part of the service.
type UnimplementedJournalServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedJournalServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedJournalServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedJournalServer) RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error) {
	return nil, unimplemented("RefreshToken")
}
func (UnimplementedJournalServer) Ping(context.Context, *Empty) (*PingResponse, error) {
	return nil, unimplemented("Ping")
}
func (UnimplementedJournalServer) ChangePassword(context.Context, *ChangePasswordRequest) (*AuthResponse, error) {
	return nil, unimplemented("ChangePassword")
}
func (UnimplementedJournalServer) ChangeEmail(context.Context, *ChangeEmailRequest) (*Empty, error) {
	return nil, unimplemented("ChangeEmail")
}
func (UnimplementedJournalServer) GetProfile(context.Context, *Empty) (*Profile, error) {
	return nil, unimplemented("GetProfile")
}
func (UnimplementedJournalServer) UpsertProfile(context.Context, *UpsertProfileRequest) (*Profile, error) {
	return nil, unimplemented("UpsertProfile")
}
func (UnimplementedJournalServer) CreateEntry(context.Context, *CreateEntryRequest) (*Entry, error) {
	return nil, unimplemented("CreateEntry")
}
func (UnimplementedJournalServer) ListEntries(context.Context, *ListEntriesRequest) (*ListEntriesResponse, error) {
	return nil, unimplemented("ListEntries")
}
func (UnimplementedJournalServer) GetEntry(context.Context, *EntryRef) (*Entry, error) {
	return nil, unimplemented("GetEntry")
}
func (UnimplementedJournalServer) SaveAutosave(context.Context, *EditRequest) (*Empty, error) {
	return nil, unimplemented("SaveAutosave")
}
func (UnimplementedJournalServer) DeleteAutosave(context.Context, *AutosaveRef) (*Empty, error) {
	return nil, unimplemented("DeleteAutosave")
}
func (UnimplementedJournalServer) PromoteToDraft(context.Context, *EditRequest) (*Empty, error) {
	return nil, unimplemented("PromoteToDraft")
}
func (UnimplementedJournalServer) FinalizeEntry(context.Context, *EditRequest) (*Entry, error) {
	return nil, unimplemented("FinalizeEntry")
}
func (UnimplementedJournalServer) DeleteEntry(context.Context, *EntryRef) (*Empty, error) {
	return nil, unimplemented("DeleteEntry")
}
func (UnimplementedJournalServer) RenameTag(context.Context, *RenameTagRequest) (*RenameTagResponse, error) {
	return nil, unimplemented("RenameTag")
}
func (UnimplementedJournalServer) ImportEntries(context.Context, *ImportEntriesRequest) (*ImportEntriesResponse, error) {
	return nil, unimplemented("ImportEntries")
}
func (UnimplementedJournalServer) ExportEntries(context.Context, *Empty) (*ExportEntriesResponse, error) {
	return nil, unimplemented("ExportEntries")
}
func (UnimplementedJournalServer) ListGroups(context.Context, *Empty) (*ListGroupsResponse, error) {
	return nil, unimplemented("ListGroups")
}
func (UnimplementedJournalServer) SaveGroup(context.Context, *SaveGroupRequest) (*Group, error) {
	return nil, unimplemented("SaveGroup")
}
func (UnimplementedJournalServer) DeleteGroup(context.Context, *GroupRef) (*Empty, error) {
	return nil, unimplemented("DeleteGroup")
}
func (UnimplementedJournalServer) SetGroupMembers(context.Context, *SetGroupMembersRequest) (*Group, error) {
	return nil, unimplemented("SetGroupMembers")
}
func (UnimplementedJournalServer) WatchEntries(*WatchEntriesRequest, grpc.ServerStreamingServer[EntriesSnapshot]) error {
	return unimplemented("WatchEntries")
}

// unary builds the method descriptor for one request/response call, routing
// through the server's interceptor chain when there is one.
func unary[Req, Resp any](name string, call func(JournalServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(JournalServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(JournalServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchEntriesHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchEntriesRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(JournalServer).WatchEntries(in, &grpc.GenericServerStream[WatchEntriesRequest, EntriesSnapshot]{ServerStream: stream})
}

// JournalServiceDesc describes daybook.Journal for grpc.Server.RegisterService.
var JournalServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JournalServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", JournalServer.Register),
		unary("Login", JournalServer.Login),
		unary("RefreshToken", JournalServer.RefreshToken),
		unary("Ping", JournalServer.Ping),
		unary("ChangePassword", JournalServer.ChangePassword),
		unary("ChangeEmail", JournalServer.ChangeEmail),
		unary("GetProfile", JournalServer.GetProfile),
		unary("UpsertProfile", JournalServer.UpsertProfile),
		unary("CreateEntry", JournalServer.CreateEntry),
		unary("ListEntries", JournalServer.ListEntries),
		unary("GetEntry", JournalServer.GetEntry),
		unary("SaveAutosave", JournalServer.SaveAutosave),
		unary("DeleteAutosave", JournalServer.DeleteAutosave),
		unary("PromoteToDraft", JournalServer.PromoteToDraft),
		unary("FinalizeEntry", JournalServer.FinalizeEntry),
		unary("DeleteEntry", JournalServer.DeleteEntry),
		unary("RenameTag", JournalServer.RenameTag),
		unary("ImportEntries", JournalServer.ImportEntries),
		unary("ExportEntries", JournalServer.ExportEntries),
		unary("ListGroups", JournalServer.ListGroups),
		unary("SaveGroup", JournalServer.SaveGroup),
		unary("DeleteGroup", JournalServer.DeleteGroup),
		unary("SetGroupMembers", JournalServer.SetGroupMembers),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchEntries",
			Handler:       watchEntriesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "daybook/journal",
}

func RegisterJournalServer(s grpc.ServiceRegistrar, srv JournalServer) {
	s.RegisterService(&JournalServiceDesc, srv)
}
