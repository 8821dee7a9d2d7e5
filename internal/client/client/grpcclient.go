package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// journalAPI is the subset of *rpc.JournalClient used here.
type journalAPI interface {
	Register(ctx context.Context, in *rpc.RegisterRequest, opts ...grpc.CallOption) (*rpc.AuthResponse, error)
	Login(ctx context.Context, in *rpc.LoginRequest, opts ...grpc.CallOption) (*rpc.AuthResponse, error)
	RefreshToken(ctx context.Context, in *rpc.RefreshTokenRequest, opts ...grpc.CallOption) (*rpc.AuthResponse, error)
	Ping(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.PingResponse, error)
	ChangePassword(ctx context.Context, in *rpc.ChangePasswordRequest, opts ...grpc.CallOption) (*rpc.AuthResponse, error)
	ChangeEmail(ctx context.Context, in *rpc.ChangeEmailRequest, opts ...grpc.CallOption) (*rpc.Empty, error)
	GetProfile(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.Profile, error)
	UpsertProfile(ctx context.Context, in *rpc.UpsertProfileRequest, opts ...grpc.CallOption) (*rpc.Profile, error)
	CreateEntry(ctx context.Context, in *rpc.CreateEntryRequest, opts ...grpc.CallOption) (*rpc.Entry, error)
	ListEntries(ctx context.Context, in *rpc.ListEntriesRequest, opts ...grpc.CallOption) (*rpc.ListEntriesResponse, error)
	GetEntry(ctx context.Context, in *rpc.EntryRef, opts ...grpc.CallOption) (*rpc.Entry, error)
	SaveAutosave(ctx context.Context, in *rpc.EditRequest, opts ...grpc.CallOption) (*rpc.Empty, error)
	DeleteAutosave(ctx context.Context, in *rpc.AutosaveRef, opts ...grpc.CallOption) (*rpc.Empty, error)
	PromoteToDraft(ctx context.Context, in *rpc.EditRequest, opts ...grpc.CallOption) (*rpc.Empty, error)
	FinalizeEntry(ctx context.Context, in *rpc.EditRequest, opts ...grpc.CallOption) (*rpc.Entry, error)
	DeleteEntry(ctx context.Context, in *rpc.EntryRef, opts ...grpc.CallOption) (*rpc.Empty, error)
	RenameTag(ctx context.Context, in *rpc.RenameTagRequest, opts ...grpc.CallOption) (*rpc.RenameTagResponse, error)
	ImportEntries(ctx context.Context, in *rpc.ImportEntriesRequest, opts ...grpc.CallOption) (*rpc.ImportEntriesResponse, error)
	ExportEntries(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.ExportEntriesResponse, error)
	ListGroups(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.ListGroupsResponse, error)
	SaveGroup(ctx context.Context, in *rpc.SaveGroupRequest, opts ...grpc.CallOption) (*rpc.Group, error)
	DeleteGroup(ctx context.Context, in *rpc.GroupRef, opts ...grpc.CallOption) (*rpc.Empty, error)
	SetGroupMembers(ctx context.Context, in *rpc.SetGroupMembersRequest, opts ...grpc.CallOption) (*rpc.Group, error)
	WatchEntries(ctx context.Context, in *rpc.WatchEntriesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[rpc.EntriesSnapshot], error)
}

// GRPCClient implements Client over gRPC. It attaches the access token to
// each call and refreshes it once when the server reports it expired.
type GRPCClient struct {
	endpointURL string
	maxMsgSize  int
	conn        *grpc.ClientConn
	client      journalAPI

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onTokens     func(refreshToken string)
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	s.accessToken = access
	s.refreshToken = refresh
	fn := s.onTokens
	s.mu.Unlock()

	if fn != nil {
		fn(refresh)
	}
}

// refresh exchanges the refresh token for a new pair. When another caller
// already replaced the access token that failed, nothing is sent.
func (s *GRPCClient) refresh(ctx context.Context, failedAccess string) error {
	access, refresh := s.tokens()
	if access != failedAccess {
		return nil
	}
	if refresh == "" {
		return common.ErrTokenExpired
	}

	resp, err := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if _, public := rpc.PublicMethods[method]; public {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	access, _ := s.tokens()
	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if rerr := s.refresh(ctx, access); rerr != nil {
		return err
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	access, _ := s.tokens()
	return streamer(withAccessToken(ctx, access), desc, cc, method, opts...)
}

// NewJournalClientService connects to the journal endpoint. maxMsgSize caps
// a single message in both directions; 0 keeps gRPC's default.
func NewJournalClientService(endpointURL string, maxMsgSize int) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, maxMsgSize: maxMsgSize}
	err := c.InitGRPCClient()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) dialOptions() []grpc.DialOption {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.streamAccessTokenInterceptor),
	}
	if s.maxMsgSize > 0 {
		opts = append(opts, grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(s.maxMsgSize),
			grpc.MaxCallSendMsgSize(s.maxMsgSize),
		))
	}
	return opts
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL, s.dialOptions()...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = rpc.NewJournalClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// OnTokens registers fn to be called with the refresh token every time a new
// token pair is received.
func (s *GRPCClient) OnTokens(fn func(refreshToken string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTokens = fn
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := s.client.Ping(ctx, &rpc.Empty{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, email, password string) (string, error) {
	resp, err := s.client.Register(ctx, &rpc.RegisterRequest{Email: email, Password: password})
	if err != nil {
		return "", mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return resp.UserID, nil
}

func (s *GRPCClient) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := s.client.Login(ctx, &rpc.LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return resp.UserID, nil
}

// Restore resumes a session from a stored refresh token.
func (s *GRPCClient) Restore(ctx context.Context, refreshToken string) (string, error) {
	resp, err := s.client.RefreshToken(ctx, &rpc.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return resp.UserID, nil
}

// Logout forgets the tokens held in memory. The listener is not notified.
func (s *GRPCClient) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
}

func (s *GRPCClient) ChangePassword(ctx context.Context, current, next string) error {
	resp, err := s.client.ChangePassword(ctx, &rpc.ChangePasswordRequest{CurrentPassword: current, NewPassword: next})
	if err != nil {
		return mapError(err)
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return nil
}

func (s *GRPCClient) ChangeEmail(ctx context.Context, current, newEmail string) error {
	_, err := s.client.ChangeEmail(ctx, &rpc.ChangeEmailRequest{CurrentPassword: current, NewEmail: newEmail})
	return mapError(err)
}

func (s *GRPCClient) GetProfile(ctx context.Context) (*models.Profile, error) {
	p, err := s.client.GetProfile(ctx, &rpc.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return toProfile(p), nil
}

func (s *GRPCClient) UpsertProfile(ctx context.Context, displayName, locale string) (*models.Profile, error) {
	p, err := s.client.UpsertProfile(ctx, &rpc.UpsertProfileRequest{DisplayName: displayName, Locale: locale})
	if err != nil {
		return nil, mapError(err)
	}
	return toProfile(p), nil
}

func (s *GRPCClient) CreateEntry(ctx context.Context, dateKey string, f models.Fields) (*models.Entry, error) {
	e, err := s.client.CreateEntry(ctx, &rpc.CreateEntryRequest{DateKey: dateKey, Fields: fromFields(f)})
	if err != nil {
		return nil, mapError(err)
	}
	return toEntry(e), nil
}

func (s *GRPCClient) ListEntries(ctx context.Context, dateKey string) ([]*models.Entry, error) {
	resp, err := s.client.ListEntries(ctx, &rpc.ListEntriesRequest{DateKey: dateKey})
	if err != nil {
		return nil, mapError(err)
	}
	return toEntries(resp.Entries), nil
}

func (s *GRPCClient) GetEntry(ctx context.Context, dateKey, entryID string) (*models.Entry, error) {
	e, err := s.client.GetEntry(ctx, &rpc.EntryRef{DateKey: dateKey, EntryID: entryID})
	if err != nil {
		return nil, mapError(err)
	}
	return toEntry(e), nil
}

func editRequest(dateKey, entryID, sessionID string, f models.Fields) *rpc.EditRequest {
	return &rpc.EditRequest{
		EntryRef:  rpc.EntryRef{DateKey: dateKey, EntryID: entryID},
		SessionID: sessionID,
		Fields:    fromFields(f),
	}
}

func (s *GRPCClient) SaveAutosave(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) error {
	_, err := s.client.SaveAutosave(ctx, editRequest(dateKey, entryID, sessionID, f))
	return mapError(err)
}

func (s *GRPCClient) DeleteAutosave(ctx context.Context, dateKey, entryID, sessionID string) error {
	_, err := s.client.DeleteAutosave(ctx, &rpc.AutosaveRef{
		EntryRef:  rpc.EntryRef{DateKey: dateKey, EntryID: entryID},
		SessionID: sessionID,
	})
	return mapError(err)
}

func (s *GRPCClient) PromoteToDraft(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) error {
	_, err := s.client.PromoteToDraft(ctx, editRequest(dateKey, entryID, sessionID, f))
	return mapError(err)
}

func (s *GRPCClient) Finalize(ctx context.Context, dateKey, entryID, sessionID string, f models.Fields) (*models.Entry, error) {
	e, err := s.client.FinalizeEntry(ctx, editRequest(dateKey, entryID, sessionID, f))
	if err != nil {
		return nil, mapError(err)
	}
	return toEntry(e), nil
}

func (s *GRPCClient) DeleteEntry(ctx context.Context, dateKey, entryID string) error {
	_, err := s.client.DeleteEntry(ctx, &rpc.EntryRef{DateKey: dateKey, EntryID: entryID})
	return mapError(err)
}

func (s *GRPCClient) RenameTag(ctx context.Context, from, to string) (int, error) {
	resp, err := s.client.RenameTag(ctx, &rpc.RenameTagRequest{From: from, To: to})
	if err != nil {
		return 0, mapError(err)
	}
	return resp.Updated, nil
}

func (s *GRPCClient) ImportEntries(ctx context.Context, entries []*models.Entry) (int, error) {
	req := &rpc.ImportEntriesRequest{Entries: make([]rpc.CreateEntryRequest, 0, len(entries))}
	for _, e := range entries {
		req.Entries = append(req.Entries, rpc.CreateEntryRequest{DateKey: e.DateKey, Fields: fromFields(e.Fields)})
	}

	resp, err := s.client.ImportEntries(ctx, req)
	if err != nil {
		return 0, mapError(err)
	}
	return resp.Imported, nil
}

func (s *GRPCClient) Export(ctx context.Context) (*models.Export, error) {
	resp, err := s.client.ExportEntries(ctx, &rpc.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	return &models.Export{Key: resp.Key, URL: resp.URL, Count: resp.Count, ExpiresAt: resp.ExpiresAt}, nil
}

func (s *GRPCClient) ListGroups(ctx context.Context) ([]*models.Group, error) {
	resp, err := s.client.ListGroups(ctx, &rpc.Empty{})
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]*models.Group, 0, len(resp.Groups))
	for i := range resp.Groups {
		out = append(out, toGroup(&resp.Groups[i]))
	}
	return out, nil
}

func (s *GRPCClient) SaveGroup(ctx context.Context, id, name string) (*models.Group, error) {
	g, err := s.client.SaveGroup(ctx, &rpc.SaveGroupRequest{ID: id, Name: name})
	if err != nil {
		return nil, mapError(err)
	}
	return toGroup(g), nil
}

func (s *GRPCClient) DeleteGroup(ctx context.Context, id string) error {
	_, err := s.client.DeleteGroup(ctx, &rpc.GroupRef{ID: id})
	return mapError(err)
}

func (s *GRPCClient) SetGroupMembers(ctx context.Context, id string, entryIDs []string) (*models.Group, error) {
	g, err := s.client.SetGroupMembers(ctx, &rpc.SetGroupMembersRequest{ID: id, EntryIDs: entryIDs})
	if err != nil {
		return nil, mapError(err)
	}
	return toGroup(g), nil
}

// WatchEntries calls fn with every snapshot of the bucket until ctx is done
// or the stream fails. A stream rejected with an expired access token is
// reopened once after refreshing.
func (s *GRPCClient) WatchEntries(ctx context.Context, dateKey string, fn func([]*models.Entry)) error {
	refreshed := false
	for {
		access, _ := s.tokens()
		err := s.watch(ctx, dateKey, fn)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if refreshed || !isTokenExpired(err) {
			return mapError(err)
		}
		if rerr := s.refresh(ctx, access); rerr != nil {
			return mapError(err)
		}
		refreshed = true
	}
}

func (s *GRPCClient) watch(ctx context.Context, dateKey string, fn func([]*models.Entry)) error {
	stream, err := s.client.WatchEntries(ctx, &rpc.WatchEntriesRequest{DateKey: dateKey})
	if err != nil {
		return err
	}
	for {
		snap, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		fn(toEntries(snap.Entries))
	}
}
