// Package grpc exposes the journal services over gRPC as daybook.Journal.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/rpc"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/services"
	"google.golang.org/grpc"
)

type userSvc interface {
	Register(ctx context.Context, email, password string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ChangePassword(ctx context.Context, userID, current, next string) (*services.TokenPair, error)
	ChangeEmail(ctx context.Context, userID, current, newEmail string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type journalSvc interface {
	CreateEntry(ctx context.Context, userID string, in services.NewEntry) (*models.Entry, error)
	ListEntries(ctx context.Context, userID, dateKey string) ([]*models.Entry, error)
	GetEntry(ctx context.Context, ref services.EntryRef) (*models.Entry, error)
	SaveAutosave(ctx context.Context, ref services.EntryRef, sessionID string, f models.Fields) error
	DeleteAutosave(ctx context.Context, ref services.EntryRef, sessionID string) error
	PromoteToDraft(ctx context.Context, ref services.EntryRef, sessionID string, f models.Fields) error
	Finalize(ctx context.Context, ref services.EntryRef, sessionID string, f models.Fields) (*models.Entry, error)
	DeleteEntry(ctx context.Context, ref services.EntryRef) error
	RenameTag(ctx context.Context, userID, from, to string) (int, error)
	Import(ctx context.Context, userID string, in []services.NewEntry) (int, error)
}

type profileSvc interface {
	Get(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, userID, displayName, locale string) (*models.Profile, error)
}

type groupSvc interface {
	List(ctx context.Context, userID string) ([]*models.Group, error)
	Create(ctx context.Context, userID, name string) (*models.Group, error)
	Rename(ctx context.Context, userID, id, name string) (*models.Group, error)
	Delete(ctx context.Context, userID, id string) error
	SetMembers(ctx context.Context, userID, id string, entryIDs []string) (*models.Group, error)
}

type exportSvc interface {
	Export(ctx context.Context, userID string) (*services.ExportResult, error)
}

// watcher hands out change signals for WatchEntries.
type watcher interface {
	Subscribe(userID string) (<-chan struct{}, func())
}

// Services groups the collaborators of GRPCServer.
type Services struct {
	Users    userSvc
	Journal  journalSvc
	Profiles profileSvc
	Groups   groupSvc
	Exports  exportSvc
	Watcher  watcher
}

// GRPCServer implements daybook.Journal on top of the services.
type GRPCServer struct {
	rpc.UnimplementedJournalServer
	address   string
	users     userSvc
	journal   journalSvc
	profiles  profileSvc
	groups    groupSvc
	exports   exportSvc
	watcher   watcher
	logger    logging.Logger
	jwtSecret []byte

	maxMsgSize int
}

// Option tunes a GRPCServer.
type Option func(*GRPCServer)

// WithMaxMessageSize sets the largest message the server sends or accepts.
// Values <= 0 keep rpc.DefaultMaxMessageSize.
func WithMaxMessageSize(n int) Option {
	return func(s *GRPCServer) {
		if n > 0 {
			s.maxMsgSize = n
		}
	}
}

// NewGRPCServer constructs a server that listens on address a once Run is
// called.
func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string, opts ...Option) (*GRPCServer, error) {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     svc.Users,
		journal:   svc.Journal,
		profiles:  svc.Profiles,
		groups:    svc.Groups,
		exports:   svc.Exports,
		watcher:   svc.Watcher,
		jwtSecret: []byte(secretKey),

		maxMsgSize: rpc.DefaultMaxMessageSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// NewServer builds the grpc.Server with the auth and logging interceptors
// and the journal service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	}
	if s.maxMsgSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(s.maxMsgSize), grpc.MaxSendMsgSize(s.maxMsgSize))
	}
	srv := grpc.NewServer(opts...)
	rpc.RegisterJournalServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
