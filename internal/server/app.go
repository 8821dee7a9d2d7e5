// Package server wires the Daybook server together: database, services,
// the gRPC journal API and the HTTP health endpoints.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/config"
	"github.com/dmitrijs2005/daybook/internal/server/events"
	"github.com/dmitrijs2005/daybook/internal/server/httpapi"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/daybook/internal/server/services"

	gs "github.com/dmitrijs2005/daybook/internal/server/grpc"
)

// App is the server process: database, services and both listeners.
type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	services gs.Services
}

// NewApp connects to PostgreSQL, applies migrations and builds the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hub := events.NewHub()
	svc := gs.Services{
		Users:    services.NewUserService(db, m, c),
		Journal:  services.NewJournalService(db, m, hub),
		Profiles: services.NewProfileService(db, m),
		Groups:   services.NewGroupService(db, m),
		Exports:  services.NewExportService(db, m, c),
		Watcher:  hub,
	}

	return &App{config: c, logger: logger, db: db, services: svc}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.services, app.config.SecretKey,
		gs.WithMaxMessageSize(app.config.MaxMessageSize))
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.db, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
