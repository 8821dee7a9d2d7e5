package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/daybook/internal/client/client"
	"github.com/dmitrijs2005/daybook/internal/client/config"
	"github.com/dmitrijs2005/daybook/internal/client/journal"
	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/services"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/fatih/color"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App is the interactive client: services, editor and the current view.
type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	api            client.Client
	authService    services.AuthService
	libraryService services.LibraryService
	entries        client.EntryStore
	editor         *journal.Editor

	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time

	mu          sync.Mutex
	mode        Mode
	loggedIn    bool
	email       string
	day         string
	listed      []*models.Entry
	filter      journal.TagFilter
	watchCancel context.CancelFunc
}

// NewApp opens the local database, connects the API client and builds the
// services. The session id is created on first start and reused afterwards.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stderr, "text", c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	apiClient, err := client.NewJournalClientService(c.ServerEndpointAddr, c.MaxMessageSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(apiClient, db, logger)
	ls := services.NewLibraryService(apiClient)

	sessionID, err := as.SessionID(ctx)
	if err != nil {
		_ = apiClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("session id: %w", err)
	}

	return &App{
		config:         c,
		logger:         logger.With("module", "cli"),
		db:             db,
		api:            apiClient,
		authService:    as,
		libraryService: ls,
		entries:        apiClient,
		editor:         journal.NewEditor(apiClient, sessionID, c.AutosaveDebounce, logger),
		reader:         bufio.NewReader(os.Stdin),
		out:            color.Output,
		now:            time.Now,
	}, nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connection mode changed", "mode", mode)
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *App) setLoggedIn(email string, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loggedIn = ok
	a.email = email
}

// Close leaves any open entry the way Back does, stops the change feed and
// releases the connection and the database.
func (a *App) Close(ctx context.Context) {
	if a.editor != nil && a.editor.Mode() == journal.ModeEditing {
		if err := a.editor.Back(ctx); err != nil {
			a.logger.Warn(ctx, "leaving entry on exit failed", "err", err)
		}
	}
	a.stopWatch()
	if a.authService != nil {
		_ = a.authService.Close(ctx)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// Run restores the previous session when possible and then blocks in the
// REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close(ctx)
	a.Root(ctx)
}

// restore resumes the session from the stored refresh token. Failing to
// restore is not an error: the user just has to log in.
func (a *App) restore(ctx context.Context) {
	if err := a.authService.Restore(ctx); err != nil {
		a.logger.Debug(ctx, "session not restored", "err", err)
		return
	}
	a.setLoggedIn(a.authService.LastEmail(ctx), true)
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// connection mode. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.authService.Ping(pingCtx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}

// watch subscribes to the change feed of one bucket, replacing any earlier
// subscription. Snapshots refresh the cached listing and the open entry.
func (a *App) watch(ctx context.Context, dateKey string) {
	a.stopWatch()

	wctx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.watchCancel = cancel
	a.mu.Unlock()

	go func() {
		err := a.entries.WatchEntries(wctx, dateKey, func(entries []*models.Entry) {
			a.applySnapshot(dateKey, entries)
		})
		if err != nil && wctx.Err() == nil {
			a.logger.Warn(wctx, "change feed stopped", "date", dateKey, "err", err)
		}
	}()
}

func (a *App) stopWatch() {
	a.mu.Lock()
	cancel := a.watchCancel
	a.watchCancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (a *App) applySnapshot(dateKey string, entries []*models.Entry) {
	a.mu.Lock()
	if a.day == dateKey {
		a.listed = entries
	}
	a.mu.Unlock()

	a.editor.ApplySnapshot(dateKey, entries)
}

func (a *App) setListing(dateKey string, entries []*models.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.day = dateKey
	a.listed = entries
}

func (a *App) listing() (string, []*models.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.day, a.listed
}
