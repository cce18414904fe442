package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nepalihub/portal/internal/adapter"
	"github.com/nepalihub/portal/internal/adapter/source/backend"
	"github.com/nepalihub/portal/internal/adapter/source/youtube"
	"github.com/nepalihub/portal/internal/collection"
	"github.com/nepalihub/portal/internal/domain"
	"github.com/nepalihub/portal/internal/prefs"
	"github.com/nepalihub/portal/internal/service"
	"github.com/nepalihub/portal/internal/session"
	"github.com/nepalihub/portal/internal/store"
)

const redisPingTimeout = 2 * time.Second

// App holds the wired components shared by every command
type App struct {
	Config *adapter.Config
	Prefs  prefs.Prefs
	Logger *slog.Logger

	Store     *store.Store
	Session   *session.Store
	Bootstrap *session.Bootstrap
	Backend   *backend.Client
	Auth      *service.SessionService
	Catalog   *service.CatalogService
	Gallery   *collection.Gallery
	Search    *service.SearchService
	Launcher  *adapter.Launcher

	closers []io.Closer
}

// newApp loads configuration and wires the stack. The persisted session is
// not touched until a command calls restoreSession.
func newApp(configPath string) (*App, error) {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateBackend(); err != nil {
		return nil, err
	}

	logger, logCloser, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, closers: []io.Closer{logCloser}}
	logger.Debug("starting portal", "backend", cfg.Backend.BaseURL, "cache_dir", cfg.Cache.Dir)

	p, err := prefs.Load(prefs.DefaultPath())
	if err != nil {
		logger.Warn("ignoring unreadable preferences", "error", err)
	}
	app.Prefs = p

	st, err := store.Open(cfg.Cache.Dir, cfg.Backend.BaseURL)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = st
	app.closers = append(app.closers, st)
	if !st.Persistent() {
		logger.Info("no cache directory configured, session will not survive this run")
	}

	app.Session = session.NewStore(st, logger)
	app.Backend = backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, app.Session, app.Session, logger)
	app.Bootstrap = session.NewBootstrap(app.Session, app.Backend, logger)
	app.Auth = service.NewSessionService(app.Backend, app.Session, logger)

	yt := youtube.NewClient(youtube.Config{
		APIKey:    cfg.Catalog.APIKey,
		ChannelID: cfg.Catalog.ChannelID,
		BaseURL:   cfg.Catalog.BaseURL,
	}, logger)

	var caches []domain.PageCache
	if rc := store.NewRedisPageCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, ""); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		err := rc.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("redis page cache unreachable, using local cache only", "addr", cfg.Cache.RedisAddr, "error", err)
			rc.Close()
		} else {
			caches = append(caches, rc)
			app.closers = append(app.closers, rc)
		}
	}
	caches = append(caches, st)
	app.Catalog = service.NewCatalogService(yt, cfg.Cache.TTL, logger, caches...)

	app.Gallery = collection.NewGallery(app.Catalog, collection.Options{
		PageSize: cfg.Catalog.PageSize,
		Logger:   logger,
	})
	app.Search = service.NewSearchService(logger)
	app.Launcher = adapter.NewLauncher(cfg.Player.Command, cfg.Player.Args, logger)

	return app, nil
}

// Close releases the store, caches and log file
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// restoreSession hydrates the persisted session and validates it with the
// backend. A rejected session is cleared and the command continues
// anonymously; only cancellation is returned.
func (a *App) restoreSession(ctx context.Context) error {
	err := a.Bootstrap.Run(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	a.Logger.Warn("continuing without a session", "error", err)
	return nil
}

// fetchPages loads up to pages pages of a gallery collection
func (a *App) fetchPages(ctx context.Context, kind collection.Kind, pages int) error {
	if pages <= 0 {
		pages = 1
	}
	for i := 0; i < pages; i++ {
		if err := a.Gallery.Fetch(ctx, kind); err != nil {
			return err
		}
		status, err := a.Gallery.Status(kind)
		if err != nil {
			return err
		}
		if !status.HasMore {
			break
		}
	}
	return nil
}
