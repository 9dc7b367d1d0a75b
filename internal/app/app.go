// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/profilefeed/internal/browser"
	"github.com/law-makers/profilefeed/internal/config"
	"github.com/law-makers/profilefeed/internal/extract"
	"github.com/law-makers/profilefeed/internal/pipeline"
	"github.com/law-makers/profilefeed/internal/publish"
	"github.com/law-makers/profilefeed/internal/reconcile"
	"github.com/law-makers/profilefeed/internal/reqctx"
	"github.com/law-makers/profilefeed/internal/storage"
)

// ErrBusy is returned when a refresh is requested while another is running.
var ErrBusy = errors.New("a refresh is already running")

// Session is a browser that can open pages and be shut down.
type Session interface {
	pipeline.Session
	Close() error
}

// Launcher starts a browser session.
type Launcher func(ctx context.Context, opts browser.Options) (Session, error)

// DefaultLauncher starts a real Chrome through chromedp.
func DefaultLauncher(ctx context.Context, opts browser.Options) (Session, error) {
	return browser.Launch(ctx, opts)
}

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	Store      storage.BlobStore
	Publisher  *publish.Publisher
	Reconciler *reconcile.Reconciler

	launch   Launcher
	stdout   io.Writer
	progress io.Writer

	runMu     sync.Mutex
	lastMu    sync.RWMutex
	last      *Result
	startTime time.Time
}

// Option customizes an Application.
type Option func(*Application)

// WithLauncher replaces the browser launcher.
func WithLauncher(l Launcher) Option {
	return func(a *Application) { a.launch = l }
}

// WithStore replaces the blob store built from configuration.
func WithStore(s storage.BlobStore) Option {
	return func(a *Application) { a.Store = s }
}

// WithStdout sets where local-mode documents are written.
func WithStdout(w io.Writer) Option {
	return func(a *Application) { a.stdout = w }
}

// WithProgress renders a scrape progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(a *Application) { a.progress = w }
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the blob store, unless running in local mode
//   - Creates the publisher and reconciler
//
// If any step fails, an error is returned and no resources are allocated.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := NewLogger(cfg)

	a := &Application{
		Config:    cfg,
		Logger:    &logger,
		launch:    DefaultLauncher,
		stdout:    os.Stdout,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Store == nil && !cfg.Local {
		store, err := newStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Store = store
	}
	if a.Store != nil {
		a.Publisher = publish.New(a.Store, cfg.BucketDir, logger)
		logger.Debug().
			Str("store", cfg.Store).
			Str("location", a.Store.Location(a.Publisher.Key())).
			Msg("Blob store initialized")
	}

	a.Reconciler = reconcile.New(logger)

	logger.Debug().Bool("local", cfg.Local).Msg("Application initialized successfully")
	return a, nil
}

// NewLogger builds the process logger and sets the global level.
func NewLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Quiet && level < zerolog.ErrorLevel {
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		// Human-friendly console output otherwise
		logWriter = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

func newStore(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Store {
	case config.StoreFile:
		return storage.NewFileStore(cfg.StoreDir), nil
	case config.StoreS3, "":
		client, err := storage.NewS3Client(ctx, s3Options(cfg))
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(client, cfg.Bucket), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func s3Options(cfg *config.Config) storage.S3Options {
	return storage.S3Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.S3Endpoint,
		PathStyle:       cfg.S3PathStyle,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	}
}

// Sources returns the scrape targets from configuration.
func (a *Application) Sources() extract.Sources {
	return extract.Sources{
		BooksBaseURL:      a.Config.BooksBaseURL,
		BooksID:           a.Config.BooksID,
		GamesURL:          a.Config.GamesURL,
		GameSearchBaseURL: a.Config.GameSearchBaseURL,
		MaxGames:          a.Config.MaxGames,
	}
}

// BrowserOptions returns the browser settings from configuration.
func (a *Application) BrowserOptions() browser.Options {
	return browser.Options{
		ChromePath: a.Config.ChromePath,
		Headless:   a.Config.Headless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Config.Proxy,
		NavTimeout: a.Config.NavTimeout,
	}
}

// LastResult returns the most recent refresh result, or nil.
func (a *Application) LastResult() *Result {
	a.lastMu.RLock()
	defer a.lastMu.RUnlock()
	return a.last
}

func (a *Application) setLast(r *Result) {
	a.lastMu.Lock()
	a.last = r
	a.lastMu.Unlock()
}

// Close gracefully shuts down the application.
//
// Refreshes own their browser session, so a refresh still in flight is
// waited for until ctx expires.
func (a *Application) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.runMu.Lock()
		a.runMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.Logger.Warn().Msg("Shutdown timed out waiting for a running refresh")
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}

// runLogger returns a logger tagged with the run ID carried by ctx.
func (a *Application) runLogger(ctx context.Context) zerolog.Logger {
	return a.Logger.With().Str("run_id", reqctx.GetRunContext(ctx).RunID).Logger()
}
