package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sitewatch/internal/checker"
	"sitewatch/internal/classify"
	"sitewatch/internal/config"
	"sitewatch/internal/fetcher"
	"sitewatch/internal/history"
	"sitewatch/internal/notify"
	"sitewatch/internal/runner"
	"sitewatch/internal/sites"
	"sitewatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.Client {
	return fetcher.NewHTTP(fetcher.Options{
		Timeout:    a.Config.Fetch.Timeout,
		MaxRetries: a.Config.Fetch.MaxRetries,
		UserAgent:  a.Config.Fetch.UserAgent,
	}, a.Logger)
}

func (a *App) newEngine() *checker.Engine {
	return checker.NewEngine(checker.Capabilities{
		Selectors: checker.NewGoquerySelector(),
		Sheets:    checker.NewExcelizeReader(),
	}, a.Logger)
}

func (a *App) newChain() *notify.Chain {
	return notify.NewChain(notify.Options{
		Username:       a.Config.Notify.Username,
		WebhookTimeout: a.Config.Notify.WebhookTimeout,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// RunCheck executes one health check and returns the process status code.
func (a *App) RunCheck(ctx context.Context, siteID, watchConfigPath string, dryRun bool) int {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to open run journal")
		store = nil
	}
	if store == nil && a.Config.Database.DSN == "" {
		a.Logger.Debug().Msg("database.dsn not configured; run journal disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	hist := history.NewFileStore(a.Config.History.Dir, a.Logger)

	var journal storage.RunStore
	var notifLog storage.NotificationStore
	var locker storage.SiteLocker
	if store != nil {
		journal = store
		notifLog = store
		locker = store
	}

	run := runner.New(a.newFetcher(), a.newEngine(), hist, a.newChain(), journal, notifLog, locker, a.Logger)
	return run.Run(ctx, siteID, watchConfigPath, dryRun)
}

// SendTestOptions configure a synthetic notification.
type SendTestOptions struct {
	SiteID          string
	WatchConfigPath string
	Severity        classify.Severity
}

// SendTest pushes a synthetic report of the chosen severity through the
// site's notification chain, validating channel wiring without probing.
func (a *App) SendTest(ctx context.Context, opts SendTestOptions) error {
	configs, err := sites.Load(opts.WatchConfigPath, a.Logger)
	if err != nil {
		return err
	}
	site, ok := configs[opts.SiteID]
	if !ok {
		return fmt.Errorf("site %q not found in watch config", opts.SiteID)
	}

	summary := fmt.Sprintf("URL: %s\nThis is a synthetic %s notification sent at %s.",
		site.URL, opts.Severity, time.Now().UTC().Format(time.RFC3339))
	title := "Health Check Test: " + opts.SiteID

	a.newChain().Notify(ctx, site.Notify, title, summary, opts.Severity)
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	SiteID string
	Limit  int
}

// ExportOptions hold parameters for exporting journaled runs.
type ExportOptions struct {
	SiteID    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}
