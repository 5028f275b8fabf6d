package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"sitewatch/internal/checker"
	"sitewatch/internal/classify"
	"sitewatch/internal/fetcher"
	"sitewatch/internal/history"
	"sitewatch/internal/notify"
	"sitewatch/internal/sites"
	"sitewatch/internal/storage"
)

const failCode = 3

// Runner sequences one full site check from trigger to status code. It
// never panics outward and never returns anything but a status code.
type Runner struct {
	fetcher  fetcher.Client
	engine   *checker.Engine
	history  history.Store
	notifier *notify.Chain

	// Optional run journal; nil disables journaling. Failures here are
	// logged and never alter the outcome.
	journal  storage.RunStore
	notifLog storage.NotificationStore
	locker   storage.SiteLocker

	logger zerolog.Logger
}

// New constructs a Runner. journal, notifLog and locker may be nil.
func New(fc fetcher.Client, engine *checker.Engine, hist history.Store, notifier *notify.Chain, journal storage.RunStore, notifLog storage.NotificationStore, locker storage.SiteLocker, logger zerolog.Logger) *Runner {
	return &Runner{
		fetcher:  fc,
		engine:   engine,
		history:  hist,
		notifier: notifier,
		journal:  journal,
		notifLog: notifLog,
		locker:   locker,
		logger:   logger.With().Str("component", "runner").Logger(),
	}
}

// Run executes the health check for siteID and returns the process status
// code: 0 (INFO), 2 (WARN) or 3 (FAIL). configPath may be empty to use the
// default watch config resolution. In dry-run mode the report goes to the
// console only, but history is still updated and the severity code is
// still computed.
func (r *Runner) Run(ctx context.Context, siteID, configPath string, dryRun bool) (code int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Str("site_id", siteID).
				Msg("health check panicked")
			code = failCode
		}
	}()

	configs, err := sites.Load(configPath, r.logger)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load watch config")
		return failCode
	}

	site, ok := configs[siteID]
	if !ok {
		// Nothing to report against: no notification attempt.
		r.logger.Error().Str("site_id", siteID).Msg("site not found in watch config")
		return failCode
	}

	unlock := r.acquireSiteLock(ctx, siteID)
	if unlock != nil {
		defer unlock()
	}

	title := "Health Check: " + siteID
	checkedAt := time.Now().UTC()

	r.logger.Info().Str("site_id", siteID).Str("url", site.URL).Msg("fetching")
	res, err := r.fetcher.Fetch(ctx, site.URL, site.VerifyTLS)
	if err != nil {
		r.logger.Error().Err(err).Str("site_id", siteID).Msg("fetch failed")
		r.journalFailure(ctx, site, checkedAt, err)
		if !dryRun {
			r.notifier.Notify(ctx, site.Notify, title+" - Fetch Failed",
				notify.FormatFetchFailure(site.URL, err), classify.Fail)
		}
		return classify.Fail.ExitCode()
	}

	rep := r.engine.Run(site, res)
	rep.Checksum = checker.Checksum(res.Body)

	cmp := r.history.Compare(siteID, int64(len(res.Body)), rep.Checksum)
	severity := classify.Decide(rep, cmp)

	// History persists unconditionally, dry runs included. A failed write
	// aborts the run: stale history beats silent partial corruption.
	if _, err := r.history.Update(siteID, rep.Checksum, int64(len(res.Body)), rep.RowCount, site.HistoryWindow); err != nil {
		r.logger.Error().Err(err).Str("site_id", siteID).Msg("failed to update history")
		return failCode
	}

	r.journalRun(ctx, site, checkedAt, rep, cmp, severity)

	r.logger.Info().Str("site_id", siteID).
		Str("severity", severity.String()).
		Int("status_code", rep.StatusCode).
		Int("size_bytes", rep.SizeBytes).
		Bool("changed", cmp.Changed).
		Msg("check complete")

	summary := notify.FormatReport(rep, cmp)
	if dryRun {
		r.notifier.PrintConsole(notify.Message{Title: title, Severity: severity, Summary: summary})
		return severity.ExitCode()
	}

	if severity > classify.Info {
		r.recordNotification(ctx, siteID, title, severity)
	}
	return r.notifier.Notify(ctx, site.Notify, title, summary, severity)
}

// acquireSiteLock serialises runs per site when a locker is available. A
// held lock is reported but does not block the check: the single-writer
// invariant belongs to the caller.
func (r *Runner) acquireSiteLock(ctx context.Context, siteID string) func() {
	if r.locker == nil {
		return nil
	}
	unlock, acquired, err := r.locker.TryLockSite(ctx, siteID)
	if err != nil {
		r.logger.Warn().Err(err).Str("site_id", siteID).Msg("site lock unavailable")
		return nil
	}
	if !acquired {
		r.logger.Warn().Str("site_id", siteID).
			Msg("another check for this site appears to be running; history updates may race")
		return nil
	}
	return unlock
}

func (r *Runner) journalRun(ctx context.Context, site sites.Site, checkedAt time.Time, rep checker.Report, cmp history.Comparison, severity classify.Severity) {
	if r.journal == nil {
		return
	}

	run := storage.CheckRun{
		SiteID:        site.ID,
		CheckedAt:     checkedAt,
		URL:           rep.URL,
		StatusCode:    rep.StatusCode,
		SizeBytes:     int64(rep.SizeBytes),
		Checksum:      rep.Checksum,
		SizeChangePct: cmp.SizeChangePct,
		Severity:      severity.String(),
		ExitCode:      severity.ExitCode(),
	}
	if rep.RowCount != nil {
		rc := int64(*rep.RowCount)
		run.RowCount = &rc
	}

	if err := r.journal.InsertCheckRun(ctx, run); err != nil {
		r.logger.Error().Err(err).Str("site_id", site.ID).Msg("failed to journal check run")
	}
}

func (r *Runner) journalFailure(ctx context.Context, site sites.Site, checkedAt time.Time, fetchErr error) {
	if r.journal == nil {
		return
	}

	msg := fetchErr.Error()
	run := storage.CheckRun{
		SiteID:    site.ID,
		CheckedAt: checkedAt,
		URL:       site.URL,
		Severity:  classify.Fail.String(),
		ExitCode:  classify.Fail.ExitCode(),
		Error:     &msg,
	}
	if err := r.journal.InsertCheckRun(ctx, run); err != nil {
		r.logger.Error().Err(err).Str("site_id", site.ID).Msg("failed to journal fetch failure")
	}
}

func (r *Runner) recordNotification(ctx context.Context, siteID, title string, severity classify.Severity) {
	if r.notifLog == nil {
		return
	}
	record := storage.NotificationRecord{
		SiteID:   siteID,
		Severity: severity.String(),
		Title:    title,
	}
	if _, err := r.notifLog.InsertNotification(ctx, record); err != nil {
		r.logger.Error().Err(err).Str("site_id", siteID).Msg("failed to record notification")
	}
}
