package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadd15/water-data-scraper/internal/auth"
	"github.com/sadd15/water-data-scraper/internal/config"
	"github.com/sadd15/water-data-scraper/internal/fault"
	"github.com/sadd15/water-data-scraper/internal/hydro"
	"github.com/sadd15/water-data-scraper/internal/metrics"
	"github.com/sadd15/water-data-scraper/internal/notifications"
	"github.com/sadd15/water-data-scraper/internal/scraper"
	"github.com/sadd15/water-data-scraper/internal/sheets"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Pipeline step names, used in logs, alerts and metrics.
const (
	StepConfig      = "config"
	StepCredentials = "credentials"
	StepExtract     = "extract"
	StepFormat      = "format"
	StepWriteLatest = "write_latest"
	StepWriteLog    = "write_log"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitConfig     = 1
	ExitCredential = 2
	ExitStrict     = 3
)

type CredentialSource interface {
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)
}

type Extractor interface {
	Extract(ctx context.Context) (hydro.RawRow, error)
}

type Notifier interface {
	NotifyFailures(ctx context.Context, station string, results []fault.Result)
}

type ValuesFactory func(ctx context.Context, ts oauth2.TokenSource) (sheets.ValuesAPI, error)

// Summary collects the outcome of every step that ran.
type Summary struct {
	Results  []fault.Result
	Duration time.Duration
}

// Failed returns the results that carry an error.
func (s Summary) Failed() []fault.Result {
	var failed []fault.Result
	for _, r := range s.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

// ExitCode maps the run outcome to a process exit status. Scrape and write
// failures only change the status when strict is set.
func (s Summary) ExitCode(strict bool) int {
	failed := s.Failed()
	for _, r := range failed {
		switch fault.KindOf(r.Err) {
		case fault.ConfigError:
			return ExitConfig
		case fault.CredentialError:
			return ExitCredential
		}
	}
	if strict && len(failed) > 0 {
		return ExitStrict
	}
	return ExitOK
}

// Runner executes one scrape-and-write pass.
type Runner struct {
	settings Settings

	loadConfig  func(path string) (config.Config, error)
	credentials CredentialSource
	newValues   ValuesFactory
	extractor   Extractor
	notifier    Notifier
	recorder    *metrics.Recorder

	now func() time.Time
	out io.Writer
}

// NewRunner wires the production components.
func NewRunner(settings Settings) *Runner {
	flow := auth.LocalServerFlow{Timeout: settings.AuthTimeout}

	return &Runner{
		settings:    settings,
		loadConfig:  config.Load,
		credentials: auth.NewProvider(settings.CredentialsFile, settings.TokenFile, flow),
		newValues: func(ctx context.Context, ts oauth2.TokenSource) (sheets.ValuesAPI, error) {
			client, err := sheets.NewClient(ctx, ts)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		extractor: scraper.NewExtractor(settings.Scrape, scraper.LaunchChrome),
		notifier:  notifications.NewClient(settings.NtfyURL, settings.NtfyTopic, settings.NtfyEnabled, settings.NtfyPriority),
		recorder:  metrics.NewRecorder(),
		now:       time.Now,
		out:       os.Stdout,
	}
}

// Run performs config -> credentials -> extract/format -> latest -> log.
// Config and credential failures stop the run; extraction failures skip the
// writes; the two writes are independent of each other.
func (r *Runner) Run(ctx context.Context) (summary Summary) {
	start := r.now()

	record := func(step string, began time.Time, err error) bool {
		summary.Results = append(summary.Results, fault.Result{Step: step, Err: err, Duration: r.now().Sub(began)})
		return err == nil
	}

	defer func() {
		summary.Duration = r.now().Sub(start)
		r.finish(ctx, summary)
	}()

	log.Info().
		Str("url", r.settings.Scrape.URL).
		Str("row_id", r.settings.Scrape.RowID).
		Bool("dry_run", r.settings.DryRun).
		Msg("Starting water data scrape")

	began := r.now()
	cfg, err := r.loadConfig(r.settings.ConfigFile)
	if err != nil && fault.KindOf(err) == "" {
		err = fault.New(fault.ConfigError, "load config", err)
	}
	if !record(StepConfig, began, err) {
		log.Error().Err(err).Msg("Cannot continue without configuration")
		return summary
	}

	var api sheets.ValuesAPI
	if !r.settings.DryRun {
		began = r.now()
		api, err = r.connect(ctx)
		if !record(StepCredentials, began, err) {
			log.Error().Err(err).Msg("Cannot connect to Google Sheets, stopping")
			return summary
		}
	}

	runTime := r.now()

	began = r.now()
	raw, err := r.extractor.Extract(ctx)
	if !record(StepExtract, began, err) {
		log.Warn().Err(err).Str("kind", string(fault.KindOf(err))).Msg("Could not scrape station row, skipping sheet writes")
		return summary
	}

	began = r.now()
	table, err := hydro.Format(raw, runTime)
	if !record(StepFormat, began, err) {
		log.Warn().Err(err).Msg("Could not format station row, skipping sheet writes")
		return summary
	}
	if e := log.Debug(); e.Enabled() {
		e.Msg("Formatted table\n" + table.Render())
	}

	if r.settings.DryRun {
		fmt.Fprintln(r.out, table.Render())
		log.Info().Msg("Dry run, skipping sheet writes")
		return summary
	}

	began = r.now()
	err = sheets.NewLatestWriter(api, cfg.SpreadsheetID, cfg.SheetNameLatest).Write(ctx, table, runTime)
	if !record(StepWriteLatest, began, err) {
		log.Error().Err(err).Str("sheet", cfg.SheetNameLatest).Msg("Failed to update latest sheet")
	}

	began = r.now()
	err = sheets.NewLogWriter(api, cfg.SpreadsheetID, cfg.SheetNameLog).Write(ctx, table, runTime)
	if !record(StepWriteLog, began, err) {
		log.Error().Err(err).Str("sheet", cfg.SheetNameLog).Msg("Failed to append to log sheet")
	}

	return summary
}

func (r *Runner) connect(ctx context.Context) (sheets.ValuesAPI, error) {
	ts, err := r.credentials.TokenSource(ctx)
	if err != nil {
		if fault.KindOf(err) == "" {
			err = fault.New(fault.CredentialError, "obtain credentials", err)
		}
		return nil, err
	}

	api, err := r.newValues(ctx, ts)
	if err != nil {
		return nil, fault.New(fault.CredentialError, "create sheets client", err)
	}
	if api == nil {
		return nil, fault.New(fault.CredentialError, "create sheets client", errors.New("no client returned"))
	}

	log.Info().Msg("Connected to Google Sheets API")
	return api, nil
}

func (r *Runner) finish(ctx context.Context, summary Summary) {
	failed := summary.Failed()

	event := log.Info()
	if len(failed) > 0 {
		event = log.Warn().Int("failed_steps", len(failed))
	}
	event.
		Int("steps", len(summary.Results)).
		Dur("duration", summary.Duration).
		Msgf("Run finished in %.2f seconds", summary.Duration.Seconds())

	if r.notifier != nil && len(failed) > 0 {
		r.notifier.NotifyFailures(ctx, r.settings.Scrape.RowID, summary.Results)
	}

	if r.recorder != nil && r.settings.MetricsTextfile != "" {
		r.recorder.Observe(summary.Results, summary.Duration, r.now())
		if err := r.recorder.WriteTextfile(r.settings.MetricsTextfile); err != nil {
			log.Warn().Err(err).Str("file", r.settings.MetricsTextfile).Msg("Failed to write metrics")
		}
	}
}
