package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadd15/water-data-scraper/internal/config"
	"github.com/sadd15/water-data-scraper/internal/fault"
	"github.com/sadd15/water-data-scraper/internal/hydro"
	"github.com/sadd15/water-data-scraper/internal/metrics"
	"github.com/sadd15/water-data-scraper/internal/sheets"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var exampleRow = hydro.RawRow{
	"1", "StationA", "BasinX", "DistrictY", "ProvinceZ", "10.5 / 120",
	"5.1 300", "5.2 310", "5.3 320", "5.4 330", "5.5 340", "5.6 350", "5.7 360",
	"5.4 335", "60%", "graph.png", "Rising",
}

type fakeCredentials struct {
	calls int
	err   error
}

func (f *fakeCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}), nil
}

type fakeExtractor struct {
	calls int
	row   hydro.RawRow
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context) (hydro.RawRow, error) {
	f.calls++
	return f.row, f.err
}

type fakeValues struct {
	cleared  []string
	updated  map[string][][]interface{}
	appended map[string][][]interface{}

	updateErr error
	appendErr error
}

func newFakeValues() *fakeValues {
	return &fakeValues{updated: map[string][][]interface{}{}, appended: map[string][][]interface{}{}}
}

func (f *fakeValues) ReadRange(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error) {
	return nil, nil
}

func (f *fakeValues) ClearRange(ctx context.Context, spreadsheetID, range_ string) error {
	f.cleared = append(f.cleared, range_)
	return nil
}

func (f *fakeValues) UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}, inputOption string) (int64, error) {
	if f.updateErr != nil {
		return 0, f.updateErr
	}
	f.updated[range_] = values
	return 0, nil
}

func (f *fakeValues) AppendRows(ctx context.Context, spreadsheetID, range_ string, rows [][]interface{}, inputOption string) (int64, error) {
	if f.appendErr != nil {
		return 0, f.appendErr
	}
	f.appended[range_] = rows
	return int64(len(rows)), nil
}

type fakeNotifier struct {
	calls   int
	results []fault.Result
}

func (f *fakeNotifier) NotifyFailures(ctx context.Context, station string, results []fault.Result) {
	f.calls++
	f.results = results
}

type harness struct {
	runner    *Runner
	creds     *fakeCredentials
	extractor *fakeExtractor
	values    *fakeValues
	notifier  *fakeNotifier
	out       *bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		creds:     &fakeCredentials{},
		extractor: &fakeExtractor{row: exampleRow},
		values:    newFakeValues(),
		notifier:  &fakeNotifier{},
		out:       &bytes.Buffer{},
	}

	clock := time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)
	h.runner = &Runner{
		settings: Settings{ConfigFile: "config.txt"},
		loadConfig: func(path string) (config.Config, error) {
			return config.Config{SpreadsheetID: "sid", SheetNameLatest: "Latest", SheetNameLog: "Log"}, nil
		},
		credentials: h.creds,
		newValues: func(ctx context.Context, ts oauth2.TokenSource) (sheets.ValuesAPI, error) {
			return h.values, nil
		},
		extractor: h.extractor,
		notifier:  h.notifier,
		recorder:  metrics.NewRecorder(),
		now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		out: h.out,
	}
	return h
}

func steps(s Summary) []string {
	var names []string
	for _, r := range s.Results {
		names = append(names, r.Step)
	}
	return names
}

func TestRunEndToEnd(t *testing.T) {
	h := newHarness(t)

	summary := h.runner.Run(context.Background())

	require.Empty(t, summary.Failed())
	require.Equal(t, []string{StepConfig, StepCredentials, StepExtract, StepFormat, StepWriteLatest, StepWriteLog}, steps(summary))
	require.Equal(t, ExitOK, summary.ExitCode(true))
	require.Positive(t, summary.Duration)

	require.Equal(t, []string{"Latest!A1:Z"}, h.values.cleared)

	latest := h.values.updated["Latest!A1"]
	require.Len(t, latest, 4)
	require.Equal(t, "10.5", latest[2][5])
	require.Equal(t, "120", latest[3][5])
	require.Equal(t, "360", latest[3][12])

	logRows := h.values.appended["Log!A1"]
	require.Len(t, logRows, 4)
	require.Equal(t, "5.7", logRows[2][6])
	require.Equal(t, "360", logRows[3][6])

	require.Zero(t, h.notifier.calls)
}

func TestRunConfigFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.loadConfig = func(path string) (config.Config, error) {
		return config.Config{}, fault.New(fault.ConfigError, "open config", os.ErrNotExist)
	}

	summary := h.runner.Run(context.Background())

	require.Equal(t, []string{StepConfig}, steps(summary))
	require.Equal(t, ExitConfig, summary.ExitCode(false))
	require.Zero(t, h.creds.calls)
	require.Zero(t, h.extractor.calls)
}

func TestRunCredentialFailure(t *testing.T) {
	h := newHarness(t)
	h.creds.err = fault.New(fault.CredentialError, "authorize", errors.New("denied"))

	summary := h.runner.Run(context.Background())

	require.Equal(t, []string{StepConfig, StepCredentials}, steps(summary))
	require.Equal(t, ExitCredential, summary.ExitCode(false))
	require.Zero(t, h.extractor.calls)
	require.Equal(t, 1, h.notifier.calls)
}

func TestRunClientConstructionFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.newValues = func(ctx context.Context, ts oauth2.TokenSource) (sheets.ValuesAPI, error) {
		return nil, errors.New("bad transport")
	}

	summary := h.runner.Run(context.Background())

	require.Equal(t, ExitCredential, summary.ExitCode(false))
	require.True(t, fault.Is(summary.Failed()[0].Err, fault.CredentialError))
	require.Zero(t, h.extractor.calls)
}

func TestRunExtractFailureSkipsWrites(t *testing.T) {
	h := newHarness(t)
	h.extractor.err = fault.New(fault.ElementNotFound, "wait for row", errors.New("timeout"))

	summary := h.runner.Run(context.Background())

	require.Equal(t, []string{StepConfig, StepCredentials, StepExtract}, steps(summary))
	require.Equal(t, ExitOK, summary.ExitCode(false))
	require.Equal(t, ExitStrict, summary.ExitCode(true))
	require.Empty(t, h.values.cleared)
	require.Empty(t, h.values.appended)
	require.Equal(t, 1, h.notifier.calls)
}

func TestRunMalformedRowSkipsWrites(t *testing.T) {
	h := newHarness(t)
	h.extractor.row = exampleRow[:16]

	summary := h.runner.Run(context.Background())

	failed := summary.Failed()
	require.Len(t, failed, 1)
	require.Equal(t, StepFormat, failed[0].Step)
	require.True(t, fault.Is(failed[0].Err, fault.MalformedRow))
	require.Empty(t, h.values.cleared)
}

func TestRunWritersAreIndependent(t *testing.T) {
	h := newHarness(t)
	h.values.updateErr = errors.New("quota exceeded")

	summary := h.runner.Run(context.Background())

	failed := summary.Failed()
	require.Len(t, failed, 1)
	require.Equal(t, StepWriteLatest, failed[0].Step)
	require.True(t, fault.Is(failed[0].Err, fault.SheetWriteError))
	require.Len(t, h.values.appended["Log!A1"], 4, "log write still happens")
	require.Equal(t, ExitOK, summary.ExitCode(false))
}

func TestRunDryRun(t *testing.T) {
	h := newHarness(t)
	h.runner.settings.DryRun = true

	summary := h.runner.Run(context.Background())

	require.Empty(t, summary.Failed())
	require.Equal(t, []string{StepConfig, StepExtract, StepFormat}, steps(summary))
	require.Zero(t, h.creds.calls)
	require.Empty(t, h.values.cleared)
	require.Contains(t, h.out.String(), "StationA")
}

func TestRunWritesMetrics(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "water.prom")
	h.runner.settings.MetricsTextfile = path

	h.runner.Run(context.Background())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `water_scraper_step_success{step="write_log"} 1`)
}
