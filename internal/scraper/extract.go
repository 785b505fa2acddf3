package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadd15/water-data-scraper/internal/fault"
	"github.com/sadd15/water-data-scraper/internal/hydro"

	"github.com/rs/zerolog/log"
)

var (
	ErrPageLoadTimeout = errors.New("page load timed out")
	ErrElementNotFound = errors.New("element not found")
	ErrMalformedRow    = errors.New("malformed row")
)

const screenshotTimeout = 15 * time.Second

// Options describes where the station row lives and how long to wait for it.
type Options struct {
	URL    string
	GridID string
	RowID  string

	PageLoadTimeout    time.Duration
	ElementWaitTimeout time.Duration

	// ScreenshotDir receives a PNG when navigation fails. Empty disables it.
	ScreenshotDir string

	Launch LaunchOptions
}

// Extractor loads the dashboard and reads the station row.
type Extractor struct {
	opts   Options
	launch Launcher
	now    func() time.Time
}

func NewExtractor(opts Options, launch Launcher) *Extractor {
	return &Extractor{
		opts:   opts,
		launch: launch,
		now:    time.Now,
	}
}

// Extract returns exactly hydro.RawColumns cleaned cell texts or an error.
// The browser is closed on every path.
func (e *Extractor) Extract(ctx context.Context) (hydro.RawRow, error) {
	log.Info().
		Str("url", e.opts.URL).
		Str("row_id", e.opts.RowID).
		Msg("Starting page extraction")

	browser, err := e.launch(ctx, e.opts.Launch)
	if err != nil {
		return nil, fault.New(fault.BrowserError, "launch browser", err)
	}
	log.Debug().Msg("Headless browser started")

	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("Failed to close browser")
			return
		}
		log.Debug().Msg("Headless browser closed")
	}()

	return e.extract(browser)
}

func (e *Extractor) extract(browser Browser) (hydro.RawRow, error) {
	log.Info().Str("url", e.opts.URL).Msg("Opening page")
	if err := browser.Navigate(e.opts.URL, e.opts.PageLoadTimeout); err != nil {
		e.captureScreenshot(browser)
		return nil, fault.New(fault.PageLoadTimeout, "navigate",
			fmt.Errorf("%w after %s: %w", ErrPageLoadTimeout, e.opts.PageLoadTimeout, err))
	}

	gridContainer := "gbox_" + e.opts.GridID
	log.Info().
		Str("grid", gridContainer).
		Str("row_id", e.opts.RowID).
		Msg("Waiting for grid and row")

	if err := browser.WaitPresent(gridContainer, e.opts.ElementWaitTimeout); err != nil {
		return nil, fault.New(fault.ElementNotFound, "wait for grid",
			fmt.Errorf("%w: #%s: %w", ErrElementNotFound, gridContainer, err))
	}
	log.Debug().Str("grid", gridContainer).Msg("Grid container present")

	if err := browser.WaitInteractable(e.opts.RowID, e.opts.ElementWaitTimeout); err != nil {
		return nil, fault.New(fault.ElementNotFound, "wait for row",
			fmt.Errorf("%w: #%s: %w", ErrElementNotFound, e.opts.RowID, err))
	}
	log.Debug().Str("row_id", e.opts.RowID).Msg("Target row interactable")

	cells, err := browser.ReadCells(e.opts.RowID, e.opts.ElementWaitTimeout)
	if err != nil {
		return nil, fault.New(fault.ElementNotFound, "read row cells",
			fmt.Errorf("%w: #%s: %w", ErrElementNotFound, e.opts.RowID, err))
	}

	log.Info().Strs("cells", cells).Msg("Raw row (cleaned)")

	if len(cells) != hydro.RawColumns {
		log.Warn().
			Int("cells", len(cells)).
			Int("expected", hydro.RawColumns).
			Msg("Unexpected number of cells")
		return nil, fault.New(fault.MalformedRow, "validate row",
			fmt.Errorf("%w: expected %d cells, got %d", ErrMalformedRow, hydro.RawColumns, len(cells)))
	}

	return hydro.RawRow(cells), nil
}

func (e *Extractor) captureScreenshot(browser Browser) {
	if e.opts.ScreenshotDir == "" {
		return
	}

	png, err := browser.Screenshot(screenshotTimeout)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to capture diagnostic screenshot")
		return
	}

	name := fmt.Sprintf("page_load_timeout_%s.png", e.now().Format("20060102_150405"))
	path := filepath.Join(e.opts.ScreenshotDir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("Failed to save diagnostic screenshot")
		return
	}
	log.Info().Str("file", path).Msg("Saved diagnostic screenshot")
}
