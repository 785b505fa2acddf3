package scraper

import (
	"context"
	"time"
)

// Browser is the small slice of a headless browser the extractor needs.
// Elements are addressed by their DOM id.
type Browser interface {
	Navigate(url string, timeout time.Duration) error
	WaitPresent(id string, timeout time.Duration) error
	WaitInteractable(id string, timeout time.Duration) error
	// ReadCells returns the cleaned text of every displayed <td> under the
	// element, as the page's computed style decides it.
	ReadCells(id string, timeout time.Duration) ([]string, error)
	Screenshot(timeout time.Duration) ([]byte, error)
	Close() error
}

// LaunchOptions configures the browser process.
type LaunchOptions struct {
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	Headless     bool
}

// Launcher starts a browser bound to ctx.
type Launcher func(ctx context.Context, opts LaunchOptions) (Browser, error)
