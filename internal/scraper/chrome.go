package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// ChromeBrowser drives a local Chrome/Chromium through the DevTools protocol.
type ChromeBrowser struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

// LaunchChrome starts a sandbox-less headless Chrome suitable for containers.
func LaunchChrome(ctx context.Context, opts LaunchOptions) (Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("log-level", "3"),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}),
	)

	// Start the browser now so later per-action timeouts cannot tear it down.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &ChromeBrowser{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

func (b *ChromeBrowser) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// idSelector addresses an element by id even when the id is not a valid CSS
// identifier (row ids on the dashboard are numeric).
func idSelector(id string) string {
	return fmt.Sprintf(`[id=%q]`, id)
}

func (b *ChromeBrowser) Navigate(url string, timeout time.Duration) error {
	return b.run(timeout, chromedp.Navigate(url))
}

func (b *ChromeBrowser) WaitPresent(id string, timeout time.Duration) error {
	return b.run(timeout, chromedp.WaitReady(idSelector(id), chromedp.ByQuery))
}

func (b *ChromeBrowser) WaitInteractable(id string, timeout time.Duration) error {
	sel := idSelector(id)
	return b.run(timeout,
		chromedp.WaitVisible(sel, chromedp.ByQuery),
		chromedp.WaitEnabled(sel, chromedp.ByQuery),
	)
}

func (b *ChromeBrowser) ReadCells(id string, timeout time.Duration) ([]string, error) {
	var states []cellState
	err := b.run(timeout, chromedp.Evaluate(cellsScript(id), &states))
	if errors.Is(err, chromedp.ErrJSNull) || (err == nil && states == nil) {
		return nil, fmt.Errorf("row %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return visibleCells(states), nil
}

func (b *ChromeBrowser) Screenshot(timeout time.Duration) ([]byte, error) {
	var buf []byte
	if err := b.run(timeout, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close shuts the browser down and releases the allocator.
func (b *ChromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancelTab()
	b.cancelAlloc()
	return err
}
