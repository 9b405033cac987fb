// Package pdf renders HTML documents to PDF with headless Chrome.
package pdf

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// US Letter in inches.
const (
	letterWidth  = 8.5
	letterHeight = 11
	margin       = 0.5
)

// ChromeRenderer starts a short-lived headless Chrome per document.
type ChromeRenderer struct {
	ChromePath string
	NoSandbox  bool
	Timeout    time.Duration
}

// NewChromeRenderer creates a renderer. An empty chromePath lets chromedp find the browser.
func NewChromeRenderer(chromePath string, noSandbox bool, timeout time.Duration) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{ChromePath: chromePath, NoSandbox: noSandbox, Timeout: timeout}
}

// Render loads html into a blank tab and prints it.
func (r *ChromeRenderer) Render(ctx context.Context, html string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "tvk-chrome-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp profile dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(tmpDir),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if r.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.ChromePath))
	}
	if r.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	chromeCtx, cancelTimeout := context.WithTimeout(chromeCtx, r.Timeout)
	defer cancelTimeout()

	start := time.Now()
	var buf []byte
	err = chromedp.Run(chromeCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frame, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frame.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			buf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(letterWidth).
				WithPaperHeight(letterHeight).
				WithMarginTop(margin).
				WithMarginBottom(margin).
				WithMarginLeft(margin).
				WithMarginRight(margin).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome render failed: %w", err)
	}
	log.Debug().Int("bytes", len(buf)).Dur("took", time.Since(start)).Msg("Rendered PDF")
	return buf, nil
}
