// Package render turns a single-page PDF into a PNG image so table pages that
// defeat text extraction can be handed to a vision model instead.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrRendererDisabled indicates rendering has been disabled via configuration.
var ErrRendererDisabled = errors.New("renderer disabled")

// Renderer produces a PNG image of a one-page PDF file.
type Renderer interface {
	RenderPDF(ctx context.Context, pdfPath string) ([]byte, error)
}

// Config controls the headless browser.
type Config struct {
	Enabled bool
	Timeout time.Duration
}

// ChromedpRenderer opens PDFs in headless Chrome's built-in viewer and
// captures a full-page screenshot.
type ChromedpRenderer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	timeout         time.Duration
}

// NewChromedpRenderer starts a headless browser for PDF rendering.
func NewChromedpRenderer(cfg Config, logger *zap.Logger) (*ChromedpRenderer, error) {
	if !cfg.Enabled {
		return nil, ErrRendererDisabled
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &ChromedpRenderer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		timeout:         timeout,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (r *ChromedpRenderer) Close() {
	if r == nil {
		return
	}
	r.browserCancel()
	r.allocatorCancel()
}

// RenderPDF loads the PDF from disk and screenshots the rendered page.
func (r *ChromedpRenderer) RenderPDF(ctx context.Context, pdfPath string) ([]byte, error) {
	if r == nil {
		return nil, ErrRendererDisabled
	}

	tabCtx, cancelTab := chromedp.NewContext(r.browserCtx)
	defer cancelTab()

	taskCtx, cancelTask := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTask()

	go func() {
		select {
		case <-ctx.Done():
			cancelTask()
		case <-taskCtx.Done():
		}
	}()

	var png []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("file://"+pdfPath),
		chromedp.Sleep(time.Second),
		chromedp.FullScreenshot(&png, 90),
	)
	if err != nil {
		return nil, fmt.Errorf("render pdf %s: %w", pdfPath, err)
	}

	r.logger.Debug("rendered pdf page",
		zap.String("path", pdfPath),
		zap.Int("png_bytes", len(png)),
	)
	return png, nil
}

// Noop is a Renderer for deployments without a browser; every render reports
// the renderer as disabled.
type Noop struct{}

func (Noop) RenderPDF(context.Context, string) ([]byte, error) {
	return nil, ErrRendererDisabled
}

var (
	_ Renderer = (*ChromedpRenderer)(nil)
	_ Renderer = Noop{}
)
