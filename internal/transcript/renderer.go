package transcript

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/sirupsen/logrus"
)

// Renderer converts a local HTML file into a PDF
type Renderer interface {
	RenderPDF(ctx context.Context, htmlPath, pdfPath string) error
}

// ChromeRenderer prints pages with a headless Chrome driven over the DevTools protocol
type ChromeRenderer struct {
	config *config.TranscriptConfig
	log    *logger.ComponentLogger
}

func NewChromeRenderer(cfg *config.TranscriptConfig, log *logrus.Logger) *ChromeRenderer {
	return &ChromeRenderer{
		config: cfg,
		log:    logger.NewComponentLogger(log, "renderer"),
	}
}

// createChromeContext creates a new context for the Chrome browser
func (r *ChromeRenderer) createChromeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(r.config.UserAgent),
	)
	if r.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.config.ChromePath))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

func (r *ChromeRenderer) RenderPDF(ctx context.Context, htmlPath, pdfPath string) error {
	absPath, err := filepath.Abs(htmlPath)
	if err != nil {
		return fmt.Errorf("error getting absolute path: %w", err)
	}
	target := (&url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}).String()

	if r.config.RenderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.RenderTimeout)
		defer cancel()
	}

	allocCtx, allocCancel := r.createChromeContext(ctx)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(r.log.Entry().Debugf))
	defer browserCancel()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("render %s: %w", htmlPath, err)
	}

	if err := os.WriteFile(pdfPath, pdf, 0644); err != nil {
		return fmt.Errorf("error writing pdf: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"html":     htmlPath,
		"pdf":      pdfPath,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("Rendered transcript")
	return nil
}
