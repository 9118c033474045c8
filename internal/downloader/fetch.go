package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/pkg/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	DefaultAttempts    = 5
	DefaultIdleTimeout = 30 * time.Second

	// minRateBurst covers the largest single read io.Copy performs
	minRateBurst = 32 * 1024
)

// Fetcher downloads one URL to one file with bounded retries.
// It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	attempts    int
	idleTimeout time.Duration
	limiter     *rate.Limiter
	log         *logger.ComponentLogger
}

// NewFetcher builds a Fetcher from the downloader configuration
func NewFetcher(cfg *config.DownloaderConfig, log *logrus.Logger) *Fetcher {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}

	var limiter *rate.Limiter
	if cfg.MaxBytesRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxBytesRate), max(cfg.MaxBytesRate, minRateBurst))
	}

	return &Fetcher{
		client:      &http.Client{},
		attempts:    attempts,
		idleTimeout: idle,
		limiter:     limiter,
		log:         logger.NewComponentLogger(log, "fetcher"),
	}
}

// Fetch downloads url to fileName. Every kind of failure is retried the same way
// with no delay; after the last attempt the partial file is removed and a
// *FetchError is returned.
func (f *Fetcher) Fetch(ctx context.Context, url string, fileName string) error {
	var lastErr error
	made := 0

	for attempt := 0; attempt < f.attempts; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		if attempt > 0 {
			f.log.WithFields(logrus.Fields{
				"url":      url,
				"fileName": fileName,
				"attempt":  fmt.Sprintf("%d/%d", attempt+1, f.attempts),
				"error":    lastErr,
			}).Warn("Retrying download")
		}

		made++
		err := f.fetchOnce(ctx, url, fileName)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if err := utils.RemoveIfExists(fileName); err != nil {
		f.log.WithFields(logrus.Fields{
			"fileName": fileName,
			"error":    err,
		}).Warn("Failed to remove partial file")
	}

	f.log.WithFields(logrus.Fields{
		"url":      url,
		"fileName": fileName,
		"attempts": made,
		"error":    lastErr,
	}).Warn("Download failed")

	return &FetchError{URL: url, Attempts: made, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, fileName string) error {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The attempt is cancelled once no progress is seen for idleTimeout
	idle := time.AfterFunc(f.idleTimeout, cancel)
	defer idle.Stop()

	wrap := func(err error) error {
		if ctx.Err() == nil && attemptCtx.Err() != nil {
			return errIdleTimeout
		}
		return err
	}

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return wrap(fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	out, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	body := &idleReader{
		ctx:     attemptCtx,
		r:       resp.Body,
		timer:   idle,
		timeout: f.idleTimeout,
		limiter: f.limiter,
	}
	_, copyErr := io.Copy(out, body)
	closeErr := out.Close()

	if copyErr != nil {
		return wrap(fmt.Errorf("write file: %w", copyErr))
	}
	if closeErr != nil {
		return fmt.Errorf("close file: %w", closeErr)
	}
	return nil
}

// idleReader pushes the idle deadline forward on every successful read
type idleReader struct {
	ctx     context.Context
	r       io.Reader
	timer   *time.Timer
	timeout time.Duration
	limiter *rate.Limiter
}

func (r *idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.timer.Reset(r.timeout)
		if r.limiter != nil {
			if werr := r.limiter.WaitN(r.ctx, n); werr != nil && !errors.Is(werr, context.Canceled) {
				return n, werr
			}
			r.timer.Reset(r.timeout)
		}
	}
	return n, err
}
