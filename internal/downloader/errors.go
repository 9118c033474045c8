package downloader

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errIdleTimeout   = errors.New("no data received within idle timeout")
	errEmptyManifest = errors.New("manifest lists no segments")
)

// ManifestFetchError reports a manifest that could not be retrieved or parsed
type ManifestFetchError struct {
	URL string
	Err error
}

func (e *ManifestFetchError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.URL, e.Err)
}

func (e *ManifestFetchError) Unwrap() error { return e.Err }

// FetchError reports a file that failed on every attempt
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SegmentFetchFailure reports the segments of an episode that exhausted their retries
type SegmentFetchFailure struct {
	Output string
	Total  int
	Failed []SegmentResult
}

func (e *SegmentFetchFailure) Error() string {
	indexes := make([]string, 0, len(e.Failed))
	for _, r := range e.Failed {
		indexes = append(indexes, fmt.Sprint(r.Segment.Index))
	}
	return fmt.Sprintf("%s: %d of %d segments failed (%s)", e.Output, len(e.Failed), e.Total, strings.Join(indexes, ", "))
}

// Unwrap exposes the per-segment errors
func (e *SegmentFetchFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, r := range e.Failed {
		errs = append(errs, r.Err)
	}
	return errs
}

// ConcatenationError reports a failed merge of segment files
type ConcatenationError struct {
	Output string
	Err    error
}

func (e *ConcatenationError) Error() string {
	return fmt.Sprintf("concatenate %s: %v", e.Output, e.Err)
}

func (e *ConcatenationError) Unwrap() error { return e.Err }
