package downloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/rizkirmdhn/vistopia/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultConcurrency = 10
	mergeManifestName  = "filelist.txt"
)

// SegmentParser lists the segments behind a manifest URL
type SegmentParser interface {
	Parse(ctx context.Context, manifestURL string) ([]models.Segment, error)
}

// FileFetcher downloads one URL to one path; failures are returned, never raised
type FileFetcher interface {
	Fetch(ctx context.Context, url string, fileName string) error
}

// ProgressFunc is called after every finished segment
type ProgressFunc func(title string, progress models.ProgressInfo)

// SegmentResult is the outcome of fetching one segment
type SegmentResult struct {
	Segment models.Segment
	Path    string
	Err     error
}

// downloadJob represents a single segment download task
type downloadJob struct {
	slot     int
	segment  models.Segment
	fileName string
}

// DownloaderService turns one manifest into one merged media file
type DownloaderService struct {
	concurrency int
	log         *logger.ComponentLogger
	parser      SegmentParser
	fetcher     FileFetcher
	concat      Concatenator
	progress    ProgressFunc
}

// Option customizes a DownloaderService
type Option func(*DownloaderService)

func WithParser(p SegmentParser) Option {
	return func(s *DownloaderService) { s.parser = p }
}

func WithFetcher(f FileFetcher) Option {
	return func(s *DownloaderService) { s.fetcher = f }
}

func WithConcatenator(c Concatenator) Option {
	return func(s *DownloaderService) { s.concat = c }
}

func WithProgress(fn ProgressFunc) Option {
	return func(s *DownloaderService) { s.progress = fn }
}

// NewDownloaderService wires the parser, fetcher and ffmpeg from cfg unless overridden
func NewDownloaderService(cfg *config.DownloaderConfig, log *logrus.Logger, opts ...Option) *DownloaderService {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	s := &DownloaderService{
		concurrency: concurrency,
		log:         logger.NewComponentLogger(log, "downloader"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.parser == nil {
		s.parser = NewManifestParser(nil, log)
	}
	if s.fetcher == nil {
		s.fetcher = NewFetcher(cfg, log)
	}
	if s.concat == nil {
		s.concat = NewFFmpegConcatenator(cfg.FFmpegPath, log)
	}
	return s
}

// ScratchDir is the per-episode segment directory: a sibling of output named after its stem
func ScratchDir(output string) string {
	base := filepath.Base(output)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(output), stem)
}

// DownloadVideo fetches every segment of manifestURL and merges them into output.
// On failure no output file is left behind.
func (s *DownloaderService) DownloadVideo(ctx context.Context, manifestURL, output string) error {
	title := filepath.Base(output)
	entry := s.log.WithFields(logrus.Fields{"title": title, "m3u8": manifestURL})

	segments, err := s.parser.Parse(ctx, manifestURL)
	if err != nil {
		return err
	}

	folder := ScratchDir(output)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return fmt.Errorf("error creating scratch directory: %w", err)
	}

	entry.WithField("segments", len(segments)).Info("Downloading segments")

	results := s.fetchSegments(ctx, folder, title, segments)

	// Merge order is the manifest order, whatever order the workers finished in
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Segment.Index < results[j].Segment.Index
	})

	var failed []SegmentResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	if len(failed) > 0 {
		s.cleanupFailure(output, folder)
		return &SegmentFetchFailure{Output: output, Total: len(segments), Failed: failed}
	}

	paths := make([]string, len(results))
	var totalBytes uint64
	for i, r := range results {
		paths[i] = r.Path
		if info, err := os.Stat(r.Path); err == nil {
			totalBytes += uint64(info.Size())
		}
	}

	entry.WithFields(logrus.Fields{
		"segments": len(paths),
		"size":     humanize.Bytes(totalBytes),
	}).Info("All segments downloaded, merging")

	listFile := filepath.Join(folder, mergeManifestName)
	if err := writeMergeManifest(listFile, paths); err != nil {
		s.cleanupFailure(output, folder)
		return err
	}

	if err := s.concat.Concat(ctx, listFile, output); err != nil {
		s.cleanupFailure(output, folder)
		return &ConcatenationError{Output: output, Err: err}
	}

	entry.WithField("output", output).Info("Merge completed")

	s.cleanupSuccess(folder, paths, listFile)
	return nil
}

// fetchSegments runs the bounded worker pool and returns one result per segment
func (s *DownloaderService) fetchSegments(ctx context.Context, folder, title string, segments []models.Segment) []SegmentResult {
	results := make([]SegmentResult, len(segments))

	numWorkers := s.concurrency
	if len(segments) < numWorkers {
		numWorkers = len(segments)
	}

	var (
		wg         sync.WaitGroup
		progressMu sync.Mutex
		downloaded int
	)

	updateProgress := func() {
		progressMu.Lock()
		defer progressMu.Unlock()
		downloaded++
		if s.progress != nil {
			s.progress(title, models.ProgressInfo{TotalSegments: len(segments), Downloaded: downloaded})
		}
	}

	s.log.WithFields(logrus.Fields{
		"title":   title,
		"workers": numWorkers,
	}).Debug("Starting download with workers")

	jobs := make(chan downloadJob, len(segments))

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobs {
				s.log.WithFields(logrus.Fields{
					"worker_id": workerID,
					"segment":   job.segment.Index,
					"title":     title,
				}).Debug("Worker downloading segment")

				err := s.fetcher.Fetch(ctx, job.segment.URI, job.fileName)

				// Each slot is written by exactly one worker
				results[job.slot] = SegmentResult{Segment: job.segment, Path: job.fileName, Err: err}
				updateProgress()
			}
		}(w)
	}

	for i, seg := range segments {
		jobs <- downloadJob{
			slot:     i,
			segment:  seg,
			fileName: filepath.Join(folder, fmt.Sprintf("segment-%d.ts", seg.Index)),
		}
	}
	close(jobs)

	wg.Wait()
	return results
}

// cleanupFailure removes the output and every transient file of the episode
func (s *DownloaderService) cleanupFailure(output, folder string) {
	if err := utils.RemoveIfExists(output); err != nil {
		s.log.WithFields(logrus.Fields{"output": output, "error": err}).Warn("Failed to remove partial output")
	}
	if err := utils.ClearFolder(folder); err != nil && !os.IsNotExist(err) {
		s.log.WithFields(logrus.Fields{"folder": folder, "error": err}).Warn("Failed to clear scratch directory")
	}
	if err := utils.RemoveIfExists(folder); err != nil {
		s.log.WithFields(logrus.Fields{"folder": folder, "error": err}).Warn("Failed to remove scratch directory")
	}
}

// cleanupSuccess removes segments and the merge manifest, then the empty scratch directory
func (s *DownloaderService) cleanupSuccess(folder string, paths []string, listFile string) {
	for _, p := range append(paths, listFile) {
		if err := utils.RemoveIfExists(p); err != nil {
			s.log.WithFields(logrus.Fields{"file": p, "error": err}).Warn("Failed to remove temporary file")
		}
	}
	if err := os.Remove(folder); err != nil {
		s.log.WithFields(logrus.Fields{"folder": folder, "error": err}).Warn("Failed to remove scratch directory")
		return
	}
	s.log.WithField("folder", folder).Debug("Successfully cleaned up temporary files")
}
