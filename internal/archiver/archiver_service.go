package archiver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/internal/downloader"
	"github.com/rizkirmdhn/vistopia/internal/tagging"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/rizkirmdhn/vistopia/pkg/utils"
	"github.com/sirupsen/logrus"
)

// CatalogSource is the part of the API client the archiver needs
type CatalogSource interface {
	GetCatalog(ctx context.Context, id int) (*models.Catalog, error)
	GetSeries(ctx context.Context, id int) (*models.Series, error)
}

// VideoDownloader turns a manifest into a merged media file
type VideoDownloader interface {
	DownloadVideo(ctx context.Context, manifestURL, output string) error
}

// Tagger writes audio metadata
type Tagger interface {
	Retag(path string, ep models.Episode, series *models.Series) error
	EmbedCover(ctx context.Context, path, coverURL string) error
}

// CatalogFetchError reports a show whose catalog or series could not be loaded
type CatalogFetchError struct {
	ShowID int
	Err    error
}

func (e *CatalogFetchError) Error() string {
	return fmt.Sprintf("show %d: %v", e.ShowID, e.Err)
}

func (e *CatalogFetchError) Unwrap() error { return e.Err }

// Options tune a single SaveShow run
type Options struct {
	Episodes EpisodeFilter
	NoTag    bool
	NoCover  bool
}

// Summary counts the episodes of one run
type Summary = models.Stats

// Service archives whole shows to the output directory
type Service struct {
	root    string
	runID   string
	source  CatalogSource
	fetcher downloader.FileFetcher
	video   VideoDownloader
	tagger  Tagger
	events  EventPublisher
	log     *logger.ComponentLogger
}

type Option func(*Service)

func WithFetcher(f downloader.FileFetcher) Option {
	return func(s *Service) { s.fetcher = f }
}

func WithVideoDownloader(v VideoDownloader) Option {
	return func(s *Service) { s.video = v }
}

func WithTagger(t Tagger) Option {
	return func(s *Service) { s.tagger = t }
}

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithRunID stamps every published event and log line with id
func WithRunID(id string) Option {
	return func(s *Service) { s.runID = id }
}

// NewService builds the archiver; collaborators not given as options are built from cfg
func NewService(cfg *config.DownloaderConfig, source CatalogSource, log *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		root:   cfg.OutputDir,
		source: source,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.root == "" {
		s.root = "."
	}
	if s.fetcher == nil {
		s.fetcher = downloader.NewFetcher(cfg, log)
	}
	if s.video == nil {
		s.video = downloader.NewDownloaderService(cfg, log)
	}
	if s.tagger == nil {
		s.tagger = tagging.NewTagger(nil, log)
	}
	if s.events == nil {
		s.events = NewLogPublisher(log)
	}

	s.log = logger.NewComponentLogger(log, "archiver")
	if s.runID != "" {
		s.log = s.log.With(logrus.Fields{"run_id": s.runID})
	}
	return s
}

// showRun carries what every episode of one SaveShow call shares
type showRun struct {
	id      int
	catalog *models.Catalog
	series  *models.Series
	opts    Options
}

// SaveShow downloads every selected episode of show id that is not on disk yet.
// A failing episode is logged and counted; only catalog failures, the show lock
// and cancellation end the run early.
func (s *Service) SaveShow(ctx context.Context, id int, opts Options) (Summary, error) {
	var summary Summary

	catalog, err := s.source.GetCatalog(ctx, id)
	if err != nil {
		return summary, &CatalogFetchError{ShowID: id, Err: err}
	}
	series, err := s.source.GetSeries(ctx, id)
	if err != nil {
		return summary, &CatalogFetchError{ShowID: id, Err: err}
	}

	run := &showRun{id: id, catalog: catalog, series: series, opts: opts}
	entry := s.log.WithFields(logrus.Fields{"show_id": id, "show": catalog.Title})

	showDir := ShowDir(s.root, catalog)
	if err := os.MkdirAll(showDir, 0755); err != nil {
		return summary, fmt.Errorf("error creating show directory: %w", err)
	}

	lock, err := lockShow(showDir)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			entry.WithError(err).Warn("Failed to release show lock")
		}
	}()

	s.saveMeta(ctx, catalog, series, showDir)

	tasks, errs := enumerate(catalog, s.root, opts.Episodes, func(ep models.Episode, path string) {
		summary.Skipped++
		entry.WithFields(logrus.Fields{"episode": int(ep.SortNumber), "path": path}).Info("Skipping existing file")
		s.publishEpisode(run, ep, path, models.StatusSkip, nil)
	})
	for _, err := range errs {
		summary.Failed++
		entry.WithError(err).Error("Episode cannot be archived")

		var kindErr *UnsupportedMediaKindError
		if errors.As(err, &kindErr) {
			s.publishEpisode(run, models.Episode{
				SortNumber: models.FlexInt(kindErr.SortNumber),
				Title:      kindErr.Title,
				MediaType:  kindErr.Kind,
			}, "", models.StatusError, err)
		}
	}

	entry.WithFields(logrus.Fields{
		"tasks":   len(tasks),
		"skipped": summary.Skipped,
	}).Info("Archiving show")

	var runErr error
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		s.publishEpisode(run, task.Episode, task.TargetPath, models.StatusStart, nil)
		if err := s.saveEpisode(ctx, run, task); err != nil {
			summary.Failed++
			entry.WithFields(logrus.Fields{
				"episode": int(task.Episode.SortNumber),
				"path":    task.TargetPath,
				"error":   err,
			}).Error("Episode download failed")
			s.publishEpisode(run, task.Episode, task.TargetPath, models.StatusError, err)
			continue
		}

		summary.Completed++
		entry.WithField("path", task.TargetPath).Info("Episode downloaded")
		s.publishEpisode(run, task.Episode, task.TargetPath, models.StatusComplete, nil)
	}

	if err := s.events.PublishShow(models.ShowLog{
		RunID:  s.runID,
		ShowID: id,
		Show:   catalog.Title,
		Stats:  summary,
	}); err != nil {
		entry.WithError(err).Warn("Failed to publish show event")
	}

	entry.WithFields(logrus.Fields{
		"completed": summary.Completed,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("Show finished")

	return summary, runErr
}

// saveEpisode writes one task; on error no output file is left behind
func (s *Service) saveEpisode(ctx context.Context, run *showRun, task models.DownloadTask) error {
	ep := task.Episode
	entry := s.log.WithFields(logrus.Fields{
		"episode": int(ep.SortNumber),
		"path":    task.TargetPath,
	})
	entry.Info("Downloading episode")

	switch ep.MediaType {
	case models.MediaAudio:
		if ep.MediaURL == "" {
			return errors.New("episode has no media url")
		}
		if err := s.fetcher.Fetch(ctx, ep.MediaURL, task.TargetPath); err != nil {
			s.removeOutput(task.TargetPath)
			return err
		}

		// A tagging failure leaves a playable file, so it is not an episode failure
		if !run.opts.NoTag {
			if err := s.tagger.Retag(task.TargetPath, ep, run.series); err != nil {
				entry.WithError(err).Warn("Failed to write tags")
			}
		}
		if !run.opts.NoCover && run.catalog.BackgroundImg != "" {
			if err := s.tagger.EmbedCover(ctx, task.TargetPath, run.catalog.BackgroundImg); err != nil {
				entry.WithError(err).Warn("Failed to embed cover")
			}
		}
		return nil

	case models.MediaVideo:
		best, ok := BestMediaFile(ep.MediaFiles)
		if !ok {
			return errors.New("episode has no media files")
		}
		entry.WithField("quality", int(best.Quality)).Debug("Selected video quality")

		if err := s.video.DownloadVideo(ctx, best.URL, task.TargetPath); err != nil {
			s.removeOutput(task.TargetPath)
			return err
		}
		return nil
	}

	return &UnsupportedMediaKindError{SortNumber: int(ep.SortNumber), Title: ep.Title, Kind: ep.MediaType}
}

func (s *Service) removeOutput(path string) {
	if err := utils.RemoveIfExists(path); err != nil {
		s.log.WithFields(logrus.Fields{"path": path, "error": err}).Warn("Failed to remove output")
	}
}

func (s *Service) publishEpisode(run *showRun, ep models.Episode, path, status string, err error) {
	ev := models.EpisodeLog{
		RunID:      s.runID,
		ShowID:     run.id,
		Show:       run.catalog.Title,
		SortNumber: int(ep.SortNumber),
		Title:      ep.Title,
		MediaType:  ep.MediaType,
		Path:       path,
		Status:     status,
		Time:       time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}

	if publishErr := s.events.PublishEpisode(ev); publishErr != nil {
		s.log.WithError(publishErr).Error("Failed to publish episode event")
	}
}

// BestMediaFile returns the candidate with the highest quality.
// Equal qualities keep the earlier candidate.
func BestMediaFile(files []models.MediaFile) (models.MediaFile, bool) {
	if len(files) == 0 {
		return models.MediaFile{}, false
	}
	best := files[0]
	for _, f := range files[1:] {
		if f.Quality > best.Quality {
			best = f
		}
	}
	return best, true
}
