package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rizkirmdhn/vistopia/internal/archiver"
	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/internal/downloader"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/rizkirmdhn/vistopia/pkg/utils"
	"github.com/sirupsen/logrus"
)

const relativeAssetPrefix = `="/assets/`

// CatalogSource loads the catalog tree of a show
type CatalogSource interface {
	GetCatalog(ctx context.Context, id int) (*models.Catalog, error)
}

// Service saves the article page of every episode as HTML and PDF
type Service struct {
	root      string
	assetBase string
	source    CatalogSource
	fetcher   downloader.FileFetcher
	renderer  Renderer
	log       *logger.ComponentLogger
}

func NewService(cfg *config.TranscriptConfig, root string, source CatalogSource, fetcher downloader.FileFetcher, renderer Renderer, log *logrus.Logger) *Service {
	if root == "" {
		root = "."
	}
	assetBase := cfg.AssetBaseURL
	if assetBase != "" && !strings.HasSuffix(assetBase, "/") {
		assetBase += "/"
	}
	return &Service{
		root:      root,
		assetBase: assetBase,
		source:    source,
		fetcher:   fetcher,
		renderer:  renderer,
		log:       logger.NewComponentLogger(log, "transcript"),
	}
}

// SaveTranscript writes <title>.html and <title>.pdf for the selected episodes of
// show id. Existing files are kept; a failing episode does not stop the others.
func (s *Service) SaveTranscript(ctx context.Context, id int, filter archiver.EpisodeFilter) (models.Stats, error) {
	var stats models.Stats

	catalog, err := s.source.GetCatalog(ctx, id)
	if err != nil {
		return stats, &archiver.CatalogFetchError{ShowID: id, Err: err}
	}

	showDir := archiver.ShowDir(s.root, catalog)
	if err := os.MkdirAll(showDir, 0755); err != nil {
		return stats, fmt.Errorf("error creating show directory: %w", err)
	}

	for _, part := range catalog.Parts {
		for _, ep := range part.Episodes {
			if !filter.Allows(int(ep.SortNumber)) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			base := filepath.Join(showDir, utils.SanitizeFileName(ep.Title))
			written, err := s.saveEpisode(ctx, ep, base)
			switch {
			case err != nil:
				stats.Failed++
				s.log.WithFields(logrus.Fields{
					"episode": int(ep.SortNumber),
					"error":   err,
				}).Error("Transcript failed")
			case written:
				stats.Completed++
			default:
				stats.Skipped++
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"show":      catalog.Title,
		"completed": stats.Completed,
		"failed":    stats.Failed,
		"skipped":   stats.Skipped,
	}).Info("Transcripts finished")
	return stats, nil
}

// saveEpisode reports whether any file was written
func (s *Service) saveEpisode(ctx context.Context, ep models.Episode, base string) (bool, error) {
	htmlPath := base + ".html"
	pdfPath := base + ".pdf"
	written := false

	if utils.Exists(htmlPath) {
		s.log.WithField("path", htmlPath).Info("Skipping existing file")
	} else {
		if ep.ContentURL == "" {
			return false, fmt.Errorf("episode %d has no content url", int(ep.SortNumber))
		}
		s.log.WithField("path", htmlPath).Info("Downloading transcript")
		if err := s.fetcher.Fetch(ctx, ep.ContentURL, htmlPath); err != nil {
			return false, err
		}
		if err := s.rewriteAssets(htmlPath); err != nil {
			_ = utils.RemoveIfExists(htmlPath)
			return false, err
		}
		written = true
	}

	if utils.Exists(pdfPath) {
		s.log.WithField("path", pdfPath).Info("Skipping existing file")
		return written, nil
	}

	s.log.WithField("path", pdfPath).Info("Rendering transcript")
	if err := s.renderer.RenderPDF(ctx, htmlPath, pdfPath); err != nil {
		_ = utils.RemoveIfExists(pdfPath)
		return written, err
	}
	return true, nil
}

// rewriteAssets points root-relative asset references at the asset host
func (s *Service) rewriteAssets(htmlPath string) error {
	if s.assetBase == "" {
		return nil
	}
	content, err := os.ReadFile(htmlPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	rewritten := strings.ReplaceAll(string(content), relativeAssetPrefix, `="`+s.assetBase)
	if err := os.WriteFile(htmlPath, []byte(rewritten), 0644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
