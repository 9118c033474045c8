package archiver

import (
	"context"
	"path/filepath"

	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/rizkirmdhn/vistopia/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	coverFileName  = "cover.jpg"
	descFileName   = "desc.txt"
	readerFileName = "reader.txt"
)

// saveMeta writes cover.jpg, desc.txt and reader.txt unless they exist.
// Failures are logged; they never stop the episodes from being archived.
func (s *Service) saveMeta(ctx context.Context, catalog *models.Catalog, series *models.Series, showDir string) {
	cover := filepath.Join(showDir, coverFileName)
	switch {
	case utils.Exists(cover):
		s.log.WithField("path", cover).Info("Skipping existing file")
	case catalog.BackgroundImg == "":
		s.log.WithField("path", cover).Warn("Show has no cover image")
	default:
		s.log.WithField("path", cover).Info("Downloading cover")
		if err := s.fetcher.Fetch(ctx, catalog.BackgroundImg, cover); err != nil {
			s.log.WithFields(logrus.Fields{"path": cover, "error": err}).Warn("Failed to download cover")
		}
	}

	for _, f := range []struct {
		name    string
		content string
	}{
		{descFileName, series.ShareDesc},
		{readerFileName, series.Author},
	} {
		path := filepath.Join(showDir, f.name)
		written, err := utils.WriteFileIfMissing(path, f.content)
		switch {
		case err != nil:
			s.log.WithFields(logrus.Fields{"path": path, "error": err}).Warn("Failed to write show metadata")
		case written:
			s.log.WithField("path", path).Info("Show metadata written")
		default:
			s.log.WithField("path", path).Info("Skipping existing file")
		}
	}
}
