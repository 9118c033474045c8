package archiver

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/rizkirmdhn/vistopia/pkg/utils"
	"github.com/sirupsen/logrus"
)

// EpisodeFilter selects episodes by sort number. A nil filter selects every episode.
type EpisodeFilter map[int]struct{}

func NewEpisodeFilter(numbers ...int) EpisodeFilter {
	f := make(EpisodeFilter, len(numbers))
	for _, n := range numbers {
		f[n] = struct{}{}
	}
	return f
}

func (f EpisodeFilter) Allows(sortNumber int) bool {
	if f == nil {
		return true
	}
	_, ok := f[sortNumber]
	return ok
}

// UnsupportedMediaKindError reports an episode that is neither audio nor video
type UnsupportedMediaKindError struct {
	SortNumber int
	Title      string
	Kind       models.MediaKind
}

func (e *UnsupportedMediaKindError) Error() string {
	return fmt.Sprintf("episode %d %q: unsupported media type %q", e.SortNumber, e.Title, e.Kind)
}

// ShowDir is the directory of a show below root
func ShowDir(root string, catalog *models.Catalog) string {
	return filepath.Join(root, utils.SanitizeFileName(catalog.Title))
}

// EpisodePath is the output file of an episode inside showDir
func EpisodePath(showDir string, ep models.Episode) (string, error) {
	var ext string
	switch ep.MediaType {
	case models.MediaAudio:
		ext = ".mp3"
	case models.MediaVideo:
		ext = ".mkv"
	default:
		return "", &UnsupportedMediaKindError{SortNumber: int(ep.SortNumber), Title: ep.Title, Kind: ep.MediaType}
	}
	return filepath.Join(showDir, utils.SanitizeFileName(ep.Title)+ext), nil
}

// skipFunc is told about every task dropped because its output already exists
type skipFunc func(ep models.Episode, path string)

// Enumerate flattens the catalog into download tasks in catalog order. Episodes
// outside filter and episodes whose output already exists are left out.
// Unsupported media kinds do not stop enumeration; they come back joined in the
// error next to the valid tasks.
func Enumerate(catalog *models.Catalog, root string, filter EpisodeFilter, log *logrus.Logger) ([]models.DownloadTask, error) {
	clog := logger.NewComponentLogger(log, "enumerator")
	tasks, errs := enumerate(catalog, root, filter, func(ep models.Episode, path string) {
		clog.WithFields(logrus.Fields{
			"episode": int(ep.SortNumber),
			"path":    path,
		}).Info("Skipping existing file")
	})
	return tasks, errors.Join(errs...)
}

func enumerate(catalog *models.Catalog, root string, filter EpisodeFilter, skip skipFunc) ([]models.DownloadTask, []error) {
	showDir := ShowDir(root, catalog)

	var (
		tasks []models.DownloadTask
		errs  []error
	)
	for _, part := range catalog.Parts {
		for _, ep := range part.Episodes {
			if !filter.Allows(int(ep.SortNumber)) {
				continue
			}

			path, err := EpisodePath(showDir, ep)
			if err != nil {
				errs = append(errs, err)
				continue
			}

			if utils.Exists(path) {
				if skip != nil {
					skip(ep, path)
				}
				continue
			}

			tasks = append(tasks, models.DownloadTask{Episode: ep, TargetPath: path})
		}
	}
	return tasks, errs
}
