package tagging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/bogem/id3v2/v2"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/sirupsen/logrus"
)

const (
	frameSourceURL   = "WOAR"
	coverMIMEType    = "image/jpeg"
	coverDescription = "Cover"
)

// Tagger writes ID3v2.4 tags into downloaded audio files.
// Cover images are downloaded once per URL and kept for the life of the Tagger.
type Tagger struct {
	client *http.Client
	log    *logger.ComponentLogger

	mu     sync.Mutex
	covers map[string][]byte
}

func NewTagger(client *http.Client, log *logrus.Logger) *Tagger {
	if client == nil {
		client = &http.Client{}
	}
	return &Tagger{
		client: client,
		log:    logger.NewComponentLogger(log, "tagging"),
		covers: make(map[string][]byte),
	}
}

// Retag sets title, album, artist, track number and source URL
func (t *Tagger) Retag(path string, ep models.Episode, series *models.Series) error {
	tag, err := open(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetTitle(ep.Title)
	if series != nil {
		tag.SetAlbum(series.Title)
		tag.SetArtist(series.Author)
	}
	tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), strconv.Itoa(int(ep.SortNumber)))

	if ep.ContentURL != "" {
		tag.DeleteFrames(frameSourceURL)
		tag.AddFrame(frameSourceURL, id3v2.UnknownFrame{Body: []byte(ep.ContentURL)})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tags of %s: %w", path, err)
	}

	t.log.WithFields(logrus.Fields{
		"path":  path,
		"title": ep.Title,
		"track": int(ep.SortNumber),
	}).Debug("Tags written")
	return nil
}

// EmbedCover replaces any attached picture with the front cover at coverURL
func (t *Tagger) EmbedCover(ctx context.Context, path, coverURL string) error {
	cover, err := t.cover(ctx, coverURL)
	if err != nil {
		return err
	}

	tag, err := open(path)
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    coverMIMEType,
		PictureType: id3v2.PTFrontCover,
		Description: coverDescription,
		Picture:     cover,
	})

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save cover of %s: %w", path, err)
	}
	return nil
}

func open(path string) (*id3v2.Tag, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("open tags of %s: %w", path, err)
	}
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	return tag, nil
}

// cover returns the image bytes of url, downloading them on first use
func (t *Tagger) cover(ctx context.Context, url string) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if data, ok := t.covers[url]; ok {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("cover request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}

	t.log.WithFields(logrus.Fields{"url": url, "bytes": len(data)}).Debug("Cover cached")
	t.covers[url] = data
	return data, nil
}
