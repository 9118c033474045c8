package downloader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/grafov/m3u8"
	"github.com/rizkirmdhn/vistopia/internal/common/logger"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/sirupsen/logrus"
)

// maxPlaylistDepth bounds master -> media playlist hops
const maxPlaylistDepth = 2

// ManifestParser turns an HLS playlist into its ordered segments
type ManifestParser struct {
	client *http.Client
	log    *logger.ComponentLogger
}

// NewManifestParser creates a parser using client, or http.DefaultClient when nil
func NewManifestParser(client *http.Client, log *logrus.Logger) *ManifestParser {
	if client == nil {
		client = http.DefaultClient
	}
	return &ManifestParser{
		client: client,
		log:    logger.NewComponentLogger(log, "manifest"),
	}
}

// Parse fetches manifestURL and returns its segments with absolute URIs.
// There is no retry here; every failure is a *ManifestFetchError.
func (p *ManifestParser) Parse(ctx context.Context, manifestURL string) ([]models.Segment, error) {
	segments, err := p.parse(ctx, manifestURL, 0)
	if err != nil {
		return nil, &ManifestFetchError{URL: manifestURL, Err: err}
	}
	return segments, nil
}

func (p *ManifestParser) parse(ctx context.Context, manifestURL string, depth int) ([]models.Segment, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	playlist, listType, err := p.load(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	switch listType {
	case m3u8.MASTER:
		master, ok := playlist.(*m3u8.MasterPlaylist)
		if !ok {
			return nil, fmt.Errorf("unexpected playlist type %T", playlist)
		}
		if depth+1 >= maxPlaylistDepth {
			return nil, fmt.Errorf("nested master playlist")
		}
		variant := bestVariant(master.Variants)
		if variant == nil {
			return nil, fmt.Errorf("master playlist has no variants")
		}
		next, err := resolve(base, variant.URI)
		if err != nil {
			return nil, err
		}
		p.log.WithFields(logrus.Fields{
			"manifest":  manifestURL,
			"variant":   next,
			"bandwidth": variant.Bandwidth,
		}).Debug("Selected playlist variant")
		return p.parse(ctx, next, depth+1)

	case m3u8.MEDIA:
		media, ok := playlist.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, fmt.Errorf("unexpected playlist type %T", playlist)
		}
		if media.Key != nil && media.Key.Method != "" && media.Key.Method != "NONE" {
			p.log.WithFields(logrus.Fields{
				"manifest": manifestURL,
				"method":   media.Key.Method,
			}).Warn("Playlist is encrypted, segments are merged as downloaded")
		}

		var segments []models.Segment
		for _, seg := range media.Segments {
			if seg == nil {
				break
			}
			uri, err := resolve(base, seg.URI)
			if err != nil {
				return nil, err
			}
			segments = append(segments, models.Segment{Index: len(segments), URI: uri})
		}
		if len(segments) == 0 {
			return nil, errEmptyManifest
		}
		return segments, nil
	}

	return nil, fmt.Errorf("unknown playlist type")
}

func (p *ManifestParser) load(ctx context.Context, manifestURL string) (m3u8.Playlist, m3u8.ListType, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return nil, 0, fmt.Errorf("decode playlist: %w", err)
	}
	return playlist, listType, nil
}

// bestVariant keeps the first variant with the highest bandwidth
func bestVariant(variants []*m3u8.Variant) *m3u8.Variant {
	var best *m3u8.Variant
	for _, v := range variants {
		if v == nil {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid segment uri %q: %w", ref, err)
	}
	return base.ResolveReference(u).String(), nil
}
