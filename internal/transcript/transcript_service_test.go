package transcript

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rizkirmdhn/vistopia/internal/archiver"
	"github.com/rizkirmdhn/vistopia/internal/common/config"
	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	catalog *models.Catalog
	err     error
}

func (c *staticCatalog) GetCatalog(ctx context.Context, id int) (*models.Catalog, error) {
	return c.catalog, c.err
}

type pageFetcher struct {
	calls int
}

func (f *pageFetcher) Fetch(ctx context.Context, url string, fileName string) error {
	f.calls++
	return os.WriteFile(fileName, []byte(`<html><body><img src="/assets/a.png"><link href="/assets/s.css"></body></html>`), 0644)
}

type fakeRenderer struct {
	calls int
	fail  map[string]bool
}

func (r *fakeRenderer) RenderPDF(ctx context.Context, htmlPath, pdfPath string) error {
	r.calls++
	if r.fail[filepath.Base(htmlPath)] {
		_ = os.WriteFile(pdfPath, []byte("%PDF-partial"), 0644)
		return errors.New("chrome crashed")
	}
	return os.WriteFile(pdfPath, []byte("%PDF-1.4"), 0644)
}

func testCatalog() *models.Catalog {
	return &models.Catalog{
		Title: "Show",
		Parts: []models.Part{{Episodes: []models.Episode{
			{SortNumber: 1, Title: "One", MediaType: models.MediaAudio, ContentURL: "https://x/1"},
			{SortNumber: 2, Title: "Two", MediaType: models.MediaVideo, ContentURL: "https://x/2"},
		}}},
	}
}

func newTestService(root string, fetcher *pageFetcher, renderer *fakeRenderer, source CatalogSource) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.TranscriptConfig{AssetBaseURL: "https://api.vistopia.com.cn/assets"}
	return NewService(cfg, root, source, fetcher, renderer, log)
}

func TestSaveTranscriptRewritesAssetsAndRenders(t *testing.T) {
	root := t.TempDir()
	fetcher, renderer := &pageFetcher{}, &fakeRenderer{}
	svc := newTestService(root, fetcher, renderer, &staticCatalog{catalog: testCatalog()})

	stats, err := svc.SaveTranscript(context.Background(), 11, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Completed)

	html, err := os.ReadFile(filepath.Join(root, "Show", "One.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `src="https://api.vistopia.com.cn/assets/a.png"`)
	assert.Contains(t, string(html), `href="https://api.vistopia.com.cn/assets/s.css"`)
	assert.NotContains(t, string(html), `="/assets/`)
	assert.FileExists(t, filepath.Join(root, "Show", "Two.pdf"))

	stats, err = svc.SaveTranscript(context.Background(), 11, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 2, fetcher.calls)
	assert.Equal(t, 2, renderer.calls)
}

func TestSaveTranscriptHonoursFilter(t *testing.T) {
	root := t.TempDir()
	fetcher := &pageFetcher{}
	svc := newTestService(root, fetcher, &fakeRenderer{}, &staticCatalog{catalog: testCatalog()})

	_, err := svc.SaveTranscript(context.Background(), 11, archiver.NewEpisodeFilter(2))
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.NoFileExists(t, filepath.Join(root, "Show", "One.html"))
	assert.FileExists(t, filepath.Join(root, "Show", "Two.html"))
}

func TestSaveTranscriptRenderFailureKeepsHTML(t *testing.T) {
	root := t.TempDir()
	renderer := &fakeRenderer{fail: map[string]bool{"One.html": true}}
	svc := newTestService(root, &pageFetcher{}, renderer, &staticCatalog{catalog: testCatalog()})

	stats, err := svc.SaveTranscript(context.Background(), 11, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Completed)

	assert.FileExists(t, filepath.Join(root, "Show", "One.html"))
	assert.NoFileExists(t, filepath.Join(root, "Show", "One.pdf"))
}

func TestSaveTranscriptCatalogFailure(t *testing.T) {
	svc := newTestService(t.TempDir(), &pageFetcher{}, &fakeRenderer{}, &staticCatalog{err: errors.New("boom")})

	_, err := svc.SaveTranscript(context.Background(), 11, nil)

	var catalogErr *archiver.CatalogFetchError
	require.True(t, errors.As(err, &catalogErr))
	assert.Equal(t, 11, catalogErr.ShowID)
}
