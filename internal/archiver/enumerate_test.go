package archiver

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rizkirmdhn/vistopia/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fiveEpisodeCatalog() *models.Catalog {
	return &models.Catalog{
		Title: "Show/Name",
		Parts: []models.Part{
			{Episodes: []models.Episode{
				{SortNumber: 1, Title: "One", MediaType: models.MediaAudio},
				{SortNumber: 2, Title: "Two", MediaType: models.MediaVideo},
			}},
			{Episodes: []models.Episode{
				{SortNumber: 3, Title: "Three", MediaType: models.MediaAudio},
				{SortNumber: 4, Title: "Four/Part", MediaType: models.MediaAudio},
				{SortNumber: 5, Title: "Five", MediaType: models.MediaVideo},
			}},
		},
	}
}

func taskNumbers(tasks []models.DownloadTask) []int {
	numbers := make([]int, len(tasks))
	for i, task := range tasks {
		numbers[i] = int(task.Episode.SortNumber)
	}
	return numbers
}

func TestEnumerateKeepsCatalogOrderAndPaths(t *testing.T) {
	root := t.TempDir()
	tasks, err := Enumerate(fiveEpisodeCatalog(), root, nil, newTestLogger())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, taskNumbers(tasks))

	showDir := filepath.Join(root, `Show\Name`)
	assert.Equal(t, filepath.Join(showDir, "One.mp3"), tasks[0].TargetPath)
	assert.Equal(t, filepath.Join(showDir, "Two.mkv"), tasks[1].TargetPath)
	assert.Equal(t, filepath.Join(showDir, `Four\Part.mp3`), tasks[3].TargetPath)
}

func TestEnumerateFilter(t *testing.T) {
	tasks, err := Enumerate(fiveEpisodeCatalog(), t.TempDir(), NewEpisodeFilter(2, 4), newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, taskNumbers(tasks))
}

func TestEnumerateSkipsExistingOutputs(t *testing.T) {
	root := t.TempDir()
	catalog := fiveEpisodeCatalog()

	tasks, err := Enumerate(catalog, root, nil, newTestLogger())
	require.NoError(t, err)
	require.Len(t, tasks, 5)

	require.NoError(t, os.MkdirAll(ShowDir(root, catalog), 0755))
	require.NoError(t, os.WriteFile(tasks[2].TargetPath, nil, 0644))

	again, err := Enumerate(catalog, root, nil, newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4, 5}, taskNumbers(again))

	for _, task := range again {
		require.NoError(t, os.WriteFile(task.TargetPath, []byte("done"), 0644))
	}

	final, err := Enumerate(catalog, root, nil, newTestLogger())
	require.NoError(t, err)
	assert.Empty(t, final)
}

func TestEnumerateUnsupportedMediaKind(t *testing.T) {
	catalog := &models.Catalog{
		Title: "Mixed",
		Parts: []models.Part{{Episodes: []models.Episode{
			{SortNumber: 1, Title: "Audio", MediaType: models.MediaAudio},
			{SortNumber: 2, Title: "Article", MediaType: "text"},
			{SortNumber: 3, Title: "Video", MediaType: models.MediaVideo},
		}}},
	}

	tasks, err := Enumerate(catalog, t.TempDir(), nil, newTestLogger())
	require.Error(t, err)
	assert.Equal(t, []int{1, 3}, taskNumbers(tasks))

	var kindErr *UnsupportedMediaKindError
	require.True(t, errors.As(err, &kindErr))
	assert.Equal(t, 2, kindErr.SortNumber)
	assert.Equal(t, models.MediaKind("text"), kindErr.Kind)
}

func TestEnumerateFilterSkipsUnsupportedEpisodes(t *testing.T) {
	catalog := &models.Catalog{
		Title: "Mixed",
		Parts: []models.Part{{Episodes: []models.Episode{
			{SortNumber: 1, Title: "Audio", MediaType: models.MediaAudio},
			{SortNumber: 2, Title: "Article", MediaType: "text"},
		}}},
	}

	tasks, err := Enumerate(catalog, t.TempDir(), NewEpisodeFilter(1), newTestLogger())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, taskNumbers(tasks))
}

func TestEpisodeFilterAllows(t *testing.T) {
	var all EpisodeFilter
	assert.True(t, all.Allows(42))

	some := NewEpisodeFilter(2, 4)
	assert.True(t, some.Allows(4))
	assert.False(t, some.Allows(3))

	none := NewEpisodeFilter()
	assert.False(t, none.Allows(1))
}
