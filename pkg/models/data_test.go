package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexIntAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		raw  string
		want FlexInt
	}{
		{`7`, 7},
		{`"12"`, 12},
		{`" 3 "`, 3},
		{`""`, 0},
		{`null`, 0},
	}

	for _, tt := range tests {
		var v FlexInt
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &v), tt.raw)
		assert.Equal(t, tt.want, v, tt.raw)
	}
}

func TestFlexIntRejectsGarbage(t *testing.T) {
	for _, raw := range []string{`"abc"`, `1.5`, `true`} {
		var v FlexInt
		assert.Error(t, json.Unmarshal([]byte(raw), &v), raw)
	}
}

func TestEpisodeDecodesAPIFieldNames(t *testing.T) {
	var ep Episode
	err := json.Unmarshal([]byte(`{
		"sort_number": "4",
		"title": "Four",
		"media_type_en": "video",
		"media_key_full_url": "https://cdn/a.mp3",
		"content_url": "https://x/4",
		"media_files": [{"quality": 1080, "media_key_full_url": "https://cdn/1080.m3u8"}]
	}`), &ep)
	require.NoError(t, err)

	assert.EqualValues(t, 4, ep.SortNumber)
	assert.Equal(t, MediaVideo, ep.MediaType)
	assert.Equal(t, "https://x/4", ep.ContentURL)
	require.Len(t, ep.MediaFiles, 1)
	assert.EqualValues(t, 1080, ep.MediaFiles[0].Quality)
}
