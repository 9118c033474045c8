package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXT-X-MEDIA-SEQUENCE:0
#EXTINF:10.0,
seg0.ts
#EXTINF:10.0,
sub/seg1.ts?sig=abc
#EXTINF:10.0,
/abs/seg2.ts
#EXTINF:10.0,
https://cdn.example.com/seg3.ts
#EXT-X-ENDLIST
`

func TestManifestParserResolvesSegmentsInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, mediaPlaylist)
	}))
	defer srv.Close()

	parser := NewManifestParser(srv.Client(), newTestLogger())
	segments, err := parser.Parse(context.Background(), srv.URL+"/video/hls/index.m3u8")
	require.NoError(t, err)
	require.Len(t, segments, 4)

	want := []string{
		srv.URL + "/video/hls/seg0.ts",
		srv.URL + "/video/hls/sub/seg1.ts?sig=abc",
		srv.URL + "/abs/seg2.ts",
		"https://cdn.example.com/seg3.ts",
	}
	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, want[i], seg.URI)
	}
}

func TestManifestParserFollowsBestVariant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720
first-high/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720
second-high/index.m3u8
`)
	})
	mux.HandleFunc("/first-high/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXTM3U\n#EXT-X-TARGETDURATION:10\n#EXTINF:10.0,\na.ts\n#EXT-X-ENDLIST\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	parser := NewManifestParser(srv.Client(), newTestLogger())
	segments, err := parser.Parse(context.Background(), srv.URL+"/master.m3u8")
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, srv.URL+"/first-high/a.ts", segments[0].URI)
}

func TestManifestParserFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "empty playlist",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "#EXTM3U\n#EXT-X-TARGETDURATION:10\n#EXT-X-ENDLIST\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			parser := NewManifestParser(srv.Client(), newTestLogger())
			_, err := parser.Parse(context.Background(), srv.URL+"/index.m3u8")
			require.Error(t, err)

			var manifestErr *ManifestFetchError
			require.True(t, errors.As(err, &manifestErr))
			assert.Equal(t, srv.URL+"/index.m3u8", manifestErr.URL)
		})
	}
}
