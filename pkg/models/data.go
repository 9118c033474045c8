package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// MediaKind is the media type of an episode as reported by the API
type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

// FlexInt decodes a JSON number or a numeric string
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*f = 0
			return nil
		}
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", string(data), err)
	}
	*f = FlexInt(n)
	return nil
}

// Catalog represents the catalog tree of one show
type Catalog struct {
	Title         string `json:"title"`
	BackgroundImg string `json:"background_img"`
	Parts         []Part `json:"catalog"`
}

// Part groups episodes inside a catalog
type Part struct {
	Episodes []Episode `json:"part"`
}

// Episode represents one article of a show
type Episode struct {
	SortNumber FlexInt     `json:"sort_number"`
	Title      string      `json:"title"`
	MediaType  MediaKind   `json:"media_type_en"`
	MediaURL   string      `json:"media_key_full_url"`
	MediaFiles []MediaFile `json:"media_files"`
	ContentURL string      `json:"content_url"`
}

// MediaFile is one quality candidate of a video episode
type MediaFile struct {
	Quality FlexInt `json:"quality"`
	URL     string  `json:"media_key_full_url"`
}

// Series represents the content-show metadata of a show
type Series struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	ShareDesc string `json:"share_desc"`
}

// DownloadTask is one episode waiting to be written to TargetPath
type DownloadTask struct {
	Episode    Episode
	TargetPath string
}

// Segment is one media chunk of a manifest; Index is the declaration order
type Segment struct {
	Index int
	URI   string
}

// SearchResult is one item returned by the search endpoint
type SearchResult struct {
	ContentID FlexInt `json:"content_id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	ShareDesc string  `json:"share_desc"`
}

// Subscription is one item of the user's subscriptions list
type Subscription struct {
	ContentID FlexInt `json:"content_id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	Count     FlexInt `json:"article_count"`
}

// SubscriptionPage wraps the paged subscriptions payload
type SubscriptionPage struct {
	Data []Subscription `json:"data"`
}
