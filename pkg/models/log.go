package models

import "time"

// Episode statuses published while a show is archived
const (
	StatusStart    = "start"
	StatusSkip     = "skip"
	StatusComplete = "complete"
	StatusError    = "error"
)

// Stats represents the totals of one show run
type Stats struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ProgressInfo represents the progress of a segmented download
type ProgressInfo struct {
	TotalSegments int `json:"total_segments"`
	Downloaded    int `json:"downloaded"`
}

// EpisodeLog represents a status message about one episode
type EpisodeLog struct {
	RunID      string    `json:"run_id"`
	ShowID     int       `json:"show_id"`
	Show       string    `json:"show"`
	SortNumber int       `json:"sort_number"`
	Title      string    `json:"title"`
	MediaType  MediaKind `json:"media_type"`
	Path       string    `json:"path"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Time       time.Time `json:"time"`
}

// ShowLog represents the final status message of one show run
type ShowLog struct {
	RunID  string `json:"run_id"`
	ShowID int    `json:"show_id"`
	Show   string `json:"show"`
	Stats  Stats  `json:"stats"`
}
