package progress

import "time"

// Progress is the per-(user, video) watch record. is_completed only ever
// moves from false to true; later lower readings never clear it.
type Progress struct {
	UserID          string    `json:"userId" db:"user_id"`
	VideoID         string    `json:"videoId" db:"video_id"`
	WatchedPct      int       `json:"watchedPercentage" db:"watched_percentage"`
	LastPositionSec int       `json:"lastPositionSeconds" db:"last_position_seconds"`
	IsCompleted     bool      `json:"isCompleted" db:"is_completed"`
	PlayCount       int       `json:"playCount" db:"play_count"`
	LastWatchedAt   time.Time `json:"lastWatchedAt" db:"last_watched_at"`
	CreatedAt       time.Time `json:"-" db:"created_at"`
}

type ProgressUp struct {
	WatchedPct      int `json:"watchedPercentage" validate:"gte=0,lte=100"`
	LastPositionSec int `json:"lastPositionSeconds" validate:"gte=0"`
}

// SaveResult is the wire shape of a progress save. The server owns the
// completion decision; clients never evaluate the threshold themselves.
type SaveResult struct {
	Success     bool `json:"success"`
	IsCompleted bool `json:"is_completed"`
}

// CourseProgress is the aggregate over all of a course's videos.
type CourseProgress struct {
	TotalVideos     int  `json:"total_videos" db:"total_videos"`
	CompletedVideos int  `json:"completed_videos" db:"completed_videos"`
	ProgressPct     int  `json:"progress_percentage"`
	IsCompleted     bool `json:"is_completed"`
}
