package video

import "time"

type Kind string

const (
	KindYoutube  Kind = "youtube"
	KindUpload   Kind = "upload"
	KindExternal Kind = "external"
)

// Video belongs to exactly one playlist. The URL is never serialized
// directly; handlers attach it only after the access check passes or when
// the video is free.
type Video struct {
	ID          string    `json:"id" db:"video_id"`
	PlaylistID  string    `json:"playlistId" db:"playlist_id"`
	Index       int       `json:"index" db:"index"`
	TitleEN     string    `json:"titleEn" db:"title_en"`
	TitleSO     string    `json:"titleSo" db:"title_so"`
	Kind        Kind      `json:"kind" db:"kind"`
	URL         string    `json:"-" db:"url"`
	DurationSec int       `json:"durationSeconds" db:"duration_seconds"`
	Free        bool      `json:"free" db:"free"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// WithURL is the unlocked view of a video.
type WithURL struct {
	Video
	URL string `json:"url"`
}

type VideoNew struct {
	PlaylistID  string `json:"playlistId" validate:"required,uuid4"`
	Index       int    `json:"index" validate:"gte=0"`
	TitleEN     string `json:"titleEn" validate:"required"`
	TitleSO     string `json:"titleSo"`
	Kind        string `json:"kind" validate:"required,oneof=youtube upload external"`
	URL         string `json:"url" validate:"required,url"`
	DurationSec int    `json:"durationSeconds" validate:"gte=0"`
	Free        bool   `json:"free"`
}

type VideoUp struct {
	Index       *int    `json:"index" validate:"omitempty,gte=0"`
	TitleEN     *string `json:"titleEn"`
	TitleSO     *string `json:"titleSo"`
	Kind        *string `json:"kind" validate:"omitempty,oneof=youtube upload external"`
	URL         *string `json:"url" validate:"omitempty,url"`
	DurationSec *int    `json:"durationSeconds" validate:"omitempty,gte=0"`
	Free        *bool   `json:"free"`
}
