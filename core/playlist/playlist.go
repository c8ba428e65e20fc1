package playlist

import "time"

type Playlist struct {
	ID        string    `json:"id" db:"playlist_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	Index     int       `json:"index" db:"index"`
	TitleEN   string    `json:"titleEn" db:"title_en"`
	TitleSO   string    `json:"titleSo" db:"title_so"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type PlaylistNew struct {
	CourseID string `json:"courseId" validate:"required,uuid4"`
	Index    int    `json:"index" validate:"gte=0"`
	TitleEN  string `json:"titleEn" validate:"required"`
	TitleSO  string `json:"titleSo"`
}

type PlaylistUp struct {
	Index   *int    `json:"index" validate:"omitempty,gte=0"`
	TitleEN *string `json:"titleEn"`
	TitleSO *string `json:"titleSo"`
}
