package course

import "time"

// Course carries English and Somali copies of its display text; clients pick
// the column matching the profile language.
type Course struct {
	ID            string    `json:"id" db:"course_id"`
	TitleEN       string    `json:"titleEn" db:"title_en"`
	TitleSO       string    `json:"titleSo" db:"title_so"`
	DescriptionEN string    `json:"descriptionEn" db:"description_en"`
	DescriptionSO string    `json:"descriptionSo" db:"description_so"`
	Category      string    `json:"category" db:"category"`
	Level         string    `json:"level" db:"level"`
	ImageURL      string    `json:"imageUrl" db:"image_url"`
	Price         int       `json:"price" db:"price"`
	Published     bool      `json:"published" db:"published"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
	Version       int       `json:"-" db:"version"`
}

type CourseNew struct {
	TitleEN       string `json:"titleEn" validate:"required"`
	TitleSO       string `json:"titleSo"`
	DescriptionEN string `json:"descriptionEn"`
	DescriptionSO string `json:"descriptionSo"`
	Category      string `json:"category"`
	Level         string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ImageURL      string `json:"imageUrl" validate:"omitempty,url"`
	Price         int    `json:"price" validate:"gte=0,lte=10000"`
}

type CourseUp struct {
	TitleEN       *string `json:"titleEn"`
	TitleSO       *string `json:"titleSo"`
	DescriptionEN *string `json:"descriptionEn"`
	DescriptionSO *string `json:"descriptionSo"`
	Category      *string `json:"category"`
	Level         *string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ImageURL      *string `json:"imageUrl" validate:"omitempty,url"`
	Price         *int    `json:"price" validate:"omitempty,gte=0,lte=10000"`
	Published     *bool   `json:"published"`
}
