package profile

import "time"

// Profile is the 1:1 extension of a user holding the credit balance and the
// preferred UI language (en or so).
type Profile struct {
	UserID      string    `json:"userId" db:"user_id"`
	DisplayName string    `json:"displayName" db:"display_name"`
	AvatarURL   string    `json:"avatarUrl" db:"avatar_url"`
	Phone       string    `json:"phone" db:"phone"`
	Language    string    `json:"language" db:"language"`
	Credits     int       `json:"credits" db:"credits"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

type ProfileUp struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
	Phone       *string `json:"phone"`
	Language    *string `json:"language" validate:"omitempty,oneof=en so"`
}
