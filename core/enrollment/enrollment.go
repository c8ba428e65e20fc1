package enrollment

import "time"

type Status string

const (
	Active    Status = "active"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
)

// Enrollment is the (user, course) access grant and aggregate progress
// record. At most one non-cancelled row exists per pair; the partial unique
// index enrollments_active_idx enforces it.
type Enrollment struct {
	ID          string     `json:"id" db:"enrollment_id"`
	UserID      string     `json:"userId" db:"user_id"`
	CourseID    string     `json:"courseId" db:"course_id"`
	Status      Status     `json:"status" db:"status"`
	Progress    int        `json:"progress" db:"progress"`
	EnrolledAt  time.Time  `json:"enrolledAt" db:"enrolled_at"`
	CompletedAt *time.Time `json:"completedAt" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// EnrollResult is the structured outcome of the enroll operation. Error holds
// one of the business-rule rejections; infrastructure failures surface as
// handler errors instead.
type EnrollResult struct {
	Success          bool   `json:"success"`
	CreditsRemaining int    `json:"credits_remaining"`
	Error            string `json:"error,omitempty"`
}

// AccessReason is the closed set of access-check outcomes.
type AccessReason string

const (
	ReasonEnrolled           AccessReason = "enrolled"
	ReasonAdminAccess        AccessReason = "admin_access"
	ReasonNotEnrolled        AccessReason = "not_enrolled"
	ReasonCourseNotFound     AccessReason = "course_not_found"
	ReasonCourseNotPublished AccessReason = "course_not_published"
)

type AccessResult struct {
	Allowed         bool         `json:"allowed"`
	Reason          AccessReason `json:"reason"`
	RequiredCredits int          `json:"required_credits,omitempty"`
	CourseTitle     string       `json:"course_title,omitempty"`
}

type StatusUp struct {
	Status Status `json:"status" validate:"required,oneof=active completed cancelled"`
}
