package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("enrollment not found")

func Create(ctx context.Context, db sqlx.ExtContext, e Enrollment) error {
	const q = `
	INSERT INTO enrollments
		(enrollment_id, user_id, course_id, status, progress, enrolled_at, completed_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.ExecContext(ctx, q,
		e.ID, e.UserID, e.CourseID, e.Status, e.Progress,
		e.EnrolledAt, e.CompletedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting enrollment: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Enrollment, error) {
	const q = `SELECT * FROM enrollments WHERE enrollment_id = $1`

	var e Enrollment
	if err := sqlx.GetContext(ctx, db, &e, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, ErrNotFound
		}
		return Enrollment{}, fmt.Errorf("selecting enrollment[%s]: %w", id, err)
	}
	return e, nil
}

// FetchGrant returns the non-cancelled enrollment for (user, course) if one
// exists. Both active and completed rows grant content access.
func FetchGrant(ctx context.Context, db sqlx.ExtContext, userID, courseID string) (Enrollment, error) {
	const q = `
	SELECT * FROM enrollments
	WHERE user_id = $1 AND course_id = $2 AND status <> 'cancelled'`

	var e Enrollment
	if err := sqlx.GetContext(ctx, db, &e, q, userID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Enrollment{}, ErrNotFound
		}
		return Enrollment{}, fmt.Errorf("selecting enrollment for user[%s] course[%s]: %w", userID, courseID, err)
	}
	return e, nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Enrollment, error) {
	const q = `SELECT * FROM enrollments WHERE user_id = $1 ORDER BY enrolled_at DESC`

	es := []Enrollment{}
	if err := sqlx.SelectContext(ctx, db, &es, q, userID); err != nil {
		return nil, fmt.Errorf("selecting enrollments for user[%s]: %w", userID, err)
	}
	return es, nil
}

func ListAll(ctx context.Context, db sqlx.ExtContext) ([]Enrollment, error) {
	const q = `SELECT * FROM enrollments ORDER BY enrolled_at DESC`

	es := []Enrollment{}
	if err := sqlx.SelectContext(ctx, db, &es, q); err != nil {
		return nil, fmt.Errorf("selecting enrollments: %w", err)
	}
	return es, nil
}

// UpdateStatus applies a transition. completed_at is set exactly on entry to
// completed and cleared on any other status.
func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id string, status Status, now time.Time) error {
	const q = `
	UPDATE enrollments SET
		status       = $2,
		completed_at = CASE WHEN $2 = 'completed' THEN $3 ELSE NULL END,
		updated_at   = $3
	WHERE enrollment_id = $1`

	res, err := db.ExecContext(ctx, q, id, status, now)
	if err != nil {
		return fmt.Errorf("updating enrollment[%s] status: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProgress stores the recomputed aggregate percentage and flips the row
// to completed when every video is done. The percentage is rounded for
// display and can hit 100 a video early, so completion is a separate input.
func UpdateProgress(ctx context.Context, tx sqlx.ExtContext, userID, courseID string, progress int, completed bool, now time.Time) error {
	const q = `
	UPDATE enrollments SET
		progress     = $3,
		status       = CASE WHEN $4 AND status = 'active' THEN 'completed' ELSE status END,
		completed_at = CASE WHEN $4 AND status = 'active' THEN $5 ELSE completed_at END,
		updated_at   = $5
	WHERE user_id = $1 AND course_id = $2 AND status <> 'cancelled'`

	if _, err := tx.ExecContext(ctx, q, userID, courseID, progress, completed, now); err != nil {
		return fmt.Errorf("updating aggregate progress for user[%s] course[%s]: %w", userID, courseID, err)
	}
	return nil
}
