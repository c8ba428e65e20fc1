package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/core/course"
	"github.com/dugsiiye/barasho/core/notification"
	"github.com/dugsiiye/barasho/core/profile"
	"github.com/dugsiiye/barasho/database"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Business-rule rejection messages. Clients match on these strings, so they
// are part of the API contract.
const (
	msgInsufficientCredits = "Insufficient credits"
	msgAlreadyEnrolled     = "Already enrolled in this course"
)

// EnrollWithCredits debits the course price from the user's balance and
// creates the active enrollment in a single transaction. Either both happen
// or neither does. The profile row lock serializes attempts by the same user;
// the partial unique index on enrollments catches anything that slips past
// the pre-insert check.
func EnrollWithCredits(ctx context.Context, db *sqlx.DB, userID, courseID string) (EnrollResult, error) {
	var res EnrollResult

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		c, err := course.Fetch(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("fetching course: %w", err)
		}
		if !c.Published {
			return fmt.Errorf("course[%s]: %w", courseID, course.ErrNotFound)
		}

		p, err := profile.FetchForUpdate(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("locking profile: %w", err)
		}

		if _, err := FetchGrant(ctx, tx, userID, courseID); err == nil {
			res = EnrollResult{Success: false, Error: msgAlreadyEnrolled}
			return nil
		} else if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("checking existing enrollment: %w", err)
		}

		if p.Credits < c.Price {
			res = EnrollResult{Success: false, Error: msgInsufficientCredits}
			return nil
		}

		if err := profile.DebitCredits(ctx, tx, userID, c.Price); err != nil {
			return fmt.Errorf("debiting credits: %w", err)
		}

		now := time.Now().UTC()
		e := Enrollment{
			ID:         validate.GenerateID(),
			UserID:     userID,
			CourseID:   courseID,
			Status:     Active,
			EnrolledAt: now,
			UpdatedAt:  now,
		}
		if err := Create(ctx, tx, e); err != nil {
			return err
		}

		n := notification.Notification{
			ID:        validate.GenerateID(),
			UserID:    userID,
			Title:     "Enrollment confirmed",
			Message:   fmt.Sprintf("You are enrolled in %q. %d credits were deducted.", c.TitleEN, c.Price),
			Kind:      notification.KindEnrollment,
			CreatedAt: now,
		}
		if err := notification.Create(ctx, tx, n); err != nil {
			return fmt.Errorf("creating notification: %w", err)
		}

		res = EnrollResult{Success: true, CreditsRemaining: p.Credits - c.Price}
		return nil
	})

	if err != nil {
		// A concurrent winner makes the loser's insert violate the
		// partial unique index; that race resolves to the same outcome
		// as the pre-insert check.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return EnrollResult{Success: false, Error: msgAlreadyEnrolled}, nil
		}
		return EnrollResult{}, err
	}
	return res, nil
}

// Check evaluates whether the claims holder may view the course's content.
// Missing and unpublished courses fail closed before anything else is
// considered; the admin bypass and the enrollment lookup come after.
func Check(ctx context.Context, db sqlx.ExtContext, clm claims.Claims, courseID string) (AccessResult, error) {
	c, err := course.Fetch(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return AccessResult{Allowed: false, Reason: ReasonCourseNotFound}, nil
		}
		return AccessResult{}, fmt.Errorf("fetching course: %w", err)
	}

	if !c.Published {
		return AccessResult{Allowed: false, Reason: ReasonCourseNotPublished, CourseTitle: c.TitleEN}, nil
	}

	if clm.HasAdmin() {
		return AccessResult{Allowed: true, Reason: ReasonAdminAccess, CourseTitle: c.TitleEN}, nil
	}

	if _, err := FetchGrant(ctx, db, clm.UserID, courseID); err == nil {
		return AccessResult{Allowed: true, Reason: ReasonEnrolled, CourseTitle: c.TitleEN}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return AccessResult{}, fmt.Errorf("checking enrollment: %w", err)
	}

	return AccessResult{
		Allowed:         false,
		Reason:          ReasonNotEnrolled,
		RequiredCredits: c.Price,
		CourseTitle:     c.TitleEN,
	}, nil
}
