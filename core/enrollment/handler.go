package enrollment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dugsiiye/barasho/api/background"
	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/core/course"
	"github.com/dugsiiye/barasho/core/notification"
	"github.com/dugsiiye/barasho/core/profile"
	"github.com/dugsiiye/barasho/core/user"
	"github.com/dugsiiye/barasho/email"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
)

// HandleEnroll runs the credit-gated enrollment. Business rejections come
// back as structured results so the client can present the specific case.
func HandleEnroll(db *sqlx.DB, mail *email.Mailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		res, err := EnrollWithCredits(ctx, db, clm.UserID, courseID)
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				return weberr.NotFound(err)
			}
			if errors.Is(err, profile.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("enrolling user[%s] in course[%s]: %w", clm.UserID, courseID, err)
		}

		if res.Success {
			sendConfirmation(ctx, db, mail, bg, clm.UserID, courseID)
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func sendConfirmation(ctx context.Context, db *sqlx.DB, mail *email.Mailer, bg *background.Background, userID, courseID string) {
	usr, err := user.Fetch(ctx, db, userID)
	if err != nil {
		return
	}
	c, err := course.Fetch(ctx, db, courseID)
	if err != nil {
		return
	}

	bg.Add(func() error {
		return mail.SendEnrollment(usr.Email, usr.Name, c.TitleEN)
	})
}

// HandleCheckAccess is a pure query; it never mutates anything.
func HandleCheckAccess(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		res, err := Check(ctx, db, clm, courseID)
		if err != nil {
			return fmt.Errorf("checking access for user[%s] course[%s]: %w", clm.UserID, courseID, err)
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleListOwn(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		es, err := ListByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing enrollments: %w", err)
		}

		return web.Respond(ctx, w, es, http.StatusOK)
	}
}

func HandleListAll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		es, err := ListAll(ctx, db)
		if err != nil {
			return fmt.Errorf("listing all enrollments: %w", err)
		}

		return web.Respond(ctx, w, es, http.StatusOK)
	}
}

// HandleUpdateStatus is the admin override escape hatch. It can force any
// status; completed_at follows the target status.
func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		e, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching enrollment: %w", err)
		}

		now := time.Now().UTC()
		if err := UpdateStatus(ctx, db, id, up.Status, now); err != nil {
			return fmt.Errorf("updating enrollment status: %w", err)
		}

		if up.Status == Cancelled && e.Status != Cancelled {
			n := notification.Notification{
				ID:        validate.GenerateID(),
				UserID:    e.UserID,
				Title:     "Enrollment cancelled",
				Message:   "Your enrollment was cancelled by an administrator.",
				Kind:      notification.KindInfo,
				CreatedAt: now,
			}
			if err := notification.Create(ctx, db, n); err != nil {
				return fmt.Errorf("creating cancellation notification: %w", err)
			}
		}

		e, err = Fetch(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching updated enrollment: %w", err)
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}
