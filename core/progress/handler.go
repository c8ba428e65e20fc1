package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
)

// HandleSave persists one progress sample. The response tells the caller
// whether the video is now complete; the threshold lives here, server-side.
func HandleSave(db *sqlx.DB, completionThreshold int) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		videoID := web.Param(r, "id")
		if err := validate.CheckID(videoID); err != nil {
			return weberr.BadRequest(err)
		}

		var up ProgressUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		res, err := Save(ctx, db, clm.UserID, videoID, up, completionThreshold)
		if err != nil {
			if errors.Is(err, ErrVideoNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("saving progress: %w", err)
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		videoID := web.Param(r, "id")
		if err := validate.CheckID(videoID); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := Load(ctx, db, clm.UserID, videoID)
		if err != nil {
			return fmt.Errorf("loading progress: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandlePlay(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		videoID := web.Param(r, "id")
		if err := validate.CheckID(videoID); err != nil {
			return weberr.BadRequest(err)
		}

		if err := RecordPlay(ctx, db, clm.UserID, videoID); err != nil {
			if errors.Is(err, ErrVideoNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("recording play: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleCourseProgress serves the aggregate used by dashboards and by the
// enrollment completion transition.
func HandleCourseProgress(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		agg, err := ForCourse(ctx, db, clm.UserID, courseID)
		if err != nil {
			return fmt.Errorf("aggregating course progress: %w", err)
		}

		return web.Respond(ctx, w, agg, http.StatusOK)
	}
}
