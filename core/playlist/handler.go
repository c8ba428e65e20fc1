package playlist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/course"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
)

func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.BadRequest(err)
		}

		pls, err := ListByCourse(ctx, db, courseID)
		if err != nil {
			return fmt.Errorf("listing playlists: %w", err)
		}

		return web.Respond(ctx, w, pls, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn PlaylistNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := course.Fetch(ctx, db, pn.CourseID); err != nil {
			if errors.Is(err, course.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching parent course: %w", err)
		}

		now := time.Now().UTC()
		p := Playlist{
			ID:        validate.GenerateID(),
			CourseID:  pn.CourseID,
			Index:     pn.Index,
			TitleEN:   pn.TitleEN,
			TitleSO:   pn.TitleSO,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := Create(ctx, db, p); err != nil {
			return fmt.Errorf("creating playlist: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up PlaylistUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := Update(ctx, db, id, up); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("updating playlist: %w", err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching updated playlist: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}
