package course

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
)

// HandleList returns published courses. Admins get the whole catalog,
// drafts included.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courses, err := List(ctx, db, !claims.IsAdmin(ctx))
		if err != nil {
			return fmt.Errorf("listing courses: %w", err)
		}

		return web.Respond(ctx, w, courses, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching course: %w", err)
		}

		if !c.Published && !claims.IsAdmin(ctx) {
			return weberr.NotFound(errors.New("course is not published"))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cn CourseNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		level := cn.Level
		if level == "" {
			level = "beginner"
		}

		now := time.Now().UTC()
		c := Course{
			ID:            validate.GenerateID(),
			TitleEN:       cn.TitleEN,
			TitleSO:       cn.TitleSO,
			DescriptionEN: cn.DescriptionEN,
			DescriptionSO: cn.DescriptionSO,
			Category:      cn.Category,
			Level:         level,
			ImageURL:      cn.ImageURL,
			Price:         cn.Price,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := Create(ctx, db, c); err != nil {
			return fmt.Errorf("creating course: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up CourseUp
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
			return fmt.Errorf("updating course: %w", err)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching updated course: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}
