package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/core/enrollment"
	"github.com/dugsiiye/barasho/core/playlist"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
)

func HandleListByPlaylist(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		playlistID := web.Param(r, "playlist_id")
		if err := validate.CheckID(playlistID); err != nil {
			return weberr.BadRequest(err)
		}

		vs, err := ListByPlaylist(ctx, db, playlistID)
		if err != nil {
			return fmt.Errorf("listing videos: %w", err)
		}

		return web.Respond(ctx, w, vs, http.StatusOK)
	}
}

// HandleShow returns the video with its URL when the caller may play it:
// free videos for everyone, everything else behind the access evaluator.
// Locked videos come back without the URL rather than as an error so the
// player can render them greyed out.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching video: %w", err)
		}

		if v.Free {
			return web.Respond(ctx, w, WithURL{Video: v, URL: v.URL}, http.StatusOK)
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			return web.Respond(ctx, w, v, http.StatusOK)
		}

		courseID, err := CourseID(ctx, db, id)
		if err != nil {
			return fmt.Errorf("resolving video course: %w", err)
		}

		access, err := enrollment.Check(ctx, db, clm, courseID)
		if err != nil {
			return fmt.Errorf("checking access: %w", err)
		}

		if !access.Allowed {
			return web.Respond(ctx, w, v, http.StatusOK)
		}

		return web.Respond(ctx, w, WithURL{Video: v, URL: v.URL}, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var vn VideoNew
		if err := web.Decode(w, r, &vn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(vn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := playlist.Fetch(ctx, db, vn.PlaylistID); err != nil {
			if errors.Is(err, playlist.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching parent playlist: %w", err)
		}

		now := time.Now().UTC()
		v := Video{
			ID:          validate.GenerateID(),
			PlaylistID:  vn.PlaylistID,
			Index:       vn.Index,
			TitleEN:     vn.TitleEN,
			TitleSO:     vn.TitleSO,
			Kind:        Kind(vn.Kind),
			URL:         vn.URL,
			DurationSec: vn.DurationSec,
			Free:        vn.Free,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := Create(ctx, db, v); err != nil {
			return fmt.Errorf("creating video: %w", err)
		}

		return web.Respond(ctx, w, WithURL{Video: v, URL: v.URL}, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up VideoUp
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
			return fmt.Errorf("updating video: %w", err)
		}

		v, err := Fetch(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching updated video: %w", err)
		}

		return web.Respond(ctx, w, WithURL{Video: v, URL: v.URL}, http.StatusOK)
	}
}
