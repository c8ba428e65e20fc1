package notification

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

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		ns, err := ListByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing notifications: %w", err)
		}

		return web.Respond(ctx, w, ns, http.StatusOK)
	}
}

func HandleMarkRead(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		if err := MarkRead(ctx, db, clm.UserID, id); err != nil {
			return fmt.Errorf("marking notification read: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
