package user

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

func HandleShowCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		usr, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching current user: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		users, err := List(ctx, db)
		if err != nil {
			return fmt.Errorf("listing users: %w", err)
		}

		return web.Respond(ctx, w, users, http.StatusOK)
	}
}

// HandleUpdateRoles lets admins grant or revoke roles. Granting super_admin
// is reserved to super_admins.
func HandleUpdateRoles(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var up RolesUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		for _, role := range up.Roles {
			if claims.Role(role) == claims.RoleSuperAdmin && !clm.HasRole(claims.RoleSuperAdmin) {
				return weberr.Forbidden(errors.New("only super admins may grant super_admin"))
			}
		}

		if err := UpdateRoles(ctx, db, id, up.Roles); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("updating roles: %w", err)
		}

		usr, err := Fetch(ctx, db, id)
		if err != nil {
			return fmt.Errorf("fetching updated user: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}
