package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/core/profile"
	"github.com/dugsiiye/barasho/core/user"
	"github.com/dugsiiye/barasho/database"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su user.UserSignup
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Email:        su.Email,
			Name:         su.Name,
			PasswordHash: string(hash),
			Roles:        []string{string(claims.RoleStudent)},
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := user.Create(ctx, tx, usr); err != nil {
				return err
			}
			return profile.Create(ctx, tx, profile.Profile{
				UserID:      usr.ID,
				DisplayName: usr.Name,
				Language:    "en",
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		})
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				return weberr.NewError(err, "a user with this email already exists", http.StatusConflict)
			}
			return fmt.Errorf("creating user: %w", err)
		}

		if err := login(ctx, session, usr.ID, usr.RoleSet()); err != nil {
			return fmt.Errorf("logging in after signup: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var lg user.UserLogin
		if err := web.Decode(w, r, &lg); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(lg); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByEmail(ctx, db, lg.Email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return invalidCredentials(err)
			}
			return fmt.Errorf("fetching user for login: %w", err)
		}

		if !usr.Active {
			return weberr.Forbidden(errors.New("account is deactivated"))
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(lg.Password)); err != nil {
			return invalidCredentials(err)
		}

		if err := login(ctx, session, usr.ID, usr.RoleSet()); err != nil {
			return fmt.Errorf("writing login session: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func invalidCredentials(err error) error {
	return weberr.NewError(err, "invalid email or password", http.StatusUnauthorized)
}
