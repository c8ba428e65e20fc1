package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/claims"
)

const (
	sessionUserID = "userID"
	sessionRoles  = "roles"
)

// LoadAndSave adapts the scs middleware to the web.Handler signature.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

func login(ctx context.Context, session *scs.SessionManager, userID string, roles []claims.Role) error {
	if err := session.RenewToken(ctx); err != nil {
		return err
	}

	rs := make([]string, 0, len(roles))
	for _, r := range roles {
		rs = append(rs, string(r))
	}

	session.Put(ctx, sessionUserID, userID)
	session.Put(ctx, sessionRoles, strings.Join(rs, ","))
	return nil
}

func sessionClaims(ctx context.Context, session *scs.SessionManager) (claims.Claims, bool) {
	userID := session.GetString(ctx, sessionUserID)
	if userID == "" {
		return claims.Claims{}, false
	}

	var roles []claims.Role
	if raw := session.GetString(ctx, sessionRoles); raw != "" {
		for _, r := range strings.Split(raw, ",") {
			roles = append(roles, claims.Role(r))
		}
	}

	return claims.Claims{UserID: userID, Roles: roles}, true
}

// Attach stores session claims in the context when present but lets
// anonymous requests through. Used on public routes whose responses vary by
// role, like the course catalog.
func Attach(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			if clm, ok := sessionClaims(ctx, session); ok {
				ctx = claims.Set(ctx, clm)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Authenticate rejects anonymous requests and stores the session claims in
// the context for downstream handlers.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			clm, ok := sessionClaims(ctx, session)
			if !ok {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Admin is Authenticate plus an effective-role gate: admin or super_admin.
func Admin(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			clm, ok := sessionClaims(ctx, session)
			if !ok {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			if !clm.HasAdmin() {
				return weberr.Forbidden(errors.New("admin role required"))
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}
