package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/core/profile"
	"github.com/dugsiiye/barasho/core/user"
	"github.com/dugsiiye/barasho/database"
	"github.com/dugsiiye/barasho/random"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/oauth2"
)

const sessionOauthState = "oauthState"

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// MakeProviders runs OIDC discovery for every configured provider.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, cfg := range cfgs {
		p, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider[%s]: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			config: oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				RedirectURL:  cfg.RedirectURL,
				Endpoint:     p.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, providers map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := providers[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state, err := random.StringSecure(24)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}
		session.Put(ctx, sessionOauthState, state)

		http.Redirect(w, r, prov.config.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(db *sqlx.DB, session *scs.SessionManager, providers map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		prov, ok := providers[web.Param(r, "provider")]
		if !ok {
			return weberr.NotFound(errors.New("unknown oauth provider"))
		}

		state := session.PopString(ctx, sessionOauthState)
		if state == "" || state != r.URL.Query().Get("state") {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		tok, err := prov.config.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawID, ok := tok.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("token response is missing the id_token"))
		}

		idTok, err := prov.verifier.Verify(ctx, rawID)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id token: %w", err))
		}

		var info struct {
			Email    string `json:"email"`
			Verified bool   `json:"email_verified"`
			Name     string `json:"name"`
		}
		if err := idTok.Claims(&info); err != nil {
			return fmt.Errorf("decoding id token claims: %w", err)
		}

		if !info.Verified {
			return weberr.Forbidden(errors.New("oauth email is not verified"))
		}

		usr, err := user.FetchByEmail(ctx, db, info.Email)
		if errors.Is(err, user.ErrNotFound) {
			usr, err = createOauthUser(ctx, db, info.Email, info.Name)
		}
		if err != nil {
			return fmt.Errorf("resolving oauth user: %w", err)
		}

		if err := login(ctx, session, usr.ID, usr.RoleSet()); err != nil {
			return fmt.Errorf("writing login session: %w", err)
		}

		http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
		return nil
	}
}

func createOauthUser(ctx context.Context, db *sqlx.DB, email, name string) (user.User, error) {
	now := time.Now().UTC()
	usr := user.User{
		ID:        validate.GenerateID(),
		Email:     email,
		Name:      name,
		Roles:     []string{string(claims.RoleStudent)},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := user.Create(ctx, tx, usr); err != nil {
			return err
		}
		return profile.Create(ctx, tx, profile.Profile{
			UserID:      usr.ID,
			DisplayName: name,
			Language:    "en",
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	})
	if err != nil {
		return user.User{}, err
	}
	return usr, nil
}
