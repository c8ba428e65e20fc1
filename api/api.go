package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/dugsiiye/barasho/api/background"
	"github.com/dugsiiye/barasho/api/middleware"
	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/config"
	"github.com/dugsiiye/barasho/core/auth"
	"github.com/dugsiiye/barasho/core/course"
	"github.com/dugsiiye/barasho/core/enrollment"
	"github.com/dugsiiye/barasho/core/notification"
	"github.com/dugsiiye/barasho/core/order"
	"github.com/dugsiiye/barasho/core/playlist"
	"github.com/dugsiiye/barasho/core/profile"
	"github.com/dugsiiye/barasho/core/progress"
	"github.com/dugsiiye/barasho/core/user"
	"github.com/dugsiiye/barasho/core/video"
	"github.com/dugsiiye/barasho/email"
	"github.com/dugsiiye/barasho/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	DB               *sqlx.DB
	Session          *scs.SessionManager
	Mailer           *email.Mailer
	Background       *background.Background
	Paypal           *paypal.Client
	Stripe           *stripecl.API
	StripeCfg        config.Stripe
	Providers        map[string]auth.Provider
	LoginRedirectURL string
	LoginLimiter     *rate.Limiter
	Progress         config.Progress
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	attach := auth.Attach(cfg.Session)
	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)

	var limited web.Middleware
	if cfg.LoginLimiter != nil {
		limited = middleware.RateLimit(cfg.LoginLimiter)
	}

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session), limited)
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.DB, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)
	a.Handle(http.MethodGet, "/users", user.HandleList(cfg.DB), admin)
	a.Handle(http.MethodPut, "/users/{id}/roles", user.HandleUpdateRoles(cfg.DB), admin)

	a.Handle(http.MethodGet, "/profile", profile.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPut, "/profile", profile.HandleUpdate(cfg.DB), authen)

	a.Handle(http.MethodGet, "/courses/{id}/access", enrollment.HandleCheckAccess(cfg.DB), authen)
	a.Handle(http.MethodPost, "/courses/{id}/enroll", enrollment.HandleEnroll(cfg.DB, cfg.Mailer, cfg.Background), authen)
	a.Handle(http.MethodGet, "/courses/{id}/progress", progress.HandleCourseProgress(cfg.DB), authen)
	a.Handle(http.MethodGet, "/courses/{course_id}/playlists", playlist.HandleListByCourse(cfg.DB))
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.DB), attach)
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.DB), attach)
	a.Handle(http.MethodPost, "/courses", course.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/courses/{id}", course.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/playlists/{playlist_id}/videos", video.HandleListByPlaylist(cfg.DB))
	a.Handle(http.MethodPost, "/playlists", playlist.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/playlists/{id}", playlist.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/videos/{id}/progress", progress.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPut, "/videos/{id}/progress", progress.HandleSave(cfg.DB, cfg.Progress.CompletionThreshold), authen)
	a.Handle(http.MethodPost, "/videos/{id}/play", progress.HandlePlay(cfg.DB), authen)
	a.Handle(http.MethodGet, "/videos/{id}", video.HandleShow(cfg.DB), attach)
	a.Handle(http.MethodPost, "/videos", video.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/videos/{id}", video.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/enrollments", enrollment.HandleListOwn(cfg.DB), authen)
	a.Handle(http.MethodGet, "/enrollments/all", enrollment.HandleListAll(cfg.DB), admin)
	a.Handle(http.MethodPut, "/enrollments/{id}/status", enrollment.HandleUpdateStatus(cfg.DB), admin)

	a.Handle(http.MethodGet, "/orders/packs", order.HandleListPacks())
	a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.Paypal), authen)
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg), authen)
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.DB, cfg.StripeCfg))

	a.Handle(http.MethodGet, "/notifications", notification.HandleList(cfg.DB), authen)
	a.Handle(http.MethodPut, "/notifications/{id}/read", notification.HandleMarkRead(cfg.DB), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
