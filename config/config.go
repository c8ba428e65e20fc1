package config

import "time"

type Config struct {
	Web      Web
	DB       DB
	Cors     Cors
	Auth     Auth
	Oauth    Oauth
	Email    Email
	Stripe   Stripe
	Paypal   Paypal
	Progress Progress
	Orders   Orders
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User          string        `conf:"default:postgres"`
	Password      string        `conf:"default:postgres,mask"`
	Host          string        `conf:"default:localhost:5432"`
	Name          string        `conf:"default:barasho"`
	MaxOpen       int           `conf:"default:25"`
	DisableTLS    bool          `conf:"default:true"`
	StatusTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string
}

type Auth struct {
	SessionLifetime time.Duration `conf:"default:24h"`
	LoginBurst      int           `conf:"default:5"`
	LoginRPS        float64       `conf:"default:0.5"`
}

type Oauth struct {
	LoginRedirectURL string        `conf:"default:http://localhost:3000"`
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Email struct {
	SendgridKey string `conf:"mask"`
	FromName    string `conf:"default:Barasho"`
	FromAddress string `conf:"default:no-reply@barasho.app"`
	Enabled     bool   `conf:"default:false"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/credits/success"`
	CancelURL     string `conf:"default:http://localhost:3000/credits/canceled"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

// Progress tunes the server-side completion rule and the client tracker
// defaults. CompletionThreshold is the watched percentage at which a video
// counts as finished.
type Progress struct {
	CompletionThreshold int           `conf:"default:90"`
	SaveInterval        time.Duration `conf:"default:10s"`
	MinSaveDelta        int           `conf:"default:5"`
}

type Orders struct {
	// Pending orders older than Expiry are marked expired by the
	// background sweep.
	Expiry time.Duration `conf:"default:24h"`
}
