package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dugsiiye/barasho/api"
	"github.com/dugsiiye/barasho/api/background"
	"github.com/dugsiiye/barasho/config"
	"github.com/dugsiiye/barasho/database"
	"github.com/dugsiiye/barasho/email"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

// stripeWebhookSecret signs the synthetic webhook events the order tests post.
const stripeWebhookSecret = "whsec_test_barasho"

// TestEnv spins a throwaway postgres container, migrates it, seeds an admin
// and a student, and serves the full API mux over httptest.
type TestEnv struct {
	T      *testing.T
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string

	AdminID    string
	AdminEmail string
	AdminPass  string
	UserID     string
	UserEmail  string
	UserPass   string

	client *http.Client
}

func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("starting postgres container: %w", err)
	}
	t.Cleanup(func() { pool.Purge(res) })

	cfg := config.DB{
		User:       "postgres",
		Password:   "postgres",
		Host:       "localhost:" + res.GetPort("5432/tcp"),
		Name:       name,
		MaxOpen:    10,
		DisableTLS: true,
	}

	var db *sqlx.DB
	if err := pool.Retry(func() error {
		db, err = database.Open(cfg)
		return err
	}); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	session := scs.New()
	session.Lifetime = time.Hour

	mux := api.APIMux(api.APIConfig{
		Log:        logger,
		DB:         db,
		Session:    session,
		Mailer:     email.New(config.Email{}),
		Background: background.New(logger),
		Stripe:     &stripecl.API{},
		StripeCfg:  config.Stripe{WebhookSecret: stripeWebhookSecret},
		Progress:   config.Progress{CompletionThreshold: 90},
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("building cookie jar: %w", err)
	}

	env := &TestEnv{
		T:          t,
		DB:         db,
		Server:     srv,
		URL:        srv.URL,
		AdminEmail: "admin@test.local",
		AdminPass:  "gophers-admin-1",
		UserEmail:  "student@test.local",
		UserPass:   "gophers-user-1",
		client:     &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}

	env.AdminID, err = env.seedUser(env.AdminEmail, env.AdminPass, "Admin", []string{"admin"})
	if err != nil {
		return nil, err
	}
	env.UserID, err = env.seedUser(env.UserEmail, env.UserPass, "Student", []string{"student"})
	if err != nil {
		return nil, err
	}

	return env, nil
}

func (env *TestEnv) Client() *http.Client { return env.client }

func (env *TestEnv) seedUser(email, pass, name string, roles []string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	id := validate.GenerateID()
	const insUser = `
	INSERT INTO users (user_id, email, name, password_hash, roles, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, TRUE, now(), now())`
	if _, err := env.DB.Exec(insUser, id, email, name, string(hash), pq.StringArray(roles)); err != nil {
		return "", fmt.Errorf("seeding user %s: %w", email, err)
	}

	const insProfile = `
	INSERT INTO profiles (user_id, display_name, language, credits, created_at, updated_at)
	VALUES ($1, $2, 'en', 0, now(), now())`
	if _, err := env.DB.Exec(insProfile, id, name); err != nil {
		return "", fmt.Errorf("seeding profile for %s: %w", email, err)
	}

	return id, nil
}

// SetCredits fixes a user's balance directly, bypassing the top-up flow.
func (env *TestEnv) SetCredits(t *testing.T, userID string, credits int) {
	t.Helper()
	if _, err := env.DB.Exec(`UPDATE profiles SET credits = $2 WHERE user_id = $1`, userID, credits); err != nil {
		t.Fatalf("setting credits: %v", err)
	}
}

func (env *TestEnv) Credits(t *testing.T, userID string) int {
	t.Helper()
	var credits int
	if err := env.DB.Get(&credits, `SELECT credits FROM profiles WHERE user_id = $1`, userID); err != nil {
		t.Fatalf("reading credits: %v", err)
	}
	return credits
}

func Login(env *TestEnv, email, pass string) error {
	body, _ := json.Marshal(map[string]string{"email": email, "password": pass})

	r, err := http.NewRequest(http.MethodPost, env.URL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := env.Client().Do(r)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status %s", email, w.Status)
	}
	return nil
}

func Logout(env *TestEnv) error {
	r, err := http.NewRequest(http.MethodPost, env.URL+"/auth/logout", nil)
	if err != nil {
		return err
	}

	w, err := env.Client().Do(r)
	if err != nil {
		return err
	}
	w.Body.Close()
	return nil
}

// doJSON sends a request with the env's cookie-carrying client and decodes
// the response into out when it is non-nil.
func (env *TestEnv) doJSON(t *testing.T, method, path string, body, out interface{}) int {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	r, err := http.NewRequest(method, env.URL+path, rd)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := env.Client().Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if out != nil && w.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s response: %v", method, path, err)
		}
	}
	return w.StatusCode
}
