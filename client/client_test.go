package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// stubAPI serves the few endpoints the client touches and counts enroll
// invocations, so tests can assert the pre-check short-circuit.
type stubAPI struct {
	credits     int
	price       int
	enrollCalls int64
}

func (s *stubAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"credits": s.credits})
	})

	mux.HandleFunc("/courses/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			atomic.AddInt64(&s.enrollCalls, 1)
			json.NewEncoder(w).Encode(map[string]any{
				"success":           true,
				"credits_remaining": s.credits - s.price,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"price": s.price})
	})

	return mux
}

func TestEnrollPreCheckShortCircuits(t *testing.T) {
	api := &stubAPI{credits: 30, price: 60}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	res, err := c.Enroll(context.Background(), "c7a9f3ee-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("enrolling: %v", err)
	}

	if res.Success {
		t.Fatal("enroll should have been rejected by the pre-check")
	}
	if res.Error != "Insufficient credits" {
		t.Fatalf("error = %q, want %q", res.Error, "Insufficient credits")
	}
	if n := atomic.LoadInt64(&api.enrollCalls); n != 0 {
		t.Fatalf("the authoritative enroll call was made %d times, want 0", n)
	}
}

func TestEnrollCallsServerWhenBalanceSuffices(t *testing.T) {
	api := &stubAPI{credits: 100, price: 60}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	res, err := c.Enroll(context.Background(), "c7a9f3ee-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("enrolling: %v", err)
	}

	if !res.Success {
		t.Fatalf("enroll failed: %q", res.Error)
	}
	if res.CreditsRemaining != 40 {
		t.Fatalf("credits_remaining = %d, want 40", res.CreditsRemaining)
	}
	if n := atomic.LoadInt64(&api.enrollCalls); n != 1 {
		t.Fatalf("the authoritative enroll call was made %d times, want 1", n)
	}
}

func TestErrorBodyIsSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "not authorized to access resource"})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("building client: %v", err)
	}

	if _, err := c.Profile(context.Background()); err == nil {
		t.Fatal("expected an error from a 401 response")
	} else if !strings.Contains(err.Error(), "not authorized") {
		t.Fatalf("error %q does not carry the server message", err)
	}
}
