package test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dugsiiye/barasho/core/order"
	"github.com/dugsiiye/barasho/validate"
)

func TestOrders(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("setting up test env: %v", err)
	}

	seedOrder := func(t *testing.T, providerID string, credits int, createdAt time.Time) {
		t.Helper()
		const q = `
		INSERT INTO orders (order_id, user_id, provider_id, credits, amount_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $6)`
		if _, err := env.DB.Exec(q, validate.GenerateID(), env.UserID, providerID, credits, 999, createdAt); err != nil {
			t.Fatalf("seeding order: %v", err)
		}
	}

	postWebhook := func(t *testing.T, payload []byte, signature string) int {
		t.Helper()
		r, err := http.NewRequest(http.MethodPost, env.URL+"/orders/stripe/capture", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("building webhook request: %v", err)
		}
		if signature != "" {
			r.Header.Set("Stripe-Signature", signature)
		}
		w, err := env.Client().Do(r)
		if err != nil {
			t.Fatalf("posting webhook: %v", err)
		}
		w.Body.Close()
		return w.StatusCode
	}

	t.Run("PacksAreListed", func(t *testing.T) {
		var packs []order.Pack
		if code := env.doJSON(t, http.MethodGet, "/orders/packs", nil, &packs); code != http.StatusOK {
			t.Fatalf("status: got %d, exp %d", code, http.StatusOK)
		}
		if len(packs) == 0 {
			t.Fatal("expected at least one credit pack")
		}
		for _, p := range packs {
			if p.Credits <= 0 || p.AmountCents <= 0 || p.NameSO == "" {
				t.Errorf("malformed pack: %+v", p)
			}
		}
	})

	t.Run("WebhookFulfillsExactlyOnce", func(t *testing.T) {
		const providerID = "cs_test_fulfill"
		seedOrder(t, providerID, 50, time.Now().UTC())

		payload := checkoutCompletedEvent(providerID)
		sig := stripeSignature(payload, stripeWebhookSecret, time.Now())

		if code := postWebhook(t, payload, sig); code != http.StatusNoContent {
			t.Fatalf("status: got %d, exp %d", code, http.StatusNoContent)
		}
		if got := env.Credits(t, env.UserID); got != 50 {
			t.Fatalf("credits after fulfillment: got %d, exp 50", got)
		}

		// stripe retries deliveries; a replay must not credit again
		if code := postWebhook(t, payload, sig); code != http.StatusNoContent {
			t.Fatalf("replay status: got %d, exp %d", code, http.StatusNoContent)
		}
		if got := env.Credits(t, env.UserID); got != 50 {
			t.Errorf("credits after replay: got %d, exp 50", got)
		}
	})

	t.Run("UnsignedWebhookRejected", func(t *testing.T) {
		payload := checkoutCompletedEvent("cs_test_unsigned")
		if code := postWebhook(t, payload, ""); code != http.StatusBadRequest {
			t.Errorf("status: got %d, exp %d", code, http.StatusBadRequest)
		}
	})

	t.Run("ForgedSignatureRejected", func(t *testing.T) {
		payload := checkoutCompletedEvent("cs_test_forged")
		sig := stripeSignature(payload, "whsec_wrong_secret", time.Now())
		if code := postWebhook(t, payload, sig); code != http.StatusBadRequest {
			t.Errorf("status: got %d, exp %d", code, http.StatusBadRequest)
		}
	})

	t.Run("ExpiredOrderCannotFulfill", func(t *testing.T) {
		const providerID = "cs_test_stale"
		seedOrder(t, providerID, 30, time.Now().UTC().Add(-48*time.Hour))

		n, err := order.ExpireStale(context.Background(), env.DB, 24*time.Hour)
		if err != nil {
			t.Fatalf("expiring stale orders: %v", err)
		}
		if n != 1 {
			t.Fatalf("expired orders: got %d, exp 1", n)
		}

		before := env.Credits(t, env.UserID)
		payload := checkoutCompletedEvent(providerID)
		sig := stripeSignature(payload, stripeWebhookSecret, time.Now())
		if code := postWebhook(t, payload, sig); code != http.StatusNoContent {
			t.Fatalf("status: got %d, exp %d", code, http.StatusNoContent)
		}
		if got := env.Credits(t, env.UserID); got != before {
			t.Errorf("credits after late webhook: got %d, exp %d", got, before)
		}
	})
}

func checkoutCompletedEvent(sessionID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"type": "checkout.session.completed",
		"data": {"object": {"id": %q, "mode": "payment"}}
	}`, sessionID))
}

// stripeSignature reproduces stripe's v1 webhook signature scheme:
// HMAC-SHA256 over "<timestamp>.<payload>" keyed by the endpoint secret.
func stripeSignature(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
