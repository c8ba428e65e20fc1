package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dugsiiye/barasho/api/web"
	"github.com/dugsiiye/barasho/api/weberr"
	"github.com/dugsiiye/barasho/config"
	"github.com/dugsiiye/barasho/core/claims"
	"github.com/dugsiiye/barasho/core/notification"
	"github.com/dugsiiye/barasho/core/profile"
	"github.com/dugsiiye/barasho/database"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/plutov/paypal/v4"
)

func HandleListPacks() web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, Packs, http.StatusOK)
	}
}

func prepare(ctx context.Context, db *sqlx.DB, userID, providerID string, pack Pack) error {
	now := time.Now().UTC()
	o := Order{
		ID:          validate.GenerateID(),
		UserID:      userID,
		ProviderID:  providerID,
		Credits:     pack.Credits,
		AmountCents: pack.AmountCents,
		Status:      Pending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := Create(ctx, db, o); err != nil {
		return fmt.Errorf("creating the order bound to payment[%s] for user[%s]: %w", providerID, userID, err)
	}
	return nil
}

// fulfill applies the credits exactly once. The status flip and the balance
// update share a transaction so a crash between them cannot strand credits.
func fulfill(ctx context.Context, db *sqlx.DB, providerID string) error {
	ord, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()

		won, err := MarkSuccess(ctx, tx, ord.ID, now)
		if err != nil {
			return err
		}
		if !won {
			// already fulfilled (replayed webhook) or expired
			return nil
		}

		if err := profile.AddCredits(ctx, tx, ord.UserID, ord.Credits); err != nil {
			return err
		}

		n := notification.Notification{
			ID:        validate.GenerateID(),
			UserID:    ord.UserID,
			Title:     "Credits added",
			Message:   fmt.Sprintf("%d credits were added to your balance.", ord.Credits),
			Kind:      notification.KindCredits,
			CreatedAt: now,
		}
		return notification.Create(ctx, tx, n)
	})
	if err != nil {
		return fmt.Errorf("fulfilling the order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
	}
	return nil
}

func decodePack(w http.ResponseWriter, r *http.Request) (Pack, error) {
	var cn CheckoutNew
	if err := web.Decode(w, r, &cn); err != nil {
		return Pack{}, weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}

	if err := validate.Check(cn); err != nil {
		return Pack{}, weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
	}

	pack, ok := FindPack(cn.PackID)
	if !ok {
		err := errors.New("unknown credit pack")
		return Pack{}, weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
	}
	return pack, nil
}

func HandlePaypalCheckout(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		pack, err := decodePack(w, r)
		if err != nil {
			return err
		}

		amount := strconv.FormatFloat(float64(pack.AmountCents)/100, 'f', 2, 64)
		units := []paypal.PurchaseUnitRequest{{
			Items: []paypal.Item{{
				Quantity:    "1",
				Name:        pack.NameEN + " credit pack",
				Description: fmt.Sprintf("%d platform credits", pack.Credits),

				UnitAmount: &paypal.Money{
					Currency: "USD",
					Value:    amount,
				},
			}},

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    amount,

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: "USD",
					Value:    amount,
				}},
			},
		}}

		ord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return fmt.Errorf("creating paypal order: %w", err)
		}

		if err := prepare(ctx, db, clm.UserID, ord.ID, pack); err != nil {
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		if err := fulfill(ctx, db, providerID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCheckout(db *sqlx.DB, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		pack, err := decodePack(w, r)
		if err != nil {
			return err
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL: stripe.String(cfg.SuccessURL),
			CancelURL:  stripe.String(cfg.CancelURL),
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems: []*stripe.CheckoutSessionLineItemParams{{
				Quantity: stripe.Int64(1),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("usd"),
					TaxBehavior: stripe.String("inclusive"),
					UnitAmount:  stripe.Int64(int64(pack.AmountCents)),

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(pack.NameEN + " credit pack"),
						Description: stripe.String(fmt.Sprintf("%d platform credits", pack.Credits)),
					},
				},
			}},
		}

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session: %w", err)
		}

		if err := prepare(ctx, db, clm.UserID, s.ID, pack); err != nil {
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		return web.Respond(ctx, w, s.URL, http.StatusOK)
	}
}

func HandleStripeCapture(db *sqlx.DB, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := fulfill(ctx, db, session.ID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
