package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("order not found")

func Create(ctx context.Context, db sqlx.ExtContext, o Order) error {
	const q = `
	INSERT INTO orders
		(order_id, user_id, provider_id, credits, amount_cents, status, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.ExecContext(ctx, q,
		o.ID, o.UserID, o.ProviderID, o.Credits, o.AmountCents, o.Status,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func FetchByProviderID(ctx context.Context, db sqlx.ExtContext, providerID string) (Order, error) {
	const q = `SELECT * FROM orders WHERE provider_id = $1`

	var o Order
	if err := sqlx.GetContext(ctx, db, &o, q, providerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("selecting order bound to payment[%s]: %w", providerID, err)
	}
	return o, nil
}

// MarkSuccess flips a pending order to success and reports whether this call
// won the flip. Fulfillment is keyed on that so a replayed webhook cannot
// credit twice.
func MarkSuccess(ctx context.Context, tx sqlx.ExtContext, id string, now time.Time) (bool, error) {
	const q = `
	UPDATE orders SET status = 'success', updated_at = $2
	WHERE order_id = $1 AND status = 'pending'`

	res, err := tx.ExecContext(ctx, q, id, now)
	if err != nil {
		return false, fmt.Errorf("marking order[%s] success: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n == 1, nil
}

// ExpireStale marks pending orders older than the cutoff as expired.
func ExpireStale(ctx context.Context, db sqlx.ExtContext, olderThan time.Duration) (int64, error) {
	const q = `
	UPDATE orders SET status = 'expired', updated_at = now()
	WHERE status = 'pending' AND created_at < $1`

	res, err := db.ExecContext(ctx, q, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("expiring stale orders: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
