package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("profile not found")

func Create(ctx context.Context, db sqlx.ExtContext, p Profile) error {
	const q = `
	INSERT INTO profiles
		(user_id, display_name, avatar_url, phone, language, credits, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.ExecContext(ctx, q,
		p.UserID, p.DisplayName, p.AvatarURL, p.Phone, p.Language, p.Credits,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string) (Profile, error) {
	const q = `SELECT * FROM profiles WHERE user_id = $1`

	var p Profile
	if err := sqlx.GetContext(ctx, db, &p, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("selecting profile[%s]: %w", userID, err)
	}
	return p, nil
}

// FetchForUpdate locks the profile row for the duration of the surrounding
// transaction. Credit mutations go through this to serialize debits.
func FetchForUpdate(ctx context.Context, tx sqlx.ExtContext, userID string) (Profile, error) {
	const q = `SELECT * FROM profiles WHERE user_id = $1 FOR UPDATE`

	var p Profile
	if err := sqlx.GetContext(ctx, tx, &p, q, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("locking profile[%s]: %w", userID, err)
	}
	return p, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, userID string, up ProfileUp) error {
	const q = `
	UPDATE profiles SET
		display_name = COALESCE($2, display_name),
		avatar_url   = COALESCE($3, avatar_url),
		phone        = COALESCE($4, phone),
		language     = COALESCE($5, language),
		updated_at   = now()
	WHERE user_id = $1`

	res, err := db.ExecContext(ctx, q, userID, up.DisplayName, up.AvatarURL, up.Phone, up.Language)
	if err != nil {
		return fmt.Errorf("updating profile[%s]: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCredits tops up the balance; amount must be positive.
func AddCredits(ctx context.Context, tx sqlx.ExtContext, userID string, amount int) error {
	const q = `UPDATE profiles SET credits = credits + $2, updated_at = now() WHERE user_id = $1`

	res, err := tx.ExecContext(ctx, q, userID, amount)
	if err != nil {
		return fmt.Errorf("adding %d credits to profile[%s]: %w", amount, userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DebitCredits subtracts amount inside the caller's transaction. The CHECK
// constraint on credits is the last line of defense against going negative.
func DebitCredits(ctx context.Context, tx sqlx.ExtContext, userID string, amount int) error {
	const q = `UPDATE profiles SET credits = credits - $2, updated_at = now() WHERE user_id = $1`

	res, err := tx.ExecContext(ctx, q, userID, amount)
	if err != nil {
		return fmt.Errorf("debiting %d credits from profile[%s]: %w", amount, userID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
