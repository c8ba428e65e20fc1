package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrNotFound = errors.New("user not found")

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users
		(user_id, email, name, password_hash, roles, active, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := db.ExecContext(ctx, q,
		usr.ID, usr.Email, usr.Name, usr.PasswordHash,
		usr.Roles, usr.Active, usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}
	return usr, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}
	return usr, nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]User, error) {
	const q = `SELECT * FROM users ORDER BY created_at`

	users := []User{}
	if err := sqlx.SelectContext(ctx, db, &users, q); err != nil {
		return nil, fmt.Errorf("selecting users: %w", err)
	}
	return users, nil
}

func UpdateRoles(ctx context.Context, db sqlx.ExtContext, id string, roles []string) error {
	const q = `UPDATE users SET roles = $2, updated_at = now() WHERE user_id = $1`

	res, err := db.ExecContext(ctx, q, id, pq.StringArray(roles))
	if err != nil {
		return fmt.Errorf("updating roles for user[%s]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
