package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Kind string

const (
	KindInfo       Kind = "info"
	KindEnrollment Kind = "enrollment"
	KindCompletion Kind = "completion"
	KindCredits    Kind = "credits"
)

type Notification struct {
	ID        string    `json:"id" db:"notification_id"`
	UserID    string    `json:"userId" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Kind      Kind      `json:"kind" db:"kind"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func Create(ctx context.Context, db sqlx.ExtContext, n Notification) error {
	const q = `
	INSERT INTO notifications
		(notification_id, user_id, title, message, kind, read, created_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.ExecContext(ctx, q,
		n.ID, n.UserID, n.Title, n.Message, n.Kind, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func ListByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Notification, error) {
	const q = `SELECT * FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT 100`

	ns := []Notification{}
	if err := sqlx.SelectContext(ctx, db, &ns, q, userID); err != nil {
		return nil, fmt.Errorf("selecting notifications for user[%s]: %w", userID, err)
	}
	return ns, nil
}

// MarkRead flips the read flag; scoped by user so one user cannot touch
// another's notifications.
func MarkRead(ctx context.Context, db sqlx.ExtContext, userID, id string) error {
	const q = `UPDATE notifications SET read = TRUE WHERE notification_id = $1 AND user_id = $2`

	if _, err := db.ExecContext(ctx, q, id, userID); err != nil {
		return fmt.Errorf("marking notification[%s] read: %w", id, err)
	}
	return nil
}
