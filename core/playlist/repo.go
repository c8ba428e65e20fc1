package playlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("playlist not found")

func Create(ctx context.Context, db sqlx.ExtContext, p Playlist) error {
	const q = `
	INSERT INTO playlists
		(playlist_id, course_id, index, title_en, title_so, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7)`

	_, err := db.ExecContext(ctx, q,
		p.ID, p.CourseID, p.Index, p.TitleEN, p.TitleSO, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Playlist, error) {
	const q = `SELECT * FROM playlists WHERE playlist_id = $1`

	var p Playlist
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Playlist{}, ErrNotFound
		}
		return Playlist{}, fmt.Errorf("selecting playlist[%s]: %w", id, err)
	}
	return p, nil
}

func ListByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Playlist, error) {
	const q = `SELECT * FROM playlists WHERE course_id = $1 ORDER BY index`

	pls := []Playlist{}
	if err := sqlx.SelectContext(ctx, db, &pls, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting playlists for course[%s]: %w", courseID, err)
	}
	return pls, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, id string, up PlaylistUp) error {
	const q = `
	UPDATE playlists SET
		index      = COALESCE($2, index),
		title_en   = COALESCE($3, title_en),
		title_so   = COALESCE($4, title_so),
		updated_at = now()
	WHERE playlist_id = $1`

	res, err := db.ExecContext(ctx, q, id, up.Index, up.TitleEN, up.TitleSO)
	if err != nil {
		return fmt.Errorf("updating playlist[%s]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
