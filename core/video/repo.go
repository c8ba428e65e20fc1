package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("video not found")

func Create(ctx context.Context, db sqlx.ExtContext, v Video) error {
	const q = `
	INSERT INTO videos
		(video_id, playlist_id, index, title_en, title_so, kind, url,
		 duration_seconds, free, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := db.ExecContext(ctx, q,
		v.ID, v.PlaylistID, v.Index, v.TitleEN, v.TitleSO, v.Kind, v.URL,
		v.DurationSec, v.Free, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting video: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Video, error) {
	const q = `SELECT * FROM videos WHERE video_id = $1`

	var v Video
	if err := sqlx.GetContext(ctx, db, &v, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Video{}, ErrNotFound
		}
		return Video{}, fmt.Errorf("selecting video[%s]: %w", id, err)
	}
	return v, nil
}

func ListByPlaylist(ctx context.Context, db sqlx.ExtContext, playlistID string) ([]Video, error) {
	const q = `SELECT * FROM videos WHERE playlist_id = $1 ORDER BY index`

	vs := []Video{}
	if err := sqlx.SelectContext(ctx, db, &vs, q, playlistID); err != nil {
		return nil, fmt.Errorf("selecting videos for playlist[%s]: %w", playlistID, err)
	}
	return vs, nil
}

// CourseID resolves the course a video belongs to through its playlist.
func CourseID(ctx context.Context, db sqlx.ExtContext, videoID string) (string, error) {
	const q = `
	SELECT p.course_id
	FROM videos v
	JOIN playlists p ON p.playlist_id = v.playlist_id
	WHERE v.video_id = $1`

	var courseID string
	if err := sqlx.GetContext(ctx, db, &courseID, q, videoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("resolving course of video[%s]: %w", videoID, err)
	}
	return courseID, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, id string, up VideoUp) error {
	const q = `
	UPDATE videos SET
		index            = COALESCE($2, index),
		title_en         = COALESCE($3, title_en),
		title_so         = COALESCE($4, title_so),
		kind             = COALESCE($5, kind),
		url              = COALESCE($6, url),
		duration_seconds = COALESCE($7, duration_seconds),
		free             = COALESCE($8, free),
		updated_at       = now()
	WHERE video_id = $1`

	res, err := db.ExecContext(ctx, q, id,
		up.Index, up.TitleEN, up.TitleSO, up.Kind, up.URL, up.DurationSec, up.Free)
	if err != nil {
		return fmt.Errorf("updating video[%s]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
