package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dugsiiye/barasho/core/course"
	"github.com/dugsiiye/barasho/core/enrollment"
	"github.com/dugsiiye/barasho/core/notification"
	"github.com/dugsiiye/barasho/database"
	"github.com/dugsiiye/barasho/validate"
	"github.com/jmoiron/sqlx"
)

var ErrVideoNotFound = errors.New("video not found")

// Save upserts the watch record and recomputes the course aggregate in one
// transaction. completionThreshold is the watched percentage at which the
// video counts as finished; once set, is_completed sticks.
func Save(ctx context.Context, db *sqlx.DB, userID, videoID string, up ProgressUp, completionThreshold int) (SaveResult, error) {
	var res SaveResult

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		courseID, err := courseOf(ctx, tx, videoID)
		if err != nil {
			return err
		}

		const q = `
		INSERT INTO user_progress
			(user_id, video_id, watched_percentage, last_position_seconds,
			 is_completed, play_count, last_watched_at, created_at)
		VALUES
			($1, $2, $3, $4, $3 >= $5, 0, $6, $6)
		ON CONFLICT (user_id, video_id) DO UPDATE SET
			watched_percentage    = EXCLUDED.watched_percentage,
			last_position_seconds = EXCLUDED.last_position_seconds,
			is_completed          = user_progress.is_completed OR EXCLUDED.is_completed,
			last_watched_at       = EXCLUDED.last_watched_at
		RETURNING is_completed`

		now := time.Now().UTC()
		var completed bool
		if err := tx.QueryRowxContext(ctx, q,
			userID, videoID, up.WatchedPct, up.LastPositionSec,
			completionThreshold, now).Scan(&completed); err != nil {
			return fmt.Errorf("upserting progress for user[%s] video[%s]: %w", userID, videoID, err)
		}

		agg, err := ForCourse(ctx, tx, userID, courseID)
		if err != nil {
			return err
		}

		var finishing bool
		if agg.IsCompleted {
			if e, err := enrollment.FetchGrant(ctx, tx, userID, courseID); err == nil {
				finishing = e.Status == enrollment.Active
			} else if !errors.Is(err, enrollment.ErrNotFound) {
				return fmt.Errorf("checking enrollment: %w", err)
			}
		}

		if err := enrollment.UpdateProgress(ctx, tx, userID, courseID, agg.ProgressPct, agg.IsCompleted, now); err != nil {
			return err
		}

		if finishing {
			c, err := course.Fetch(ctx, tx, courseID)
			if err != nil {
				return fmt.Errorf("fetching completed course: %w", err)
			}
			n := notification.Notification{
				ID:        validate.GenerateID(),
				UserID:    userID,
				Title:     "Course completed",
				Message:   fmt.Sprintf("You finished every video in %q. Congratulations!", c.TitleEN),
				Kind:      notification.KindCompletion,
				CreatedAt: now,
			}
			if err := notification.Create(ctx, tx, n); err != nil {
				return fmt.Errorf("creating completion notification: %w", err)
			}
		}

		res = SaveResult{Success: true, IsCompleted: completed}
		return nil
	})
	if err != nil {
		return SaveResult{}, err
	}
	return res, nil
}

// Load returns the stored record, or a zero record when the user has never
// played the video.
func Load(ctx context.Context, db sqlx.ExtContext, userID, videoID string) (Progress, error) {
	const q = `SELECT * FROM user_progress WHERE user_id = $1 AND video_id = $2`

	var p Progress
	if err := sqlx.GetContext(ctx, db, &p, q, userID, videoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Progress{UserID: userID, VideoID: videoID}, nil
		}
		return Progress{}, fmt.Errorf("selecting progress for user[%s] video[%s]: %w", userID, videoID, err)
	}
	return p, nil
}

// RecordPlay bumps the play counter, creating the record on first playback.
func RecordPlay(ctx context.Context, db sqlx.ExtContext, userID, videoID string) error {
	if _, err := courseOf(ctx, db, videoID); err != nil {
		return err
	}

	const q = `
	INSERT INTO user_progress
		(user_id, video_id, watched_percentage, last_position_seconds,
		 is_completed, play_count, last_watched_at, created_at)
	VALUES
		($1, $2, 0, 0, FALSE, 1, $3, $3)
	ON CONFLICT (user_id, video_id) DO UPDATE SET
		play_count      = user_progress.play_count + 1,
		last_watched_at = EXCLUDED.last_watched_at`

	now := time.Now().UTC()
	if _, err := db.ExecContext(ctx, q, userID, videoID, now); err != nil {
		return fmt.Errorf("recording play for user[%s] video[%s]: %w", userID, videoID, err)
	}
	return nil
}

// ForCourse aggregates completion over every video in the course.
func ForCourse(ctx context.Context, db sqlx.ExtContext, userID, courseID string) (CourseProgress, error) {
	const q = `
	SELECT
		COUNT(v.video_id)                                    AS total_videos,
		COUNT(up.video_id) FILTER (WHERE up.is_completed)    AS completed_videos
	FROM videos v
	JOIN playlists p ON p.playlist_id = v.playlist_id
	LEFT JOIN user_progress up ON up.video_id = v.video_id AND up.user_id = $1
	WHERE p.course_id = $2`

	var counts struct {
		TotalVideos     int `db:"total_videos"`
		CompletedVideos int `db:"completed_videos"`
	}
	if err := sqlx.GetContext(ctx, db, &counts, q, userID, courseID); err != nil {
		return CourseProgress{}, fmt.Errorf("aggregating progress for user[%s] course[%s]: %w", userID, courseID, err)
	}

	return summarize(counts.TotalVideos, counts.CompletedVideos), nil
}

// summarize derives the aggregate from the raw counts. The percentage is
// rounded, so it can read 100 while a video is still open; IsCompleted is the
// exact count comparison and is what the enrollment transition keys on.
func summarize(total, completed int) CourseProgress {
	agg := CourseProgress{TotalVideos: total, CompletedVideos: completed}
	if total > 0 {
		agg.ProgressPct = int(math.Round(float64(completed) / float64(total) * 100))
		agg.IsCompleted = completed == total
	}
	return agg
}

func courseOf(ctx context.Context, db sqlx.ExtContext, videoID string) (string, error) {
	const q = `
	SELECT p.course_id
	FROM videos v
	JOIN playlists p ON p.playlist_id = v.playlist_id
	WHERE v.video_id = $1`

	var courseID string
	if err := sqlx.GetContext(ctx, db, &courseID, q, videoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrVideoNotFound
		}
		return "", fmt.Errorf("resolving course of video[%s]: %w", videoID, err)
	}
	return courseID, nil
}
