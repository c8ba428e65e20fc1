package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("course not found")

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, title_en, title_so, description_en, description_so,
		 category, level, image_url, price, published, created_at, updated_at)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := db.ExecContext(ctx, q,
		c.ID, c.TitleEN, c.TitleSO, c.DescriptionEN, c.DescriptionSO,
		c.Category, c.Level, c.ImageURL, c.Price, c.Published,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	const q = `SELECT * FROM courses WHERE course_id = $1`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}
	return c, nil
}

func List(ctx context.Context, db sqlx.ExtContext, publishedOnly bool) ([]Course, error) {
	q := `SELECT * FROM courses ORDER BY created_at`
	if publishedOnly {
		q = `SELECT * FROM courses WHERE published ORDER BY created_at`
	}

	courses := []Course{}
	if err := sqlx.SelectContext(ctx, db, &courses, q); err != nil {
		return nil, fmt.Errorf("selecting courses: %w", err)
	}
	return courses, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, id string, up CourseUp) error {
	const q = `
	UPDATE courses SET
		title_en       = COALESCE($2, title_en),
		title_so       = COALESCE($3, title_so),
		description_en = COALESCE($4, description_en),
		description_so = COALESCE($5, description_so),
		category       = COALESCE($6, category),
		level          = COALESCE($7, level),
		image_url      = COALESCE($8, image_url),
		price          = COALESCE($9, price),
		published      = COALESCE($10, published),
		updated_at     = now(),
		version        = version + 1
	WHERE course_id = $1`

	res, err := db.ExecContext(ctx, q, id,
		up.TitleEN, up.TitleSO, up.DescriptionEN, up.DescriptionSO,
		up.Category, up.Level, up.ImageURL, up.Price, up.Published)
	if err != nil {
		return fmt.Errorf("updating course[%s]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
