package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasa-app/darasa/core/course"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	CourseKey   string    `db:"course_key"`
	UUID        string    `db:"uuid"`
	DisplayName string    `db:"display_name"`
	StartDate   null.Time `db:"start_date"`
	EndDate     null.Time `db:"end_date"`
}

func (r courseRow) toCourse() course.Course {
	crs := course.Course{
		Key:         course.CourseKey(r.CourseKey),
		UUID:        r.UUID,
		DisplayName: r.DisplayName,
	}
	if r.StartDate.Valid {
		crs.Start = &r.StartDate.Time
	}
	if r.EndDate.Valid {
		crs.End = &r.EndDate.Time
	}
	return crs
}

func (repo *courseRepository) GetCourse(ctx context.Context, key course.CourseKey) (course.Course, error) {
	var row courseRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT course_key, uuid, display_name, start_date, end_date
		FROM course_overview WHERE course_key = $1`, key.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course overview")
	}
	return row.toCourse(), nil
}

type completionRepository struct {
	db *sqlx.DB
}

var _ course.CompletionRepository = (*completionRepository)(nil)

func NewCompletionRepository(db *sqlx.DB) *completionRepository {
	return &completionRepository{db: db}
}

func (repo *completionRepository) GetCourseCompletions(ctx context.Context, userID string, key course.CourseKey) (course.CompletionSet, error) {
	var rows []struct {
		BlockKey   string  `db:"block_key"`
		Completion float64 `db:"completion"`
	}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT block_key, completion FROM block_completion
		WHERE user_id = $1 AND course_key = $2`, userID, key.String())
	if err != nil {
		return nil, errors.Wrap(err, "getting course completions")
	}

	completions := make(course.CompletionSet, len(rows))
	for _, row := range rows {
		completions[course.UsageKey(row.BlockKey)] = row.Completion
	}
	return completions, nil
}

func (repo *completionRepository) GetLatestCompletedBlock(ctx context.Context, userID string, key course.CourseKey) (course.UsageKey, error) {
	var blockKey string
	err := repo.db.GetContext(ctx, &blockKey, `
		SELECT block_key FROM block_completion
		WHERE user_id = $1 AND course_key = $2 AND completion > 0
		ORDER BY updated_at DESC LIMIT 1`, userID, key.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", errors.Wrap(err, "getting latest completed block")
	}
	return course.UsageKey(blockKey), nil
}

// SetCompletion upserts a completion record; the latest-completed ordering
// follows updated_at.
func (repo *completionRepository) SetCompletion(ctx context.Context, id, userID string, key course.CourseKey, block course.UsageKey, completion float64) error {
	now := time.Now().UTC()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO block_completion (id, user_id, course_key, block_key, completion, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, course_key, block_key)
		DO UPDATE SET completion = EXCLUDED.completion, updated_at = EXCLUDED.updated_at`,
		id, userID, key.String(), block.String(), completion, now)
	return errors.Wrap(err, "setting completion")
}

type studentStateRepository struct {
	db *sqlx.DB
}

var _ course.StudentStateRepository = (*studentStateRepository)(nil)

func NewStudentStateRepository(db *sqlx.DB) *studentStateRepository {
	return &studentStateRepository{db: db}
}

// GetStudentModule returns a zero StudentModule when no state was ever stored
// for the block.
func (repo *studentStateRepository) GetStudentModule(ctx context.Context, userID string, key course.CourseKey, block course.UsageKey) (course.StudentModule, error) {
	var position null.Int
	err := repo.db.GetContext(ctx, &position, `
		SELECT position FROM student_module
		WHERE user_id = $1 AND course_key = $2 AND block_key = $3`,
		userID, key.String(), block.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return course.StudentModule{}, nil
		}
		return course.StudentModule{}, errors.Wrap(err, "getting student module")
	}
	return course.StudentModule{Position: position.Int}, nil
}
