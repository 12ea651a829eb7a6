package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/enrollment"
)

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

type enrollmentRow struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	CourseKey     string    `db:"course_key"`
	Mode          string    `db:"mode"`
	IsActive      bool      `db:"is_active"`
	CreatedAt     null.Time `db:"created_at"`
	ScheduleStart null.Time `db:"schedule_start"`
}

func (r enrollmentRow) toEnrollment() enrollment.Enrollment {
	enr := enrollment.Enrollment{
		ID:        r.ID,
		UserID:    r.UserID,
		CourseKey: course.CourseKey(r.CourseKey),
		Mode:      enrollment.Mode(r.Mode),
		IsActive:  r.IsActive,
		Created:   r.CreatedAt.Time,
	}
	if r.ScheduleStart.Valid {
		enr.ScheduleStart = &r.ScheduleStart.Time
	}
	return enr
}

const enrollmentColumns = `id, user_id, course_key, mode, is_active, created_at, schedule_start`

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, userID string, key course.CourseKey) (enrollment.Enrollment, error) {
	var row enrollmentRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT `+enrollmentColumns+` FROM course_enrollment
		WHERE user_id = $1 AND course_key = $2`, userID, key.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) GetUpsellEnrollments(ctx context.Context, userID string, key course.CourseKey) ([]enrollment.Enrollment, error) {
	modes := make([]string, 0, len(enrollment.UpsellToVerifiedModes))
	for _, mode := range enrollment.UpsellToVerifiedModes {
		modes = append(modes, string(mode))
	}
	query, args, err := sqlx.In(`
		SELECT `+enrollmentColumns+` FROM course_enrollment
		WHERE user_id = ? AND course_key = ? AND is_active AND mode IN (?)`,
		userID, key.String(), modes)
	if err != nil {
		return nil, errors.Wrap(err, "expanding upsell query")
	}

	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "getting upsell enrollments")
	}
	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.toEnrollment())
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) HasNonUpsellEnrollments(ctx context.Context, userID string) (bool, error) {
	modes := make([]string, 0, len(enrollment.UpsellToVerifiedModes))
	for _, mode := range enrollment.UpsellToVerifiedModes {
		modes = append(modes, string(mode))
	}
	query, args, err := sqlx.In(`
		SELECT EXISTS (
			SELECT 1 FROM course_enrollment WHERE user_id = ? AND mode NOT IN (?)
		)`, userID, modes)
	if err != nil {
		return false, errors.Wrap(err, "expanding non-upsell query")
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(query), args...); err != nil {
		return false, errors.Wrap(err, "checking non-upsell enrollments")
	}
	return exists, nil
}

func (repo *enrollmentRepository) HasEntitlements(ctx context.Context, userID string) (bool, error) {
	// the historical table keeps deleted entitlements visible
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM course_entitlement WHERE user_id = $1)
		    OR EXISTS (SELECT 1 FROM course_entitlement_historical WHERE user_id = $1)`,
		userID)
	if err != nil {
		return false, errors.Wrap(err, "checking entitlements")
	}
	return exists, nil
}

type courseModeRow struct {
	CourseKey       string    `db:"course_key"`
	Mode            string    `db:"mode"`
	MinPrice        float64   `db:"min_price"`
	SKU             null.String `db:"sku"`
	UpgradeDeadline null.Time `db:"upgrade_deadline"`
	ExpirationDate  null.Time `db:"expiration_date"`
}

func (r courseModeRow) toCourseMode() enrollment.CourseMode {
	mode := enrollment.CourseMode{
		CourseKey: course.CourseKey(r.CourseKey),
		Mode:      enrollment.Mode(r.Mode),
		MinPrice:  r.MinPrice,
		SKU:       r.SKU.String,
	}
	if r.UpgradeDeadline.Valid {
		mode.UpgradeDeadline = &r.UpgradeDeadline.Time
	}
	if r.ExpirationDate.Valid {
		mode.ExpirationDate = &r.ExpirationDate.Time
	}
	return mode
}

func (repo *enrollmentRepository) ModesForCourse(ctx context.Context, key course.CourseKey, includeExpired bool) (map[enrollment.Mode]enrollment.CourseMode, error) {
	query := `
		SELECT course_key, mode, min_price, sku, upgrade_deadline, expiration_date
		FROM course_mode WHERE course_key = $1`
	if !includeExpired {
		query += ` AND (expiration_date IS NULL OR expiration_date > NOW())`
	}

	var rows []courseModeRow
	if err := repo.db.SelectContext(ctx, &rows, query, key.String()); err != nil {
		return nil, errors.Wrap(err, "getting course modes")
	}
	modes := make(map[enrollment.Mode]enrollment.CourseMode, len(rows))
	for _, row := range rows {
		mode := row.toCourseMode()
		modes[mode.Mode] = mode
	}
	return modes, nil
}
