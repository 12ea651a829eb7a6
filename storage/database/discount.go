package database

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/discount"
)

type discountRestrictionRepository struct {
	db *sqlx.DB
}

var _ discount.RestrictionRepository = (*discountRestrictionRepository)(nil)

func NewDiscountRestrictionRepository(db *sqlx.DB) *discountRestrictionRepository {
	return &discountRestrictionRepository{db: db}
}

func (repo *discountRestrictionRepository) DisabledForCourse(ctx context.Context, key course.CourseKey) (bool, error) {
	var disabled bool
	err := repo.db.GetContext(ctx, &disabled, `
		SELECT EXISTS (
			SELECT 1 FROM discount_restriction WHERE course_key = $1 AND disabled
		)`, key.String())
	if err != nil {
		return false, errors.Wrap(err, "checking discount restriction")
	}
	return disabled, nil
}

type enterpriseRepository struct {
	db *sqlx.DB
}

var _ discount.EnterpriseRepository = (*enterpriseRepository)(nil)

func NewEnterpriseRepository(db *sqlx.DB) *enterpriseRepository {
	return &enterpriseRepository{db: db}
}

func (repo *enterpriseRepository) IsEnterpriseLearner(ctx context.Context, userID string) (bool, error) {
	var linked bool
	err := repo.db.GetContext(ctx, &linked, `
		SELECT EXISTS (
			SELECT 1 FROM enterprise_customer_user WHERE user_id = $1
		)`, userID)
	if err != nil {
		return false, errors.Wrap(err, "checking enterprise customer link")
	}
	return linked, nil
}
