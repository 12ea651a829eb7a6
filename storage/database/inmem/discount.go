package inmemdb

import (
	"context"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/discount"
)

type discountRestrictionRepository struct {
	db *DB
}

var _ discount.RestrictionRepository = (*discountRestrictionRepository)(nil)

func NewDiscountRestrictionRepository(db *DB) *discountRestrictionRepository {
	return &discountRestrictionRepository{db: db}
}

func (repo *discountRestrictionRepository) Restrict(key course.CourseKey) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.restricted[key] = true
}

func (repo *discountRestrictionRepository) DisabledForCourse(ctx context.Context, key course.CourseKey) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.restricted[key], nil
}

type enterpriseRepository struct {
	db *DB
}

var _ discount.EnterpriseRepository = (*enterpriseRepository)(nil)

func NewEnterpriseRepository(db *DB) *enterpriseRepository {
	return &enterpriseRepository{db: db}
}

func (repo *enterpriseRepository) LinkEnterpriseLearner(userID string) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.enterprise[userID] = true
}

func (repo *enterpriseRepository) IsEnterpriseLearner(ctx context.Context, userID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.enterprise[userID], nil
}
