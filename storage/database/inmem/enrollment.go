package inmemdb

import (
	"context"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/enrollment"
)

type enrollmentRepository struct {
	db *DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil)

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) AddEnrollment(enr enrollment.Enrollment) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.enrollments = append(repo.db.enrollments, enr)
}

func (repo *enrollmentRepository) AddCourseMode(mode enrollment.CourseMode) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.modes = append(repo.db.modes, mode)
}

func (repo *enrollmentRepository) SetEntitled(userID string) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.entitled[userID] = true
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, userID string, key course.CourseKey) (enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID && enr.CourseKey == key {
			return enr, nil
		}
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) GetUpsellEnrollments(ctx context.Context, userID string, key course.CourseKey) ([]enrollment.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var enrollments []enrollment.Enrollment
	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID && enr.CourseKey == key && enr.IsActive && enr.Mode.Upsellable() {
			enrollments = append(enrollments, enr)
		}
	}
	return enrollments, nil
}

func (repo *enrollmentRepository) HasNonUpsellEnrollments(ctx context.Context, userID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, enr := range repo.db.enrollments {
		if enr.UserID == userID && !enr.Mode.Upsellable() {
			return true, nil
		}
	}
	return false, nil
}

func (repo *enrollmentRepository) HasEntitlements(ctx context.Context, userID string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.db.entitled[userID], nil
}

func (repo *enrollmentRepository) ModesForCourse(ctx context.Context, key course.CourseKey, includeExpired bool) (map[enrollment.Mode]enrollment.CourseMode, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	modes := make(map[enrollment.Mode]enrollment.CourseMode)
	for _, mode := range repo.db.modes {
		if mode.CourseKey != key {
			continue
		}
		if !includeExpired && mode.Expired() {
			continue
		}
		modes[mode.Mode] = mode
	}
	return modes, nil
}
