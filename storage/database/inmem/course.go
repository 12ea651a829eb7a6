package inmemdb

import (
	"context"

	"github.com/darasa-app/darasa/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) AddCourse(crs course.Course) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.courses[crs.Key] = &crs
}

func (repo *courseRepository) GetCourse(ctx context.Context, key course.CourseKey) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if crs, ok := repo.db.courses[key]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrCourseNotFound
}

type completionRepository struct {
	db *DB
}

var _ course.CompletionRepository = (*completionRepository)(nil)

func NewCompletionRepository(db *DB) *completionRepository {
	return &completionRepository{db: db}
}

// SetCompletion records a completion; later calls count as more recent for
// GetLatestCompletedBlock.
func (repo *completionRepository) SetCompletion(userID string, key course.CourseKey, block course.UsageKey, completion float64) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	scope := scopedKey(userID, key.String())
	if repo.db.completions[scope] == nil {
		repo.db.completions[scope] = make(map[course.UsageKey]completionRecord)
	}
	repo.db.completionSeq++
	repo.db.completions[scope][block] = completionRecord{completion: completion, order: repo.db.completionSeq}
}

func (repo *completionRepository) GetCourseCompletions(ctx context.Context, userID string, key course.CourseKey) (course.CompletionSet, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	records := repo.db.completions[scopedKey(userID, key.String())]
	completions := make(course.CompletionSet, len(records))
	for block, record := range records {
		completions[block] = record.completion
	}
	return completions, nil
}

func (repo *completionRepository) GetLatestCompletedBlock(ctx context.Context, userID string, key course.CourseKey) (course.UsageKey, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var (
		latest      course.UsageKey
		latestOrder int
	)
	for block, record := range repo.db.completions[scopedKey(userID, key.String())] {
		if record.completion > 0 && record.order > latestOrder {
			latest, latestOrder = block, record.order
		}
	}
	return latest, nil
}

type studentStateRepository struct {
	db *DB
}

var _ course.StudentStateRepository = (*studentStateRepository)(nil)

func NewStudentStateRepository(db *DB) *studentStateRepository {
	return &studentStateRepository{db: db}
}

func (repo *studentStateRepository) SetPosition(userID string, block course.UsageKey, position int) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()
	repo.db.positions[scopedKey(userID, block.String())] = position
}

func (repo *studentStateRepository) GetStudentModule(ctx context.Context, userID string, key course.CourseKey, block course.UsageKey) (course.StudentModule, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return course.StudentModule{Position: repo.db.positions[scopedKey(userID, block.String())]}, nil
}
