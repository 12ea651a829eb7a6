package course

import "context"

// Repository gives access to course overview records.
type Repository interface {
	// GetCourse returns the overview of a course run, or ErrCourseNotFound.
	GetCourse(ctx context.Context, key CourseKey) (Course, error)
}
