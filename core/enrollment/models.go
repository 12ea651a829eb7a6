package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/course"
)

// Mode is the mode a learner is enrolled in a course under.
type Mode string

const (
	ModeAudit            Mode = "audit"
	ModeHonor            Mode = "honor"
	ModeVerified         Mode = "verified"
	ModeProfessional     Mode = "professional"
	ModeNoIDProfessional Mode = "no-id-professional"
	ModeCredit           Mode = "credit"
)

// UpsellToVerifiedModes are the modes a learner can upgrade to verified from.
var UpsellToVerifiedModes = []Mode{ModeAudit, ModeHonor}

func (m Mode) Upsellable() bool {
	for _, mode := range UpsellToVerifiedModes {
		if m == mode {
			return true
		}
	}
	return false
}

var ErrNotFound = errors.New("enrollment not found")

// Enrollment records a learner's enrollment in a course run.
type Enrollment struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	CourseKey course.CourseKey `json:"course_key"`
	Mode      Mode             `json:"mode"`
	IsActive  bool             `json:"is_active"`
	Created   time.Time        `json:"created"`
	// ScheduleStart is the learner's schedule start when dynamic pacing
	// applies, nil otherwise.
	ScheduleStart *time.Time `json:"schedule_start,omitempty"`
}

// ContentAvailabilityDate is the date the course content became available to
// this learner: the schedule start when one exists, max(enrollment created,
// course start) otherwise.
//
// A schedule start equal to the course start date while the course started
// before the enrollment was created is a known bad state (the schedule should
// have tracked the enrollment); the enrollment creation date wins then.
func (e Enrollment) ContentAvailabilityDate(crs course.Course) time.Time {
	if e.ScheduleStart != nil {
		availability := *e.ScheduleStart
		if !e.Created.IsZero() && crs.Start != nil {
			sameDay := availability.Truncate(24 * time.Hour).Equal(crs.Start.Truncate(24 * time.Hour))
			if sameDay && crs.Start.Before(e.Created) && e.Created.Before(time.Now().UTC()) {
				availability = e.Created
			}
		}
		return availability
	}
	if crs.Start != nil && crs.Start.After(e.Created) {
		return *crs.Start
	}
	return e.Created
}

// CourseMode describes one purchasable mode of a course run.
type CourseMode struct {
	CourseKey       course.CourseKey `json:"course_key"`
	Mode            Mode             `json:"mode"`
	MinPrice        float64          `json:"min_price"`
	SKU             string           `json:"sku,omitempty"`
	UpgradeDeadline *time.Time       `json:"upgrade_deadline,omitempty"`
	ExpirationDate  *time.Time       `json:"expiration_date,omitempty"`
}

// Expired reports whether the mode can no longer be enrolled in.
func (m CourseMode) Expired() bool {
	return m.ExpirationDate != nil && m.ExpirationDate.Before(time.Now().UTC())
}

// Entitlement is a learner's right to enroll in any run of a course.
type Entitlement struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CourseUUID string    `json:"course_uuid"`
	Mode       Mode      `json:"mode"`
	Created    time.Time `json:"created"`
}

// Repository gives access to enrollments, course modes and entitlements.
type Repository interface {
	// GetEnrollment returns the learner's enrollment in the course, or
	// ErrNotFound.
	GetEnrollment(ctx context.Context, userID string, key course.CourseKey) (Enrollment, error)
	// GetUpsellEnrollments returns the learner's enrollments in the course
	// whose mode is upsellable to verified.
	GetUpsellEnrollments(ctx context.Context, userID string, key course.CourseKey) ([]Enrollment, error)
	// HasNonUpsellEnrollments reports whether the learner holds any
	// enrollment, in any course, in a non-upsellable mode.
	HasNonUpsellEnrollments(ctx context.Context, userID string) (bool, error)
	// HasEntitlements reports whether the learner ever held an entitlement.
	HasEntitlements(ctx context.Context, userID string) (bool, error)
	// ModesForCourse returns the course's modes by mode name, excluding
	// expired ones unless includeExpired is set.
	ModesForCourse(ctx context.Context, key course.CourseKey, includeExpired bool) (map[Mode]CourseMode, error)
}
