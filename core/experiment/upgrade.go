package experiment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/enrollment"
	"github.com/darasa-app/darasa/core/user"
)

// CheckoutURLBuilder builds checkout URLs on the ecommerce service.
type CheckoutURLBuilder interface {
	UpgradeURL(sku string) string
}

type Service struct {
	conf        *core.Config
	enrollments enrollment.Repository
	checkout    CheckoutURLBuilder
	logger      core.Logger
}

func NewService(conf *core.Config, enrollments enrollment.Repository, checkout CheckoutURLBuilder, logger core.Logger) *Service {
	return &Service{
		conf:        conf,
		enrollments: enrollments,
		checkout:    checkout,
		logger:      logger,
	}
}

// UpgradeLinkAndDate returns a link allowing the learner to upgrade to the
// verified mode of the given course, with the upgrade deadline. Both are
// empty when the learner is outside the upgrade window, when the course
// carries no purchasable verified mode, or when the supplied enrollment is
// inconsistent with the user or course (logged, not surfaced).
func (svc *Service) UpgradeLinkAndDate(ctx context.Context, usr user.User, enr *enrollment.Enrollment, crs course.Course) (string, *time.Time, error) {
	if enr != nil {
		if enr.CourseKey != crs.Key {
			svc.logger.Warn("enrollment refers to a different course than supplied",
				map[string]interface{}{"enrollment_course": enr.CourseKey, "course": crs.Key})
			return "", nil, nil
		}
		if enr.UserID != usr.ID {
			svc.logger.Warn("enrollment refers to a different user than supplied",
				map[string]interface{}{"enrollment_user": enr.UserID}, usr)
			return "", nil, nil
		}
	} else {
		found, err := svc.enrollments.GetEnrollment(ctx, usr.ID, crs.Key)
		if err != nil {
			if err == enrollment.ErrNotFound {
				return "", nil, nil
			}
			return "", nil, errors.Wrap(err, "getting enrollment")
		}
		enr = &found
	}

	verified, err := svc.verifiedMode(ctx, crs.Key)
	if err != nil {
		return "", nil, err
	}
	if !upgradeLinkValid(*enr, verified) {
		return "", nil, nil
	}
	return svc.checkout.UpgradeURL(verified.SKU), verified.UpgradeDeadline, nil
}

func (svc *Service) verifiedMode(ctx context.Context, key course.CourseKey) (*enrollment.CourseMode, error) {
	modes, err := svc.enrollments.ModesForCourse(ctx, key, false /* includeExpired */)
	if err != nil {
		return nil, errors.Wrap(err, "getting course modes")
	}
	if verified, ok := modes[enrollment.ModeVerified]; ok {
		return &verified, nil
	}
	return nil, nil
}

// upgradeLinkValid reports whether the learner is within the window to
// upgrade: actively enrolled in an upsellable mode, with a purchasable
// verified mode whose upgrade deadline has not passed.
func upgradeLinkValid(enr enrollment.Enrollment, verified *enrollment.CourseMode) bool {
	if !enr.IsActive || !enr.Mode.Upsellable() {
		return false
	}
	if verified == nil || verified.SKU == "" {
		return false
	}
	if verified.UpgradeDeadline != nil && verified.UpgradeDeadline.Before(time.Now().UTC()) {
		return false
	}
	return true
}

// CourseContext assembles the per-course experiment metadata surfaced on the
// learner dashboard. Sections are included per the configured feature
// toggles.
func (svc *Service) CourseContext(ctx context.Context, usr user.User, crs course.Course, enr *enrollment.Enrollment) (map[string]interface{}, error) {
	data := map[string]interface{}{
		"course_key":   crs.Key,
		"display_name": crs.DisplayName,
	}
	if !svc.conf.Features.AddDashboardInfo {
		return data, nil
	}

	if enr != nil {
		data["enrollment_mode"] = enr.Mode
		data["enrollment_time"] = enr.Created
		if enr.ScheduleStart != nil {
			data["schedule_start"] = *enr.ScheduleStart
		}
	}
	link, deadline, err := svc.UpgradeLinkAndDate(ctx, usr, enr, crs)
	if err != nil {
		return nil, err
	}
	if link != "" {
		data["upgrade_link"] = link
	}
	if deadline != nil {
		data["upgrade_deadline"] = *deadline
	}
	return data, nil
}
