// Package discount implements the first-purchase upsell offer: eligibility
// rules, holdback bucketing and discounted pricing.
//
// Only offers controlled in this application live here, not coupons or
// program offers configured on the ecommerce service.
package discount

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/enrollment"
	"github.com/darasa-app/darasa/core/experiment"
	"github.com/darasa-app/darasa/core/user"
)

// HoldbackGroupName names the control group excluded from the first-purchase
// discount for measurement purposes.
const HoldbackGroupName = "first_purchase_discount_holdback"

// bucketedEvent is the analytics event recorded the first time a user is
// bucketed into or out of the holdback.
const bucketedEvent = "darasa.bi.experiment.user.bucketed"

// RestrictionRepository answers whether a course opted out of
// application-controlled discounts.
type RestrictionRepository interface {
	DisabledForCourse(ctx context.Context, key course.CourseKey) (bool, error)
}

// EnterpriseRepository answers whether a user is linked to an enterprise
// customer. Enterprise learners buy through their organization and never
// receive the first-purchase discount.
type EnterpriseRepository interface {
	IsEnterpriseLearner(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	conf         *core.Config
	enrollments  enrollment.Repository
	restrictions RestrictionRepository
	enterprise   EnterpriseRepository
	checkout     experiment.CheckoutURLBuilder
	tracker      core.Tracker
	logger       core.Logger

	mu       sync.Mutex
	bucketed map[string]bool // user ids already tracked as bucketed
}

func NewService(
	conf *core.Config,
	enrollments enrollment.Repository,
	restrictions RestrictionRepository,
	enterprise EnterpriseRepository,
	checkout experiment.CheckoutURLBuilder,
	tracker core.Tracker,
	logger core.Logger,
) *Service {
	return &Service{
		conf:         conf,
		enrollments:  enrollments,
		restrictions: restrictions,
		enterprise:   enterprise,
		checkout:     checkout,
		tracker:      tracker,
		logger:       logger,
		bucketed:     make(map[string]bool),
	}
}

// ExpirationDate returns the date the first-purchase discount expires for the
// learner: one week after the content availability date of their single
// upsellable enrollment. Nil when the learner is not enrolled (or enrolled
// more than once) in an upsellable mode.
func (svc *Service) ExpirationDate(ctx context.Context, usr user.User, crs course.Course) (*time.Time, error) {
	enrollments, err := svc.enrollments.GetUpsellEnrollments(ctx, usr.ID, crs.Key)
	if err != nil {
		return nil, errors.Wrap(err, "getting upsell enrollments")
	}
	if len(enrollments) != 1 {
		return nil, nil
	}
	expiration := enrollments[0].ContentAvailabilityDate(crs).Add(7 * 24 * time.Hour)
	return &expiration, nil
}

// CanReceiveDiscount checks all the business rules about whether this
// combination of user and course can receive the first-purchase discount.
// The expiration date may be passed in when the caller already computed it.
func (svc *Service) CanReceiveDiscount(ctx context.Context, usr user.User, crs course.Course, expiration ...*time.Time) (bool, error) {
	if !svc.conf.Features.EnableDiscounts {
		return false, nil
	}

	var expDate *time.Time
	if len(expiration) > 0 {
		expDate = expiration[0]
	} else {
		var err error
		if expDate, err = svc.ExpirationDate(ctx, usr, crs); err != nil {
			return false, err
		}
	}
	if expDate == nil || expDate.Before(time.Now().UTC()) {
		return false, nil
	}

	if crs.HasEnded() {
		return false, nil
	}

	// course needs a non-expired verified mode
	modes, err := svc.enrollments.ModesForCourse(ctx, crs.Key, false /* includeExpired */)
	if err != nil {
		return false, errors.Wrap(err, "getting course modes")
	}
	if _, ok := modes[enrollment.ModeVerified]; !ok {
		return false, nil
	}

	disabled, err := svc.restrictions.DisabledForCourse(ctx, crs.Key)
	if err != nil {
		return false, errors.Wrap(err, "checking discount restriction")
	}
	if disabled {
		return false, nil
	}

	if usr.ID == "" { // anonymous
		return false, nil
	}

	// no enrollments, in any course, in a non-upsellable mode
	hasNonUpsell, err := svc.enrollments.HasNonUpsellEnrollments(ctx, usr.ID)
	if err != nil {
		return false, errors.Wrap(err, "checking non-upsell enrollments")
	}
	if hasNonUpsell {
		return false, nil
	}

	// no entitlements, past or present
	hasEntitlements, err := svc.enrollments.HasEntitlements(ctx, usr.ID)
	if err != nil {
		return false, errors.Wrap(err, "checking entitlements")
	}
	if hasEntitlements {
		return false, nil
	}

	isEnterprise, err := svc.enterprise.IsEnterpriseLearner(ctx, usr.ID)
	if err != nil {
		return false, errors.Wrap(err, "checking enterprise learner")
	}
	if isEnterprise {
		return false, nil
	}

	return !svc.inHoldback(usr), nil
}

// inHoldback reports whether the user falls in the first-purchase-discount
// holdback group. The holdback is 50/50 and switches off entirely once the
// configured end date passes. Bucketing is tracked once per user, on their
// first eligibility check.
func (svc *Service) inHoldback(usr user.User) bool {
	end := svc.conf.Features.DiscountHoldbackEnd
	if end.IsZero() || !time.Now().UTC().Before(end) {
		return false
	}

	bucket := experiment.StableBucketingHashGroup(HoldbackGroupName, 2, usr.Username)

	svc.mu.Lock()
	first := !svc.bucketed[usr.ID]
	svc.bucketed[usr.ID] = true
	svc.mu.Unlock()

	if first {
		if err := svc.tracker.Track(usr.ID, bucketedEvent, map[string]interface{}{
			"app_label":      "discounts",
			"nonInteraction": 1,
			"bucket":         bucket,
			"experiment":     HoldbackGroupName,
		}); err != nil {
			svc.logger.Warn("tracking holdback bucketing", err, usr)
		}
	}
	return bucket == 0
}

// Percentage is the configured discount amount.
func (svc *Service) Percentage() int {
	pct := svc.conf.Features.DiscountPercentage
	if pct <= 0 || pct >= 100 {
		return 15
	}
	return pct
}
