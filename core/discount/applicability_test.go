package discount

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/enrollment"
	"github.com/darasa-app/darasa/core/experiment"
	"github.com/darasa-app/darasa/core/user"
)

var testCourseKey = course.CourseKey("course-v1:Test+T101+2026")

type fakeEnrollmentRepo struct {
	upsell       []enrollment.Enrollment
	hasNonUpsell bool
	hasEntitled  bool
	modes        map[enrollment.Mode]enrollment.CourseMode
}

func (f *fakeEnrollmentRepo) GetEnrollment(ctx context.Context, userID string, key course.CourseKey) (enrollment.Enrollment, error) {
	if len(f.upsell) > 0 {
		return f.upsell[0], nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}
func (f *fakeEnrollmentRepo) GetUpsellEnrollments(ctx context.Context, userID string, key course.CourseKey) ([]enrollment.Enrollment, error) {
	return f.upsell, nil
}
func (f *fakeEnrollmentRepo) HasNonUpsellEnrollments(ctx context.Context, userID string) (bool, error) {
	return f.hasNonUpsell, nil
}
func (f *fakeEnrollmentRepo) HasEntitlements(ctx context.Context, userID string) (bool, error) {
	return f.hasEntitled, nil
}
func (f *fakeEnrollmentRepo) ModesForCourse(ctx context.Context, key course.CourseKey, includeExpired bool) (map[enrollment.Mode]enrollment.CourseMode, error) {
	return f.modes, nil
}

type fakeRestrictionRepo struct{ disabled bool }

func (f *fakeRestrictionRepo) DisabledForCourse(ctx context.Context, key course.CourseKey) (bool, error) {
	return f.disabled, nil
}

type fakeEnterpriseRepo struct{ enterprise bool }

func (f *fakeEnterpriseRepo) IsEnterpriseLearner(ctx context.Context, userID string) (bool, error) {
	return f.enterprise, nil
}

type fakeCheckout struct{}

func (fakeCheckout) UpgradeURL(sku string) string { return "https://pay.test/basket?sku=" + sku }

type recordingTracker struct{ events []string }

func (t *recordingTracker) Track(userID, event string, properties map[string]interface{}) error {
	t.events = append(t.events, event)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

var _ core.Logger = (*nopLogger)(nil)

func eligibleFixture() (*core.Config, *fakeEnrollmentRepo, *fakeRestrictionRepo, user.User, course.Course) {
	conf := &core.Config{}
	conf.Features.EnableDiscounts = true
	conf.Features.DiscountPercentage = 15

	futureDeadline := time.Now().UTC().Add(30 * 24 * time.Hour)
	repo := &fakeEnrollmentRepo{
		upsell: []enrollment.Enrollment{{
			ID:        "enr-1",
			UserID:    "user-1",
			CourseKey: testCourseKey,
			Mode:      enrollment.ModeAudit,
			IsActive:  true,
			Created:   time.Now().UTC().Add(-24 * time.Hour),
		}},
		modes: map[enrollment.Mode]enrollment.CourseMode{
			enrollment.ModeVerified: {
				CourseKey:       testCourseKey,
				Mode:            enrollment.ModeVerified,
				MinPrice:        149,
				SKU:             "ABC123",
				UpgradeDeadline: &futureDeadline,
			},
		},
	}
	usr := user.User{ID: "user-1", Username: "amina"}
	crs := course.Course{Key: testCourseKey, DisplayName: "Test Course"}
	return conf, repo, &fakeRestrictionRepo{}, usr, crs
}

func newTestService(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, enterprise *fakeEnterpriseRepo, tracker core.Tracker) *Service {
	if enterprise == nil {
		enterprise = &fakeEnterpriseRepo{}
	}
	if tracker == nil {
		tracker = &recordingTracker{}
	}
	return NewService(conf, repo, restrictions, enterprise, fakeCheckout{}, tracker, nopLogger{})
}

func Test_Service_ExpirationDate(t *testing.T) {
	conf, repo, restrictions, usr, crs := eligibleFixture()
	svc := newTestService(conf, repo, restrictions, nil, nil)
	ctx := context.Background()

	expiration, err := svc.ExpirationDate(ctx, usr, crs)
	require.NoError(t, err)
	require.NotNil(t, expiration)
	assert.Equal(t, repo.upsell[0].Created.Add(7*24*time.Hour), *expiration)

	// not enrolled: no expiration
	repo.upsell = nil
	expiration, err = svc.ExpirationDate(ctx, usr, crs)
	require.NoError(t, err)
	assert.Nil(t, expiration)

	// more than one upsellable enrollment: ambiguous, no expiration
	enr := enrollment.Enrollment{UserID: usr.ID, CourseKey: crs.Key, Mode: enrollment.ModeHonor, Created: time.Now().UTC()}
	repo.upsell = []enrollment.Enrollment{enr, enr}
	expiration, err = svc.ExpirationDate(ctx, usr, crs)
	require.NoError(t, err)
	assert.Nil(t, expiration)
}

func Test_Service_ExpirationDate_scheduleStart(t *testing.T) {
	conf, repo, restrictions, usr, crs := eligibleFixture()
	svc := newTestService(conf, repo, restrictions, nil, nil)

	start := time.Now().UTC().Add(48 * time.Hour)
	repo.upsell[0].ScheduleStart = &start

	expiration, err := svc.ExpirationDate(context.Background(), usr, crs)
	require.NoError(t, err)
	require.NotNil(t, expiration)
	assert.Equal(t, start.Add(7*24*time.Hour), *expiration)
}

func Test_Service_CanReceiveDiscount(t *testing.T) {
	ended := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name  string
		mutot func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course)
		want  bool
	}{
		{"eligible", nil, true},
		{"feature disabled", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			conf.Features.EnableDiscounts = false
		}, false},
		{"offer expired", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			repo.upsell[0].Created = time.Now().UTC().Add(-8 * 24 * time.Hour)
		}, false},
		{"no upsellable enrollment", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			repo.upsell = nil
		}, false},
		{"course ended", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			crs.End = &ended
		}, false},
		{"no verified mode", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			delete(repo.modes, enrollment.ModeVerified)
		}, false},
		{"course restricted", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			restrictions.disabled = true
		}, false},
		{"anonymous user", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			usr.ID = ""
		}, false},
		{"prior paid enrollment", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			repo.hasNonUpsell = true
		}, false},
		{"prior entitlement", func(conf *core.Config, repo *fakeEnrollmentRepo, restrictions *fakeRestrictionRepo, usr *user.User, crs *course.Course) {
			repo.hasEntitled = true
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf, repo, restrictions, usr, crs := eligibleFixture()
			if tt.mutot != nil {
				tt.mutot(conf, repo, restrictions, &usr, &crs)
			}
			svc := newTestService(conf, repo, restrictions, nil, nil)

			got, err := svc.CanReceiveDiscount(context.Background(), usr, crs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Service_CanReceiveDiscount_holdback(t *testing.T) {
	// pick usernames that land on either side of the 50/50 split
	var inHoldback, outOfHoldback string
	for _, uname := range []string{"amina", "bakari", "chausiku", "daudi", "esta", "faraji", "gathoni", "hasani"} {
		if experiment.StableBucketingHashGroup(HoldbackGroupName, 2, uname) == 0 {
			inHoldback = uname
		} else {
			outOfHoldback = uname
		}
	}
	require.NotEmpty(t, inHoldback)
	require.NotEmpty(t, outOfHoldback)

	conf, repo, restrictions, usr, crs := eligibleFixture()
	conf.Features.DiscountHoldbackEnd = time.Now().UTC().Add(24 * time.Hour)
	tracker := &recordingTracker{}
	svc := newTestService(conf, repo, restrictions, nil, tracker)
	ctx := context.Background()

	usr.ID, usr.Username = "user-in", inHoldback
	got, err := svc.CanReceiveDiscount(ctx, usr, crs)
	require.NoError(t, err)
	assert.False(t, got)

	usr.ID, usr.Username = "user-out", outOfHoldback
	got, err = svc.CanReceiveDiscount(ctx, usr, crs)
	require.NoError(t, err)
	assert.True(t, got)

	// bucketing is tracked either way
	assert.Equal(t, []string{bucketedEvent, bucketedEvent}, tracker.events)

	// holdback over: everyone gets the discount, nothing tracked
	conf.Features.DiscountHoldbackEnd = time.Now().UTC().Add(-24 * time.Hour)
	usr.ID, usr.Username = "user-late", inHoldback
	got, err = svc.CanReceiveDiscount(ctx, usr, crs)
	require.NoError(t, err)
	assert.True(t, got)
	assert.Len(t, tracker.events, 2)
}

func Test_Service_CanReceiveDiscount_enterpriseLearner(t *testing.T) {
	conf, repo, restrictions, usr, crs := eligibleFixture()
	enterprise := &fakeEnterpriseRepo{enterprise: true}
	svc := newTestService(conf, repo, restrictions, enterprise, nil)

	got, err := svc.CanReceiveDiscount(context.Background(), usr, crs)
	require.NoError(t, err)
	assert.False(t, got, "enterprise learners never receive the discount")

	enterprise.enterprise = false
	got, err = svc.CanReceiveDiscount(context.Background(), usr, crs)
	require.NoError(t, err)
	assert.True(t, got)
}

func Test_Service_CanReceiveDiscount_bucketingTrackedOnce(t *testing.T) {
	conf, repo, restrictions, usr, crs := eligibleFixture()
	conf.Features.DiscountHoldbackEnd = time.Now().UTC().Add(24 * time.Hour)
	tracker := &recordingTracker{}
	svc := newTestService(conf, repo, restrictions, nil, tracker)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CanReceiveDiscount(ctx, usr, crs)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{bucketedEvent}, tracker.events, "a user is only ever bucketed once")

	// another user gets their own bucketing event
	usr.ID, usr.Username = "user-2", "bakari"
	_, err := svc.CanReceiveDiscount(ctx, usr, crs)
	require.NoError(t, err)
	assert.Len(t, tracker.events, 2)
}

func Test_Service_Percentage(t *testing.T) {
	conf := &core.Config{}
	svc := newTestService(conf, &fakeEnrollmentRepo{}, &fakeRestrictionRepo{}, nil, nil)

	assert.Equal(t, 15, svc.Percentage()) // unset falls back to the default

	conf.Features.DiscountPercentage = 30
	assert.Equal(t, 30, svc.Percentage())

	conf.Features.DiscountPercentage = 100
	assert.Equal(t, 15, svc.Percentage())
}
