package discount

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/enrollment"
	"github.com/darasa-app/darasa/core/user"
)

// Offer is the first-purchase discount as surfaced to the learner.
type Offer struct {
	Percentage      int        `json:"percentage"`
	ExpirationDate  *time.Time `json:"expiration_date,omitempty"`
	OriginalPrice   string     `json:"original_price"`
	DiscountedPrice string     `json:"discounted_price"`
	UpgradeURL      string     `json:"upgrade_url,omitempty"`
}

// FormatPrice renders a USD price without trailing zero cents: $15 rather
// than $15.00, but $15.50 stays $15.50.
func FormatPrice(price float64) string {
	if price == math.Trunc(price) {
		return fmt.Sprintf("$%.0f", price)
	}
	return fmt.Sprintf("$%.2f", price)
}

// DiscountedPrice applies the discount percentage to a base price.
func DiscountedPrice(base float64, percentage int) float64 {
	return base * (100 - float64(percentage)) / 100
}

// StrikeoutPrice returns the formatted original and discounted prices of the
// course's verified mode when the learner can receive the discount. hasDiscount
// is false when they cannot, or when the course has no verified mode to price.
func (svc *Service) StrikeoutPrice(ctx context.Context, usr user.User, crs course.Course) (original, discounted string, hasDiscount bool, err error) {
	ok, err := svc.CanReceiveDiscount(ctx, usr, crs)
	if err != nil || !ok {
		return "", "", false, err
	}

	base, found, err := svc.verifiedPrice(ctx, crs.Key)
	if err != nil || !found {
		return "", "", false, err
	}
	return FormatPrice(base), FormatPrice(DiscountedPrice(base, svc.Percentage())), true, nil
}

// Offer assembles the full discount offer for the learner, nil when they are
// not eligible.
func (svc *Service) Offer(ctx context.Context, usr user.User, crs course.Course) (*Offer, error) {
	expiration, err := svc.ExpirationDate(ctx, usr, crs)
	if err != nil {
		return nil, err
	}
	ok, err := svc.CanReceiveDiscount(ctx, usr, crs, expiration)
	if err != nil || !ok {
		return nil, err
	}

	modes, err := svc.enrollments.ModesForCourse(ctx, crs.Key, false)
	if err != nil {
		return nil, errors.Wrap(err, "getting course modes")
	}
	verified, found := modes[enrollment.ModeVerified]
	if !found {
		return nil, nil
	}

	offer := Offer{
		Percentage:      svc.Percentage(),
		ExpirationDate:  expiration,
		OriginalPrice:   FormatPrice(verified.MinPrice),
		DiscountedPrice: FormatPrice(DiscountedPrice(verified.MinPrice, svc.Percentage())),
	}
	if verified.SKU != "" {
		offer.UpgradeURL = svc.checkout.UpgradeURL(verified.SKU)
	}
	return &offer, nil
}

func (svc *Service) verifiedPrice(ctx context.Context, key course.CourseKey) (float64, bool, error) {
	modes, err := svc.enrollments.ModesForCourse(ctx, key, false)
	if err != nil {
		return 0, false, errors.Wrap(err, "getting course modes")
	}
	verified, found := modes[enrollment.ModeVerified]
	if !found {
		return 0, false, nil
	}
	return verified.MinPrice, true, nil
}
