package discount

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa-app/darasa/core/enrollment"
)

func Test_FormatPrice(t *testing.T) {
	assert.Equal(t, "$15", FormatPrice(15))
	assert.Equal(t, "$15.50", FormatPrice(15.5))
	assert.Equal(t, "$149", FormatPrice(149.0))
	assert.Equal(t, "$0", FormatPrice(0))
}

func Test_DiscountedPrice(t *testing.T) {
	assert.Equal(t, 127.5, DiscountedPrice(150, 15))
	assert.Equal(t, 100.0, DiscountedPrice(100, 0))
}

func Test_Service_StrikeoutPrice(t *testing.T) {
	conf, repo, restrictions, usr, crs := eligibleFixture()
	svc := newTestService(conf, repo, restrictions, nil, nil)
	ctx := context.Background()

	original, discounted, hasDiscount, err := svc.StrikeoutPrice(ctx, usr, crs)
	require.NoError(t, err)
	assert.True(t, hasDiscount)
	assert.Equal(t, "$149", original)
	assert.Equal(t, "$126.65", discounted)

	// ineligible learner gets no prices
	repo.hasEntitled = true
	_, _, hasDiscount, err = svc.StrikeoutPrice(ctx, usr, crs)
	require.NoError(t, err)
	assert.False(t, hasDiscount)
}

func Test_Service_Offer(t *testing.T) {
	conf, repo, restrictions, usr, crs := eligibleFixture()
	svc := newTestService(conf, repo, restrictions, nil, nil)
	ctx := context.Background()

	offer, err := svc.Offer(ctx, usr, crs)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Equal(t, 15, offer.Percentage)
	assert.Equal(t, "$149", offer.OriginalPrice)
	assert.Equal(t, "$126.65", offer.DiscountedPrice)
	assert.Equal(t, "https://pay.test/basket?sku=ABC123", offer.UpgradeURL)
	require.NotNil(t, offer.ExpirationDate)
	assert.Equal(t, repo.upsell[0].Created.Add(7*24*time.Hour), *offer.ExpirationDate)

	// no SKU on the verified mode: offer without an upgrade link
	verified := repo.modes[enrollment.ModeVerified]
	verified.SKU = ""
	repo.modes[enrollment.ModeVerified] = verified
	offer, err = svc.Offer(ctx, usr, crs)
	require.NoError(t, err)
	require.NotNil(t, offer)
	assert.Empty(t, offer.UpgradeURL)

	// ineligible learner gets no offer
	conf.Features.EnableDiscounts = false
	offer, err = svc.Offer(ctx, usr, crs)
	require.NoError(t, err)
	assert.Nil(t, offer)
}
