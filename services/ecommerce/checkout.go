// Package ecommercesvc builds links into the ecommerce checkout service.
package ecommercesvc

import (
	"net/url"
	"strings"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/experiment"
)

type CheckoutURLBuilder struct {
	basketBaseURL string
}

var _ experiment.CheckoutURLBuilder = (*CheckoutURLBuilder)(nil)

func NewCheckoutURLBuilder(conf *core.Config) *CheckoutURLBuilder {
	return &CheckoutURLBuilder{basketBaseURL: strings.TrimRight(conf.Ecommerce.BasketBaseURL, "/")}
}

// UpgradeURL returns the basket link that upgrades the learner to the mode
// sold under the given SKU.
func (b *CheckoutURLBuilder) UpgradeURL(sku string) string {
	params := url.Values{}
	params.Set("sku", sku)
	return b.basketBaseURL + "/?" + params.Encode()
}
