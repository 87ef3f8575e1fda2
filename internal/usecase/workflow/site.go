package workflow

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SiteConfig points the runner at one storefront deployment. The selector
// contract below is fixed: the target site is effectively a wire protocol.
type SiteConfig struct {
	BaseURL string
}

func DefaultSite() SiteConfig {
	return SiteConfig{BaseURL: "https://demo.nopcommerce.com"}
}

func (c SiteConfig) LoginURL() string { return c.BaseURL + "/login" }
func (c SiteConfig) CartURL() string  { return c.BaseURL + "/cart" }
func (c SiteConfig) HomeURL() string  { return c.BaseURL + "/" }

func (c SiteConfig) SearchURL(query string) string {
	return c.BaseURL + "/search?q=" + url.QueryEscape(query)
}

func (c SiteConfig) CategoryURL(path string) string {
	return c.BaseURL + path
}

// IsCompleted reports whether the given URL is the order-completed route.
func (c SiteConfig) IsCompleted(currentURL string) bool {
	return strings.Contains(currentURL, "/checkout/completed")
}

// IsLoginPage reports whether the given URL still points at the login route.
func IsLoginPage(currentURL string) bool {
	return strings.Contains(strings.ToLower(currentURL), "/login")
}

// Selectors for the storefront DOM.
const (
	selEmail       = "input#Email"
	selPassword    = "input#Password"
	selLoginButton = "button.login-button"
	selLogoutLink  = "a.ico-logout"

	selProductItem     = ".product-item"
	selProductTitle    = ".product-title"
	selProductPrice    = ".prices"
	selProductLink     = ".product-title a"
	selAddToCartButton = "button.product-box-add-to-cart-button"
	selSearchSubmit    = "button[type=submit]"

	selPriceSlider = "#price-range-slider"

	selTermsCheckbox    = "#termsofservice"
	selCheckoutButton   = "button.checkout-button"
	selBillingContinue  = "#billing-buttons-container button.new-address-next-step-button"
	selShippingContinue = "#shipping-buttons-container button.new-address-next-step-button"
	selShipMethodNext   = "button.shipping-method-next-step-button"
	selShipOptionFirst  = "#shippingoption_0"
	selPayMethodNext    = "button.payment-method-next-step-button"
	selPayOptionFirst   = "#paymentmethod_0"
	selPayInfoNext      = "button.payment-info-next-step-button"
	selConfirmOrder     = "button.confirm-order-next-step-button"
)

// searchInputCandidates are tried in priority order; the first one that
// appears wins.
var searchInputCandidates = []string{
	`input[id="small-searchterms"]`,
	`input[type="search"]`,
	`input[placeholder*="Search"]`,
}

// Timeouts for each interaction class.
const (
	navTimeout        = 60 * time.Second
	emailWaitTimeout  = 30 * time.Second
	fillTimeout       = 15 * time.Second
	submitWaitTimeout = 10 * time.Second
	logoutWaitTimeout = 20 * time.Second
	loginGateTimeout  = 5 * time.Second

	idleTimeout         = 10 * time.Second
	idleFallbackTimeout = 5 * time.Second

	searchInputTimeout = 8 * time.Second
	resultsWaitTimeout = 15 * time.Second
	filterSettleDelay  = 5 * time.Second
	filterIdleTimeout  = 15 * time.Second

	itemControlTimeout = 2 * time.Second
	itemSettleDelay    = 1 * time.Second

	checkoutStepTimeout = 15 * time.Second
	completionTimeout   = 30 * time.Second
	completionPollEvery = 500 * time.Millisecond
)

// priceCeiling is the upper sentinel used when only a lower bound is given:
// the storefront slider needs two values, and 10000 is understood as "no
// practical ceiling".
const priceCeiling = 10000

// PriceBounds turns the optional min/max filter into concrete slider bounds.
// The second return is false when no filter was requested at all.
func PriceBounds(minPrice, maxPrice *int) (from, to int, ok bool) {
	switch {
	case minPrice == nil && maxPrice == nil:
		return 0, 0, false
	case minPrice == nil:
		return 0, *maxPrice, true
	case maxPrice == nil:
		return *minPrice, priceCeiling, true
	default:
		return *minPrice, *maxPrice, true
	}
}

// sliderJS drives the storefront's jQuery UI price slider and triggers its
// product reload hook.
func sliderJS(from, to int) string {
	return fmt.Sprintf(`() => {
    const slider = $('#price-range-slider');
    if (slider.length && slider.slider) {
        slider.slider('values', [%d, %d]);
        $('.selected-price-range .from').text('%d');
        $('.selected-price-range .to').text('%d');
        if (typeof CatalogProducts !== 'undefined' && CatalogProducts.getProducts) {
            CatalogProducts.getProducts();
        }
    }
}`, from, to, from, to)
}
