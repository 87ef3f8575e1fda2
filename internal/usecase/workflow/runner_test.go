package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
	"shop-agent/internal/infrastructure/logger"
)

// fakeSession scripts the storefront DOM: which selectors are visible, what
// the product grid holds, and what clicking does.
type fakeSession struct {
	visible    map[string]bool
	counts     map[string]int
	products   []entity.ProductSnapshot
	addable    map[int]bool
	clickHooks map[string]func(s *fakeSession)

	url       string
	captures  []string
	persisted bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		visible:    make(map[string]bool),
		counts:     make(map[string]int),
		addable:    make(map[int]bool),
		clickHooks: make(map[string]func(*fakeSession)),
	}
}

func (s *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) error {
	s.url = url
	return nil
}

func (s *fakeSession) Fill(context.Context, string, string, time.Duration) error { return nil }

func (s *fakeSession) Click(_ context.Context, selector string, _ time.Duration) error {
	if !s.visible[selector] {
		return output.NewStepError("click", selector, output.ErrElementNotVisible)
	}
	if hook, ok := s.clickHooks[selector]; ok {
		hook(s)
	}
	return nil
}

func (s *fakeSession) Press(context.Context, string, string, time.Duration) error { return nil }

func (s *fakeSession) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	if s.visible[selector] {
		return nil
	}
	return output.NewStepError("wait visible", selector, output.ErrElementNotVisible)
}

func (s *fakeSession) WaitIdle(context.Context, time.Duration) error { return nil }

func (s *fakeSession) SetChecked(_ context.Context, selector string, _ bool, _ time.Duration) error {
	if !s.visible[selector] && s.counts[selector] == 0 {
		return output.NewStepError("set checked", selector, output.ErrElementNotVisible)
	}
	return nil
}

func (s *fakeSession) Eval(context.Context, string) error { return nil }

func (s *fakeSession) Count(_ context.Context, selector string) (int, error) {
	return s.counts[selector], nil
}

func (s *fakeSession) ClickChild(_ context.Context, _ string, index int, child string, _ time.Duration) error {
	if child == selAddToCartButton && s.addable[index] {
		return nil
	}
	return output.NewStepError("click child", child, output.ErrElementNotVisible)
}

func (s *fakeSession) Products(context.Context, output.ProductSelectors) ([]entity.ProductSnapshot, error) {
	return s.products, nil
}

func (s *fakeSession) CurrentURL() string { return s.url }

func (s *fakeSession) Capture(_ context.Context, label string) (entity.Artifact, error) {
	s.captures = append(s.captures, label)
	return entity.Artifact{StepLabel: label, ScreenshotPath: label + ".png"}, nil
}

func (s *fakeSession) HumanDelay() {}

func (s *fakeSession) PersistStorage(context.Context) error {
	s.persisted = true
	return nil
}

func (s *fakeSession) Close() {}

type fakeFactory struct {
	sessions []*fakeSession
	next     int
	openErr  error
}

func (f *fakeFactory) Open(context.Context, output.SessionConfig) (output.BrowserSession, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.next >= len(f.sessions) {
		return nil, fmt.Errorf("no more scripted sessions")
	}
	s := f.sessions[f.next]
	f.next++
	return s, nil
}

func newTestRunner(sessions ...*fakeSession) (*Runner, *fakeFactory) {
	factory := &fakeFactory{sessions: sessions}
	runner := NewRunner(factory, nil, logger.NewNopAdapter(), RunnerOptions{
		Site: SiteConfig{BaseURL: "https://shop.example"},
	})
	return runner, factory
}

// loggedInSession scripts a storefront where the login flow succeeds: the
// logout marker appears once the login button is clicked.
func loggedInSession() *fakeSession {
	s := newFakeSession()
	s.visible[selEmail] = true
	s.visible[selLoginButton] = true
	s.clickHooks[selLoginButton] = func(s *fakeSession) {
		s.visible[selLogoutLink] = true
	}
	return s
}

func checkoutLabels(result *entity.WorkflowResult) []string {
	var labels []string
	for _, a := range result.Artifacts {
		if strings.HasPrefix(a.StepLabel, "checkout-") {
			labels = append(labels, a.StepLabel)
		}
	}
	return labels
}

func TestRun_CheckoutEndToEnd(t *testing.T) {
	s := loggedInSession()
	s.counts[selProductItem] = 2
	s.counts[selTermsCheckbox] = 1
	s.products = []entity.ProductSnapshot{
		{Title: "First Prize Pies", Price: "$51.00"},
		{Title: "Fahrenheit 451", Price: "$27.00"},
	}
	s.addable[0] = true
	s.addable[1] = true
	for _, sel := range []string{
		selCheckoutButton, selBillingContinue, selShippingContinue,
		selShipMethodNext, selPayMethodNext, selPayInfoNext, selConfirmOrder,
	} {
		s.visible[sel] = true
	}
	s.clickHooks[selConfirmOrder] = func(s *fakeSession) {
		s.url = "https://shop.example/checkout/completed/1"
	}

	runner, _ := newTestRunner(s)
	result, err := runner.Run(context.Background(), entity.Intent{
		Action:      entity.ActionCheckout,
		Filters:     entity.Filters{MaxPrice: intPtr(50), Query: "books"},
		Credentials: entity.Credentials{Email: "a@b.com", Password: "x"},
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusOK, result.Status)

	var phases []entity.Phase
	for _, pr := range result.Phases {
		phases = append(phases, pr.Phase)
	}
	assert.Equal(t, []entity.Phase{
		entity.PhaseLogin, entity.PhaseSearch, entity.PhaseCart, entity.PhaseCheckout,
	}, phases)

	assert.Equal(t, len(result.Artifacts), result.TotalScreenshots)
	assert.Equal(t, "completed", result.PhaseResults[entity.PhaseCheckout])
	assert.Equal(t, 2, result.Phases[2].AddedCount)
	assert.True(t, s.persisted, "session state must be persisted after a confirmed login")
}

func TestRun_LoginGateBlocksDownstream(t *testing.T) {
	s := newFakeSession()
	s.visible[selEmail] = true
	s.visible[selLoginButton] = true
	// Logout marker never appears and the page stays on the login route.
	s.url = "https://shop.example/login"

	runner, _ := newTestRunner(s)
	result, err := runner.Run(context.Background(), entity.Intent{
		Action:      entity.ActionCheckout,
		Filters:     entity.Filters{Query: "books"},
		Credentials: entity.Credentials{Email: "a@b.com", Password: "x"},
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusLoginFailed, result.Status)

	counts := entity.CountByPhase(result.Artifacts)
	assert.Zero(t, counts[entity.PhaseSearch])
	assert.Zero(t, counts[entity.PhaseCart])
	assert.Zero(t, counts[entity.PhaseCheckout])
	assert.NotZero(t, counts[entity.PhaseLogin])
}

func TestRun_EmptyResultSet(t *testing.T) {
	s := loggedInSession()
	s.counts[selProductItem] = 0

	runner, _ := newTestRunner(s)
	result, err := runner.Run(context.Background(), entity.Intent{
		Action:  entity.ActionSearch,
		Filters: entity.Filters{MinPrice: intPtr(100)},
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusNoItems, result.Status)

	var phases []entity.Phase
	for _, pr := range result.Phases {
		phases = append(phases, pr.Phase)
	}
	assert.Equal(t, []entity.Phase{entity.PhaseLogin, entity.PhaseSearch}, phases)

	counts := entity.CountByPhase(result.Artifacts)
	assert.Zero(t, counts[entity.PhaseCart])
	assert.Zero(t, counts[entity.PhaseCheckout])
}

func TestRun_NothingAddable(t *testing.T) {
	s := loggedInSession()
	s.counts[selProductItem] = 2
	s.products = []entity.ProductSnapshot{{Title: "a"}, {Title: "b"}}
	// No add-to-cart buttons anywhere.

	runner, _ := newTestRunner(s)
	result, err := runner.Run(context.Background(), entity.Intent{
		Action:  entity.ActionCheckout,
		Filters: entity.Filters{Query: "books"},
	})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailedAdd, result.Status)
	assert.Zero(t, entity.CountByPhase(result.Artifacts)[entity.PhaseCheckout])

	cart := result.Phases[2]
	assert.Equal(t, 2, cart.ProductCount)
	assert.Equal(t, 0, cart.AddedCount)
	assert.Len(t, cart.Steps, 2)
}

func TestRun_LoginTimeoutIsError(t *testing.T) {
	s := newFakeSession()
	// Email field never appears.

	runner, _ := newTestRunner(s)
	result, err := runner.Run(context.Background(), entity.Intent{
		Action:      entity.ActionLogin,
		Credentials: entity.Credentials{Email: "a@b.com", Password: "x"},
	})

	require.Error(t, err)
	assert.Equal(t, entity.StatusError, result.Status)
	assert.GreaterOrEqual(t, len(result.Artifacts), 1, "failed runs still leave evidence")
	assert.Equal(t, entity.FailTimeout, result.Phases[0].Kind)
}

func TestRunCheckout_StateOrderWithSkips(t *testing.T) {
	s := newFakeSession()
	s.counts[selTermsCheckbox] = 1
	for _, sel := range []string{
		selCheckoutButton, selBillingContinue,
		selShipMethodNext, selPayMethodNext, selPayInfoNext, selConfirmOrder,
	} {
		s.visible[sel] = true
	}
	// Shipping-address continue never shows up: billing equals shipping.
	// The completion redirect never happens either; a short deadline keeps
	// the completion poll from running its full window.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	runner, _ := newTestRunner(s)
	pr := runner.runCheckout(ctx, s)

	assert.Equal(t, entity.StepSuccess, pr.Status)
	assert.Equal(t, "fallback", pr.Substatus, "no completion redirect scripted")

	result := entity.NewWorkflowResult()
	result.Absorb(pr)
	got := checkoutLabels(result)

	want := []string{
		"checkout-cart-page",
		"checkout-billing-address",
		"checkout-shipping-method",
		"checkout-payment-method",
		"checkout-payment-info",
		"checkout-confirm-order",
		"checkout-order-processing-fallback",
	}
	assert.Equal(t, want, got, "wizard artifacts must keep the fixed state order")

	var skipped []string
	for _, step := range pr.Steps {
		if step.Status == entity.StepSkipped {
			skipped = append(skipped, step.Name)
		}
	}
	assert.Contains(t, skipped, "shipping-address")
}

func TestSearchIsolated_RetriesWithFreshSession(t *testing.T) {
	first := newFakeSession() // search input never appears
	second := newFakeSession()
	second.visible[searchInputCandidates[0]] = true
	second.visible[selSearchSubmit] = true
	second.visible[selProductItem] = true
	second.products = []entity.ProductSnapshot{{Title: "Lenovo Thinkpad", Price: "$1360.00"}}

	runner, factory := newTestRunner(first, second)
	result, err := runner.SearchIsolated(context.Background(), entity.Intent{
		Action:  entity.ActionSearch,
		Filters: entity.Filters{Query: "laptop"},
	}, 3)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusOK, result.Status)
	assert.Equal(t, 2, factory.next, "second attempt must use a fresh browser")
	assert.Equal(t, 1, result.Phases[len(result.Phases)-1].ProductCount)
}
