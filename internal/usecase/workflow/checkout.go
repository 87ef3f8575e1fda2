package workflow

import (
	"context"
	"time"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

// runCheckout walks the fixed checkout wizard: cart, terms, billing,
// shipping address, shipping method, payment method, payment info, confirm.
// A step whose continue control never shows up is assumed not applicable for
// this flow variant and skipped; the walker never goes backwards. Completion
// is best-effort-verified against the order-completed route.
func (r *Runner) runCheckout(ctx context.Context, session output.BrowserSession) entity.PhaseResult {
	pr := entity.PhaseResult{Phase: entity.PhaseCheckout}

	if err := session.Navigate(ctx, r.site.CartURL(), navTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	_ = session.WaitIdle(ctx, idleTimeout)

	r.acceptTerms(ctx, session, &pr)
	r.capture(ctx, session, &pr, "checkout-cart-page")

	if err := session.WaitVisible(ctx, selCheckoutButton, checkoutStepTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "checkout-button", Status: entity.StepFailed, Reason: err.Error(),
		})
		pr.Status = entity.StepSuccess
		pr.Substatus = "cart-only"
		return pr
	}
	if err := session.Click(ctx, selCheckoutButton, checkoutStepTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	_ = session.WaitIdle(ctx, idleTimeout)

	// Billing is the one step captured before its continue click: the
	// pre-filled address is the evidence worth keeping.
	if err := session.WaitVisible(ctx, selBillingContinue, checkoutStepTimeout); err == nil {
		r.capture(ctx, session, &pr, "checkout-billing-address")
		if err := session.Click(ctx, selBillingContinue, checkoutStepTimeout); err == nil {
			_ = session.WaitIdle(ctx, idleTimeout)
			pr.Steps = append(pr.Steps, entity.StepResult{Name: "billing-address", Status: entity.StepSuccess})
		} else {
			pr.Steps = append(pr.Steps, entity.StepResult{
				Name: "billing-address", Status: entity.StepFailed, Reason: err.Error(),
			})
		}
	} else {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "billing-address", Status: entity.StepSkipped, Reason: "continue control not visible",
		})
	}

	r.advance(ctx, session, &pr, wizardStep{
		name:         "shipping-address",
		continueSel:  selShippingContinue,
		captureAfter: true,
	})
	r.advance(ctx, session, &pr, wizardStep{
		name:        "shipping-method",
		continueSel: selShipMethodNext,
		optionSel:   selShipOptionFirst,
	})
	r.advance(ctx, session, &pr, wizardStep{
		name:        "payment-method",
		continueSel: selPayMethodNext,
		optionSel:   selPayOptionFirst,
	})
	r.advance(ctx, session, &pr, wizardStep{
		name:        "payment-info",
		continueSel: selPayInfoNext,
	})

	pr.Substatus = r.confirmOrder(ctx, session, &pr)
	pr.Status = entity.StepSuccess
	return pr
}

func (r *Runner) acceptTerms(ctx context.Context, session output.BrowserSession, pr *entity.PhaseResult) {
	count, err := session.Count(ctx, selTermsCheckbox)
	if err != nil || count == 0 {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "terms-acceptance", Status: entity.StepSkipped, Reason: "checkbox not present",
		})
		return
	}
	if err := session.SetChecked(ctx, selTermsCheckbox, true, checkoutStepTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "terms-acceptance", Status: entity.StepFailed, Reason: err.Error(),
		})
		return
	}
	session.HumanDelay()
	pr.Steps = append(pr.Steps, entity.StepResult{Name: "terms-acceptance", Status: entity.StepSuccess})
}

// wizardStep describes one intermediate checkout screen. optionSel, when
// set, is a radio input selected before continuing. captureAfter flips the
// artifact to after the click, matching screens whose interesting state is
// the result of advancing.
type wizardStep struct {
	name         string
	continueSel  string
	optionSel    string
	captureAfter bool
}

func (r *Runner) advance(ctx context.Context, session output.BrowserSession, pr *entity.PhaseResult, step wizardStep) {
	if err := session.WaitVisible(ctx, step.continueSel, checkoutStepTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: step.name, Status: entity.StepSkipped, Reason: "continue control not visible",
		})
		return
	}

	if step.optionSel != "" {
		if err := session.SetChecked(ctx, step.optionSel, true, itemControlTimeout); err != nil {
			pr.Steps = append(pr.Steps, entity.StepResult{
				Name: step.name + "-option", Status: entity.StepSkipped, Reason: err.Error(),
			})
		}
		session.HumanDelay()
	}

	if !step.captureAfter {
		r.capture(ctx, session, pr, "checkout-"+step.name)
	}

	if err := session.Click(ctx, step.continueSel, checkoutStepTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: step.name, Status: entity.StepFailed, Reason: err.Error(),
		})
		return
	}
	_ = session.WaitIdle(ctx, idleTimeout)

	if step.captureAfter {
		r.capture(ctx, session, pr, "checkout-"+step.name)
	}

	session.HumanDelay()
	pr.Steps = append(pr.Steps, entity.StepResult{Name: step.name, Status: entity.StepSuccess})
}

// confirmOrder clicks the final confirm control and waits for the redirect
// to the completion route. Returns the phase substatus: "completed" when the
// thank-you page was reached, "fallback" when it was not, "not-confirmed"
// when the confirm control never appeared.
func (r *Runner) confirmOrder(ctx context.Context, session output.BrowserSession, pr *entity.PhaseResult) string {
	if err := session.WaitVisible(ctx, selConfirmOrder, checkoutStepTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "confirm-order", Status: entity.StepSkipped, Reason: "continue control not visible",
		})
		return "not-confirmed"
	}

	r.capture(ctx, session, pr, "checkout-confirm-order")

	if err := session.Click(ctx, selConfirmOrder, checkoutStepTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "confirm-order", Status: entity.StepFailed, Reason: err.Error(),
		})
		return "not-confirmed"
	}

	if r.waitForCompletion(ctx, session) {
		_ = session.WaitIdle(ctx, idleTimeout)
		session.HumanDelay()
		r.capture(ctx, session, pr, "checkout-thank-you-page")
		pr.Steps = append(pr.Steps, entity.StepResult{Name: "confirm-order", Status: entity.StepSuccess})
		return "completed"
	}

	r.logger.Warn("order completion redirect not observed", "url", session.CurrentURL())
	r.capture(ctx, session, pr, "checkout-order-processing-fallback")
	pr.Steps = append(pr.Steps, entity.StepResult{
		Name: "confirm-order", Status: entity.StepFailed, Reason: "completion route not reached",
	})
	return "fallback"
}

func (r *Runner) waitForCompletion(ctx context.Context, session output.BrowserSession) bool {
	deadline := time.Now().Add(completionTimeout)
	for time.Now().Before(deadline) {
		if r.site.IsCompleted(session.CurrentURL()) {
			return true
		}
		if err := ctxSleep(ctx, completionPollEvery); err != nil {
			return false
		}
	}
	return r.site.IsCompleted(session.CurrentURL())
}
