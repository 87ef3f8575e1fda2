package workflow

import (
	"context"
	"fmt"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

// runCart adds every product visible on the current results page to the
// cart. Per-item failures are recorded and skipped, never fatal; only losing
// the page entirely fails the phase.
func (r *Runner) runCart(ctx context.Context, session output.BrowserSession) entity.PhaseResult {
	pr := entity.PhaseResult{Phase: entity.PhaseCart}

	count, err := session.Count(ctx, selProductItem)
	if err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	pr.ProductCount = count

	if count == 0 {
		r.capture(ctx, session, &pr, "cart-no-products")
		pr.Status = entity.StepSuccess
		pr.Substatus = "no-products"
		return pr
	}

	r.capture(ctx, session, &pr, "cart-before-adding-all")

	for i := 0; i < count; i++ {
		if err := session.ClickChild(ctx, selProductItem, i, selAddToCartButton, itemControlTimeout); err != nil {
			pr.Steps = append(pr.Steps, entity.StepResult{
				Name:   fmt.Sprintf("add-item-%d", i),
				Status: entity.StepSkipped,
				Reason: err.Error(),
			})
			continue
		}
		// The add is an AJAX call; give it a beat to register before the
		// next click.
		if err := ctxSleep(ctx, itemSettleDelay); err != nil {
			return r.failPhase(ctx, session, &pr, err)
		}
		pr.AddedCount++
	}
	r.logger.Info("cart additions done", "added", pr.AddedCount, "products", count)

	_ = session.WaitIdle(ctx, idleTimeout)
	r.capture(ctx, session, &pr, "cart-after-adding-all")

	if err := session.Navigate(ctx, r.site.CartURL(), navTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	_ = session.WaitIdle(ctx, idleTimeout)
	r.capture(ctx, session, &pr, "cart-with-all-products")

	pr.Status = entity.StepSuccess
	pr.Substatus = "added"
	if pr.AddedCount == 0 {
		pr.Substatus = "none-added"
	}
	return pr
}
