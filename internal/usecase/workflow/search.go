package workflow

import (
	"context"
	"strings"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

// runSearch navigates to the best-matching listing (category path when the
// intent carries one, generic search otherwise), applies the price filter if
// requested, and counts what is on the page.
func (r *Runner) runSearch(ctx context.Context, session output.BrowserSession, intent entity.Intent) entity.PhaseResult {
	pr := entity.PhaseResult{Phase: entity.PhaseSearch}

	if err := session.Navigate(ctx, r.listingURL(intent), navTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	if err := session.WaitIdle(ctx, idleTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "results-idle", Status: entity.StepSkipped, Reason: err.Error(),
		})
	}
	r.capture(ctx, session, &pr, "search-results-page")

	r.applyPriceFilter(ctx, session, &pr, intent)

	session.HumanDelay()
	r.capture(ctx, session, &pr, "search-filter-applied")

	products, err := session.Products(ctx, output.ProductSelectors{
		Item:  selProductItem,
		Title: selProductTitle,
		Price: selProductPrice,
		Link:  selProductLink,
	})
	if err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}

	pr.ProductCount = len(products)
	pr.Status = entity.StepSuccess
	pr.Substatus = "ok"
	if pr.ProductCount == 0 {
		pr.Substatus = "no-results"
	}
	return pr
}

func (r *Runner) listingURL(intent entity.Intent) string {
	if strings.HasPrefix(intent.Subcategory, "/") {
		return r.site.CategoryURL(intent.Subcategory)
	}
	if strings.HasPrefix(intent.Category, "/") {
		return r.site.CategoryURL(intent.Category)
	}
	return r.site.SearchURL(intent.Filters.Query)
}

// applyPriceFilter drives the storefront price slider. The control being
// absent or the script failing is non-fatal: the phase proceeds unfiltered
// and the skip is recorded.
func (r *Runner) applyPriceFilter(ctx context.Context, session output.BrowserSession, pr *entity.PhaseResult, intent entity.Intent) {
	from, to, ok := PriceBounds(intent.Filters.MinPrice, intent.Filters.MaxPrice)
	if !ok {
		return
	}

	count, err := session.Count(ctx, selPriceSlider)
	if err != nil || count == 0 {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "price-filter", Status: entity.StepSkipped, Reason: "slider not present",
		})
		return
	}

	if err := session.Eval(ctx, sliderJS(from, to)); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "price-filter", Status: entity.StepFailed, Reason: err.Error(),
		})
		return
	}

	// Server-side re-filtering happens over AJAX; give it a fixed settle
	// window before trusting the DOM again.
	_ = ctxSleep(ctx, filterSettleDelay)
	_ = session.WaitIdle(ctx, filterIdleTimeout)

	pr.Steps = append(pr.Steps, entity.StepResult{Name: "price-filter", Status: entity.StepSuccess})
	r.logger.Info("price filter applied", "from", from, "to", to)
}

// searchAttempt is one isolated-mode search pass: fresh browser, home page,
// search box flow. Used by SearchIsolated, which owns the retry loop.
func (r *Runner) searchAttempt(ctx context.Context, intent entity.Intent) (entity.PhaseResult, error) {
	pr := entity.PhaseResult{Phase: entity.PhaseSearch}

	session, err := r.openSession(ctx)
	if err != nil {
		pr.Status = entity.StepFailed
		pr.Kind = output.KindOf(err)
		pr.Message = err.Error()
		return pr, err
	}
	defer session.Close()

	if err := session.Navigate(ctx, r.site.HomeURL(), navTimeout); err != nil {
		r.failPhase(ctx, session, &pr, err)
		return pr, err
	}
	_ = session.WaitIdle(ctx, idleTimeout)

	inputSel := ""
	for _, candidate := range searchInputCandidates {
		if err := session.WaitVisible(ctx, candidate, searchInputTimeout); err == nil {
			inputSel = candidate
			break
		}
	}
	if inputSel == "" {
		err := output.NewStepError("search input", strings.Join(searchInputCandidates, ", "), output.ErrElementNotVisible)
		r.failPhase(ctx, session, &pr, err)
		return pr, err
	}

	session.HumanDelay()
	if err := session.Fill(ctx, inputSel, intent.Filters.Query, fillTimeout); err != nil {
		r.failPhase(ctx, session, &pr, err)
		return pr, err
	}
	session.HumanDelay()
	if err := session.Click(ctx, selSearchSubmit, searchInputTimeout); err != nil {
		if err := session.Press(ctx, inputSel, "Enter", searchInputTimeout); err != nil {
			r.failPhase(ctx, session, &pr, err)
			return pr, err
		}
	}

	if err := session.WaitVisible(ctx, selProductItem, resultsWaitTimeout); err != nil {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "results-wait", Status: entity.StepSkipped, Reason: "no product items appeared",
		})
	}
	r.capture(ctx, session, &pr, "search-results-page")

	r.applyPriceFilter(ctx, session, &pr, intent)
	session.HumanDelay()
	r.capture(ctx, session, &pr, "search-filter-applied")

	products, err := session.Products(ctx, output.ProductSelectors{
		Item:  selProductItem,
		Title: selProductTitle,
		Price: selProductPrice,
		Link:  selProductLink,
	})
	if err != nil {
		r.failPhase(ctx, session, &pr, err)
		return pr, err
	}

	pr.ProductCount = len(products)
	pr.Status = entity.StepSuccess
	pr.Substatus = "ok"
	if pr.ProductCount == 0 {
		pr.Substatus = "no-results"
	}
	return pr, nil
}
