package workflow

import (
	"context"
	"fmt"
	"time"

	"shop-agent/internal/application/port/input"
	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

var _ input.WorkflowRunner = (*Runner)(nil)

// Runner drives a full shopping workflow inside one browser session:
// login, then search, cart and checkout as far as the requested action goes.
// Phases share the session, so authentication carries through.
type Runner struct {
	sessions output.SessionFactory
	proxies  output.ProxySelector
	logger   output.LoggerPort

	site        SiteConfig
	headless    bool
	storagePath string
}

type RunnerOptions struct {
	Site        SiteConfig
	Headless    bool
	StoragePath string
}

func NewRunner(sessions output.SessionFactory, proxies output.ProxySelector, logger output.LoggerPort, opts RunnerOptions) *Runner {
	if opts.Site.BaseURL == "" {
		opts.Site = DefaultSite()
	}
	return &Runner{
		sessions:    sessions,
		proxies:     proxies,
		logger:      logger,
		site:        opts.Site,
		headless:    opts.Headless,
		storagePath: opts.StoragePath,
	}
}

// Run executes the workflow for one intent. Business outcomes (login gate
// missed, empty result set, nothing added) come back as a result with a nil
// error; only unhandled phase failures return an error, so the task layer
// can apply its redelivery policy.
func (r *Runner) Run(ctx context.Context, intent entity.Intent) (*entity.WorkflowResult, error) {
	result := entity.NewWorkflowResult()

	session, err := r.openSession(ctx)
	if err != nil {
		result.Status = entity.StatusError
		result.Message = err.Error()
		result.Finalize()
		return result, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	log := r.logger.WithField("action", string(intent.Action))

	log.Info("login phase started")
	loginRes := r.runLogin(ctx, session, intent.Credentials)
	result.Absorb(loginRes)
	if loginRes.Status == entity.StepFailed {
		result.Status = entity.StatusError
		result.Message = loginRes.Message
		result.Finalize()
		return result, fmt.Errorf("login phase: %s", loginRes.Message)
	}

	// Hard gate: every downstream phase needs an authenticated session.
	if err := session.WaitVisible(ctx, selLogoutLink, loginGateTimeout); err != nil {
		log.Warn("login gate missed, no logout marker", "error", err)
		result.Status = entity.StatusLoginFailed
		result.Finalize()
		return result, nil
	}
	log.Info("login confirmed")

	defer r.persistSession(ctx, session, log)

	if !intent.Action.NeedsSearch() {
		result.Status = entity.StatusOK
		result.Finalize()
		return result, nil
	}

	log.Info("search phase started", "query", intent.Filters.Query)
	searchRes := r.runSearch(ctx, session, intent)
	result.Absorb(searchRes)
	if searchRes.Status == entity.StepFailed {
		result.Status = entity.StatusError
		result.Message = searchRes.Message
		result.Finalize()
		return result, fmt.Errorf("search phase: %s", searchRes.Message)
	}
	if searchRes.ProductCount == 0 {
		result.Status = entity.StatusNoItems
		result.Finalize()
		return result, nil
	}

	if !intent.Action.NeedsCart() {
		result.Status = entity.StatusOK
		result.Finalize()
		return result, nil
	}

	log.Info("cart phase started", "products", searchRes.ProductCount)
	cartRes := r.runCart(ctx, session)
	result.Absorb(cartRes)
	if cartRes.Status == entity.StepFailed {
		result.Status = entity.StatusError
		result.Message = cartRes.Message
		result.Finalize()
		return result, fmt.Errorf("cart phase: %s", cartRes.Message)
	}
	if cartRes.AddedCount == 0 {
		result.Status = entity.StatusFailedAdd
		result.Finalize()
		return result, nil
	}

	if !intent.Action.NeedsCheckout() {
		result.Status = entity.StatusOK
		result.Finalize()
		return result, nil
	}

	log.Info("checkout phase started", "added", cartRes.AddedCount)
	checkoutRes := r.runCheckout(ctx, session)
	result.Absorb(checkoutRes)
	if checkoutRes.Status == entity.StepFailed {
		result.Status = entity.StatusError
		result.Message = checkoutRes.Message
		result.Finalize()
		return result, fmt.Errorf("checkout phase: %s", checkoutRes.Message)
	}

	result.Status = entity.StatusOK
	result.Finalize()
	return result, nil
}

// SearchIsolated runs only the search phase, opening a fresh browser per
// attempt with linear backoff between attempts.
func (r *Runner) SearchIsolated(ctx context.Context, intent entity.Intent, attempts int) (*entity.WorkflowResult, error) {
	if attempts < 1 {
		attempts = 1
	}
	result := entity.NewWorkflowResult()
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		pr, err := r.searchAttempt(ctx, intent)
		result.Absorb(pr)
		if err == nil {
			if pr.ProductCount == 0 {
				result.Status = entity.StatusNoItems
			} else {
				result.Status = entity.StatusOK
			}
			result.Finalize()
			return result, nil
		}

		lastErr = err
		r.logger.Warn("isolated search attempt failed",
			"attempt", attempt+1, "error", err)
		if attempt < attempts-1 {
			backoff := time.Second + time.Duration(attempt)*1500*time.Millisecond
			if err := ctxSleep(ctx, backoff); err != nil {
				break
			}
		}
	}

	result.Status = entity.StatusError
	if lastErr != nil {
		result.Message = lastErr.Error()
	}
	result.Finalize()
	return result, fmt.Errorf("isolated search: %w", lastErr)
}

func (r *Runner) openSession(ctx context.Context) (output.BrowserSession, error) {
	cfg := output.SessionConfig{
		Headless:    r.headless,
		StoragePath: r.storagePath,
	}
	if r.proxies != nil && r.proxies.Has() {
		cfg.ProxyURL = r.proxies.Next()
	}
	return r.sessions.Open(ctx, cfg)
}

func (r *Runner) persistSession(ctx context.Context, session output.BrowserSession, log output.LoggerPort) {
	if err := session.PersistStorage(ctx); err != nil {
		log.Warn("session persist failed", "error", err)
	}
}

func (r *Runner) capture(ctx context.Context, session output.BrowserSession, pr *entity.PhaseResult, label string) {
	art, err := session.Capture(ctx, label)
	if err != nil {
		r.logger.Warn("artifact capture failed", "label", label, "error", err)
		return
	}
	pr.Artifacts = append(pr.Artifacts, art)
}

// failPhase marks the phase failed and captures one last evidence artifact.
// The label suffix distinguishes timeouts from other exceptions.
func (r *Runner) failPhase(ctx context.Context, session output.BrowserSession, pr *entity.PhaseResult, err error) entity.PhaseResult {
	pr.Status = entity.StepFailed
	pr.Kind = output.KindOf(err)
	pr.Message = err.Error()
	pr.Substatus = "error"

	suffix := "exc"
	if pr.Kind == entity.FailTimeout {
		suffix = "err"
	}
	r.capture(ctx, session, pr, fmt.Sprintf("%s-%s", pr.Phase, suffix))
	return *pr
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
