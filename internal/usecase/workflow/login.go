package workflow

import (
	"context"

	"shop-agent/internal/application/port/output"
	"shop-agent/internal/domain/entity"
)

// runLogin walks the login form: load, fill, submit, then wait for the
// logout marker or a redirect away from the login route. The phase itself
// only fails on a hard timeout or protocol error; whether the login actually
// took is decided by the orchestrator's gate afterwards.
func (r *Runner) runLogin(ctx context.Context, session output.BrowserSession, creds entity.Credentials) entity.PhaseResult {
	pr := entity.PhaseResult{Phase: entity.PhaseLogin}

	if err := session.Navigate(ctx, r.site.LoginURL(), navTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	if err := session.WaitVisible(ctx, selEmail, emailWaitTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	session.HumanDelay()
	r.capture(ctx, session, &pr, "login-page-loaded")

	if err := session.Fill(ctx, selEmail, creds.Email, fillTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	session.HumanDelay()
	if err := session.Fill(ctx, selPassword, creds.Password, fillTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	session.HumanDelay()
	r.capture(ctx, session, &pr, "login-credentials-filled")

	if err := session.WaitVisible(ctx, selLoginButton, submitWaitTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}
	if err := session.Click(ctx, selLoginButton, submitWaitTimeout); err != nil {
		return r.failPhase(ctx, session, &pr, err)
	}

	if err := session.WaitVisible(ctx, selLogoutLink, logoutWaitTimeout); err == nil {
		if idleErr := session.WaitIdle(ctx, idleTimeout); idleErr != nil {
			pr.Steps = append(pr.Steps, entity.StepResult{
				Name: "post-login-idle", Status: entity.StepSkipped, Reason: idleErr.Error(),
			})
		}
	} else if !IsLoginPage(session.CurrentURL()) {
		// Redirected somewhere else without the marker: give the landing
		// page a moment to settle.
		_ = session.WaitIdle(ctx, idleFallbackTimeout)
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "post-login-marker", Status: entity.StepSkipped, Reason: "redirected without logout marker",
		})
	} else {
		pr.Steps = append(pr.Steps, entity.StepResult{
			Name: "post-login-marker", Status: entity.StepFailed, Reason: "still on login page",
		})
	}

	r.capture(ctx, session, &pr, "login-landing-page")

	pr.Status = entity.StepSuccess
	pr.Substatus = "ok"
	return pr
}
