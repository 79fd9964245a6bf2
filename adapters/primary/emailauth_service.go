// Package primary contains the primary adapters (implementing input ports)
package primary

import (
	"context"
	"time"

	"mailauth/domain/emailauth"
	emailauthpkg "mailauth/pkg/emailauth"
	"mailauth/pkg/timeout"
	"mailauth/ports/output"
)

// EmailAuthAdapter implements the EmailAuth input port by driving the
// pkg/emailauth orchestrator, bounding the whole check by the per-request
// deadline spec.md §5 mandates.
type EmailAuthAdapter struct {
	orchestrator *emailauthpkg.Orchestrator
	deadline     time.Duration
}

// NewEmailAuthAdapter wires repository as the orchestrator's DNS resolver.
func NewEmailAuthAdapter(repository output.EmailAuthRepository, verifier emailauthpkg.Verifier) *EmailAuthAdapter {
	return &EmailAuthAdapter{
		orchestrator: emailauthpkg.NewOrchestrator(repository, verifier),
		deadline:     timeout.DefaultTimeout,
	}
}

// Check runs one end-to-end SPF/DKIM/DMARC check, yielding TEMPERROR for SPF
// and DMARC if the deadline expires before they complete.
func (a *EmailAuthAdapter) Check(ctx context.Context, req emailauth.CheckRequest) (*emailauth.Verdict, error) {
	verdict, err := timeout.WithTimeoutResult(ctx, a.deadline, func(ctx context.Context) (emailauth.Verdict, error) {
		return a.orchestrator.Check(ctx, req), nil
	})
	if err != nil {
		verdict.SPF.Result = emailauth.ResultTempError
		verdict.DMARC.Result = emailauth.ResultTempError
		verdict.Domain = req.NormalizedDomain()
		return &verdict, nil
	}
	return &verdict, nil
}
