// Package input contains the input ports (interfaces) for the application
package input

import (
	"context"

	"mailauth/domain/emailauth"
)

// EmailAuthPort defines the input interface driving one end-to-end
// SPF/DKIM/DMARC check.
type EmailAuthPort interface {
	// Check runs SPF, DKIM and DMARC for one candidate message and returns
	// the aggregate Verdict, bounded by the service's per-request deadline.
	Check(ctx context.Context, req emailauth.CheckRequest) (*emailauth.Verdict, error)
}
