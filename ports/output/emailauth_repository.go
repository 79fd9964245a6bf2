// Package output contains the output ports (interfaces) for the application
package output

import (
	"context"

	"mailauth/domain/emailauth"
)

// EmailAuthRepository is the output port the email authentication service
// depends on for DNS resolution, kept distinct from pkg/dns.Resolver so the
// adapters layer stays free to swap the concrete DNS implementation without
// touching the domain-facing port.
type EmailAuthRepository interface {
	LookupTXT(ctx context.Context, name string) emailauth.DNSAnswer
	LookupA(ctx context.Context, name string) emailauth.DNSAnswer
	LookupAAAA(ctx context.Context, name string) emailauth.DNSAnswer
	LookupMX(ctx context.Context, name string) emailauth.DNSAnswer
	LookupPTR(ctx context.Context, ip string) emailauth.DNSAnswer
}
