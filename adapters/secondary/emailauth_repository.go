// Package secondary contains the secondary adapters (implementing output ports)
package secondary

import (
	"context"

	"mailauth/domain/emailauth"
	"mailauth/pkg/dns"
)

// EmailAuthRepository adapts a pkg/dns.Resolver to the output.EmailAuthRepository
// port. It is intentionally a thin pass-through: the SPF/DKIM/DMARC protocol
// logic lives in pkg/emailauth, not here.
type EmailAuthRepository struct {
	resolver dns.Resolver
}

// NewEmailAuthRepository wraps resolver as the email authentication output port.
func NewEmailAuthRepository(resolver dns.Resolver) *EmailAuthRepository {
	return &EmailAuthRepository{resolver: resolver}
}

func (r *EmailAuthRepository) LookupTXT(ctx context.Context, name string) emailauth.DNSAnswer {
	return r.resolver.LookupTXT(ctx, name)
}

func (r *EmailAuthRepository) LookupA(ctx context.Context, name string) emailauth.DNSAnswer {
	return r.resolver.LookupA(ctx, name)
}

func (r *EmailAuthRepository) LookupAAAA(ctx context.Context, name string) emailauth.DNSAnswer {
	return r.resolver.LookupAAAA(ctx, name)
}

func (r *EmailAuthRepository) LookupMX(ctx context.Context, name string) emailauth.DNSAnswer {
	return r.resolver.LookupMX(ctx, name)
}

func (r *EmailAuthRepository) LookupPTR(ctx context.Context, ip string) emailauth.DNSAnswer {
	return r.resolver.LookupPTR(ctx, ip)
}
