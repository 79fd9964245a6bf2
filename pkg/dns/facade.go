// Package dns provides the DNS Facade: a typed resolver wrapper over
// github.com/miekg/dns offering TXT/A/AAAA/MX/PTR lookups with UDP-then-TCP
// fallback, plus a request-scoped memoization layer for use by the SPF and
// DMARC evaluators.
package dns

import (
	"context"

	"mailauth/domain/emailauth"
)

// RecordType enumerates the query types the Facade serves.
type RecordType string

const (
	TypeTXT  RecordType = "TXT"
	TypeA    RecordType = "A"
	TypeAAAA RecordType = "AAAA"
	TypeMX   RecordType = "MX"
	TypePTR  RecordType = "PTR"
)

// Resolver is the DNS Facade's port: one typed lookup per supported record
// type, each returning an ordered (possibly empty) record list plus a
// status distinguishing NODATA, NXDOMAIN, and transient failure.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) emailauth.DNSAnswer
	LookupA(ctx context.Context, name string) emailauth.DNSAnswer
	LookupAAAA(ctx context.Context, name string) emailauth.DNSAnswer
	LookupMX(ctx context.Context, name string) emailauth.DNSAnswer
	LookupPTR(ctx context.Context, ip string) emailauth.DNSAnswer
}

// normalize lowercases a name and strips a single trailing dot, matching
// the DNSCacheKey normalization spec.md §3 requires.
func normalize(name string) string {
	return emailauth.NormalizeDomain(name)
}
