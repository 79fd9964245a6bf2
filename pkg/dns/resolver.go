package dns

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"

	"mailauth/domain/emailauth"
	"mailauth/pkg/logging"
)

// QueryTimeout bounds a single UDP or TCP exchange (spec.md §4.1: ~2s).
const QueryTimeout = 2 * time.Second

// LookupTimeout bounds one logical lookup, UDP attempt plus any TCP
// fallback (spec.md §4.1: ~4s overall).
const LookupTimeout = 4 * time.Second

// Client is the Resolver implementation backed by github.com/miekg/dns. It
// holds no per-request state; callers wrap it in a CachingResolver to get
// the request-scoped memoization spec.md §3 requires.
type Client struct {
	Servers []string
	logger  *logging.Logger
}

// NewClient builds a Client against the given "host:port" nameservers. When
// servers is empty, the system resolver configuration is used.
func NewClient(servers []string) *Client {
	if len(servers) == 0 {
		if cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cfg.Servers) > 0 {
			servers = []string{net.JoinHostPort(cfg.Servers[0], cfg.Port)}
		} else {
			servers = []string{"8.8.8.8:53"}
		}
	}
	return &Client{Servers: servers, logger: logging.NewLogger("dns", logging.LevelInfo, os.Stderr)}
}

func (c *Client) server() string {
	return c.Servers[0]
}

// exchange performs one query, UDP first, retrying over TCP when the UDP
// response is truncated or the UDP exchange itself fails transiently.
func (c *Client) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true

	udp := &dns.Client{Net: "udp", Timeout: QueryTimeout}
	r, _, err := udp.ExchangeContext(lookupCtx, m, c.server())
	if err == nil && r != nil && !r.Truncated {
		return r, nil
	}
	if err != nil {
		c.logger.Debug("UDP exchange failed for %s %s: %v, falling back to TCP", dns.TypeToString[qtype], name, err)
	} else {
		c.logger.Debug("UDP response truncated for %s %s, falling back to TCP", dns.TypeToString[qtype], name)
	}

	tcp := &dns.Client{Net: "tcp", Timeout: QueryTimeout}
	r, _, err = tcp.ExchangeContext(lookupCtx, m, c.server())
	if err != nil {
		return nil, err
	}
	return r, nil
}

func classify(r *dns.Msg, err error) emailauth.DNSStatus {
	if err != nil {
		return emailauth.DNSStatusTransient
	}
	switch r.Rcode {
	case dns.RcodeNameError:
		return emailauth.DNSStatusNXDomain
	case dns.RcodeServerFailure, dns.RcodeRefused:
		return emailauth.DNSStatusTransient
	case dns.RcodeSuccess:
		return emailauth.DNSStatusOK
	default:
		return emailauth.DNSStatusTransient
	}
}

func (c *Client) lookup(ctx context.Context, name string, qtype uint16, extract func(dns.RR) (string, bool)) emailauth.DNSAnswer {
	r, err := c.exchange(ctx, name, qtype)
	status := classify(r, err)
	if status != emailauth.DNSStatusOK {
		if status == emailauth.DNSStatusTransient && err == nil {
			err = fmt.Errorf("dns rcode %s", dns.RcodeToString[r.Rcode])
		}
		return emailauth.DNSAnswer{Status: status, Err: err}
	}

	var records []string
	for _, rr := range r.Answer {
		if v, ok := extract(rr); ok {
			records = append(records, v)
		}
	}
	if len(records) == 0 {
		return emailauth.DNSAnswer{Status: emailauth.DNSStatusNoData}
	}
	return emailauth.DNSAnswer{Status: emailauth.DNSStatusOK, Records: records}
}

// LookupTXT concatenates each TXT record's character-strings verbatim, one
// joined string per resource record; callers that need the record set
// flattened (SPF/DMARC record source) join across records themselves.
func (c *Client) LookupTXT(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.lookup(ctx, name, dns.TypeTXT, func(rr dns.RR) (string, bool) {
		if txt, ok := rr.(*dns.TXT); ok {
			return strings.Join(txt.Txt, ""), true
		}
		return "", false
	})
}

func (c *Client) LookupA(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.lookup(ctx, name, dns.TypeA, func(rr dns.RR) (string, bool) {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), true
		}
		return "", false
	})
}

func (c *Client) LookupAAAA(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.lookup(ctx, name, dns.TypeAAAA, func(rr dns.RR) (string, bool) {
		if aaaa, ok := rr.(*dns.AAAA); ok {
			return aaaa.AAAA.String(), true
		}
		return "", false
	})
}

func (c *Client) LookupMX(ctx context.Context, name string) emailauth.DNSAnswer {
	return c.lookup(ctx, name, dns.TypeMX, func(rr dns.RR) (string, bool) {
		if mx, ok := rr.(*dns.MX); ok {
			return strings.TrimSuffix(mx.Mx, "."), true
		}
		return "", false
	})
}

// LookupPTR expects ip in dotted/colon literal form and reverses it into
// the in-addr.arpa/ip6.arpa query name itself.
func (c *Client) LookupPTR(ctx context.Context, ip string) emailauth.DNSAnswer {
	arpa, err := dns.ReverseAddr(ip)
	if err != nil {
		return emailauth.DNSAnswer{Status: emailauth.DNSStatusTransient, Err: err}
	}
	return c.lookup(ctx, arpa, dns.TypePTR, func(rr dns.RR) (string, bool) {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), true
		}
		return "", false
	})
}
