package recon

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/likexian/whois"
	"github.com/vulnverified/altsweep/internal/engine"
)

const defaultWhoisTimeout = 10 * time.Second

var errNoOwnership = errors.New("no ownership data in whois response")

// AddrResolver resolves a hostname to one IPv4 address.
type AddrResolver interface {
	LookupA(ctx context.Context, host string) (string, error)
}

// Whois implements engine.OwnershipLookup by resolving the host and querying
// the registry that owns its address.
type Whois struct {
	Resolver AddrResolver

	query func(ip string) (string, error)
}

// NewWhois creates a Whois lookup that resolves hosts through resolver.
func NewWhois(resolver AddrResolver, timeout time.Duration) *Whois {
	if timeout <= 0 {
		timeout = defaultWhoisTimeout
	}
	client := whois.NewClient().SetTimeout(timeout)
	return &Whois{
		Resolver: resolver,
		query: func(ip string) (string, error) {
			return client.Whois(ip)
		},
	}
}

func (w *Whois) Lookup(ctx context.Context, host string) (*engine.Ownership, error) {
	ip, err := w.Resolver.LookupA(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", host, err)
	}

	type reply struct {
		raw string
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		raw, err := w.query(ip)
		ch <- reply{raw, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("whois %s: %w", ip, r.err)
		}
		own := ParseWhois(r.raw)
		if own == nil {
			return nil, fmt.Errorf("whois %s: %w", ip, errNoOwnership)
		}
		return own, nil
	}
}

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// Field keys in priority order. ARIN, RIPE, APNIC and LACNIC spell these
// differently.
var (
	descriptionKeys = []string{"orgname", "org-name", "owner", "descr", "netname"}
	asnKeys         = []string{"originas", "origin", "aut-num"}
	cidrKeys        = []string{"cidr", "route", "inetnum", "netrange", "inet6num"}
	countryKeys     = []string{"country"}
	dateKeys        = []string{"regdate", "created", "registration date"}
)

// ParseWhois extracts ownership fields from a raw whois response. It returns
// nil when nothing recognizable is present.
func ParseWhois(raw string) *engine.Ownership {
	fields := make(map[string]string)
	var emails []string
	seenEmail := make(map[string]bool)

	for line := range strings.Lines(raw) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}

		for _, e := range emailRe.FindAllString(line, -1) {
			e = strings.ToLower(e)
			if !seenEmail[e] {
				seenEmail[e] = true
				emails = append(emails, e)
			}
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		if _, dup := fields[key]; !dup {
			fields[key] = val
		}
	}

	own := &engine.Ownership{
		Description: first(fields, descriptionKeys),
		ASN:         strings.TrimPrefix(strings.ToUpper(first(fields, asnKeys)), "AS"),
		CIDR:        first(fields, cidrKeys),
		Country:     strings.ToUpper(first(fields, countryKeys)),
		Date:        first(fields, dateKeys),
		Emails:      emails,
	}
	if own.Description == "" && own.ASN == "" && own.CIDR == "" && own.Country == "" && len(emails) == 0 {
		return nil
	}
	return own
}

func first(fields map[string]string, keys []string) string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			return v
		}
	}
	return ""
}
