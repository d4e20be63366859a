package recon

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	log "github.com/sirupsen/logrus"
)

const (
	axfrDialTimeout = 10 * time.Second
	axfrReadTimeout = 30 * time.Second
)

// ZoneTransfer implements engine.SeedExpander by attempting AXFR against
// every nameserver of a zone. Refused transfers are the common case and are
// not errors.
type ZoneTransfer struct {
	// Port is the nameserver port, 53 when empty.
	Port string

	lookupNS func(ctx context.Context, zone string) ([]string, error)
}

// NewZoneTransfer returns an expander that finds nameservers with the system
// resolver.
func NewZoneTransfer() *ZoneTransfer {
	return &ZoneTransfer{
		lookupNS: func(ctx context.Context, zone string) ([]string, error) {
			records, err := net.DefaultResolver.LookupNS(ctx, zone)
			if err != nil {
				return nil, err
			}
			hosts := make([]string, 0, len(records))
			for _, ns := range records {
				hosts = append(hosts, strings.TrimSuffix(ns.Host, "."))
			}
			return hosts, nil
		},
	}
}

// Expand returns the names inside zone from every nameserver that allows a
// transfer.
func (z *ZoneTransfer) Expand(ctx context.Context, zone string) ([]string, error) {
	nameservers, err := z.lookupNS(ctx, zone)
	if err != nil {
		return nil, fmt.Errorf("NS lookup for %s: %w", zone, err)
	}
	if len(nameservers) == 0 {
		return nil, fmt.Errorf("no NS records for %s", zone)
	}

	port := z.Port
	if port == "" {
		port = "53"
	}

	seen := make(map[string]bool)
	var names []string
	for _, ns := range nameservers {
		// Respect context cancellation between nameserver attempts.
		if err := ctx.Err(); err != nil {
			return names, err
		}

		hosts, err := attemptAXFR(zone, net.JoinHostPort(ns, port))
		if err != nil {
			log.WithField("nameserver", ns).WithError(err).Debug("zone transfer refused")
			continue
		}
		for _, h := range hosts {
			if !seen[h] {
				seen[h] = true
				names = append(names, h)
			}
		}
	}
	return names, nil
}

// attemptAXFR performs a zone transfer against a single nameserver address.
func attemptAXFR(zone, addr string) ([]string, error) {
	transfer := &dns.Transfer{
		DialTimeout: axfrDialTimeout,
		ReadTimeout: axfrReadTimeout,
	}

	msg := new(dns.Msg)
	msg.SetAxfr(dns.Fqdn(zone))

	envelopes, err := transfer.In(msg, addr)
	if err != nil {
		return nil, fmt.Errorf("AXFR to %s: %w", addr, err)
	}

	zone = normalizeName(zone)
	suffix := "." + zone

	seen := make(map[string]bool)
	var names []string
	for env := range envelopes {
		if env.Error != nil {
			return nil, fmt.Errorf("AXFR from %s: %w", addr, env.Error)
		}
		for _, rr := range env.RR {
			name := normalizeName(rr.Header().Name)
			if name == "" || name == zone || !strings.HasSuffix(name, suffix) {
				continue
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}
