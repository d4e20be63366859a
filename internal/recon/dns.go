package recon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/vulnverified/altsweep/internal/engine"
)

const (
	defaultDNSTimeout = time.Second
	retryBackoff      = 100 * time.Millisecond
)

var resolvConfPath = "/etc/resolv.conf"

// Resolver implements engine.DNSResolver.
//
// With Server set, every query goes to that nameserver. Otherwise CNAME queries
// go to the first nameserver in resolv.conf and A queries use the system
// resolver, as does everything when resolv.conf is unreadable.
type Resolver struct {
	Server  string
	Timeout time.Duration
	Retries int

	system string
	client *dns.Client
	net    *net.Resolver
}

// NewResolver creates a resolver. server may be empty, an address, or
// address:port; port 53 is assumed when missing.
func NewResolver(server string, timeout time.Duration, retries int) (*Resolver, error) {
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}
	if retries < 0 {
		retries = 0
	}

	r := &Resolver{
		Timeout: timeout,
		Retries: retries,
		client:  &dns.Client{Timeout: timeout},
		net:     net.DefaultResolver,
	}

	if server = strings.TrimSpace(server); server != "" {
		r.Server = serverAddr(server)
		return r, nil
	}

	if conf, err := dns.ClientConfigFromFile(resolvConfPath); err == nil && len(conf.Servers) > 0 {
		r.system = net.JoinHostPort(conf.Servers[0], conf.Port)
	}
	return r, nil
}

func serverAddr(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}

// LookupCNAME returns the CNAME target of host without its trailing dot.
func (r *Resolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	server := r.Server
	if server == "" {
		server = r.system
	}
	if server == "" {
		return r.systemCNAME(ctx, host)
	}

	in, err := r.exchange(ctx, host, dns.TypeCNAME, server)
	if err != nil {
		return "", err
	}
	for _, rr := range in.Answer {
		if c, ok := rr.(*dns.CNAME); ok {
			return normalizeName(c.Target), nil
		}
	}
	return "", lookupError(host, dns.TypeCNAME, engine.ErrNoRecord, nil)
}

// LookupA returns the first IPv4 address of host.
func (r *Resolver) LookupA(ctx context.Context, host string) (string, error) {
	if r.Server == "" {
		return r.systemA(ctx, host)
	}

	in, err := r.exchange(ctx, host, dns.TypeA, r.Server)
	if err != nil {
		return "", err
	}
	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", lookupError(host, dns.TypeA, engine.ErrNoRecord, nil)
}

// CloudHop implements engine.CloudHopper.
func (r *Resolver) CloudHop(ctx context.Context, value string) (string, error) {
	if !CloudHosted(value) {
		return "", nil
	}
	return r.LookupCNAME(ctx, value)
}

func (r *Resolver) exchange(ctx context.Context, host string, qtype uint16, server string) (*dns.Msg, error) {
	var in *dns.Msg
	err := r.retry(ctx, func(qctx context.Context) error {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), qtype)
		m.RecursionDesired = true

		resp, _, err := r.client.ExchangeContext(qctx, m, server)
		if err != nil {
			return lookupError(host, qtype, classifyDNSError(err), err)
		}
		if kind := rcodeKind(resp.Rcode); kind != nil {
			return lookupError(host, qtype, kind, fmt.Errorf("rcode %s from %s", dns.RcodeToString[resp.Rcode], server))
		}
		in = resp
		return nil
	})
	return in, err
}

func (r *Resolver) systemCNAME(ctx context.Context, host string) (string, error) {
	var cname string
	err := r.retry(ctx, func(qctx context.Context) error {
		target, err := r.net.LookupCNAME(qctx, host)
		if err != nil {
			return lookupError(host, dns.TypeCNAME, classifyDNSError(err), err)
		}
		cname = normalizeName(target)
		return nil
	})
	if err != nil {
		return "", err
	}
	// The system resolver answers with the name itself when there is no CNAME.
	if cname == "" || cname == normalizeName(host) {
		return "", lookupError(host, dns.TypeCNAME, engine.ErrNoRecord, nil)
	}
	return cname, nil
}

func (r *Resolver) systemA(ctx context.Context, host string) (string, error) {
	var addr string
	err := r.retry(ctx, func(qctx context.Context) error {
		addrs, err := r.net.LookupIPAddr(qctx, host)
		if err != nil {
			return lookupError(host, dns.TypeA, classifyDNSError(err), err)
		}
		for _, a := range addrs {
			if ip4 := a.IP.To4(); ip4 != nil {
				addr = ip4.String()
				return nil
			}
		}
		return lookupError(host, dns.TypeA, engine.ErrNoRecord, nil)
	})
	return addr, err
}

// retry runs fn with a per-attempt timeout, retrying timeouts up to r.Retries
// times with linear backoff.
func (r *Resolver) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= r.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}

		qctx, cancel := context.WithTimeout(ctx, r.Timeout)
		err = fn(qctx)
		cancel()

		if err == nil || !errors.Is(err, engine.ErrTimeout) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}
