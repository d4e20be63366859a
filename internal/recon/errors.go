package recon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
	"github.com/vulnverified/altsweep/internal/engine"
)

// LookupError is a failed DNS query. Kind is one of the engine lookup kinds;
// both Kind and the underlying error match with errors.Is.
type LookupError struct {
	Host string
	Type string
	Kind error
	Err  error
}

func (e *LookupError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Type, e.Host, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Type, e.Host, e.Kind, e.Err)
}

func (e *LookupError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func lookupError(host string, qtype uint16, kind, err error) *LookupError {
	return &LookupError{Host: host, Type: dns.TypeToString[qtype], Kind: kind, Err: err}
}

// rcodeKind maps a response code to a lookup kind. It returns nil for success.
func rcodeKind(rcode int) error {
	switch rcode {
	case dns.RcodeSuccess:
		return nil
	case dns.RcodeNameError:
		return engine.ErrNoRecord
	case dns.RcodeFormatError:
		return engine.ErrMalformed
	default:
		return engine.ErrServerFailure
	}
}

// classifyDNSError maps a transport or resolver error to a lookup kind.
func classifyDNSError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return engine.ErrTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		switch {
		case dnsErr.IsNotFound:
			return engine.ErrNoRecord
		case dnsErr.IsTimeout:
			return engine.ErrTimeout
		default:
			return engine.ErrServerFailure
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return engine.ErrTimeout
	}

	for _, malformed := range []error{dns.ErrId, dns.ErrShortRead, dns.ErrBuf, dns.ErrRdata, dns.ErrLongDomain} {
		if errors.Is(err, malformed) {
			return engine.ErrMalformed
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such host"):
		return engine.ErrNoRecord
	case strings.Contains(msg, "i/o timeout"):
		return engine.ErrTimeout
	case strings.Contains(msg, "bad rdata"), strings.Contains(msg, "overflow unpacking"):
		return engine.ErrMalformed
	}
	return engine.ErrServerFailure
}
