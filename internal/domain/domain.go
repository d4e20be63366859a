// Package domain splits hostnames into subdomain labels, registrable domain and
// public suffix.
package domain

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrNotDomain is returned for input that cannot be split into labels.
var ErrNotDomain = errors.New("not a domain name")

// Name is a hostname split around its public suffix.
//
// Labels holds the subdomain portion. A bare registrable domain has a single
// empty label, so "example.com" parses to Labels [""].
type Name struct {
	Labels Labels
	Domain string
	Suffix string
}

// Parse splits raw into a Name using the public suffix list.
func Parse(raw string) (Name, error) {
	host := Normalize(raw)
	if host == "" {
		return Name{}, fmt.Errorf("%w: empty input", ErrNotDomain)
	}
	if net.ParseIP(host) != nil {
		return Name{}, fmt.Errorf("%w: %s is an IP address", ErrNotDomain, host)
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return Name{}, fmt.Errorf("%w: %s: %v", ErrNotDomain, host, err)
	}
	suffix, _ := publicsuffix.PublicSuffix(host)

	sub := strings.TrimSuffix(strings.TrimSuffix(host, registrable), ".")
	return Name{
		Labels: strings.Split(sub, "."),
		Domain: strings.TrimSuffix(registrable, "."+suffix),
		Suffix: suffix,
	}, nil
}

// Normalize lowercases raw and strips surrounding space, a trailing dot and a
// leading wildcard label.
func Normalize(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "*.")
}

// With returns a copy of n carrying different subdomain labels.
func (n Name) With(labels Labels) Name {
	n.Labels = labels
	return n
}

// String assembles the fully-qualified name.
func (n Name) String() string {
	sub := n.Labels.String()
	if sub == "" {
		return n.Domain + "." + n.Suffix
	}
	return sub + "." + n.Domain + "." + n.Suffix
}

// Labels is an ordered sequence of subdomain labels. Operations never modify
// the receiver.
type Labels []string

// Insert returns a copy with label placed at index i, shifting the rest right.
// i may equal len(l) to append.
func (l Labels) Insert(i int, label string) Labels {
	out := make(Labels, 0, len(l)+1)
	out = append(out, l[:i]...)
	out = append(out, label)
	return append(out, l[i:]...)
}

// Substitute returns a copy with the label at index i replaced.
func (l Labels) Substitute(i int, label string) Labels {
	out := make(Labels, len(l))
	copy(out, l)
	out[i] = label
	return out
}

// String joins the labels with dots.
func (l Labels) String() string {
	return strings.Join(l, ".")
}
