// Package engine orchestrates candidate generation and resolution.
package engine

import (
	"context"
	"errors"
	"time"
)

// RecordType is the DNS record type a candidate resolved through.
type RecordType string

const (
	RecordCNAME RecordType = "CNAME"
	RecordA     RecordType = "A"
)

// Lookup failure kinds. Resolver implementations wrap one of these so callers
// can tell an absent record from a failed query.
var (
	ErrNoRecord      = errors.New("no record")
	ErrTimeout       = errors.New("timeout")
	ErrMalformed     = errors.New("malformed response")
	ErrServerFailure = errors.New("server failure")
)

// RunResult is the top-level output of a run.
type RunResult struct {
	StartedAt     time.Time      `json:"started_at"`
	CompletedAt   time.Time      `json:"completed_at"`
	DurationSecs  float64        `json:"duration_secs"`
	Domains       int            `json:"domains"`
	Skipped       []string       `json:"skipped,omitempty"`
	Expanded      int            `json:"expanded,omitempty"`
	ZoneTransfers []string       `json:"zone_transfers,omitempty"`
	Generated     int            `json:"generated"`
	Candidates    int            `json:"candidates"`
	Processed     int            `json:"processed"`
	Resolved      []Resolution   `json:"resolved"`
	Suppressed    map[string]int `json:"suppressed,omitempty"`
	Interrupted   bool           `json:"interrupted,omitempty"`
}

// Resolution is one candidate that resolved.
type Resolution struct {
	Target    string     `json:"target"`
	Type      RecordType `json:"type"`
	Value     string     `json:"value"`
	OpenPorts []int      `json:"open_ports,omitempty"`
	Ownership *Ownership `json:"ownership,omitempty"`
	Hop       string     `json:"hop,omitempty"`
}

// Ownership is network registration data for the address a candidate resolved to.
type Ownership struct {
	Description string   `json:"description,omitempty"`
	ASN         string   `json:"asn,omitempty"`
	CIDR        string   `json:"cidr,omitempty"`
	Country     string   `json:"country,omitempty"`
	Date        string   `json:"date,omitempty"`
	Emails      []string `json:"emails,omitempty"`
}

// CandidateStore accumulates raw candidates and returns them deduplicated.
type CandidateStore interface {
	Append(candidate string) error
	Finalize(known map[string]struct{}) ([]string, error)
}

// DNSResolver looks up the records a candidate is probed for.
type DNSResolver interface {
	LookupCNAME(ctx context.Context, host string) (string, error)
	LookupA(ctx context.Context, host string) (string, error)
}

// PortScanner returns the subset of ports accepting TCP connections on host.
type PortScanner interface {
	Scan(ctx context.Context, host string, ports []int, timeout time.Duration) []int
}

// OwnershipLookup fetches registration data for host's address.
type OwnershipLookup interface {
	Lookup(ctx context.Context, host string) (*Ownership, error)
}

// CloudHopper is an optional interface that DNSResolver implementations can
// satisfy to follow one more CNAME hop when a value points into a cloud provider.
// It returns an empty string when the value is not cloud hosted.
type CloudHopper interface {
	CloudHop(ctx context.Context, value string) (string, error)
}

// SeedExpander finds further names inside a zone, such as through a zone
// transfer. An expander with nothing to add returns no names and no error.
type SeedExpander interface {
	Expand(ctx context.Context, zone string) ([]string, error)
}
