package engine

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

// Mock implementations for testing.

type memStore struct {
	mu        sync.Mutex
	lines     []string
	known     map[string]struct{}
	appendErr error
}

func (m *memStore) Append(candidate string) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, candidate)
	return nil
}

func (m *memStore) Finalize(known map[string]struct{}) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known = known
	seen := make(map[string]bool)
	var out []string
	for _, l := range m.lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		if _, ok := known[l]; ok {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

type mapResolver struct {
	cnames map[string]string
	addrs  map[string]string
}

func (m *mapResolver) LookupCNAME(ctx context.Context, host string) (string, error) {
	if v, ok := m.cnames[host]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", host, ErrNoRecord)
}

func (m *mapResolver) LookupA(ctx context.Context, host string) (string, error) {
	if v, ok := m.addrs[host]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", host, ErrNoRecord)
}

type hopResolver struct {
	mapResolver
	hops map[string]string
}

func (h *hopResolver) CloudHop(ctx context.Context, value string) (string, error) {
	return h.hops[value], nil
}

type mockScanner struct {
	open []int
}

func (m *mockScanner) Scan(ctx context.Context, host string, ports []int, timeout time.Duration) []int {
	return m.open
}

type mockOwner struct {
	owner *Ownership
	err   error
}

func (m *mockOwner) Lookup(ctx context.Context, host string) (*Ownership, error) {
	return m.owner, m.err
}

type recordingProgress struct {
	mu        sync.Mutex
	estimates []Snapshot
	found     []Resolution
	warnings  []string
}

func (p *recordingProgress) Stage(num, total int, msg string) {}
func (p *recordingProgress) Detail(msg string)                {}

func (p *recordingProgress) Warn(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings = append(p.warnings, msg)
}

func (p *recordingProgress) Estimate(s Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.estimates = append(p.estimates, s)
}

func (p *recordingProgress) Found(r Resolution) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.found = append(p.found, r)
}

func sinkLines(buf *bytes.Buffer) []string {
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	sort.Strings(lines)
	return lines
}

func TestEngine_FullRun(t *testing.T) {
	stages := Stages{
		Store: &memStore{},
		Resolver: &mapResolver{
			cnames: map[string]string{"dev-api.example.com": "edge.example.net"},
			addrs:  map[string]string{"api.dev.example.com": "1.2.3.4"},
		},
	}
	cfg := Config{
		Domains:     []string{"dev.example.com"},
		Words:       []string{"api"},
		Concurrency: 4,
	}

	var sink bytes.Buffer
	progress := &recordingProgress{}
	result, err := Run(context.Background(), cfg, stages, &sink, progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Generated != 6 {
		t.Errorf("generated = %d, want 6", result.Generated)
	}
	if result.Candidates != 6 {
		t.Errorf("candidates = %d, want 6", result.Candidates)
	}
	if result.Processed != 6 {
		t.Errorf("processed = %d, want 6", result.Processed)
	}
	if len(result.Resolved) != 2 {
		t.Fatalf("resolved = %d, want 2", len(result.Resolved))
	}

	want := []string{"api.dev.example.com:1.2.3.4", "dev-api.example.com:edge.example.net"}
	if got := sinkLines(&sink); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("sink = %q, want %q", got, want)
	}
	if len(progress.found) != 2 {
		t.Errorf("found callbacks = %d, want 2", len(progress.found))
	}
	if result.DurationSecs <= 0 {
		t.Error("duration should be positive")
	}
}

func TestEngine_IgnoreExisting(t *testing.T) {
	store := &memStore{}
	stages := Stages{Store: store, Resolver: &mapResolver{}}
	cfg := Config{
		Domains:        []string{"dev.example.com", "API.dev.example.com"},
		Words:          []string{"api"},
		IgnoreExisting: true,
		Concurrency:    2,
	}

	result, err := Run(context.Background(), cfg, stages, &bytes.Buffer{}, &recordingProgress{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := store.known["api.dev.example.com"]; !ok {
		t.Errorf("known inputs = %v, want normalized seed domains", store.known)
	}
	candidates, _ := store.Finalize(store.known)
	for _, c := range candidates {
		if c == "api.dev.example.com" || c == "dev.example.com" {
			t.Errorf("seed domain %q survived ignore-existing", c)
		}
	}
	if result.Candidates != len(candidates) {
		t.Errorf("candidates = %d, want %d", result.Candidates, len(candidates))
	}
}

func TestEngine_KnownInputsNilWithoutIgnoreExisting(t *testing.T) {
	store := &memStore{}
	stages := Stages{Store: store, Resolver: &mapResolver{}}
	cfg := Config{Domains: []string{"dev.example.com"}, Words: []string{"api"}, Concurrency: 1}

	if _, err := Run(context.Background(), cfg, stages, &bytes.Buffer{}, &recordingProgress{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.known != nil {
		t.Errorf("known = %v, want nil", store.known)
	}
}

func TestEngine_SkipsUnparseableDomains(t *testing.T) {
	stages := Stages{Store: &memStore{}, Resolver: &mapResolver{}}
	cfg := Config{
		Domains:     []string{"10.0.0.1", "dev.example.com", "com"},
		Words:       []string{"api"},
		Concurrency: 1,
	}

	hook := logtest.NewGlobal()
	defer hook.Reset()

	progress := &recordingProgress{}
	result, err := Run(context.Background(), cfg, stages, &bytes.Buffer{}, progress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Skipped seeds are reported once, through progress.
	for _, e := range hook.AllEntries() {
		if e.Level <= log.WarnLevel {
			t.Errorf("unexpected %s log entry: %s", e.Level, e.Message)
		}
	}
	if len(result.Skipped) != 2 {
		t.Errorf("skipped = %v, want 2 entries", result.Skipped)
	}
	if len(progress.warnings) < 2 {
		t.Errorf("warnings = %v", progress.warnings)
	}
	if result.Generated != 6 {
		t.Errorf("generated = %d, want 6", result.Generated)
	}
}

func TestEngine_StoreFailureIsFatal(t *testing.T) {
	stages := Stages{
		Store:    &memStore{appendErr: fmt.Errorf("disk full")},
		Resolver: &mapResolver{},
	}
	cfg := Config{Domains: []string{"dev.example.com"}, Words: []string{"api"}, Concurrency: 1}

	_, err := Run(context.Background(), cfg, stages, &bytes.Buffer{}, &recordingProgress{})
	if err == nil {
		t.Fatal("expected error when the store cannot be written")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v", err)
	}
}

func TestEngine_NoCandidates(t *testing.T) {
	stages := Stages{Store: &memStore{}, Resolver: &mapResolver{}}
	cfg := Config{Domains: []string{"dev.example.com"}, Concurrency: 1}

	result, err := Run(context.Background(), cfg, stages, &bytes.Buffer{}, &recordingProgress{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Candidates != 0 || len(result.Resolved) != 0 {
		t.Errorf("candidates = %d, resolved = %d, want 0", result.Candidates, len(result.Resolved))
	}
}

func TestEngine_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stages := Stages{Store: &memStore{}, Resolver: &mapResolver{}}
	cfg := Config{Domains: []string{"dev.example.com"}, Words: []string{"api"}, Concurrency: 1}

	_, err := Run(ctx, cfg, stages, &bytes.Buffer{}, &recordingProgress{})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestEngine_InterruptedDuringResolution(t *testing.T) {
	resolver := newBlockingResolver()
	stages := Stages{Store: &memStore{}, Resolver: resolver}
	cfg := Config{Domains: []string{"dev.example.com"}, Words: []string{"api", "staging", "v2"}, Concurrency: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-resolver.started
		cancel()
	}()

	result, err := Run(ctx, cfg, stages, &bytes.Buffer{}, &recordingProgress{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Interrupted {
		t.Error("interrupted = false, want true")
	}
	if result.Processed >= result.Candidates {
		t.Errorf("processed = %d of %d, want a partial count", result.Processed, result.Candidates)
	}
}

type mockExpander struct {
	mu    sync.Mutex
	zones map[string][]string
	calls []string
}

func (m *mockExpander) Expand(ctx context.Context, zone string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, zone)
	if hosts, ok := m.zones[zone]; ok {
		return hosts, nil
	}
	return nil, fmt.Errorf("transfer refused for %s", zone)
}

func TestEngine_SeedExpansion(t *testing.T) {
	store := &memStore{}
	expander := &mockExpander{zones: map[string][]string{
		"example.com": {"mail.example.com", "dev.example.com", "*.example.com", "10.0.0.1"},
	}}
	stages := Stages{Store: store, Resolver: &mapResolver{}, Expander: expander}
	cfg := Config{
		Domains:        []string{"dev.example.com", "www.example.com", "app.example.org"},
		Words:          []string{"api"},
		IgnoreExisting: true,
		Concurrency:    1,
	}

	result, err := Run(context.Background(), cfg, stages, &bytes.Buffer{}, &recordingProgress{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(expander.calls) != 2 {
		t.Errorf("expander called for %v, want once per zone", expander.calls)
	}
	// mail.example.com and the bare example.com are new; dev.example.com is a seed.
	if result.Expanded != 2 {
		t.Errorf("expanded = %d, want 2", result.Expanded)
	}
	if len(result.ZoneTransfers) != 1 || result.ZoneTransfers[0] != "example.com" {
		t.Errorf("zone transfers = %v", result.ZoneTransfers)
	}
	if _, ok := store.known["mail.example.com"]; !ok {
		t.Error("expanded seed not treated as existing")
	}

	var fromExpanded bool
	for _, l := range store.lines {
		if l == "api.mail.example.com" {
			fromExpanded = true
		}
	}
	if !fromExpanded {
		t.Error("no candidates generated from the expanded seed")
	}
}
