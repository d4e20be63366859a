package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vulnverified/altsweep/internal/domain"
	"github.com/vulnverified/altsweep/internal/permute"
)

// Config holds the runtime configuration for a run.
type Config struct {
	Domains        []string
	Words          []string
	NumberSuffix   bool
	IgnoreExisting bool
	Ports          []int
	PortTimeout    time.Duration
	Whois          bool
	Concurrency    int
}

// Stages holds the injectable stage implementations. Scanner, Owner and
// Expander may be nil to disable the stage.
type Stages struct {
	Store    CandidateStore
	Resolver DNSResolver
	Scanner  PortScanner
	Owner    OwnershipLookup
	Expander SeedExpander
}

// ProgressReporter is called by the engine to report progress and results.
type ProgressReporter interface {
	Stage(num, total int, msg string)
	Detail(msg string)
	Warn(msg string)
	Estimate(s Snapshot)
	Found(r Resolution)
}

const totalStages = 3

// Run generates candidates from the seed domains, deduplicates them and
// resolves the survivors, appending resolved lines to sink.
func Run(ctx context.Context, cfg Config, stages Stages, sink io.Writer, progress ProgressReporter) (*RunResult, error) {
	result := &RunResult{
		StartedAt: time.Now(),
		Domains:   len(cfg.Domains),
	}

	// Stage 1: Candidate generation.
	progress.Stage(1, totalStages, fmt.Sprintf("Generating permutations for %d domains with %d words...", len(cfg.Domains), len(cfg.Words)))
	gen := &permute.Generator{Words: cfg.Words, NumberSuffix: cfg.NumberSuffix}

	var known map[string]struct{}
	if cfg.IgnoreExisting {
		known = make(map[string]struct{}, len(cfg.Domains))
	}

	seeds := make([]domain.Name, 0, len(cfg.Domains))
	seen := make(map[string]bool, len(cfg.Domains))
	for _, raw := range cfg.Domains {
		name, err := domain.Parse(raw)
		if err != nil {
			log.WithField("input", raw).WithError(err).Debug("skipping seed domain")
			progress.Warn(fmt.Sprintf("skipping %q: %s", raw, err))
			result.Skipped = append(result.Skipped, raw)
			continue
		}
		if known != nil {
			known[domain.Normalize(raw)] = struct{}{}
		}
		seen[name.String()] = true
		seeds = append(seeds, name)
	}

	if stages.Expander != nil {
		extra := expandSeeds(ctx, stages.Expander, seeds, seen, result, progress)
		for _, name := range extra {
			if known != nil {
				known[name.String()] = struct{}{}
			}
		}
		seeds = append(seeds, extra...)
		result.Expanded = len(extra)
	}

	for _, name := range seeds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for c := range gen.Permute(name) {
			if err := stages.Store.Append(c); err != nil {
				return nil, fmt.Errorf("store candidate: %w", err)
			}
			result.Generated++
		}
	}
	progress.Detail(fmt.Sprintf("Generated %d raw candidates", result.Generated))

	// Stage 2: Deduplication.
	progress.Stage(2, totalStages, "Removing duplicates...")
	candidates, err := stages.Store.Finalize(known)
	if err != nil {
		return nil, fmt.Errorf("finalize candidates: %w", err)
	}
	result.Candidates = len(candidates)
	progress.Detail(fmt.Sprintf("%d unique candidates", len(candidates)))

	if len(candidates) == 0 {
		progress.Warn("No candidates to resolve")
		finish(result)
		return result, nil
	}

	// Stage 3: Resolution.
	workers := cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	progress.Stage(3, totalStages, fmt.Sprintf("Resolving %d candidates with %d workers...", len(candidates), workers))

	pipeline := NewPipeline(cfg, stages, progress)
	resolved, err := pipeline.Run(ctx, candidates, sink)
	result.Resolved = resolved
	result.Processed = pipeline.Tracker.Snapshot().Completed
	result.Suppressed = pipeline.Throttle.Suppressed()
	if err != nil {
		return nil, fmt.Errorf("resolution failed: %w", err)
	}
	result.Interrupted = ctx.Err() != nil

	progress.Detail(fmt.Sprintf("%d candidates resolved, %d values throttled", len(resolved), len(result.Suppressed)))
	finish(result)
	return result, nil
}

// expandSeeds asks the expander once per registrable domain and returns the
// parseable names it found that are not seeds already.
func expandSeeds(ctx context.Context, ex SeedExpander, seeds []domain.Name, seen map[string]bool, result *RunResult, progress ProgressReporter) []domain.Name {
	zones := make(map[string]bool)
	var extra []domain.Name

	for _, s := range seeds {
		zone := s.Domain + "." + s.Suffix
		if zones[zone] {
			continue
		}
		zones[zone] = true
		if ctx.Err() != nil {
			break
		}

		hosts, err := ex.Expand(ctx, zone)
		if err != nil {
			log.WithField("zone", zone).WithError(err).Debug("seed expansion failed")
			continue
		}
		if len(hosts) == 0 {
			continue
		}
		result.ZoneTransfers = append(result.ZoneTransfers, zone)

		added := 0
		for _, h := range hosts {
			name, err := domain.Parse(h)
			if err != nil || seen[name.String()] {
				continue
			}
			seen[name.String()] = true
			extra = append(extra, name)
			added++
		}
		progress.Warn(fmt.Sprintf("zone transfer allowed for %s: %d new seed domains", zone, added))
	}
	return extra
}

func finish(result *RunResult) {
	result.CompletedAt = time.Now()
	result.DurationSecs = result.CompletedAt.Sub(result.StartedAt).Seconds()
}
