package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// A resolved value is reported at most throttleLimit+1 times.
	throttleLimit = 3
	estimateEvery = 500
)

// Pipeline resolves candidates with a fixed pool of workers.
type Pipeline struct {
	cfg      Config
	stages   Stages
	progress ProgressReporter

	Throttle *Throttle
	Tracker  *Tracker
}

// NewPipeline creates a pipeline with its own throttle table.
func NewPipeline(cfg Config, stages Stages, progress ProgressReporter) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		stages:   stages,
		progress: progress,
		Throttle: NewThrottle(throttleLimit),
		Tracker:  NewTracker(0),
	}
}

// Run resolves every candidate and appends one "<target>:<value>" line per
// reported result to sink. Lookup failures drop the candidate; only a failed
// sink write stops the run. Cancelling ctx drains the workers and returns what
// was reported so far.
func (p *Pipeline) Run(ctx context.Context, candidates []string, sink io.Writer) ([]Resolution, error) {
	p.Tracker = NewTracker(len(candidates))

	workers := p.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	tasks := make(chan string)
	results := make(chan Resolution, workers)

	g.Go(func() error {
		defer close(tasks)
		for _, c := range candidates {
			select {
			case tasks <- c:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for target := range tasks {
				if gctx.Err() != nil {
					return nil
				}
				res, ok := p.process(gctx, target)
				if !ok {
					continue
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var reported []Resolution
	g.Go(func() error {
		for res := range results {
			if _, err := io.WriteString(sink, res.Target+":"+res.Value+"\n"); err != nil {
				return fmt.Errorf("write resolved output: %w", err)
			}
			reported = append(reported, res)
			p.progress.Found(res)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return reported, err
	}
	return reported, nil
}

// process resolves one candidate. It reports false when the candidate has no
// record or its value is throttled.
func (p *Pipeline) process(ctx context.Context, target string) (Resolution, bool) {
	if snap := p.Tracker.Advance(); snap.Completed%estimateEvery == 0 {
		p.progress.Estimate(snap)
	}

	res, ok := p.lookup(ctx, target)
	if !ok {
		return res, false
	}
	if !p.Throttle.Allow(res.Value) {
		log.WithFields(log.Fields{"host": target, "value": res.Value}).Debug("throttled")
		return res, false
	}

	if len(p.cfg.Ports) > 0 && p.stages.Scanner != nil {
		res.OpenPorts = p.stages.Scanner.Scan(ctx, target, p.cfg.Ports, p.cfg.PortTimeout)
	}

	if p.cfg.Whois && p.stages.Owner != nil {
		owner, err := p.stages.Owner.Lookup(ctx, target)
		if err != nil {
			log.WithField("host", target).WithError(err).Debug("ownership lookup failed")
		} else {
			res.Ownership = owner
		}
	}

	if hopper, ok := p.stages.Resolver.(CloudHopper); ok {
		hop, err := hopper.CloudHop(ctx, res.Value)
		if err != nil {
			logLookupError(res.Value, "CNAME", err)
		}
		res.Hop = hop
	}

	return res, true
}

func (p *Pipeline) lookup(ctx context.Context, target string) (Resolution, bool) {
	cname, err := p.stages.Resolver.LookupCNAME(ctx, target)
	if err == nil && cname != "" {
		return Resolution{Target: target, Type: RecordCNAME, Value: cname}, true
	}
	logLookupError(target, "CNAME", err)

	addr, err := p.stages.Resolver.LookupA(ctx, target)
	if err == nil && addr != "" {
		return Resolution{Target: target, Type: RecordA, Value: addr}, true
	}
	logLookupError(target, "A", err)

	return Resolution{}, false
}

// logLookupError records failed queries at debug level. Absent records are the
// expected outcome for most candidates and are not logged.
func logLookupError(host, qtype string, err error) {
	if err == nil || errors.Is(err, ErrNoRecord) || errors.Is(err, context.Canceled) {
		return
	}
	log.WithFields(log.Fields{"host": host, "type": qtype}).WithError(err).Debug("lookup failed")
}
