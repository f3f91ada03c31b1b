// Package batch resolves many sites concurrently. Sites share one throttled
// HTTP client so a large batch does not hammer hosts, and progress is
// streamed as events while results are returned in input order.
package batch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/sync/errgroup"

	"github.com/lukemcguire/xmlrpcfind/resolver"
	"github.com/lukemcguire/xmlrpcfind/result"
)

// Runner coordinates parallel resolutions with a bounded worker pool.
type Runner struct {
	cfg        Config
	client     *http.Client
	throttle   *Throttle
	progressCh chan<- Event

	mu       sync.Mutex
	done     int
	resolved int
	failed   int
}

// New creates a Runner with the given configuration.
// The progressCh parameter is optional; pass nil to disable progress events.
// The runner never closes progressCh.
func New(cfg Config, progressCh chan<- Event) *Runner {
	cfg = cfg.withDefaults()

	throttle := NewThrottle(cfg.RateLimit, cfg.TargetRTT)
	if cfg.FixedRate {
		throttle.Fix(cfg.RateLimit)
	}

	base := cfg.Client
	if base == nil {
		base = cleanhttp.DefaultPooledClient()
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	client := *base
	client.Transport = &throttledTransport{next: next, throttle: throttle}

	return &Runner{
		cfg:        cfg,
		client:     &client,
		throttle:   throttle,
		progressCh: progressCh,
	}
}

// Throttle exposes the shared rate limiter.
func (r *Runner) Throttle() *Throttle {
	return r.throttle
}

// Run resolves every configured site and returns their results in input
// order. A site that fails to resolve is a result, not an error; Run only
// fails if ctx ends first.
func (r *Runner) Run(ctx context.Context) (*result.Result, error) {
	start := time.Now()
	sites := r.cfg.Sites
	results := make([]result.SiteResult, len(sites))

	probeCh := make(chan resolver.ProbeEvent, r.cfg.Concurrency*3)
	rcfg := r.cfg.Resolver
	rcfg.Events = probeCh
	res := resolver.New(r.client, rcfg)
	logger := res.Logger()

	var forward sync.WaitGroup
	forward.Add(1)
	go func() {
		defer forward.Done()
		for evt := range probeCh {
			r.emit(ctx, r.probeEvent(evt))
		}
	}()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.cfg.Concurrency)

	for i, site := range sites {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			siteStart := time.Now()
			resolution, err := res.Resolve(groupCtx, site)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			results[i] = siteResult(site, resolution, err, time.Since(siteStart))
			logger.Debug("site finished", "site", site, "endpoint", results[i].Endpoint, "error", results[i].Error)
			r.emit(ctx, r.siteEvent(results[i]))
			return nil
		})
	}

	waitErr := group.Wait()
	close(probeCh)
	forward.Wait()

	if waitErr != nil {
		return nil, fmt.Errorf("resolve sites: %w", waitErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve sites: %w", err)
	}

	stats := result.Stats{Total: len(results), Duration: time.Since(start)}
	for _, sr := range results {
		if sr.OK() {
			stats.Resolved++
		} else {
			stats.Failed++
		}
	}
	return &result.Result{Sites: results, Stats: stats}, nil
}

func (r *Runner) probeEvent(evt resolver.ProbeEvent) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Event{
		Site:     evt.Site,
		URL:      evt.URL,
		Status:   evt.StatusCode,
		Category: evt.Category,
		Error:    evt.Error,
		Done:     r.done,
		Resolved: r.resolved,
		Failed:   r.failed,
		Total:    len(r.cfg.Sites),
	}
}

func (r *Runner) siteEvent(sr result.SiteResult) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
	if sr.OK() {
		r.resolved++
	} else {
		r.failed++
	}
	return Event{
		Site:     sr.Site,
		Endpoint: sr.Endpoint,
		Error:    sr.Error,
		SiteDone: true,
		Done:     r.done,
		Resolved: r.resolved,
		Failed:   r.failed,
		Total:    len(r.cfg.Sites),
	}
}

func (r *Runner) emit(ctx context.Context, evt Event) {
	if r.progressCh == nil {
		return
	}
	select {
	case r.progressCh <- evt:
	case <-ctx.Done():
	}
}

// siteResult flattens a resolution outcome into a report row.
func siteResult(site string, res *resolver.Resolution, err error, elapsed time.Duration) result.SiteResult {
	sr := result.SiteResult{Site: site, Duration: elapsed}

	if err != nil {
		sr.Error = err.Error()
		sr.ErrorKind = "unknown"
		var verr *resolver.ValidationError
		if errors.As(err, &verr) {
			sr.ErrorKind = verr.Kind.String()
			sr.Probes = verr.Probes
		}
		return sr
	}

	sr.Endpoint = res.Endpoint
	sr.Source = string(res.Candidate.Source)
	sr.Methods = len(res.Methods)
	sr.Probes = res.Probes
	sr.Redirected = res.Hops > 0
	if res.Fault != nil {
		sr.Fault = res.Fault.String
	}
	return sr
}
