// Package resolver finds the XML-RPC endpoint of a site from a user-typed
// address. Input is validated and given a scheme before any network I/O;
// candidates are then probed one at a time with a system.listMethods call
// and the first that answers as XML-RPC wins.
package resolver

import (
	"context"
	"errors"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/lukemcguire/xmlrpcfind/urlutil"
	"github.com/lukemcguire/xmlrpcfind/xmlrpc"
)

// Resolution describes a resolved endpoint.
type Resolution struct {
	Input     string        // Raw input as supplied
	Endpoint  string        // Final endpoint URL after redirects
	URL       *url.URL      // Parsed Endpoint
	Candidate Candidate     // Candidate that led to the endpoint
	Hops      int           // Redirects followed by the successful probe
	Probes    int           // Candidates probed, including the successful one
	Methods   []string      // system.listMethods answer, nil for faults
	Fault     *xmlrpc.Fault // Fault payload, if the endpoint answered with one
}

// Outcome is delivered on the channel returned by ResolveAsync.
type Outcome struct {
	Resolution *Resolution
	Err        error
}

// Resolver resolves site addresses. It keeps no state between calls and is
// safe for concurrent use.
type Resolver struct {
	prober *Prober
	cfg    Config
	logger hclog.Logger
}

// New creates a Resolver using client for all requests. A nil client means
// a pooled client from go-cleanhttp.
func New(client Doer, cfg Config) *Resolver {
	cfg = cfg.withDefaults()
	return &Resolver{
		prober: NewProber(client, cfg),
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Logger returns the logger the Resolver writes to.
func (r *Resolver) Logger() hclog.Logger {
	return r.logger
}

// ResolveXMLRPCEndpoint resolves rawInput with a default Resolver and
// delivers the outcome asynchronously.
func ResolveXMLRPCEndpoint(ctx context.Context, rawInput string) <-chan Outcome {
	return New(nil, DefaultConfig()).ResolveAsync(ctx, rawInput)
}

// ResolveAsync runs Resolve in a goroutine. The channel receives exactly one
// Outcome and is then closed; if ctx is cancelled first it is closed
// without a value.
func (r *Resolver) ResolveAsync(ctx context.Context, rawInput string) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		res, err := r.Resolve(ctx, rawInput)
		if ctx.Err() != nil {
			return
		}
		ch <- Outcome{Resolution: res, Err: err}
	}()
	return ch
}

type state int

const (
	stateNormalizing state = iota
	stateClassifying
	stateGenerating
	stateProbing
	stateDiscovering
	stateSucceeded
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateNormalizing:
		return "normalizing"
	case stateClassifying:
		return "classifying"
	case stateGenerating:
		return "generating"
	case stateProbing:
		return "probing"
	case stateDiscovering:
		return "discovering"
	case stateSucceeded:
		return "succeeded"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// attempt holds everything owned by a single resolution.
type attempt struct {
	raw        string
	parsed     *url.URL
	site       *url.URL
	candidates []Candidate
	next       int
	tried      map[string]bool
	discovered bool
	probes     int
	res        *Resolution
	err        error
}

// Resolve returns the endpoint for rawInput, or a *ValidationError. Empty,
// malformed and wrong-scheme input fail before any request is made. If ctx
// ends mid-resolution its error is returned instead.
func (r *Resolver) Resolve(ctx context.Context, rawInput string) (*Resolution, error) {
	a := &attempt{raw: rawInput, tried: make(map[string]bool)}
	logger := r.logger.With("site", rawInput)

	st := stateNormalizing
	for st != stateSucceeded && st != stateFailed {
		next := r.step(ctx, a, st)
		logger.Trace("state transition", "from", st.String(), "to", next.String())
		st = next
	}

	if a.err != nil {
		return nil, a.err
	}
	return a.res, nil
}

func (r *Resolver) step(ctx context.Context, a *attempt, st state) state {
	switch st {
	case stateNormalizing:
		parsed, err := urlutil.Normalize(a.raw)
		if err != nil {
			kind := KindMalformedInput
			if errors.Is(err, urlutil.ErrEmpty) {
				kind = KindEmptyInput
			}
			a.err = &ValidationError{Kind: kind, Input: a.raw, Err: err}
			return stateFailed
		}
		a.parsed = parsed
		return stateClassifying

	case stateClassifying:
		site, ok := ClassifyScheme(a.parsed)
		if !ok {
			a.err = &ValidationError{Kind: KindUnsupportedScheme, Input: a.raw}
			return stateFailed
		}
		a.site = site
		return stateGenerating

	case stateGenerating:
		a.candidates = GenerateCandidates(a.site)
		return stateProbing

	case stateProbing:
		if err := ctx.Err(); err != nil {
			a.err = err
			return stateFailed
		}
		if a.next >= len(a.candidates) {
			if r.cfg.DiscoverRSD && !a.discovered {
				return stateDiscovering
			}
			a.err = &ValidationError{Kind: KindNoReachableEndpoint, Input: a.raw, Probes: a.probes}
			return stateFailed
		}

		cand := a.candidates[a.next]
		a.next++
		a.tried[cand.URL.String()] = true
		a.probes++

		out := r.prober.Probe(ctx, cand)
		if err := ctx.Err(); err != nil {
			a.err = err
			return stateFailed
		}
		r.report(ctx, a, out)
		if err := ctx.Err(); err != nil {
			a.err = err
			return stateFailed
		}
		if !out.Resolved() {
			return stateProbing
		}

		a.res = &Resolution{
			Input:     a.raw,
			Endpoint:  out.FinalURL.String(),
			URL:       out.FinalURL,
			Candidate: cand,
			Hops:      out.Hops,
			Probes:    a.probes,
			Methods:   out.Response.Methods(),
			Fault:     out.Response.Fault,
		}
		return stateSucceeded

	case stateDiscovering:
		a.discovered = true
		apiURL, err := r.prober.DiscoverRSD(ctx, a.site)
		if ctxErr := ctx.Err(); ctxErr != nil {
			a.err = ctxErr
			return stateFailed
		}
		if err != nil {
			r.logger.Debug("rsd discovery failed", "site", a.raw, "error", err)
			return stateProbing
		}
		if a.tried[apiURL.String()] {
			r.logger.Debug("rsd api link already probed", "site", a.raw, "url", apiURL.String())
			return stateProbing
		}
		a.candidates = append(a.candidates, Candidate{URL: apiURL, Rank: 2, Source: SourceRSD})
		return stateProbing
	}

	a.err = errors.New("resolver: invalid state " + st.String())
	return stateFailed
}

// report logs a probe outcome and publishes it as an event.
func (r *Resolver) report(ctx context.Context, a *attempt, out ProbeOutcome) {
	evt := ProbeEvent{
		Site:       a.raw,
		URL:        out.Candidate.URL.String(),
		Source:     out.Candidate.Source,
		StatusCode: out.StatusCode,
		Resolved:   out.Resolved(),
	}
	if out.Resolved() {
		evt.FinalURL = out.FinalURL.String()
		r.logger.Debug("probe resolved", "site", a.raw, "url", evt.URL, "endpoint", evt.FinalURL, "hops", out.Hops)
	} else {
		var probeErr *ProbeError
		if errors.As(out.Err, &probeErr) {
			evt.FinalURL = probeErr.URL
			evt.StatusCode = probeErr.StatusCode
			evt.Category = probeErr.Category
		}
		evt.Error = out.Err.Error()
		r.logger.Debug("probe failed", "site", a.raw, "url", evt.URL, "category", string(evt.Category), "error", out.Err)
	}

	if r.cfg.Events == nil {
		return
	}
	select {
	case r.cfg.Events <- evt:
	case <-ctx.Done():
	}
}
