package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"

	"github.com/lukemcguire/xmlrpcfind/result"
	"github.com/lukemcguire/xmlrpcfind/urlutil"
	"github.com/lukemcguire/xmlrpcfind/xmlrpc"
)

// Doer is the HTTP collaborator. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var listMethodsCall = sync.OnceValues(func() ([]byte, error) {
	return xmlrpc.NewMethodCall(xmlrpc.ListMethods)
})

// ProbeOutcome is the result of probing one candidate. It is resolved when
// Err is nil; FinalURL is then the last URL of the redirect chain.
type ProbeOutcome struct {
	Candidate  Candidate
	FinalURL   *url.URL
	Response   *xmlrpc.Response
	Hops       int
	StatusCode int
	Err        error
}

// Resolved reports whether the candidate answered as an XML-RPC endpoint.
func (o ProbeOutcome) Resolved() bool {
	return o.Err == nil && o.FinalURL != nil
}

// Prober issues system.listMethods probes and follows redirects itself so the
// POST body survives 301/302/303 hops.
type Prober struct {
	client       Doer
	timeout      time.Duration
	maxRedirects int
	maxBody      int64
	userAgent    string
	logger       hclog.Logger
}

// NewProber creates a Prober. A nil client means a pooled client from
// go-cleanhttp; an *http.Client is copied with automatic redirects disabled.
func NewProber(client Doer, cfg Config) *Prober {
	cfg = cfg.withDefaults()
	return &Prober{
		client:       prepareClient(client),
		timeout:      cfg.ProbeTimeout,
		maxRedirects: cfg.MaxRedirects,
		maxBody:      cfg.MaxBodyBytes,
		userAgent:    cfg.UserAgent,
		logger:       cfg.Logger,
	}
}

func prepareClient(client Doer) Doer {
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
	}
	hc, ok := client.(*http.Client)
	if !ok {
		return client
	}
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
	}
	c := *hc
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &c
}

// Probe posts system.listMethods to the candidate. One request sequence is
// made (the candidate plus its redirects) within the probe timeout; any
// failure is reported in the outcome rather than as an error.
func (p *Prober) Probe(ctx context.Context, cand Candidate) ProbeOutcome {
	out := ProbeOutcome{Candidate: cand}

	body, err := listMethodsCall()
	if err != nil {
		out.Err = &ProbeError{URL: cand.URL.String(), Category: result.CategoryUnknown, Err: err}
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Content-Type", xmlrpc.ContentType)
	header.Set("Accept", "text/xml, application/xml")

	resp, final, hops, err := p.follow(ctx, http.MethodPost, cand.URL, body, header)
	out.Hops = hops
	if err != nil {
		out.Err = err
		return out
	}
	defer closeBody(resp)
	out.StatusCode = resp.StatusCode

	if resp.StatusCode != http.StatusOK {
		out.Err = &ProbeError{
			URL:        final.String(),
			StatusCode: resp.StatusCode,
			Category:   result.Failure{StatusCode: resp.StatusCode}.Category(),
		}
		return out
	}

	ct := resp.Header.Get("Content-Type")
	if !result.IsXMLContentType(ct) {
		out.Err = &ProbeError{
			URL:        final.String(),
			StatusCode: resp.StatusCode,
			Category:   result.Failure{StatusCode: resp.StatusCode, ContentType: ct}.Category(),
			Err:        fmt.Errorf("content type %q", ct),
		}
		return out
	}

	data, err := p.readBody(resp)
	if err != nil {
		failure := result.Failure{StatusCode: resp.StatusCode, ContentType: ct, Err: err}
		if errors.Is(err, errBodyTooLarge) {
			failure = result.Failure{StatusCode: resp.StatusCode, ContentType: ct, Unparsable: true}
		}
		out.Err = &ProbeError{
			URL:        final.String(),
			StatusCode: resp.StatusCode,
			Category:   failure.Category(),
			Err:        err,
		}
		return out
	}

	rpcResp, err := xmlrpc.ParseResponse(bytes.NewReader(data))
	if err != nil {
		out.Err = &ProbeError{
			URL:        final.String(),
			StatusCode: resp.StatusCode,
			Category:   result.Failure{StatusCode: resp.StatusCode, ContentType: ct, Unparsable: true}.Category(),
			Err:        err,
		}
		return out
	}

	out.FinalURL = final
	out.Response = rpcResp
	return out
}

// follow sends the request and re-sends it to every redirect target until a
// non-redirect response arrives. The returned response body must be closed.
func (p *Prober) follow(ctx context.Context, method string, target *url.URL, body []byte, header http.Header) (*http.Response, *url.URL, int, error) {
	current := cloneURL(target)
	seen := map[string]bool{current.String(): true}

	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, method, current.String(), bodyReader(body))
		if err != nil {
			return nil, current, hops, &ProbeError{URL: current.String(), Category: result.CategoryUnknown, Err: err}
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("User-Agent", p.userAgent)

		resp, err := p.client.Do(req)
		if err != nil {
			return nil, current, hops, &ProbeError{
				URL:      current.String(),
				Category: result.Failure{Err: err}.Category(),
				Err:      err,
			}
		}

		if !isRedirect(resp.StatusCode) {
			return resp, current, hops, nil
		}

		location := resp.Header.Get("Location")
		closeBody(resp)
		if location == "" {
			return nil, current, hops, &ProbeError{
				URL:        current.String(),
				StatusCode: resp.StatusCode,
				Category:   result.CategoryUnexpectedStatus,
				Err:        errors.New("redirect without Location header"),
			}
		}

		next, err := urlutil.ResolveReference(current, location)
		if err != nil {
			return nil, current, hops, &ProbeError{
				URL:        current.String(),
				StatusCode: resp.StatusCode,
				Category:   result.CategoryUnexpectedStatus,
				Err:        err,
			}
		}

		key := next.String()
		if seen[key] || hops+1 > p.maxRedirects {
			return nil, current, hops + 1, &ProbeError{
				URL:        current.String(),
				StatusCode: resp.StatusCode,
				Category:   result.Failure{StatusCode: resp.StatusCode, RedirectLoop: true}.Category(),
				Err:        fmt.Errorf("redirect to %s after %d hops", key, hops+1),
			}
		}
		seen[key] = true

		p.logger.Trace("following redirect", "from", current.String(), "to", key, "status", resp.StatusCode)
		current = next
	}
}

func (p *Prober) readBody(resp *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > p.maxBody {
		return nil, errBodyTooLarge
	}
	return data, nil
}

var errBodyTooLarge = errors.New("response body too large")

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func bodyReader(body []byte) io.Reader {
	if body == nil {
		return nil
	}
	return bytes.NewReader(body)
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
