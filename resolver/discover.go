package resolver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/lukemcguire/xmlrpcfind/urlutil"
	"github.com/lukemcguire/xmlrpcfind/xmlrpc"
)

// ErrNoEditURI is returned when a page has no RSD link.
var ErrNoEditURI = errors.New("no EditURI link in page")

// DiscoverRSD fetches the site page, follows its EditURI link to the RSD
// document and returns the advertised XML-RPC api link. Each of the two
// fetches gets its own probe timeout.
func (p *Prober) DiscoverRSD(ctx context.Context, site *url.URL) (*url.URL, error) {
	page, pageURL, err := p.get(ctx, site, "text/html, application/xhtml+xml")
	if err != nil {
		return nil, fmt.Errorf("fetch site page: %w", err)
	}

	rsdURL, err := FindEditURI(bytes.NewReader(page), pageURL)
	if err != nil {
		return nil, err
	}

	doc, docURL, err := p.get(ctx, rsdURL, "application/rsd+xml, text/xml, application/xml")
	if err != nil {
		return nil, fmt.Errorf("fetch rsd: %w", err)
	}

	rsd, err := xmlrpc.ParseRSD(bytes.NewReader(doc))
	if err != nil {
		return nil, err
	}
	link, ok := rsd.APILink()
	if !ok {
		return nil, fmt.Errorf("rsd %s lists no api link", docURL)
	}

	apiURL, err := urlutil.ResolveReference(docURL, link)
	if err != nil {
		return nil, fmt.Errorf("rsd api link: %w", err)
	}
	return apiURL, nil
}

// get fetches target with redirects and returns the body and final URL.
func (p *Prober) get(ctx context.Context, target *url.URL, accept string) ([]byte, *url.URL, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	header := http.Header{}
	header.Set("Accept", accept)

	resp, final, _, err := p.follow(ctx, http.MethodGet, target, nil, header)
	if err != nil {
		return nil, nil, err
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("GET %s: status %d", final, resp.StatusCode)
	}

	data, err := p.readBody(resp)
	if err != nil {
		return nil, nil, fmt.Errorf("GET %s: %w", final, err)
	}
	return data, final, nil
}

// FindEditURI scans an HTML document for <link rel="EditURI" href="...">
// and resolves the href against baseURL.
func FindEditURI(body io.Reader, baseURL *url.URL) (*url.URL, error) {
	tokenizer := html.NewTokenizer(body)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if err := tokenizer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parse html: %w", err)
			}
			return nil, ErrNoEditURI
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "link" {
				continue
			}

			var rel, href string
			for _, attr := range token.Attr {
				switch attr.Key {
				case "rel":
					rel = attr.Val
				case "href":
					href = attr.Val
				}
			}
			if !hasRel(rel, "edituri") || href == "" {
				continue
			}

			resolved, err := urlutil.ResolveReference(baseURL, href)
			if err != nil {
				return nil, fmt.Errorf("EditURI href %q: %w", href, err)
			}
			return resolved, nil
		}
	}
}

func hasRel(rel, want string) bool {
	for _, r := range strings.Fields(rel) {
		if strings.EqualFold(r, want) {
			return true
		}
	}
	return false
}
