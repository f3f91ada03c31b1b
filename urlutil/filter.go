package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// IsHTTPScheme returns true if the URL has an http or https scheme.
// Returns false for empty strings, non-HTTP schemes, or unparseable URLs.
func IsHTTPScheme(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}

// ResolveReference resolves a possibly-relative ref (a Location header or an
// href) against base. The result must be an absolute http(s) URL; fragments
// are dropped.
func ResolveReference(base *url.URL, ref string) (*url.URL, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("empty reference from %s", base.Redacted())
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse ref URL %q: %w", ref, err)
	}

	resolved := base.ResolveReference(refURL)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	if !IsHTTPScheme(resolved.String()) {
		return nil, fmt.Errorf("reference %q resolves to non-HTTP URL", ref)
	}
	if resolved.Host == "" {
		return nil, fmt.Errorf("reference %q resolves to URL without host", ref)
	}
	return resolved, nil
}
