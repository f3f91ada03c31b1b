package resolver

import (
	"net/url"
	"strings"
)

// DefaultScheme is assigned to inputs typed without a scheme. Servers that
// only speak https are expected to redirect.
const DefaultScheme = "http"

// EndpointFile is the conventional XML-RPC endpoint path segment.
const EndpointFile = "xmlrpc.php"

// CandidateSource records which rule produced a candidate.
type CandidateSource string

const (
	SourceEndpoint CandidateSource = "endpoint" // input already names xmlrpc.php
	SourceAppended CandidateSource = "appended" // /xmlrpc.php added to the input path
	SourceSite     CandidateSource = "site"     // input URL itself, as a custom endpoint
	SourceRSD      CandidateSource = "rsd"      // apiLink from the site's RSD document
)

// Candidate is a URL to probe. Lower ranks are probed first.
type Candidate struct {
	URL    *url.URL
	Rank   int
	Source CandidateSource
}

// ClassifyScheme returns a copy of u with a usable scheme: a missing scheme
// becomes DefaultScheme, http and https pass, anything else is rejected.
func ClassifyScheme(u *url.URL) (*url.URL, bool) {
	classified := cloneURL(u)
	switch strings.ToLower(classified.Scheme) {
	case "":
		classified.Scheme = DefaultScheme
	case "http", "https":
		classified.Scheme = strings.ToLower(classified.Scheme)
	default:
		return nil, false
	}
	return classified, true
}

// GenerateCandidates returns the ordered, duplicate-free candidates for a
// classified site URL.
//
// A path ending in /xmlrpc.php yields that URL alone, query included.
// Otherwise /xmlrpc.php is appended to the path (trailing slashes and query
// dropped), followed by the site URL itself.
func GenerateCandidates(site *url.URL) []Candidate {
	if hasEndpointSuffix(site.Path) {
		return []Candidate{{URL: cloneURL(site), Rank: 0, Source: SourceEndpoint}}
	}

	appended := &url.URL{
		Scheme: site.Scheme,
		User:   site.User,
		Host:   site.Host,
		Path:   strings.TrimRight(site.Path, "/") + "/" + EndpointFile,
	}
	if site.RawPath != "" {
		appended.RawPath = strings.TrimRight(site.RawPath, "/") + "/" + EndpointFile
	}

	candidates := []Candidate{{URL: appended, Rank: 0, Source: SourceAppended}}

	given := cloneURL(site)
	if given.String() != appended.String() {
		candidates = append(candidates, Candidate{URL: given, Rank: 1, Source: SourceSite})
	}
	return candidates
}

func hasEndpointSuffix(p string) bool {
	return p == EndpointFile || strings.HasSuffix(p, "/"+EndpointFile)
}

func cloneURL(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
