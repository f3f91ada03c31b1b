package urlutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// ErrEmpty is returned by Normalize when the input is blank after trimming.
var ErrEmpty = errors.New("empty URL")

// ErrMalformed is returned by Normalize when the input cannot be a URL.
var ErrMalformed = errors.New("malformed URL")

// Normalize takes a site address as a user would type it and returns a parsed
// URL. The scheme is left empty when the input has none; callers decide what
// to do about it.
//
// Normalization includes:
// - Trimming surrounding whitespace (spaces, tabs, newlines)
// - Rejecting embedded whitespace, control characters and backslashes
// - Lowercasing the scheme and host, converting IDN hosts to ASCII
// - Stripping fragments (#section)
// - Preserving path and query parameters
//
// Errors wrap ErrEmpty or ErrMalformed.
func Normalize(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, ErrEmpty
	}

	for _, r := range trimmed {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '\\' || r == utf8.RuneError {
			return nil, fmt.Errorf("%w: %q contains %q", ErrMalformed, trimmed, r)
		}
	}

	// Without "://" the string is either a bare host[/path] or a URL in
	// scheme:opaque form such as mailto:. Parsing it as-is would read
	// "host:port" as a scheme.
	scheme := ""
	rest := trimmed
	if i := strings.Index(trimmed, "://"); i >= 0 {
		scheme = trimmed[:i]
		if !validScheme(scheme) {
			return nil, fmt.Errorf("%w: invalid scheme %q", ErrMalformed, scheme)
		}
		rest = trimmed[i+3:]
	} else if hasOpaqueScheme(trimmed) {
		return normalizeOpaque(trimmed)
	}

	parsed, err := url.Parse("//" + rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrMalformed, trimmed)
	}

	host, err := NormalizeHost(parsed.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	parsed.Scheme = strings.ToLower(scheme)
	parsed.Host = host
	parsed.Fragment = ""
	parsed.RawFragment = ""

	return parsed, nil
}

// hasOpaqueScheme reports whether s starts with "scheme:" where the colon
// does not introduce a port. A prefix containing a dot reads as a host, so
// "example.com:abc" is a bad port rather than a scheme.
func hasOpaqueScheme(s string) bool {
	i := strings.IndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return false
	}
	prefix := s[:i]
	if !validScheme(prefix) || strings.Contains(prefix, ".") {
		return false
	}
	return !isPort(s[i+1:])
}

// isPort reports whether the text up to the first '/', '?' or '#' is a
// non-empty run of digits.
func isPort(s string) bool {
	if j := strings.IndexAny(s, "/?#"); j >= 0 {
		s = s[:j]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// normalizeOpaque parses a scheme:opaque input. The scheme is kept so the
// caller can reject it; http and https need an authority.
func normalizeOpaque(s string) (*url.URL, error) {
	parsed, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	if parsed.Scheme == "http" || parsed.Scheme == "https" {
		return nil, fmt.Errorf("%w: %q has no host", ErrMalformed, s)
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed, nil
}

// NormalizeHost lowercases a host[:port], validates the port and converts
// internationalized names to their ASCII form. IP literals are kept as
// parsed by net.ParseIP.
func NormalizeHost(hostport string) (string, error) {
	host := hostport
	port := ""
	if strings.LastIndexByte(hostport, ':') > strings.LastIndexByte(hostport, ']') {
		h, p, err := net.SplitHostPort(hostport)
		if err != nil {
			return "", fmt.Errorf("split host %q: %w", hostport, err)
		}
		if p == "" {
			return "", fmt.Errorf("empty port in %q", hostport)
		}
		for i := 0; i < len(p); i++ {
			if p[i] < '0' || p[i] > '9' {
				return "", fmt.Errorf("invalid port %q", p)
			}
		}
		host, port = h, p
	}

	host = strings.TrimSuffix(host, ".")
	if len(host) > 2 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	if host == "" {
		return "", errors.New("empty host")
	}

	if ip := net.ParseIP(host); ip != nil {
		return joinHostPort(ip.String(), port, ip.To4() == nil), nil
	}

	if isASCII(host) {
		return joinHostPort(strings.ToLower(host), port, false), nil
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("idna %q: %w", host, err)
	}
	return joinHostPort(strings.ToLower(ascii), port, false), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func joinHostPort(host, port string, ipv6 bool) string {
	if ipv6 {
		host = "[" + host + "]"
	}
	if port == "" {
		return host
	}
	return host + ":" + port
}

// validScheme reports whether s matches RFC 3986 scheme syntax.
func validScheme(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}
