package result

import (
	"context"
	"errors"
	"mime"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorCategory represents the classification of a failed probe.
type ErrorCategory string

const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	Category4xx               ErrorCategory = "4xx"
	Category5xx               ErrorCategory = "5xx"
	CategoryUnexpectedStatus  ErrorCategory = "unexpected_status"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	CategoryNotXML            ErrorCategory = "not_xml"
	CategoryInvalidResponse   ErrorCategory = "invalid_response"
	CategoryUnknown           ErrorCategory = "unknown"
)

// Failure is what is known about a probe that produced no usable answer.
type Failure struct {
	Err          error  // transport or read error
	StatusCode   int    // final status, 0 when no response arrived
	ContentType  string // Content-Type of a 200 response
	Unparsable   bool   // 200 XML body that is not a methodResponse
	RedirectLoop bool   // chain revisited a URL or ran out of hops
}

// Category names the first thing that went wrong, in the order a probe
// checks them: redirects, transport, status, content type, body.
func (f Failure) Category() ErrorCategory {
	switch {
	case f.RedirectLoop:
		return CategoryRedirectLoop
	case f.Err != nil:
		return transportCategory(f.Err)
	case f.StatusCode >= 400 && f.StatusCode <= 499:
		return Category4xx
	case f.StatusCode >= 500:
		return Category5xx
	case f.StatusCode != 0 && f.StatusCode != http.StatusOK:
		return CategoryUnexpectedStatus
	case f.StatusCode == http.StatusOK && !IsXMLContentType(f.ContentType):
		return CategoryNotXML
	case f.Unparsable:
		return CategoryInvalidResponse
	}
	return CategoryUnknown
}

func transportCategory(err error) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryDNSFailure
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return CategoryConnectionRefused
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	return CategoryUnknown
}

// IsXMLContentType accepts text/xml, application/xml and any +xml type.
func IsXMLContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "text/xml" || mediaType == "application/xml" || strings.HasSuffix(mediaType, "+xml")
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	switch cat {
	case CategoryTimeout:
		return "Timeouts"
	case CategoryDNSFailure:
		return "DNS Failures"
	case CategoryConnectionRefused:
		return "Connection Refused"
	case Category4xx:
		return "Client Errors (4xx)"
	case Category5xx:
		return "Server Errors (5xx)"
	case CategoryUnexpectedStatus:
		return "Unexpected Status"
	case CategoryRedirectLoop:
		return "Redirect Loops"
	case CategoryNotXML:
		return "Not XML"
	case CategoryInvalidResponse:
		return "Invalid XML-RPC Responses"
	default:
		return "Other Errors"
	}
}
