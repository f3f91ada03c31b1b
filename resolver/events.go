package resolver

import "github.com/lukemcguire/xmlrpcfind/result"

// ProbeEvent reports the outcome of one probe.
type ProbeEvent struct {
	Site       string // Raw input of the resolution
	URL        string // Candidate URL as probed
	Source     CandidateSource
	FinalURL   string // Last URL of the redirect chain
	StatusCode int
	Category   result.ErrorCategory
	Error      string
	Resolved   bool
}
