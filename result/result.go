package result

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// SiteResult represents the outcome of resolving a single site.
type SiteResult struct {
	Site       string        `json:"site"`                 // The site address as supplied
	Endpoint   string        `json:"endpoint,omitempty"`   // Resolved XML-RPC URL (empty on failure)
	Source     string        `json:"source,omitempty"`     // Which candidate rule produced the endpoint
	Methods    int           `json:"methods"`              // Number of methods advertised by system.listMethods
	Fault      string        `json:"fault,omitempty"`      // Fault string when the endpoint answered with a fault
	Probes     int           `json:"probes"`               // Number of candidates probed
	ErrorKind  string        `json:"error_type,omitempty"` // Validation error kind on failure
	Error      string        `json:"error,omitempty"`      // Error message on failure
	Duration   time.Duration `json:"duration_ns"`          // Time spent on this site
	Redirected bool          `json:"redirected,omitempty"` // Whether the endpoint was reached through redirects
}

// OK reports whether the site resolved to an endpoint.
func (s SiteResult) OK() bool {
	return s.Error == "" && s.Endpoint != ""
}

// Stats contains aggregate statistics for a batch of resolutions.
type Stats struct {
	Total    int           // Number of sites attempted
	Resolved int           // Sites with an endpoint
	Failed   int           // Sites without an endpoint
	Duration time.Duration // Total time taken for the batch
}

// Result represents the complete output of a batch, in input order.
type Result struct {
	Sites []SiteResult
	Stats Stats
}

// Err returns an error listing every site that failed to resolve, or nil.
func (r *Result) Err() error {
	if r == nil {
		return nil
	}
	var errs *multierror.Error
	for _, site := range r.Sites {
		if site.OK() {
			continue
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %s", site.Site, site.Error))
	}
	return errs.ErrorOrNil()
}
