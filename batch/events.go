package batch

import "github.com/lukemcguire/xmlrpcfind/result"

// Event reports batch progress. A probe event names the candidate URL that
// was tried; a site event (SiteDone) carries the final outcome for Site.
type Event struct {
	Site     string
	URL      string
	Status   int
	Category result.ErrorCategory
	Error    string
	Endpoint string
	SiteDone bool

	Done     int // sites finished so far
	Resolved int
	Failed   int
	Total    int
}
