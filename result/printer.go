package result

import (
	"fmt"
	"io"
)

// PrintResults writes per-site details and a summary to w.
func PrintResults(w io.Writer, res *Result) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	for i, site := range res.Sites {
		writef("  Site: %s\n", site.Site)
		if site.OK() {
			writef("  Endpoint: %s\n", site.Endpoint)
			if site.Fault != "" {
				writef("  Fault: %s\n", site.Fault)
			} else {
				writef("  Methods: %d\n", site.Methods)
			}
		} else {
			writef("  Error: %s\n", site.Error)
		}
		writef("  Probes: %d\n", site.Probes)
		if i < len(res.Sites)-1 {
			writef("\n")
		}
	}
	if len(res.Sites) > 0 {
		writef("\n")
	}
	writef("Resolved %d of %d sites, %d failed\n", res.Stats.Resolved, res.Stats.Total, res.Stats.Failed)
}
