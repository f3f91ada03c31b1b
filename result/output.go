package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteJSON writes the site results as a formatted JSON array to the writer.
// Uses flat array format (not wrapped with metadata) for simpler CI integration.
func WriteJSON(w io.Writer, sites []SiteResult) error {
	if sites == nil {
		sites = []SiteResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sites); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteCSV writes the site results as CSV to the writer.
// Always includes a header row, even if there are no results.
// Column order: site, endpoint, source, methods, probes, error_type, error
func WriteCSV(w io.Writer, sites []SiteResult) error {
	cw := csv.NewWriter(w)

	header := []string{"site", "endpoint", "source", "methods", "probes", "error_type", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, site := range sites {
		record := []string{
			site.Site,
			site.Endpoint,
			site.Source,
			strconv.Itoa(site.Methods),
			strconv.Itoa(site.Probes),
			site.ErrorKind,
			site.Error,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record for %s: %w", site.Site, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
