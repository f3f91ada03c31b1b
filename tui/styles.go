package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/xmlrpcfind/result"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	kindStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	cellStyle        = lipgloss.NewStyle()
	endpointStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// kindOrder defines the display order for failure kinds (most to least actionable).
var kindOrder = []string{
	"no_reachable_endpoint",
	"unsupported_scheme",
	"malformed_input",
	"empty_input",
	"unknown",
}

// categoryOrder defines the display order for probe failure causes.
var categoryOrder = []result.ErrorCategory{
	result.Category4xx,
	result.CategoryNotXML,
	result.CategoryInvalidResponse,
	result.Category5xx,
	result.CategoryUnexpectedStatus,
	result.CategoryRedirectLoop,
	result.CategoryTimeout,
	result.CategoryDNSFailure,
	result.CategoryConnectionRefused,
	result.CategoryUnknown,
}

var kindTitles = map[string]string{
	"no_reachable_endpoint": "No Reachable Endpoint",
	"unsupported_scheme":    "Unsupported Scheme",
	"malformed_input":       "Malformed Input",
	"empty_input":           "Empty Input",
	"unknown":               "Other Errors",
}

// RenderSummary produces a Lip Gloss styled summary of batch results.
func RenderSummary(res *result.Result) string {
	if res == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	resolved := make([][]string, 0, res.Stats.Resolved)
	grouped := make(map[string][]result.SiteResult)
	for _, site := range res.Sites {
		if site.OK() {
			answer := strconv.Itoa(site.Methods) + " methods"
			if site.Fault != "" {
				answer = "fault: " + site.Fault
			}
			resolved = append(resolved, []string{site.Site, site.Endpoint, answer, strconv.Itoa(site.Probes)})
			continue
		}
		kind := site.ErrorKind
		if _, known := kindTitles[kind]; !known {
			kind = "unknown"
		}
		grouped[kind] = append(grouped[kind], site)
	}

	if len(resolved) > 0 {
		builder.WriteString(successStyle.Render(fmt.Sprintf("## Resolved (%d)", len(resolved))))
		builder.WriteString("\n")
		resolvedTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("Site", "Endpoint", "Answer", "Probes").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return endpointStyle
				}
				return cellStyle
			}).
			Rows(resolved...)
		builder.WriteString(resolvedTable.Render())
		builder.WriteString("\n\n")
	}

	for _, kind := range kindOrder {
		sites := grouped[kind]
		if len(sites) == 0 {
			continue
		}

		builder.WriteString(kindStyle.Render(fmt.Sprintf("## %s (%d)", kindTitles[kind], len(sites))))
		builder.WriteString("\n")

		rows := make([][]string, 0, len(sites))
		for _, site := range sites {
			rows = append(rows, []string{site.Site, site.Error, strconv.Itoa(site.Probes)})
		}

		kindTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("Site", "Error", "Probes").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return statusErrorStyle
				}
				return cellStyle
			}).
			Rows(rows...)

		builder.WriteString(kindTable.Render())
		builder.WriteString("\n\n")
	}

	summary := fmt.Sprintf("Resolved %d of %d sites, %d failed (%s)",
		res.Stats.Resolved,
		res.Stats.Total,
		res.Stats.Failed,
		res.Stats.Duration.Round(1_000_000), // round to ms
	)
	if res.Stats.Failed == 0 {
		builder.WriteString(successStyle.Render(summary))
	} else {
		builder.WriteString(titleStyle.Render(summary))
	}
	builder.WriteString("\n")

	return builder.String()
}

// RenderProbeFailures lists how many probes failed for each cause, or
// nothing if none did.
func RenderProbeFailures(causes map[result.ErrorCategory]int) string {
	if len(causes) == 0 {
		return ""
	}

	known := make(map[result.ErrorCategory]bool, len(categoryOrder))
	counts := make(map[result.ErrorCategory]int, len(causes))
	for _, cat := range categoryOrder {
		known[cat] = true
	}
	for cat, n := range causes {
		if !known[cat] {
			cat = result.CategoryUnknown
		}
		counts[cat] += n
	}

	var builder strings.Builder
	builder.WriteString(dimStyle.Render("Probe failures:"))
	builder.WriteString("\n")
	for _, cat := range categoryOrder {
		if counts[cat] == 0 {
			continue
		}
		builder.WriteString(dimStyle.Render(fmt.Sprintf("  %s: %d", result.FormatCategory(cat), counts[cat])))
		builder.WriteString("\n")
	}
	return builder.String()
}
