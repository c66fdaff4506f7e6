// Package output renders scan results as text or JSON reports.
package output

import (
	"time"

	"github.com/ccollicutt/codephoenix/pkg/results"
)

// Report is the rendered view of one or more scans.
type Report struct {
	Summary  Summary         `json:"summary"`
	Groups   []results.Group `json:"groups"`
	Metadata Metadata        `json:"metadata"`
}

// Summary provides aggregate counts.
type Summary struct {
	// Terms is the number of search terms in the report.
	Terms int `json:"terms"`

	// TermsWithMatches counts terms with at least one item.
	TermsWithMatches int `json:"terms_with_matches"`

	// TotalMatches is the number of items across all terms.
	TotalMatches int `json:"total_matches"`
}

// Metadata provides context about where the results came from.
type Metadata struct {
	// Sources lists the results files that were read, if any.
	Sources []string `json:"sources,omitempty"`

	// ScanID identifies the scan that produced the results.
	ScanID string `json:"scan_id,omitempty"`

	// GeneratedAt is when the report was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Duration is how long the scan ran, if known.
	Duration time.Duration `json:"duration,omitempty"`
}

// NewReport builds a report from parsed groups.
func NewReport(groups []results.Group, sources []string) *Report {
	if groups == nil {
		groups = []results.Group{}
	}

	report := &Report{
		Groups: groups,
		Metadata: Metadata{
			Sources:     sources,
			GeneratedAt: time.Now().UTC(),
		},
		Summary: Summary{
			Terms:        len(groups),
			TotalMatches: results.Count(groups),
		},
	}

	for _, g := range groups {
		if len(g.Items) > 0 {
			report.Summary.TermsWithMatches++
		}
	}

	return report
}

// HasMatches returns true if any term matched at least one file.
func (r *Report) HasMatches() bool {
	return r.Summary.TotalMatches > 0
}
