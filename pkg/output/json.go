package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter writes reports as indented JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// quietReport is the summary-only document, tagged with the scan it came
// from so it can be matched to a results file later.
type quietReport struct {
	Summary
	ScanID string `json:"scan_id,omitempty"`
}

// Format encodes the report. Match paths and URLs are written unescaped.
func (f *JSONFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	var doc any = report
	if f.opts.Quiet {
		doc = quietReport{Summary: report.Summary, ScanID: report.Metadata.ScanID}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
