package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ccollicutt/codephoenix/pkg/results"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions

	heading *color.Color
	term    *color.Color
	repo    *color.Color
	link    *color.Color
	none    *color.Color
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	f := &TextFormatter{
		opts:    opts,
		heading: color.New(color.Bold),
		term:    color.New(color.FgCyan, color.Bold),
		repo:    color.New(color.FgGreen),
		link:    color.New(color.FgBlue),
		none:    color.New(color.FgYellow),
	}

	if opts.NoColor {
		for _, c := range []*color.Color{f.heading, f.term, f.repo, f.link, f.none} {
			c.DisableColor()
		}
	}

	return f
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(_ context.Context, report *Report, w io.Writer) error {
	tw := &textWriter{w: w}

	switch {
	case f.opts.Quiet:
		f.formatQuiet(report, tw)
	case len(report.Groups) == 0:
		tw.println("No results found")
	default:
		f.formatFull(report, tw)
	}

	return tw.err
}

func (f *TextFormatter) formatQuiet(report *Report, tw *textWriter) {
	tw.printf("CodePhoenix: %d terms searched, %d with matches, %d total matches\n",
		report.Summary.Terms,
		report.Summary.TermsWithMatches,
		report.Summary.TotalMatches)
}

func (f *TextFormatter) formatFull(report *Report, tw *textWriter) {
	tw.println(f.heading.Sprint("=== CodePhoenix Results ==="))
	tw.println()

	for _, g := range report.Groups {
		f.formatGroup(g, tw)
	}

	tw.println("---")
	tw.printf("Summary: %d terms searched, %d with matches, %d total matches\n",
		report.Summary.Terms,
		report.Summary.TermsWithMatches,
		report.Summary.TotalMatches)

	if f.opts.Verbose {
		if len(report.Metadata.Sources) > 0 {
			tw.printf("Sources: %s\n", strings.Join(report.Metadata.Sources, ", "))
		}
		if report.Metadata.ScanID != "" {
			tw.printf("Scan ID: %s\n", report.Metadata.ScanID)
		}
		if report.Metadata.Duration > 0 {
			tw.printf("Duration: %s\n", report.Metadata.Duration.Round(time.Millisecond))
		}
	}
}

func (f *TextFormatter) formatGroup(g results.Group, tw *textWriter) {
	tw.printf("%s\n", f.term.Sprintf("[%s]", g.Term))

	if len(g.Items) == 0 {
		tw.printf("  %s\n\n", f.none.Sprint("No matches"))
		return
	}

	tw.printf("  Found: %d file(s)\n", len(g.Items))
	for _, item := range g.Items {
		tw.printf("  - %s: %s\n", f.repo.Sprint(item.Repository), item.Path)
		if f.opts.Verbose {
			tw.printf("    %s\n", f.link.Sprint(item.URL))
		}
	}
	tw.println()
}

// textWriter keeps the first write error.
type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err == nil {
		_, t.err = fmt.Fprintf(t.w, format, args...)
	}
}

func (t *textWriter) println(args ...any) {
	if t.err == nil {
		_, t.err = fmt.Fprintln(t.w, args...)
	}
}
