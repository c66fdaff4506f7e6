package output

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewTextFormatter(t *testing.T) {
	f := NewTextFormatter(FormatOptions{})
	if f == nil {
		t.Fatal("NewTextFormatter() returned nil")
	}
	if f.Name() != "text" {
		t.Errorf("Name() = %q, want %q", f.Name(), "text")
	}
}

func TestTextFormatter_Format_NoResults(t *testing.T) {
	f := NewTextFormatter(FormatOptions{NoColor: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), NewReport(nil, nil), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	if got := buf.String(); got != "No results found\n" {
		t.Errorf("Format() = %q, want %q", got, "No results found\n")
	}
}

func TestTextFormatter_Format_WithMatches(t *testing.T) {
	f := NewTextFormatter(FormatOptions{NoColor: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"=== CodePhoenix Results ===",
		"[password]",
		"Found: 2 file(s)",
		"- org/repo: config/db.yml",
		"- org/other: .env",
		"[AKIAEXAMPLE]",
		"No matches",
		"Summary: 2 terms searched, 1 with matches, 2 total matches",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}

	if strings.Contains(output, "https://github.com/") {
		t.Error("links shown without verbose")
	}
	if strings.Contains(output, "\x1b[") {
		t.Error("output contains ANSI escapes with NoColor")
	}
}

func TestTextFormatter_Format_Verbose(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Verbose: true, NoColor: true})
	report := createTestReport()
	report.Metadata.ScanID = "scan-123"
	report.Metadata.Duration = 1500 * time.Millisecond

	var buf bytes.Buffer
	if err := f.Format(context.Background(), report, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"https://github.com/org/repo/blob/main/config/db.yml",
		"Sources: scan_results.json",
		"Scan ID: scan-123",
		"Duration: 1.5s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("verbose output missing %q\n%s", want, output)
		}
	}
}

func TestTextFormatter_Format_Quiet(t *testing.T) {
	f := NewTextFormatter(FormatOptions{Quiet: true})

	var buf bytes.Buffer
	if err := f.Format(context.Background(), createTestReport(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "CodePhoenix: 2 terms searched, 1 with matches, 2 total matches\n"
	if got := buf.String(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}

type errWriter struct{}

func (errWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestTextFormatter_Format_WriteError(t *testing.T) {
	f := NewTextFormatter(FormatOptions{NoColor: true})

	err := f.Format(context.Background(), createTestReport(), errWriter{})
	if err == nil || !strings.Contains(err.Error(), "closed pipe") {
		t.Errorf("Format() error = %v, want write error", err)
	}
}
