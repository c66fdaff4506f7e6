// Package resultsfile reads and writes the JSON results file produced by a scan.
package resultsfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/codephoenix/pkg/results"
)

// ErrInvalidFormat is returned for a results file without scan output.
var ErrInvalidFormat = errors.New("results file does not contain valid scan data")

// Status is the outcome recorded in a results file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Envelope is the results file: the raw scan transcript plus run metadata.
type Envelope struct {
	ScanID       string    `json:"scan_id,omitempty"`
	Status       Status    `json:"status"`
	Message      string    `json:"message"`
	Output       string    `json:"output"`
	ResultsFound bool      `json:"results_found"`
	TotalResults int       `json:"total_results"`
	Error        string    `json:"error,omitempty"`
	Terms        []string  `json:"terms,omitempty"`
	StartedAt    time.Time `json:"started_at,omitzero"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
}

// New builds an envelope for a finished scan. A non-nil runErr marks the
// scan as failed; the partial output is kept either way.
func New(output string, terms []string, started, finished time.Time, runErr error) *Envelope {
	total := CountResults(output)
	env := &Envelope{
		ScanID:       uuid.NewString(),
		Status:       StatusSuccess,
		Message:      "scan completed successfully",
		Output:       output,
		ResultsFound: total > 0,
		TotalResults: total,
		Terms:        terms,
		StartedAt:    started,
		FinishedAt:   finished,
	}

	if runErr != nil {
		env.Status = StatusError
		env.Message = fmt.Sprintf("scan failed: %v", runErr)
		env.Error = runErr.Error()
	}

	return env
}

// CountResults counts the item lines in a transcript.
func CountResults(output string) int {
	return strings.Count(output, results.ItemMarker)
}

// Groups parses the transcript into match groups.
func (e *Envelope) Groups() []results.Group {
	return results.Parse(e.Output)
}

// Duration returns how long the scan ran, or zero if unknown.
func (e *Envelope) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Save writes the envelope as indented JSON.
func Save(_ context.Context, path string, env *Envelope) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(env); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	// Transcripts can name leaked secrets; keep the file private.
	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}

	return nil
}

// Load reads a JSON results file.
func Load(_ context.Context, path string) (*Envelope, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-selected results file
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}

	return Decode(data)
}

// Decode parses a results envelope. Envelopes without output are rejected.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if env.Output == "" {
		if env.Message != "" {
			return nil, fmt.Errorf("%w (%s)", ErrInvalidFormat, env.Message)
		}
		return nil, ErrInvalidFormat
	}

	if env.TotalResults == 0 {
		env.TotalResults = CountResults(env.Output)
		env.ResultsFound = env.TotalResults > 0
	}

	return &env, nil
}

// IsEnvelopeFile reports whether path names a JSON results file rather
// than a raw transcript.
func IsEnvelopeFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadGroups parses the groups of a results file or raw transcript.
// Raw transcripts are streamed rather than read whole.
func LoadGroups(ctx context.Context, path string, p *results.Parser) ([]results.Group, error) {
	if p == nil {
		p = results.NewParser()
	}

	if IsEnvelopeFile(path) {
		env, err := Load(ctx, path)
		if err != nil {
			return nil, err
		}
		return p.Parse(env.Output), nil
	}

	f, err := os.Open(path) // #nosec G304 -- user-selected transcript
	if err != nil {
		return nil, fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	return p.ParseReader(ctx, f)
}
