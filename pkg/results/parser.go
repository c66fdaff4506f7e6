package results

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parser turns a scan transcript into match groups.
// A Parser holds no state between calls and may be reused.
type Parser struct {
	host string
}

// Option configures the Parser.
type Option func(*Parser)

// WithHost sets the code host used for item links (default github.com).
func WithHost(host string) Option {
	return func(p *Parser) {
		if host != "" {
			p.host = host
		}
	}
}

// NewParser creates a Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{host: DefaultHost}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses text with the default host.
func Parse(text string) []Group {
	return NewParser().Parse(text)
}

// Parse reads the transcript line by line and returns the groups in the
// order their term markers appear. Unrecognized lines are skipped, as are
// item lines seen before the first term marker.
func (p *Parser) Parse(text string) []Group {
	b := &groupBuilder{parser: p}
	for _, line := range strings.Split(text, "\n") {
		b.add(line)
	}
	return b.finish()
}

// ParseReader is Parse for transcripts too large to hold in memory. It
// yields the same groups as Parse on the same text, whatever the line
// lengths. Only read errors and cancellation are reported.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader) ([]Group, error) {
	b := &groupBuilder{parser: p}

	br := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := br.ReadString('\n')
		if line != "" {
			b.add(strings.TrimSuffix(line, "\n"))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading transcript: %w", err)
		}
	}

	return b.finish(), nil
}

// groupBuilder accumulates groups one line at a time.
type groupBuilder struct {
	parser  *Parser
	groups  []Group
	current *Group
}

func (b *groupBuilder) add(line string) {
	if term, ok := termFromLine(line); ok {
		if b.current != nil {
			b.groups = append(b.groups, *b.current)
		}
		b.current = &Group{Term: term, Items: []Item{}}
		return
	}

	if b.current == nil || !strings.Contains(line, ItemMarker) {
		return
	}

	if item, ok := b.parser.itemFromLine(line); ok {
		b.current.Items = append(b.current.Items, item)
	}
}

func (b *groupBuilder) finish() []Group {
	groups := b.groups
	if b.current != nil {
		groups = append(groups, *b.current)
	}
	if groups == nil {
		groups = []Group{}
	}
	return groups
}

// termFromLine extracts the label between the first term marker and the
// next closing delimiter.
func termFromLine(line string) (string, bool) {
	_, rest, found := strings.Cut(line, TermMarker)
	if !found {
		return "", false
	}
	label, _, _ := strings.Cut(rest, TermClose)
	return strings.TrimSpace(label), true
}

func (p *Parser) itemFromLine(line string) (Item, bool) {
	_, rest, _ := strings.Cut(line, ItemMarker)
	rest, _, _ = strings.Cut(rest, ItemMarker)

	parts := strings.Split(rest, ItemSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	repo := parts[0]
	path := strings.TrimSpace(strings.Join(parts[1:], ItemSeparator))
	if repo == "" || path == "" {
		return Item{}, false
	}

	return Item{
		Repository: repo,
		Path:       path,
		URL:        BlobURL(p.host, repo, path),
	}, true
}
