// Package scanner runs code searches for a list of terms and writes the
// result transcript.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/codephoenix/pkg/config"
	"github.com/ccollicutt/codephoenix/pkg/github"
	"github.com/ccollicutt/codephoenix/pkg/termtype"
)

// DefaultQueryPause is the pause between two query strategies on one page.
const DefaultQueryPause = 500 * time.Millisecond

// pushedSince is the first date for which GitHub tracks push times.
const pushedSince = "2008-01-01"

// Searcher runs a single code search request.
type Searcher interface {
	SearchCode(ctx context.Context, query string, page, perPage int) (*github.SearchResult, error)
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Stats summarizes a scan run.
type Stats struct {
	Terms       int
	Pages       int
	Requests    int
	Matches     int
	RateLimited int
	Errors      int
	// DateFilterDropped counts terms for which the date filter probe failed.
	DateFilterDropped int
}

// Scanner searches GitHub code for each term, page by page.
type Scanner struct {
	searcher   Searcher
	logger     *zap.SugaredLogger
	sleep      SleepFunc
	queryPause time.Duration

	perPage    int
	pages      int
	sleepTime  time.Duration
	maxRetries int
	qualifier  string
	probe      bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the progress logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Scanner) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSleep replaces the pause function, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(s *Scanner) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithQueryPause sets the pause between query strategies.
func WithQueryPause(d time.Duration) Option {
	return func(s *Scanner) {
		s.queryPause = d
	}
}

// New creates a scanner from a validated configuration.
func New(searcher Searcher, cfg *config.Config, opts ...Option) *Scanner {
	s := &Scanner{
		searcher:   searcher,
		logger:     zap.NewNop().Sugar(),
		sleep:      Sleep,
		queryPause: DefaultQueryPause,
		perPage:    cfg.ResultsPerPage,
		pages:      cfg.Pages,
		sleepTime:  cfg.SleepTime,
		maxRetries: cfg.MaxRetries,
		probe:      cfg.ShouldProbeDateFilter(),
	}
	if start, end, ok := cfg.DateRange(); ok {
		s.qualifier = DateQualifier(start, end)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DateQualifier returns the search qualifier for a date range. Ranges that
// start before GitHub tracked pushes filter on repository creation instead.
func DateQualifier(start, end string) string {
	if start >= pushedSince {
		return fmt.Sprintf("pushed:%s..%s", start, end)
	}
	return fmt.Sprintf("created:%s..%s", start, end)
}

// Sleep waits for d, returning early with the context error on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run scans every term and writes the transcript to w. The transcript
// written so far stays valid when Run returns an error.
func (s *Scanner) Run(ctx context.Context, terms []string, w io.Writer) (*Stats, error) {
	stats := &Stats{}
	tw := &transcriptWriter{w: w}

	if s.qualifier != "" {
		s.logger.Infow("date filter enabled", "qualifier", s.qualifier)
	} else {
		s.logger.Info("no date filter, searching full history")
	}

	for i, term := range terms {
		last := i == len(terms)-1
		if err := s.scanTerm(ctx, term, last, tw, stats); err != nil {
			return stats, err
		}
		if tw.err != nil {
			return stats, fmt.Errorf("writing transcript: %w", tw.err)
		}
	}

	return stats, nil
}

func (s *Scanner) scanTerm(ctx context.Context, term string, lastTerm bool, tw *transcriptWriter, stats *Stats) error {
	stats.Terms++
	c := termtype.Classify(term)
	s.logger.Infow("scanning term", "term", term, "type", c.Type, "strategies", len(c.Queries))

	queries, err := s.applyDateFilter(ctx, c.Queries, stats)
	if err != nil {
		return err
	}

	tw.term(term)
	for page := 1; page <= s.pages; page++ {
		tw.page(page)
		if tw.err != nil {
			return fmt.Errorf("writing transcript: %w", tw.err)
		}
		stats.Pages++

		items, err := s.searchPage(ctx, queries, page, stats)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			tw.noResults()
			break
		}

		for _, item := range items {
			tw.item(item)
		}
		stats.Matches += len(items)
		s.logger.Debugw("page done", "term", term, "page", page, "items", len(items))

		if lastTerm && page == s.pages {
			break
		}
		if err := s.sleep(ctx, s.sleepTime); err != nil {
			return err
		}
	}

	return nil
}

// applyDateFilter appends the date qualifier to every strategy. With probing
// enabled the filter is dropped when a one-item probe finds nothing.
func (s *Scanner) applyDateFilter(ctx context.Context, queries []string, stats *Stats) ([]string, error) {
	if s.qualifier == "" || len(queries) == 0 {
		return queries, nil
	}

	if s.probe {
		ok, err := s.probeDateFilter(ctx, queries[0], stats)
		if err != nil {
			return nil, err
		}
		if !ok {
			stats.DateFilterDropped++
			return queries, nil
		}
	}

	filtered := make([]string, len(queries))
	for i, q := range queries {
		filtered[i] = q + " " + s.qualifier
	}
	return filtered, nil
}

func (s *Scanner) probeDateFilter(ctx context.Context, query string, stats *Stats) (bool, error) {
	stats.Requests++
	res, err := s.searcher.SearchCode(ctx, query+" "+s.qualifier, 1, 1)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	ok := true
	switch {
	case err != nil:
		s.logger.Warnw("date filter probe failed, searching without it", "error", err)
		ok = false
	case res.TotalCount == 0:
		s.logger.Warn("date filter matched nothing, searching without it")
		ok = false
	default:
		s.logger.Infow("date filter valid", "total", res.TotalCount)
	}

	if err := s.sleep(ctx, s.queryPause); err != nil {
		return false, err
	}
	return ok, nil
}

// searchPage fetches one page, retrying the strategies after a rate limit.
// A page that stays rate limited past maxRetries is treated as empty.
func (s *Scanner) searchPage(ctx context.Context, queries []string, page int, stats *Stats) ([]github.CodeItem, error) {
	for attempt := 0; ; attempt++ {
		items, err := s.tryStrategies(ctx, queries, page, stats)
		if !errors.Is(err, github.ErrRateLimited) {
			return items, err
		}

		stats.RateLimited++
		if attempt >= s.maxRetries {
			s.logger.Warnw("rate limit persists, giving up on page", "page", page, "retries", s.maxRetries)
			return nil, nil
		}

		s.logger.Warnw("rate limited, waiting", "wait", s.sleepTime, "attempt", attempt+1)
		if err := s.sleep(ctx, s.sleepTime); err != nil {
			return nil, err
		}
	}
}

// tryStrategies runs the queries in order and returns the first page with
// items. Rejected queries and other API errors fall through to the next one.
func (s *Scanner) tryStrategies(ctx context.Context, queries []string, page int, stats *Stats) ([]github.CodeItem, error) {
	for i, query := range queries {
		stats.Requests++
		res, err := s.searcher.SearchCode(ctx, query, page, s.perPage)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		switch {
		case errors.Is(err, github.ErrRateLimited):
			return nil, err
		case err != nil:
			stats.Errors++
			s.logger.Warnw("query failed", "query", query, "error", err)
		case len(res.Items) > 0:
			s.logger.Infow("query matched", "query", query, "total", res.TotalCount)
			return res.Items, nil
		default:
			s.logger.Debugw("query returned no items", "query", query)
		}

		if i < len(queries)-1 {
			if err := s.sleep(ctx, s.queryPause); err != nil {
				return nil, err
			}
		}
	}

	return nil, nil
}
