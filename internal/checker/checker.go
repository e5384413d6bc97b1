// Package checker is the core check API shared by every front end: raw text
// in, ordered citation results out.
package checker

import (
	"context"
	"time"

	"github.com/matsen/citecheck/internal/citation"
	"github.com/matsen/citecheck/internal/classify"
	"github.com/matsen/citecheck/internal/extract"
	"github.com/matsen/citecheck/internal/parse"
	"github.com/matsen/citecheck/internal/verify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of citations verified at once.
const DefaultConcurrency = 8

// Report is the outcome of one check call.
type Report struct {
	Format  citation.Format   `json:"format"`
	Results []citation.Result `json:"citations"`
}

// Summary counts the report's results by status.
func (r Report) Summary() citation.Summary {
	return citation.Summarize(r.Results)
}

// Checker runs the parse, extract, verify and classify stages.
type Checker struct {
	gateway     verify.Gateway
	logger      *zap.Logger
	concurrency int
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// WithConcurrency bounds how many citations are verified at once.
func WithConcurrency(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Checker that verifies through gateway.
func New(gateway verify.Gateway, opts ...Option) *Checker {
	c := &Checker{
		gateway:     gateway,
		logger:      zap.NewNop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gateway == nil {
		c.gateway = verify.Offline{}
	}
	return c
}

// Check parses text and checks every citation found. Empty or unparseable
// input yields an empty report with format "unknown", not an error. The only
// error is ctx being done before all citations were checked.
func (c *Checker) Check(ctx context.Context, text string, flags verify.Flags) (Report, error) {
	start := time.Now()
	raws, format := parse.Parse(text)

	results, err := c.CheckCitations(ctx, raws, flags)
	if err != nil {
		return Report{}, err
	}

	c.logger.Debug("check finished",
		zap.String("format", string(format)),
		zap.Int("citations", len(results)),
		zap.Bool("check_doi", flags.CheckDOI),
		zap.Bool("check_url", flags.CheckURL),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Report{Format: format, Results: results}, nil
}

// CheckCitations checks already-segmented citations. Verification runs on a
// bounded pool; results come back in input order with Index = position + 1
// regardless of which lookups finish first.
func (c *Checker) CheckCitations(ctx context.Context, raws []string, flags verify.Flags) ([]citation.Result, error) {
	fields := make([]citation.Fields, len(raws))
	for i, raw := range raws {
		fields[i] = extract.Fields(raw)
	}

	results := make([]citation.Result, len(raws))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, raw := range raws {
		g.Go(func() error {
			v := verify.Verify(gCtx, c.gateway, fields[i], flags)
			// Each goroutine owns results[i].
			results[i] = classify.Evaluate(i+1, raw, fields[i], v)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
