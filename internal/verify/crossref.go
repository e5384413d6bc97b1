// Package verify performs the online checks behind a citation verdict: DOI
// resolution against the CrossRef registry and URL reachability probes.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// CrossRefBaseURL is the CrossRef works endpoint.
	CrossRefBaseURL = "https://api.crossref.org/works"

	// DefaultDOITimeout bounds a single registry lookup.
	DefaultDOITimeout = 10 * time.Second

	// DefaultRateLimit is requests per second sent to CrossRef.
	DefaultRateLimit = 10.0

	// DefaultMailto is the contact address sent in the User-Agent.
	DefaultMailto = "user@example.com"
)

// Version is reported in the User-Agent header.
var Version = "dev"

// Work is the subset of a CrossRef work record we use.
type Work struct {
	Title           []string   `json:"title"`
	PublishedPrint  *DateParts `json:"published-print"`
	PublishedOnline *DateParts `json:"published-online"`
	Created         *DateParts `json:"created"`
}

// DateParts is CrossRef's {"date-parts": [[year, month, day]]} structure.
type DateParts struct {
	DateParts [][]*int `json:"date-parts"`
}

// year returns the first component of the first date, or 0.
func (d *DateParts) year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
		return 0
	}
	return *d.DateParts[0][0]
}

// FirstTitle returns the first title, or "".
func (w *Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return strings.TrimSpace(w.Title[0])
}

// Year returns the publication year, preferring print over online over
// record creation. It returns "" when none is known.
func (w *Work) Year() string {
	for _, d := range []*DateParts{w.PublishedPrint, w.PublishedOnline, w.Created} {
		if y := d.year(); y > 0 {
			return strconv.Itoa(y)
		}
	}
	return ""
}

// CrossRefClient is a rate-limited client for the CrossRef works API.
// It is safe for concurrent use.
type CrossRefClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// CrossRefOption configures a CrossRefClient.
type CrossRefOption func(*CrossRefClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) CrossRefOption {
	return func(c *CrossRefClient) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) CrossRefOption {
	return func(c *CrossRefClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithMailto sets the contact address CrossRef uses for its polite pool.
func WithMailto(mailto string) CrossRefOption {
	return func(c *CrossRefClient) {
		if mailto != "" {
			c.mailto = mailto
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) CrossRefOption {
	return func(c *CrossRefClient) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the maximum requests per second.
func WithRateLimit(perSecond float64) CrossRefOption {
	return func(c *CrossRefClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewCrossRefClient creates a new CrossRef client.
func NewCrossRefClient(opts ...CrossRefOption) *CrossRefClient {
	c := &CrossRefClient{
		httpClient: &http.Client{Timeout: DefaultDOITimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		baseURL:    CrossRefBaseURL,
		mailto:     DefaultMailto,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserAgent returns the User-Agent sent with every request.
func (c *CrossRefClient) UserAgent() string {
	return fmt.Sprintf("citecheck/%s (mailto:%s)", Version, c.mailto)
}

// Lookup fetches the work record for doi. A 404 yields ErrNotFound; other
// non-2xx statuses yield an *APIError.
func (c *CrossRefClient) Lookup(ctx context.Context, doi string) (*Work, error) {
	doi = strings.TrimRight(strings.TrimSpace(doi), ".,;")
	if !strings.HasPrefix(doi, "10.") {
		return nil, fmt.Errorf("%w: %q is not a DOI", ErrNotFound, doi)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(doi), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, doi)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			DOI:        doi,
		}
	}

	var envelope struct {
		Message *Work `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if envelope.Message == nil {
		return &Work{}, nil
	}
	return envelope.Message, nil
}
