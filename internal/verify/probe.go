package verify

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultURLTimeout bounds each individual probe request.
const DefaultURLTimeout = 8 * time.Second

// Prober checks whether URLs answer with a success or redirect status.
type Prober struct {
	client  *http.Client
	timeout time.Duration
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProbeClient sets the HTTP client used for probes.
func WithProbeClient(hc *http.Client) ProberOption {
	return func(p *Prober) {
		p.client = hc
	}
}

// WithProbeTimeout sets the per-request timeout.
func WithProbeTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		p.timeout = timeout
	}
}

// NewProber creates a new URL prober.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		client:  &http.Client{},
		timeout: DefaultURLTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe sends a HEAD request to rawURL. If HEAD fails at the transport level
// it retries once with GET. A status in [200, 400) is reachable; anything else
// returns ErrUnreachable, and transport failures return ErrNetworkError.
func (p *Prober) Probe(ctx context.Context, rawURL string) error {
	status, err := p.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		status, err = p.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNetworkError, err)
		}
	}
	if status < 200 || status >= 400 {
		return fmt.Errorf("%w: status %d", ErrUnreachable, status)
	}
	return nil
}

// do issues one time-bounded request and returns its status code. The body is
// never read.
func (p *Prober) do(ctx context.Context, method, rawURL string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("citecheck/%s", Version))

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
