package verify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matsen/citecheck/internal/citation"
	"go.uber.org/zap"
)

const workJSON = `{
  "status": "ok",
  "message": {
    "title": ["Resolved Title"],
    "published-online": {"date-parts": [[2019, 5]]},
    "created": {"date-parts": [[2018, 1, 2]]}
  }
}`

func newCrossRefServer(t *testing.T, handler http.HandlerFunc) *CrossRefClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCrossRefClient(WithBaseURL(srv.URL+"/works"), WithRateLimit(1000))
}

func TestCrossRefClient_LookupResolved(t *testing.T) {
	client := newCrossRefServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works/10.1234/real" {
			t.Errorf("path = %s, want /works/10.1234/real", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "mailto:") {
			t.Errorf("User-Agent = %q, want a mailto contact", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(workJSON))
	})

	work, err := client.Lookup(context.Background(), "10.1234/real.")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if work.FirstTitle() != "Resolved Title" {
		t.Errorf("FirstTitle() = %q", work.FirstTitle())
	}
	if work.Year() != "2019" {
		t.Errorf("Year() = %q, want 2019", work.Year())
	}
}

func TestCrossRefClient_LookupStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newCrossRefServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.Lookup(context.Background(), "10.1234/fake999")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Lookup() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCrossRefClient_LookupServerError(t *testing.T) {
	client := newCrossRefServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Lookup(context.Background(), "10.1234/x")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Lookup() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusBadGateway)
	}
	if IsNotFound(err) {
		t.Error("IsNotFound() = true for a 502")
	}
}

func TestCrossRefClient_InvalidBody(t *testing.T) {
	client := newCrossRefServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.Lookup(context.Background(), "10.1234/x")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("Lookup() error = %v, want ErrInvalidResponse", err)
	}
}

func TestCrossRefClient_NetworkError(t *testing.T) {
	client := NewCrossRefClient(WithBaseURL(closedURL(t)), WithRateLimit(1000))

	_, err := client.Lookup(context.Background(), "10.1234/x")
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("Lookup() error = %v, want ErrNetworkError", err)
	}
}

func TestWork_YearPrecedence(t *testing.T) {
	y := func(v int) *int { return &v }

	tests := []struct {
		name string
		work Work
		want string
	}{
		{"print before online", Work{
			PublishedPrint:  &DateParts{DateParts: [][]*int{{y(2001)}}},
			PublishedOnline: &DateParts{DateParts: [][]*int{{y(2000)}}},
		}, "2001"},
		{"null print falls to created", Work{
			PublishedPrint: &DateParts{DateParts: [][]*int{{nil}}},
			Created:        &DateParts{DateParts: [][]*int{{y(1999)}}},
		}, "1999"},
		{"no dates", Work{}, ""},
	}
	for _, tt := range tests {
		if got := tt.work.Year(); got != tt.want {
			t.Errorf("%s: Year() = %q, want %q", tt.name, got, tt.want)
		}
	}

	if got := (&Work{}).FirstTitle(); got != "" {
		t.Errorf("FirstTitle() = %q, want empty", got)
	}
}

func TestProber_HeadReachable(t *testing.T) {
	var heads, others atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
		} else {
			others.Add(1)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewProber().Probe(context.Background(), srv.URL); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if heads.Load() != 1 || others.Load() != 0 {
		t.Errorf("got %d HEAD and %d other requests, want 1 and 0", heads.Load(), others.Load())
	}
}

func TestProber_StatusUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := NewProber().Probe(context.Background(), srv.URL); !errors.Is(err, ErrUnreachable) {
		t.Errorf("Probe() error = %v, want ErrUnreachable", err)
	}
}

// failHeadTransport fails HEAD requests at the transport level and passes
// everything else through.
type failHeadTransport struct {
	calls atomic.Int32
}

func (f *failHeadTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls.Add(1)
	if req.Method == http.MethodHead {
		return nil, errors.New("connection reset")
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestProber_FallsBackToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	transport := &failHeadTransport{}
	prober := NewProber(WithProbeClient(&http.Client{Transport: transport}))

	if err := prober.Probe(context.Background(), srv.URL); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if got := transport.calls.Load(); got != 2 {
		t.Errorf("transport saw %d requests, want HEAD then GET", got)
	}
}

func TestProber_BothFail(t *testing.T) {
	err := NewProber(WithProbeTimeout(time.Second)).Probe(context.Background(), closedURL(t))
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("Probe() error = %v, want ErrNetworkError", err)
	}
}

type fakeLookup struct {
	work *Work
	err  error
}

func (f fakeLookup) Lookup(context.Context, string) (*Work, error) { return f.work, f.err }

type fakeProbe struct{ err error }

func (f fakeProbe) Probe(context.Context, string) error { return f.err }

func TestOnline_FoldsErrors(t *testing.T) {
	g := NewOnline(fakeLookup{err: ErrNetworkError}, fakeProbe{err: ErrUnreachable}, zap.NewNop())

	state, meta := g.ResolveDOI(context.Background(), "10.1234/x")
	if state != citation.DOINotResolved || meta != nil {
		t.Errorf("ResolveDOI() = %s, %+v, want not_resolved, nil", state, meta)
	}
	if got := g.CheckURL(context.Background(), "https://x.test"); got != citation.URLUnreachable {
		t.Errorf("CheckURL() = %s, want unreachable", got)
	}
}

func TestOnline_Resolved(t *testing.T) {
	g := NewOnline(fakeLookup{work: &Work{Title: []string{"T"}}}, fakeProbe{}, nil)

	state, meta := g.ResolveDOI(context.Background(), "10.1234/x")
	if state != citation.DOIResolved {
		t.Errorf("ResolveDOI() state = %s, want resolved", state)
	}
	if meta == nil {
		t.Fatal("ResolveDOI() metadata = nil")
	}
	if meta.Title != "T" || meta.Year != "" {
		t.Errorf("metadata = %+v", meta)
	}
	if got := g.CheckURL(context.Background(), "https://x.test"); got != citation.URLReachable {
		t.Errorf("CheckURL() = %s, want reachable", got)
	}
}

// countingGateway records how often each check runs.
type countingGateway struct {
	doiCalls, urlCalls int
}

func (c *countingGateway) ResolveDOI(context.Context, string) (citation.DOIState, *citation.Metadata) {
	c.doiCalls++
	return citation.DOIResolved, &citation.Metadata{Year: "2001"}
}

func (c *countingGateway) CheckURL(context.Context, string) citation.URLState {
	c.urlCalls++
	return citation.URLReachable
}

func TestVerify_FlagsAndAbsentFields(t *testing.T) {
	ctx := context.Background()
	fields := citation.Fields{DOI: "10.1234/x", URL: "https://x.test"}

	g := &countingGateway{}
	v := Verify(ctx, g, fields, Flags{})
	if v.DOI != citation.DOINotChecked || v.URL != citation.URLNotChecked {
		t.Errorf("flags off: states = %s/%s, want not_checked", v.DOI, v.URL)
	}
	if g.doiCalls+g.urlCalls != 0 {
		t.Errorf("flags off: gateway called %d times", g.doiCalls+g.urlCalls)
	}

	v = Verify(ctx, g, citation.Fields{}, DefaultFlags())
	if v.DOI != citation.DOINotChecked || g.doiCalls+g.urlCalls != 0 {
		t.Errorf("no fields: DOI = %s after %d calls", v.DOI, g.doiCalls+g.urlCalls)
	}

	v = Verify(ctx, g, fields, DefaultFlags())
	if v.DOI != citation.DOIResolved || v.URL != citation.URLReachable {
		t.Errorf("both checks: states = %s/%s", v.DOI, v.URL)
	}
	if v.Metadata == nil || v.Metadata.Year != "2001" {
		t.Errorf("Metadata = %+v, want year 2001", v.Metadata)
	}
}

func TestOffline(t *testing.T) {
	v := Verify(context.Background(), Offline{}, citation.Fields{DOI: "10.1/x", URL: "http://x"}, DefaultFlags())
	if v.DOI != citation.DOINotChecked || v.URL != citation.URLNotChecked {
		t.Errorf("Offline states = %s/%s, want not_checked", v.DOI, v.URL)
	}
}

// closedURL returns the address of a listener that has already been closed.
func closedURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()
	return "http://" + addr
}
