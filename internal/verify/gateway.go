package verify

import (
	"context"

	"github.com/matsen/citecheck/internal/citation"
	"go.uber.org/zap"
)

// Gateway is the online verification boundary. Implementations never return
// errors: every failure is folded into the not-resolved or unreachable state.
type Gateway interface {
	ResolveDOI(ctx context.Context, doi string) (citation.DOIState, *citation.Metadata)
	CheckURL(ctx context.Context, rawURL string) citation.URLState
}

// DOILookup is satisfied by *CrossRefClient.
type DOILookup interface {
	Lookup(ctx context.Context, doi string) (*Work, error)
}

// URLProbe is satisfied by *Prober.
type URLProbe interface {
	Probe(ctx context.Context, rawURL string) error
}

// Online verifies against live services.
type Online struct {
	doi    DOILookup
	url    URLProbe
	logger *zap.Logger
}

// NewOnline creates a gateway from a DOI lookup and a URL probe.
func NewOnline(doi DOILookup, url URLProbe, logger *zap.Logger) *Online {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Online{doi: doi, url: url, logger: logger}
}

// ResolveDOI looks doi up. The registry's "not found" and any failure to ask
// it are reported the same way.
func (g *Online) ResolveDOI(ctx context.Context, doi string) (citation.DOIState, *citation.Metadata) {
	work, err := g.doi.Lookup(ctx, doi)
	if err != nil {
		if IsNotFound(err) {
			g.logger.Debug("DOI not found", zap.String("doi", doi))
		} else {
			g.logger.Warn("DOI lookup failed", zap.String("doi", doi), zap.Error(err))
		}
		return citation.DOINotResolved, nil
	}
	return citation.DOIResolved, &citation.Metadata{
		Title: work.FirstTitle(),
		Year:  work.Year(),
	}
}

// CheckURL probes rawURL.
func (g *Online) CheckURL(ctx context.Context, rawURL string) citation.URLState {
	if err := g.url.Probe(ctx, rawURL); err != nil {
		g.logger.Debug("URL unreachable", zap.String("url", rawURL), zap.Error(err))
		return citation.URLUnreachable
	}
	return citation.URLReachable
}

// Offline never touches the network and reports nothing as checked.
type Offline struct{}

func (Offline) ResolveDOI(context.Context, string) (citation.DOIState, *citation.Metadata) {
	return citation.DOINotChecked, nil
}

func (Offline) CheckURL(context.Context, string) citation.URLState {
	return citation.URLNotChecked
}

// Flags selects which online checks run.
type Flags struct {
	CheckDOI bool
	CheckURL bool
}

// DefaultFlags enables both checks.
func DefaultFlags() Flags {
	return Flags{CheckDOI: true, CheckURL: true}
}

// Verify runs the enabled checks for one citation's fields. Disabled checks,
// and checks with nothing to check, are reported as not checked.
func Verify(ctx context.Context, g Gateway, f citation.Fields, flags Flags) citation.Verification {
	var v citation.Verification
	if flags.CheckDOI && f.DOI != "" {
		v.DOI, v.Metadata = g.ResolveDOI(ctx, f.DOI)
		if v.DOI != citation.DOIResolved {
			v.Metadata = nil
		}
	}
	if flags.CheckURL && f.URL != "" {
		v.URL = g.CheckURL(ctx, f.URL)
	}
	return v
}
