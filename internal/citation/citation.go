// Package citation defines the value types shared by the citation checking pipeline.
package citation

// Format is the detected shape of a block of pasted citation text.
type Format string

const (
	FormatBibTeX      Format = "bibtex"
	FormatStructured  Format = "structured" // Author, A. (Year). Title. ...
	FormatUnformatted Format = "unformatted"
	FormatMixed       Format = "mixed"   // blocks disagree
	FormatUnknown     Format = "unknown" // empty input
)

// Status is the trust verdict for one citation.
type Status string

const (
	StatusValid         Status = "valid"
	StatusWarning       Status = "warning"
	StatusInvalid       Status = "invalid" // declared, not produced by any current rule
	StatusSuspectedFake Status = "suspected_fake"
)

// Statuses lists every status in escalation order.
var Statuses = []Status{StatusValid, StatusWarning, StatusInvalid, StatusSuspectedFake}

// rank orders statuses for escalation. A status never moves to a lower rank.
func (s Status) rank() int {
	switch s {
	case StatusWarning:
		return 1
	case StatusInvalid:
		return 2
	case StatusSuspectedFake:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether s is as severe as other or more.
func (s Status) AtLeast(other Status) bool {
	return s.rank() >= other.rank()
}

// DOIState is the outcome of a DOI registry lookup.
type DOIState int

const (
	DOINotChecked DOIState = iota
	DOIResolved
	DOINotResolved
)

func (s DOIState) String() string {
	switch s {
	case DOIResolved:
		return "resolved"
	case DOINotResolved:
		return "not_resolved"
	default:
		return "not_checked"
	}
}

// MarshalText encodes the state by name so reports never show bare integers.
func (s DOIState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// URLState is the outcome of a reachability probe.
type URLState int

const (
	URLNotChecked URLState = iota
	URLReachable
	URLUnreachable
)

func (s URLState) String() string {
	switch s {
	case URLReachable:
		return "reachable"
	case URLUnreachable:
		return "unreachable"
	default:
		return "not_checked"
	}
}

// MarshalText encodes the state by name.
func (s URLState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Fields holds what could be pulled out of a single citation string.
// Empty strings mean "absent".
type Fields struct {
	DOI     string   // normalized, starts with "10."
	Year    string   // four digits
	URL     string   // first URL found
	URLs    []string // every URL found, in order
	Authors []string // detection order
	Title   string
}

// Metadata is what a registry knows about a resolved DOI.
type Metadata struct {
	Title string
	Year  string
}

// Verification carries the online check outcomes for one citation.
type Verification struct {
	DOI      DOIState
	Metadata *Metadata // only set when DOI == DOIResolved
	URL      URLState
}
