package model

import "sort"

// IssueKind is the data-quality taxonomy collected during a run.
type IssueKind uint8

const (
	IssueUnparsed IssueKind = iota
	IssueExtraction
	IssueAmbiguity
	IssueRating
	IssueDuplicate
)

func (k IssueKind) String() string {
	switch k {
	case IssueUnparsed:
		return "unparsed_row"
	case IssueExtraction:
		return "extraction_failure"
	case IssueAmbiguity:
		return "sequencing_ambiguity"
	case IssueRating:
		return "rating_inconsistency"
	case IssueDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Issue is one record-level problem. Issues never abort a run.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	EventID  string    `json:"event_id,omitempty"`
	RoundID  string    `json:"round_id,omitempty"`
	Row      int       `json:"row"`
	MatchID  string    `json:"match_id,omitempty"`
	Wrestler string    `json:"wrestler,omitempty"`
	Reason   string    `json:"reason"`
	Raw      string    `json:"raw,omitempty"`
}

// Report accumulates counts and issues alongside a run's primary output.
type Report struct {
	Documents  int     `json:"documents"`
	SourceRows int     `json:"source_rows"`
	Matches    int     `json:"matches"`
	Skipped    int     `json:"skipped"`
	Issues     []Issue `json:"issues"`
}

// Add records an issue.
func (r *Report) Add(i Issue) {
	r.Issues = append(r.Issues, i)
}

// Merge folds o into r.
func (r *Report) Merge(o Report) {
	r.Documents += o.Documents
	r.SourceRows += o.SourceRows
	r.Matches += o.Matches
	r.Skipped += o.Skipped
	r.Issues = append(r.Issues, o.Issues...)
}

// Count returns the number of issues of kind.
func (r Report) Count(kind IssueKind) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// Reconciled reports whether every source row is accounted for exactly once:
// as a match, an explicitly skipped row, an unparsed row or an extraction failure.
func (r Report) Reconciled() bool {
	return r.SourceRows == r.Matches+r.Skipped+r.Count(IssueUnparsed)+r.Count(IssueExtraction)
}

// Sort orders issues by kind, event, round and row so reports are stable
// regardless of worker scheduling.
func (r *Report) Sort() {
	sort.SliceStable(r.Issues, func(a, b int) bool {
		x, y := r.Issues[a], r.Issues[b]
		if x.Kind != y.Kind {
			return x.Kind < y.Kind
		}
		if x.EventID != y.EventID {
			return x.EventID < y.EventID
		}
		if x.RoundID != y.RoundID {
			return x.RoundID < y.RoundID
		}
		if x.Row != y.Row {
			return x.Row < y.Row
		}
		return x.MatchID < y.MatchID
	})
}
