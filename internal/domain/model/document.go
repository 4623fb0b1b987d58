package model

import "time"

// RoundDocument is one round's raw result markup plus its event metadata.
type RoundDocument struct {
	EventID      string
	EventName    string
	Date         time.Time
	RoundID      string
	RoundLabel   string
	RoundOrdinal int // 0 means derive from RoundLabel
	Body         string
}

// Key identifies the event round a document describes.
func (d RoundDocument) Key() string {
	return d.EventID + "/" + d.RoundID
}

// RowKind classifies a normalized source row.
type RowKind uint8

const (
	RowBout RowKind = iota
	RowUnparsed
	RowSkipped
)

func (k RowKind) String() string {
	switch k {
	case RowBout:
		return "bout"
	case RowUnparsed:
		return "unparsed"
	case RowSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Row is the normalizer's view of one source row.
type Row struct {
	Index       int // position among the document's source rows
	Kind        RowKind
	WeightClass string
	Text        string // whitespace-collapsed cell text
	Reason      string // why the row was skipped or left unparsed
	Raw         string // outer markup of the row
}
