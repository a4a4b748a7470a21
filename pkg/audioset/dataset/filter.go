package dataset

import (
	"iter"
	"strings"
)

// Matcher decides whether a raw label field carries a label identifier.
type Matcher interface {
	Match(rawLabels, labelID string) bool
}

// Containment matches by substring, the way the segments file has always
// been read. An identifier that is a prefix of another one matches both.
type Containment struct{}

func (Containment) Match(rawLabels, labelID string) bool {
	return labelID != "" && strings.Contains(rawLabels, labelID)
}

// Delimited splits the raw field on Sep (default ",") and compares
// identifiers exactly.
type Delimited struct {
	Sep string
}

func (d Delimited) Match(rawLabels, labelID string) bool {
	sep := d.Sep
	if sep == "" {
		sep = ","
	}
	for _, part := range strings.Split(rawLabels, sep) {
		if strings.TrimSpace(part) == labelID {
			return true
		}
	}
	return false
}

// MatchAny reports whether any of ids matches raw.
func MatchAny(m Matcher, raw string, ids []string) bool {
	for _, id := range ids {
		if m.Match(raw, id) {
			return true
		}
	}
	return false
}

// Filter yields, in input order, the rows carrying at least one wanted
// label and none of the blacklisted ones. Errors from rows are passed
// through and end the sequence.
func Filter(rows iter.Seq2[Row, error], wanted, blacklist []string, m Matcher) iter.Seq2[Row, error] {
	if m == nil {
		m = Containment{}
	}
	return func(yield func(Row, error) bool) {
		if len(wanted) == 0 {
			return
		}
		for row, err := range rows {
			if err != nil {
				yield(Row{}, err)
				return
			}
			if !MatchAny(m, row.Labels, wanted) {
				continue
			}
			if MatchAny(m, row.Labels, blacklist) {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}
