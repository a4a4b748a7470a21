// Package dataset streams the AudioSet segments table and filters and groups
// its rows by label.
//
// A segments file looks like:
//
//	# Segments csv created Sun Mar  5 10:54:31 2017
//	# num_ytid=22160, num_segs=22160, num_unique_labels=527, num_positive_labels=52882
//	# YTID, start_seconds, end_seconds, positive_labels
//	--PJHxphWEs, 30.000, 40.000, "/m/09x0r,/t/dd00088"
//
// Label identifiers are packed into one quoted field, so membership is
// decided by a Matcher rather than by exact splitting.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Row is one segment of the dataset.
type Row struct {
	MediaID string
	Start   float64
	End     float64
	Labels  string // raw positive_labels field
	Line    int    // 1-based line in the source file
}

// LabelIDs splits the raw label field on commas. Only for display; use a
// Matcher to test membership.
func (r Row) LabelIDs() []string {
	parts := strings.Split(r.Labels, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Clip returns the fetchable part of the row.
func (r Row) Clip() Clip {
	return Clip{MediaID: r.MediaID, Start: r.Start, End: r.End}
}

// RowError reports a malformed record.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("dataset line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Reader decodes rows one at a time.
type Reader struct {
	csv *csv.Reader
}

// NewReader wraps r. Comment lines starting with '#' are skipped and spaces
// after separators are ignored.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Read returns the next row or io.EOF.
func (rd *Reader) Read() (Row, error) {
	record, err := rd.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return Row{}, &RowError{Line: pe.Line, Err: pe.Err}
		}
		return Row{}, err
	}

	line, _ := rd.csv.FieldPos(0)
	if len(record) < 4 {
		return Row{}, &RowError{Line: line, Err: fmt.Errorf("expected 4 fields, got %d", len(record))}
	}

	start, err := parseOffset(record[1])
	if err != nil {
		return Row{}, &RowError{Line: line, Err: fmt.Errorf("start_seconds: %w", err)}
	}
	end, err := parseOffset(record[2])
	if err != nil {
		return Row{}, &RowError{Line: line, Err: fmt.Errorf("end_seconds: %w", err)}
	}

	return Row{
		MediaID: strings.TrimSpace(record[0]),
		Start:   start,
		End:     end,
		Labels:  strings.TrimSpace(record[3]),
		Line:    line,
	}, nil
}

func parseOffset(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// FormatOffset renders an offset the way the segments CSV does ("30.000").
func FormatOffset(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// Scan lazily yields every row of r. A decode error is yielded once and
// ends the sequence.
func Scan(r io.Reader) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		rd := NewReader(r)
		for {
			row, err := rd.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Row{}, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Rows adapts an in-memory slice to the sequence type used by Filter.
func Rows(rows []Row) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}
