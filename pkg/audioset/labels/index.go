// Package labels loads the AudioSet class label index and resolves human
// readable class names to label identifiers.
package labels

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultIndexFile is the file name AudioSet distributes the index under.
const DefaultIndexFile = "class_labels_indices.csv"

// Entry is one row of the label index.
type Entry struct {
	Index       int
	ID          string // e.g. "/m/09x0r"
	DisplayName string // e.g. "Speech"
}

// Index is an immutable, in-memory copy of the label index table.
type Index struct {
	entries []Entry
	byID    map[string]int
}

// header aliases, matched case-insensitively
var (
	indexColumns   = []string{"index"}
	idColumns      = []string{"mid", "id"}
	displayColumns = []string{"display_name", "name"}
)

// NewIndex builds an Index from entries already in memory.
func NewIndex(entries []Entry) *Index {
	ix := &Index{
		entries: make([]Entry, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	copy(ix.entries, entries)
	for i, e := range ix.entries {
		if _, dup := ix.byID[e.ID]; !dup {
			ix.byID[e.ID] = i
		}
	}
	return ix
}

// LoadIndex reads the label index CSV at path.
func LoadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening label index: %w", err)
	}
	defer f.Close()

	ix, err := ReadIndex(f)
	if err != nil {
		return nil, fmt.Errorf("reading label index %s: %w", path, err)
	}
	return ix, nil
}

// ReadIndex parses a label index. Columns are located through the header
// row by name, so their order does not matter.
func ReadIndex(r io.Reader) (*Index, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty label index")
		}
		return nil, err
	}

	idxCol, err := findColumn(header, indexColumns)
	if err != nil {
		return nil, err
	}
	idCol, err := findColumn(header, idColumns)
	if err != nil {
		return nil, err
	}
	nameCol, err := findColumn(header, displayColumns)
	if err != nil {
		return nil, err
	}
	need := max(idxCol, idCol, nameCol) + 1

	var entries []Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) < need {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected at least %d fields, got %d", line, need, len(record))
		}

		ordinal, err := strconv.Atoi(strings.TrimSpace(record[idxCol]))
		if err != nil {
			line, _ := reader.FieldPos(idxCol)
			return nil, fmt.Errorf("line %d: bad index %q: %w", line, record[idxCol], err)
		}
		entries = append(entries, Entry{
			Index:       ordinal,
			ID:          strings.TrimSpace(record[idCol]),
			DisplayName: strings.TrimSpace(record[nameCol]),
		})
	}

	return NewIndex(entries), nil
}

func findColumn(header []string, names []string) (int, error) {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), name) {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("label index header %v has no %q column", header, names[0])
}

// Entries returns the index rows in table order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Lookup returns the entry for a label identifier.
func (ix *Index) Lookup(id string) (Entry, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[i], true
}

// Resolve returns the identifiers whose display name matches className.
//
// Matching is case-insensitive. In strict mode the display name must equal
// className; otherwise className only has to occur inside the display name
// ("female speech" finds "Female speech, woman speaking"). A class name can
// therefore resolve to several identifiers; all of them are returned, in
// table order and without duplicates. No match yields an empty result.
func (ix *Index) Resolve(className string, strict bool) []string {
	needle := strings.ToLower(className)

	var ids []string
	seen := make(map[string]struct{})
	for _, e := range ix.entries {
		name := strings.ToLower(e.DisplayName)

		var ok bool
		if strict {
			ok = name == needle
		} else {
			ok = strings.Contains(name, needle)
		}
		if !ok {
			continue
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		ids = append(ids, e.ID)
	}
	return ids
}

// ResolveEntries is Resolve returning full entries.
func (ix *Index) ResolveEntries(className string, strict bool) []Entry {
	ids := ix.Resolve(className, strict)
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, _ := ix.Lookup(id)
		out = append(out, e)
	}
	return out
}
