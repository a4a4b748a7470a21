package audioset

import (
	"time"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/fetch"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/organize"
)

// ClassResult is what happened to one requested class name.
type ClassResult struct {
	Class     string
	LabelIDs  []string          // resolved wanted identifiers
	Blacklist []string          // resolved blacklisted identifiers
	Rows      int               // dataset rows that passed the filter
	Groups    map[string]int    // label directory -> clip count
	Missing   []string          // resolved ids without any clip
	Manifest  string            // path of the written manifest, if any
	Organized *organize.Summary // find mode only
	Err       error             // per-class destination failure
}

// Resolved reports whether the class name matched any label.
func (r *ClassResult) Resolved() bool { return len(r.LabelIDs) > 0 }

// FindReport summarises a Find run.
type FindReport struct {
	RunID   string
	Classes []*ClassResult
	Elapsed time.Duration
}

// Unresolved lists class names that matched no label.
func (r *FindReport) Unresolved() []string { return unresolved(r.Classes) }

// DownloadReport summarises a Download run.
type DownloadReport struct {
	RunID     string
	Classes   []*ClassResult
	Attempted int
	Fetched   []string       // paths of written clips
	Failures  []*fetch.Error // per-clip failures, in order
	Elapsed   time.Duration
}

func (r *DownloadReport) Unresolved() []string { return unresolved(r.Classes) }

func unresolved(classes []*ClassResult) []string {
	var out []string
	for _, c := range classes {
		if !c.Resolved() {
			out = append(out, c.Class)
		}
	}
	return out
}
