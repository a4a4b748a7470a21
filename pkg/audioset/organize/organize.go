// Package organize sorts already downloaded files into per-label
// directories.
package organize

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/AudioSetCurator/pkg/utils"
)

// Summary describes one Organize run.
type Summary struct {
	Scanned  int              // entries looked at in the source directory
	Copied   int              // files written, counting one per label
	Bytes    int64            // bytes written
	PerLabel map[string]int   // files written per label
	Failed   map[string]error // labels whose destination failed
}

func (s *Summary) String() string {
	return fmt.Sprintf("%d file(s) copied into %d label dir(s), %s, %d failed label(s)",
		s.Copied, len(s.PerLabel), humanize.Bytes(uint64(s.Bytes)), len(s.Failed))
}

// Organize copies every file of sourceDir whose name contains one of a
// label's media ids into destDir/<label>, keeping the file name.
//
// sourceDir is listed once and not recursed into. A file matching several
// labels is copied into each of them. Sources are never modified; running
// twice overwrites the copies with identical content.
//
// An unreadable sourceDir is returned as an error before anything is
// written. A label whose directory cannot be created or written is marked
// failed in the summary and skipped while the other labels proceed; those
// failures are also returned joined.
func Organize(groups map[string][]string, sourceDir, destDir string) (*Summary, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("reading source dir: %w", err)
	}

	sum := &Summary{
		PerLabel: make(map[string]int),
		Failed:   make(map[string]error),
	}

	labels := slices.Sorted(maps.Keys(groups))
	dirs := make(map[string]string, len(labels))
	for _, label := range labels {
		dir := filepath.Join(destDir, label)
		if err := utils.MakeDir(dir); err != nil {
			sum.Failed[label] = fmt.Errorf("creating %s: %w", dir, err)
			continue
		}
		dirs[label] = dir
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		sum.Scanned++
		name := entry.Name()

		for _, label := range labels {
			dir, ok := dirs[label]
			if !ok || sum.Failed[label] != nil {
				continue
			}
			if !containsAny(name, groups[label]) {
				continue
			}

			n, err := utils.CopyFile(filepath.Join(sourceDir, name), filepath.Join(dir, name))
			if err != nil {
				sum.Failed[label] = err
				continue
			}
			sum.Copied++
			sum.Bytes += n
			sum.PerLabel[label]++
		}
	}

	if len(sum.Failed) == 0 {
		return sum, nil
	}
	errs := make([]error, 0, len(sum.Failed))
	for _, label := range labels {
		if err := sum.Failed[label]; err != nil {
			errs = append(errs, fmt.Errorf("label %q: %w", label, err))
		}
	}
	return sum, errors.Join(errs...)
}

func containsAny(name string, ids []string) bool {
	for _, id := range ids {
		if id != "" && strings.Contains(name, id) {
			return true
		}
	}
	return false
}
