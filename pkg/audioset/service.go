package audioset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/dataset"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/fetch"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/labels"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/organize"
	"github.com/himanishpuri/AudioSetCurator/pkg/logger"
	"github.com/himanishpuri/AudioSetCurator/pkg/utils"
)

// Curator is the default implementation of the Service interface.
type Curator struct {
	index     *labels.Index
	blacklist []string
	fetcher   fetch.Fetcher
	log       Logger
	config    *Config
}

var _ Service = (*Curator)(nil)

func NewService(opts ...Option) (*Curator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Matcher == nil {
		cfg.Matcher = dataset.Containment{}
	}

	ix := cfg.LabelIndex
	if ix == nil {
		var err error
		ix, err = labels.LoadIndex(cfg.LabelIndexPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load label index: %w", err)
		}
	}
	cfg.Logger.Debugf("Loaded %d labels", ix.Len())

	f := cfg.Fetcher
	if f == nil {
		clipper := fetch.NewClipper(cfg.SampleRate)
		clipper.Duration = cfg.ClipDuration
		clipper.Timeout = cfg.FetchTimeout
		f = clipper
	}

	s := &Curator{
		index:   ix,
		fetcher: f,
		log:     cfg.Logger,
		config:  cfg,
	}
	s.blacklist = s.resolveBlacklist()
	return s, nil
}

// Resolve looks a class name up in the label index and logs the outcome.
func (s *Curator) Resolve(className string) []labels.Entry {
	entries := s.index.ResolveEntries(className, s.config.Strict)
	switch len(entries) {
	case 0:
		s.log.Warnf("No label id for class %q", className)
	case 1:
		s.log.Infof("Label id for %q: %s (%s)", className, entries[0].ID, entries[0].DisplayName)
	default:
		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		s.log.Infof("Multiple labels found for %q: %v", className, ids)
	}
	return entries
}

func (s *Curator) resolveBlacklist() []string {
	var ids []string
	for _, name := range s.config.Blacklist {
		for _, id := range s.index.Resolve(name, s.config.Strict) {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	if len(s.config.Blacklist) > 0 {
		s.log.Infof("Blacklist %v resolved to %d label id(s): %v", s.config.Blacklist, len(ids), ids)
	}
	return ids
}

// dirName names the destination directory of a label.
func (s *Curator) dirName(labelID string) string {
	if e, ok := s.index.Lookup(labelID); ok && e.DisplayName != "" {
		return utils.SanitizeName(e.DisplayName, utils.SanitizeName(labelID, "unknown"))
	}
	return utils.SanitizeName(labelID, "unknown")
}

// collect resolves one class and streams the dataset through the filter
// and grouper. An error means the dataset could not be read.
func (s *Curator) collect(ctx context.Context, class, datasetPath string) (*ClassResult, dataset.Groups, error) {
	res := &ClassResult{Class: class, Groups: make(map[string]int)}

	for _, e := range s.Resolve(class) {
		res.LabelIDs = append(res.LabelIDs, e.ID)
	}
	if !res.Resolved() {
		return res, nil, nil
	}

	res.Blacklist = s.blacklist
	for _, id := range res.LabelIDs {
		if slices.Contains(res.Blacklist, id) {
			s.log.Warnf("Label %s of class %q is also blacklisted; none of its rows can be selected", id, class)
		}
	}

	f, err := os.Open(datasetPath)
	if err != nil {
		return res, nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	var manifest *dataset.ManifestWriter
	if s.config.ManifestDir != "" {
		mw, existed, err := dataset.CreateManifest(s.config.ManifestDir, class)
		if err != nil {
			s.log.Errorf("Manifest for %q not written: %v", class, err)
		} else {
			if existed {
				s.log.Warnf("Overwriting manifest %s", mw.Path)
			}
			manifest = mw
			res.Manifest = mw.Path
			defer func() {
				if err := mw.Close(); err != nil {
					s.log.Errorf("Closing manifest %s: %v", mw.Path, err)
				}
			}()
		}
	}

	grouper := dataset.NewGrouper(res.LabelIDs, s.config.Matcher)
	rows := dataset.Filter(dataset.Scan(f), res.LabelIDs, res.Blacklist, s.config.Matcher)
	for row, err := range rows {
		if err != nil {
			return res, nil, fmt.Errorf("scanning dataset %s: %w", datasetPath, err)
		}
		if err := ctx.Err(); err != nil {
			return res, nil, err
		}
		res.Rows++
		grouper.Add(row)
		if manifest != nil {
			if err := manifest.Write(row); err != nil {
				s.log.Errorf("Writing manifest %s: %v", manifest.Path, err)
				manifest = nil
			}
		}
	}

	res.Missing = grouper.Missing()
	for _, id := range res.Missing {
		s.log.Warnf("No clips found for %s", id)
	}

	groups := grouper.Groups().Relabel(s.dirName)
	for _, label := range groups.Labels() {
		res.Groups[label] = groups[label].Len()
		s.log.Infof("%d clip(s) for label %q", groups[label].Len(), label)
	}
	s.log.Infof("Class %q: %d matching row(s) in %s", class, res.Rows, filepath.Base(datasetPath))
	return res, groups, nil
}

// Find copies already downloaded files into destDir/<label> for every
// class. Class names that resolve to nothing are reported and skipped. An
// unreadable dataset or source directory aborts the run.
func (s *Curator) Find(ctx context.Context, classNames []string, datasetPath, sourceDir, destDir string) (*FindReport, error) {
	start := time.Now()
	report := &FindReport{RunID: uuid.NewString()}
	s.log.Infof("Finding examples for classes %v in %s (run %s)", classNames, sourceDir, report.RunID)

	info, err := os.Stat(sourceDir)
	if err != nil {
		return report, fmt.Errorf("source dir: %w", err)
	}
	if !info.IsDir() {
		return report, fmt.Errorf("source dir %s is not a directory", sourceDir)
	}

	for _, class := range classNames {
		res, groups, err := s.collect(ctx, class, datasetPath)
		if res != nil {
			report.Classes = append(report.Classes, res)
		}
		if err != nil {
			return report, err
		}
		if len(groups) == 0 {
			continue
		}

		sum, err := organize.Organize(groups.MediaIDs(), sourceDir, destDir)
		res.Organized = sum
		if err != nil {
			if sum == nil {
				return report, err
			}
			res.Err = err
			s.log.Errorf("Sorting files for %q: %v", class, err)
		}
		if sum != nil {
			s.log.Infof("Class %q: %s", class, sum)
		}
	}

	report.Elapsed = time.Since(start)
	s.log.Infof("Finished sorting files in %s", report.Elapsed.Round(time.Millisecond))
	return report, nil
}

// Download fetches every clip of every class, one at a time, into
// destDir/<label>. A clip that fails is logged and recorded in the report
// and the batch continues. Cancelling ctx stops the batch.
func (s *Curator) Download(ctx context.Context, classNames []string, datasetPath, destDir string) (*DownloadReport, error) {
	start := time.Now()
	report := &DownloadReport{RunID: uuid.NewString()}
	s.log.Infof("Downloading clips for classes %v into %s (run %s)", classNames, destDir, report.RunID)

	for _, class := range classNames {
		res, groups, err := s.collect(ctx, class, datasetPath)
		if res != nil {
			report.Classes = append(report.Classes, res)
		}
		if err != nil {
			return report, err
		}

		for _, label := range groups.Labels() {
			dir := filepath.Join(destDir, label)
			for _, clip := range groups[label].Clips {
				if err := ctx.Err(); err != nil {
					return report, err
				}
				report.Attempted++

				path, err := s.fetcher.Fetch(ctx, fetch.Request{MediaID: clip.MediaID, Start: clip.Start, DestDir: dir})
				if err != nil {
					if ctxErr := ctx.Err(); ctxErr != nil {
						return report, ctxErr
					}
					fe := asFetchError(err, clip)
					report.Failures = append(report.Failures, fe)
					s.log.Warnf("Skipping %s: %v", clip.MediaID, fe)
					continue
				}
				report.Fetched = append(report.Fetched, path)
				s.log.Debugf("Fetched %s", path)
			}
		}
	}

	report.Elapsed = time.Since(start)
	s.log.Infof("Fetched %d of %d clip(s), %d failed, in %s",
		len(report.Fetched), report.Attempted, len(report.Failures), report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func asFetchError(err error, clip dataset.Clip) *fetch.Error {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		return fe
	}
	return &fetch.Error{MediaID: clip.MediaID, Start: clip.Start, Stage: "fetch", Err: err}
}
