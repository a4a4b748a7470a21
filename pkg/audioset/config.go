package audioset

import (
	"time"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/dataset"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/fetch"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/labels"
)

type Config struct {
	LabelIndexPath string
	LabelIndex     *labels.Index
	Strict         bool
	Blacklist      []string // class names, resolved like wanted classes
	Matcher        dataset.Matcher
	SampleRate     int
	ClipDuration   time.Duration
	FetchTimeout   time.Duration
	ManifestDir    string // empty: no per-class manifests
	Fetcher        fetch.Fetcher
	Logger         Logger
}

type Option func(*Config)

func WithLabelIndexPath(path string) Option {
	return func(c *Config) {
		c.LabelIndexPath = path
	}
}

// WithLabelIndex supplies an already loaded index; the path is ignored.
func WithLabelIndex(ix *labels.Index) Option {
	return func(c *Config) {
		c.LabelIndex = ix
	}
}

func WithStrict(strict bool) Option {
	return func(c *Config) {
		c.Strict = strict
	}
}

func WithBlacklist(classNames ...string) Option {
	return func(c *Config) {
		c.Blacklist = append(c.Blacklist, classNames...)
	}
}

func WithMatcher(m dataset.Matcher) Option {
	return func(c *Config) {
		c.Matcher = m
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithClipDuration(d time.Duration) Option {
	return func(c *Config) {
		c.ClipDuration = d
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.FetchTimeout = d
	}
}

func WithManifestDir(dir string) Option {
	return func(c *Config) {
		c.ManifestDir = dir
	}
}

func WithFetcher(f fetch.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func defaultConfig() *Config {
	return &Config{
		LabelIndexPath: "data/" + labels.DefaultIndexFile,
		Matcher:        dataset.Containment{},
		SampleRate:     fetch.DefaultSampleRate,
		ClipDuration:   fetch.DefaultClipDuration,
		FetchTimeout:   fetch.DefaultTimeout,
	}
}
