// Package config holds the curator settings. Values are layered: built-in
// defaults, then an optional YAML file, then AUDIOSET_* environment variables
// (a .env file may provide them), then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/fetch"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/labels"
	"github.com/himanishpuri/AudioSetCurator/pkg/logger"
)

const (
	DefaultFile = "curator.yaml"
	EnvPrefix   = "AUDIOSET_"

	// listSep separates blacklist entries in the environment; class names
	// themselves may contain commas.
	listSep = ";"
)

type Config struct {
	LabelIndex   string        `yaml:"label_index"`
	Dataset      string        `yaml:"dataset"`
	SourceDir    string        `yaml:"source_dir"`
	DestDir      string        `yaml:"dest_dir"`
	ManifestDir  string        `yaml:"manifest_dir"`
	Strict       bool          `yaml:"strict"`
	Blacklist    []string      `yaml:"blacklist"`
	SampleRate   int           `yaml:"sample_rate"`
	ClipDuration time.Duration `yaml:"clip_duration"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	YTDLP        string        `yaml:"ytdlp"`
	FFmpeg       string        `yaml:"ffmpeg"`
	LogLevel     string        `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		LabelIndex:   "data/" + labels.DefaultIndexFile,
		Dataset:      "data/balanced_train_segments.csv",
		SampleRate:   fetch.DefaultSampleRate,
		ClipDuration: fetch.DefaultClipDuration,
		FetchTimeout: fetch.DefaultTimeout,
		YTDLP:        "yt-dlp",
		FFmpeg:       "ffmpeg",
		LogLevel:     "INFO",
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of the given .env files (".env" when none
// are named) without overriding anything already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from AUDIOSET_* environment variables.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	strs := map[string]*string{
		"LABEL_INDEX":  &c.LabelIndex,
		"DATASET":      &c.Dataset,
		"SOURCE_DIR":   &c.SourceDir,
		"DEST_DIR":     &c.DestDir,
		"MANIFEST_DIR": &c.ManifestDir,
		"YTDLP":        &c.YTDLP,
		"FFMPEG":       &c.FFmpeg,
		"LOG_LEVEL":    &c.LogLevel,
	}
	for name, dst := range strs {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	if v, ok := get("STRICT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSTRICT: %w", EnvPrefix, err)
		}
		c.Strict = b
	}
	if v, ok := get("BLACKLIST"); ok {
		c.Blacklist = nil
		for _, name := range strings.Split(v, listSep) {
			if name = strings.TrimSpace(name); name != "" {
				c.Blacklist = append(c.Blacklist, name)
			}
		}
	}
	if v, ok := get("SAMPLE_RATE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSAMPLE_RATE: %w", EnvPrefix, err)
		}
		c.SampleRate = n
	}

	durations := map[string]*time.Duration{
		"CLIP_DURATION": &c.ClipDuration,
		"FETCH_TIMEOUT": &c.FetchTimeout,
	}
	for name, dst := range durations {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*dst = d
		}
	}
	return nil
}

// BindFilter registers the flags shared by the find and download commands,
// using the current values as defaults.
func (c *Config) BindFilter(flags *pflag.FlagSet) {
	flags.StringVar(&c.Dataset, "dataset", c.Dataset, "segments CSV to filter")
	flags.StringVar(&c.DestDir, "dest", c.DestDir, "destination root, one directory per label")
	flags.BoolVar(&c.Strict, "strict", c.Strict, "match class names exactly instead of by substring")
	flags.StringArrayVar(&c.Blacklist, "blacklist", c.Blacklist, "class name whose rows are excluded (repeatable)")
	flags.StringVar(&c.ManifestDir, "manifest-dir", c.ManifestDir, "write the filtered rows of each class to <dir>/<class>.csv")
}

// BindFetch registers the flags that control clip extraction.
func (c *Config) BindFetch(flags *pflag.FlagSet) {
	flags.IntVar(&c.SampleRate, "rate", c.SampleRate, "output sample rate in Hz")
	flags.DurationVar(&c.ClipDuration, "duration", c.ClipDuration, "clip length")
	flags.DurationVar(&c.FetchTimeout, "timeout", c.FetchTimeout, "per-clip timeout")
	flags.StringVar(&c.YTDLP, "ytdlp", c.YTDLP, "yt-dlp executable")
	flags.StringVar(&c.FFmpeg, "ffmpeg", c.FFmpeg, "ffmpeg executable")
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error
	if c.LabelIndex == "" {
		errs = append(errs, errors.New("label index path is empty"))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", c.SampleRate))
	}
	if c.ClipDuration <= 0 {
		errs = append(errs, fmt.Errorf("clip duration must be positive, got %s", c.ClipDuration))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Clipper builds the yt-dlp/ffmpeg fetcher described by c.
func (c *Config) Clipper() *fetch.Clipper {
	clipper := fetch.NewClipper(c.SampleRate)
	clipper.Resolver = &fetch.YTDLP{Executable: c.YTDLP}
	clipper.Transcoder = &fetch.FFmpeg{Executable: c.FFmpeg}
	clipper.Duration = c.ClipDuration
	clipper.Timeout = c.FetchTimeout
	return clipper
}

// ServiceOptions translates c into curator options.
func (c *Config) ServiceOptions(log audioset.Logger) []audioset.Option {
	return []audioset.Option{
		audioset.WithLabelIndexPath(c.LabelIndex),
		audioset.WithStrict(c.Strict),
		audioset.WithBlacklist(c.Blacklist...),
		audioset.WithSampleRate(c.SampleRate),
		audioset.WithClipDuration(c.ClipDuration),
		audioset.WithFetchTimeout(c.FetchTimeout),
		audioset.WithManifestDir(c.ManifestDir),
		audioset.WithFetcher(c.Clipper()),
		audioset.WithLogger(log),
	}
}
