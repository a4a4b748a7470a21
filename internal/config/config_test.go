package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/fetch"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "curator.yaml", `
label_index: /data/labels.csv
dataset: /data/eval_segments.csv
strict: true
blacklist:
  - "Male speech, man speaking"
  - Music
sample_rate: 22050
fetch_timeout: 45s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LabelIndex != "/data/labels.csv" || cfg.Dataset != "/data/eval_segments.csv" {
		t.Errorf("paths not loaded: %+v", cfg)
	}
	if !cfg.Strict || cfg.SampleRate != 22050 {
		t.Errorf("strict/rate not loaded: %+v", cfg)
	}
	if want := []string{"Male speech, man speaking", "Music"}; !reflect.DeepEqual(cfg.Blacklist, want) {
		t.Errorf("Blacklist = %v, want %v", cfg.Blacklist, want)
	}
	if cfg.FetchTimeout != 45*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.ClipDuration != Default().ClipDuration {
		t.Errorf("unset field should keep its default, got %v", cfg.ClipDuration)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "curator.yaml", "sample_rate: [not an int\n")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"AUDIOSET_DATASET":       "/env/segments.csv",
		"AUDIOSET_STRICT":        "true",
		"AUDIOSET_BLACKLIST":     "Male speech, man speaking; Music ;",
		"AUDIOSET_SAMPLE_RATE":   "8000",
		"AUDIOSET_CLIP_DURATION": "5s",
		"AUDIOSET_LOG_LEVEL":     "debug",
		"AUDIOSET_DEST_DIR":      "   ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	cfg.DestDir = "/from/yaml"
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}

	if cfg.Dataset != "/env/segments.csv" || !cfg.Strict || cfg.SampleRate != 8000 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if want := []string{"Male speech, man speaking", "Music"}; !reflect.DeepEqual(cfg.Blacklist, want) {
		t.Errorf("Blacklist = %v, want %v", cfg.Blacklist, want)
	}
	if cfg.ClipDuration != 5*time.Second || cfg.LogLevel != "debug" {
		t.Errorf("unexpected %v / %q", cfg.ClipDuration, cfg.LogLevel)
	}
	if cfg.DestDir != "/from/yaml" {
		t.Errorf("blank env value must not override, got %q", cfg.DestDir)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	for name, value := range map[string]string{
		"AUDIOSET_STRICT":        "sometimes",
		"AUDIOSET_SAMPLE_RATE":   "fast",
		"AUDIOSET_FETCH_TIMEOUT": "soon",
	} {
		lookup := func(k string) (string, bool) {
			if k == name {
				return value, true
			}
			return "", false
		}
		err := Default().applyEnv(lookup)
		if err == nil || !strings.Contains(err.Error(), name) {
			t.Errorf("%s=%q: expected error naming the variable, got %v", name, value, err)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "AUDIOSET_TEST_DOTENV=from-file\n")
	t.Setenv("AUDIOSET_TEST_DOTENV", "")
	os.Unsetenv("AUDIOSET_TEST_DOTENV")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("AUDIOSET_TEST_DOTENV"); got != "from-file" {
		t.Errorf("got %q", got)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := Default()
	cfg.Blacklist = []string{"Music"}
	cfg.SampleRate = 22050

	fs := pflag.NewFlagSet("download", pflag.ContinueOnError)
	cfg.BindFilter(fs)
	cfg.BindFetch(fs)
	err := fs.Parse([]string{
		"--blacklist", "Male speech, man speaking",
		"--blacklist", "Bark",
		"--timeout", "30s",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if want := []string{"Male speech, man speaking", "Bark"}; !reflect.DeepEqual(cfg.Blacklist, want) {
		t.Errorf("Blacklist = %v, want %v", cfg.Blacklist, want)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.SampleRate != 22050 {
		t.Errorf("unset flag must keep config value, got %d", cfg.SampleRate)
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	cfg := Default()
	cfg.SampleRate = 0
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "sample rate") || !strings.Contains(msg, "loud") {
		t.Errorf("error should list every problem, got %q", msg)
	}
}

func TestClipperUsesConfiguredTools(t *testing.T) {
	cfg := Default()
	cfg.YTDLP = "/opt/bin/yt-dlp"
	cfg.FFmpeg = "/opt/bin/ffmpeg"
	cfg.SampleRate = 8000

	c := cfg.Clipper()
	if c.SampleRate != 8000 || c.Timeout != cfg.FetchTimeout || c.Duration != cfg.ClipDuration {
		t.Errorf("unexpected clipper %+v", c)
	}
	if y, ok := c.Resolver.(*fetch.YTDLP); !ok || y.Executable != "/opt/bin/yt-dlp" {
		t.Errorf("unexpected resolver %#v", c.Resolver)
	}
	if f, ok := c.Transcoder.(*fetch.FFmpeg); !ok || f.Executable != "/opt/bin/ffmpeg" {
		t.Errorf("unexpected transcoder %#v", c.Transcoder)
	}
	if len(cfg.ServiceOptions(nil)) == 0 {
		t.Error("expected service options")
	}
}
