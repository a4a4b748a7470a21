package audioset

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/dataset"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/fetch"
	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/labels"
	"github.com/himanishpuri/AudioSetCurator/pkg/logger"
)

const testSegments = `# Segments csv created Sun Mar  5 10:54:31 2017
# num_ytid=4, num_segs=4, num_unique_labels=5, num_positive_labels=6
# YTID, start_seconds, end_seconds, positive_labels
abc123, 30.000, 40.000, "/m/09x0r,/m/05zppz"
def456, 0.000, 10.000, "/m/0bt9lr,/m/05tny_"
ghi789, 10.000, 20.000, "/m/09x0r"
jkl012, 5.000, 15.000, "/m/0bt9lr"
`

func testIndex() *labels.Index {
	return labels.NewIndex([]labels.Entry{
		{Index: 0, ID: "/m/09x0r", DisplayName: "Speech"},
		{Index: 1, ID: "/m/02zsn", DisplayName: "Female speech, woman speaking"},
		{Index: 2, ID: "/m/05zppz", DisplayName: "Male speech, man speaking"},
		{Index: 3, ID: "/m/0bt9lr", DisplayName: "Dog"},
		{Index: 4, ID: "/m/05tny_", DisplayName: "Bark"},
	})
}

type testEnv struct {
	dataset string
	source  string
	dest    string
	logs    *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		dataset: filepath.Join(root, "balanced_train_segments.csv"),
		source:  filepath.Join(root, "downloads"),
		dest:    filepath.Join(root, "sorted"),
		logs:    &bytes.Buffer{},
	}
	if err := os.WriteFile(env.dataset, []byte(testSegments), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(env.source, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"abc123.wav", "ghi789_10.000.wav", "zzz999.wav"} {
		if err := os.WriteFile(filepath.Join(env.source, name), []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return env
}

func (env *testEnv) service(t *testing.T, opts ...Option) *Curator {
	t.Helper()
	log := logger.New(logger.Config{Level: logger.DEBUG, Output: env.logs})
	opts = append([]Option{WithLabelIndex(testIndex()), WithLogger(log)}, opts...)
	s, err := NewService(opts...)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return s
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// fakeFetcher writes a placeholder clip unless the media id is marked as failing.
type fakeFetcher struct {
	fail     map[string]bool
	requests []fetch.Request
}

func (f *fakeFetcher) Fetch(_ context.Context, req fetch.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.fail[req.MediaID] {
		return "", &fetch.Error{MediaID: req.MediaID, Start: req.Start, Stage: fetch.StageResolve, Err: errors.New("video unavailable")}
	}
	if err := os.MkdirAll(req.DestDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(req.DestDir, fetch.ClipName(req.MediaID, req.Start))
	return path, os.WriteFile(path, []byte("RIFF"), 0644)
}

func TestResolve(t *testing.T) {
	env := newTestEnv(t)
	s := env.service(t)

	got := s.Resolve("Speech")
	if len(got) != 3 {
		t.Fatalf("expected 3 entries for Speech, got %v", got)
	}
	if !strings.Contains(env.logs.String(), "Multiple labels found") {
		t.Errorf("expected multiple-match log line, got:\n%s", env.logs.String())
	}

	strict := env.service(t, WithStrict(true))
	if got := strict.Resolve("Speech"); len(got) != 1 || got[0].ID != "/m/09x0r" {
		t.Errorf("strict Resolve = %v", got)
	}
	if got := strict.Resolve("Guitar"); len(got) != 0 {
		t.Errorf("expected no match, got %v", got)
	}
}

func TestFindSortsIntoLabelDirs(t *testing.T) {
	env := newTestEnv(t)
	s := env.service(t)

	report, err := s.Find(context.Background(), []string{"Speech"}, env.dataset, env.source, env.dest)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if report.RunID == "" {
		t.Error("expected a run id")
	}

	res := report.Classes[0]
	if res.Rows != 2 {
		t.Errorf("expected 2 matching rows, got %d", res.Rows)
	}
	if !reflect.DeepEqual(res.Missing, []string{"/m/02zsn"}) {
		t.Errorf("Missing = %v", res.Missing)
	}
	wantGroups := map[string]int{"Speech": 2, "Male speech, man speaking": 1}
	if !reflect.DeepEqual(res.Groups, wantGroups) {
		t.Errorf("Groups = %v, want %v", res.Groups, wantGroups)
	}

	if got := listDir(t, filepath.Join(env.dest, "Speech")); !reflect.DeepEqual(got, []string{"abc123.wav", "ghi789_10.000.wav"}) {
		t.Errorf("Speech dir = %v", got)
	}
	if got := listDir(t, filepath.Join(env.dest, "Male speech, man speaking")); !reflect.DeepEqual(got, []string{"abc123.wav"}) {
		t.Errorf("Male speech dir = %v", got)
	}
	if res.Organized == nil || res.Organized.Copied != 3 {
		t.Errorf("unexpected organize summary %+v", res.Organized)
	}
}

func TestFindBlacklistExcludesRows(t *testing.T) {
	env := newTestEnv(t)
	// "male speech" is a substring of "female speech" too
	s := env.service(t, WithBlacklist("Male speech"))

	report, err := s.Find(context.Background(), []string{"Speech"}, env.dataset, env.source, env.dest)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	res := report.Classes[0]
	if !reflect.DeepEqual(res.Blacklist, []string{"/m/02zsn", "/m/05zppz"}) {
		t.Errorf("Blacklist = %v", res.Blacklist)
	}
	if res.Rows != 1 {
		t.Errorf("expected only ghi789 to survive, got %d rows", res.Rows)
	}
	if got := listDir(t, filepath.Join(env.dest, "Speech")); !reflect.DeepEqual(got, []string{"ghi789_10.000.wav"}) {
		t.Errorf("Speech dir = %v", got)
	}
	if !strings.Contains(env.logs.String(), "also blacklisted") {
		t.Error("expected a warning for a label that is both wanted and blacklisted")
	}
}

func TestFindUnresolvedClassIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	s := env.service(t)

	report, err := s.Find(context.Background(), []string{"Guitar", "Dog"}, env.dataset, env.source, env.dest)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if got := report.Unresolved(); !reflect.DeepEqual(got, []string{"Guitar"}) {
		t.Errorf("Unresolved = %v", got)
	}
	if len(report.Classes) != 2 {
		t.Errorf("expected both classes reported, got %d", len(report.Classes))
	}
}

func TestFindMissingDatasetIsFatal(t *testing.T) {
	env := newTestEnv(t)
	s := env.service(t)

	_, err := s.Find(context.Background(), []string{"Speech"}, filepath.Join(env.source, "nope.csv"), env.source, env.dest)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, statErr := os.Stat(env.dest); !os.IsNotExist(statErr) {
		t.Error("nothing should be created when the dataset cannot be read")
	}
}

func TestFindMissingSourceIsFatal(t *testing.T) {
	env := newTestEnv(t)
	s := env.service(t)

	_, err := s.Find(context.Background(), []string{"Speech"}, env.dataset, filepath.Join(env.source, "gone"), env.dest)
	if err == nil {
		t.Fatal("expected error for missing source dir")
	}
}

func TestFindWritesManifest(t *testing.T) {
	env := newTestEnv(t)
	manifests := t.TempDir()
	s := env.service(t, WithManifestDir(manifests))

	report, err := s.Find(context.Background(), []string{"Speech"}, env.dataset, env.source, env.dest)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	want := filepath.Join(manifests, "Speech.csv")
	if report.Classes[0].Manifest != want {
		t.Errorf("Manifest = %q, want %q", report.Classes[0].Manifest, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "abc123,30.000,40.000,") {
		t.Errorf("unexpected manifest:\n%s", data)
	}
}

func TestDownloadContinuesPastFailures(t *testing.T) {
	env := newTestEnv(t)
	f := &fakeFetcher{fail: map[string]bool{"ghi789": true}}
	s := env.service(t, WithFetcher(f))

	report, err := s.Download(context.Background(), []string{"Speech"}, env.dataset, env.dest)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	if report.Attempted != 3 {
		t.Errorf("Attempted = %d, want 3", report.Attempted)
	}
	if len(report.Failures) != 1 || report.Failures[0].MediaID != "ghi789" {
		t.Errorf("Failures = %v", report.Failures)
	}
	want := []string{
		filepath.Join(env.dest, "Male speech, man speaking", "abc123_30.000.wav"),
		filepath.Join(env.dest, "Speech", "abc123_30.000.wav"),
	}
	if !reflect.DeepEqual(report.Fetched, want) {
		t.Errorf("Fetched = %v\nwant %v", report.Fetched, want)
	}
	for _, p := range want {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s on disk: %v", p, err)
		}
	}
}

func TestDownloadWrapsPlainErrors(t *testing.T) {
	err := asFetchError(errors.New("boom"), dataset.Clip{MediaID: "abc123", Start: 30, End: 40})
	if err.MediaID != "abc123" || err.Stage != "fetch" {
		t.Errorf("unexpected error %+v", err)
	}
}

func TestDownloadStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	f := &fakeFetcher{}
	s := env.service(t, WithFetcher(f))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Download(ctx, []string{"Speech"}, env.dataset, env.dest)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.requests) != 0 {
		t.Errorf("no clip should be fetched after cancellation, got %d", len(f.requests))
	}
}
