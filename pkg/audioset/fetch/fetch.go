// Package fetch produces fixed-length audio clips for AudioSet segments.
//
// A Clipper resolves the stream URL of a video, cuts the segment out with a
// transcoder, checks the result and moves it into place as
// <media_id>_<start>.wav. Every step can fail independently; failures are
// reported as *Error so a batch can log them and move on.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/dataset"
	"github.com/himanishpuri/AudioSetCurator/pkg/utils"
)

const (
	DefaultClipDuration = 10 * time.Second
	DefaultSampleRate   = 16000
	DefaultTimeout      = 2 * time.Minute
	clipExt             = "wav"
)

// Request identifies one clip to fetch.
type Request struct {
	MediaID string
	Start   float64
	DestDir string
}

// Fetcher turns a Request into a local file and returns its path.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (string, error)
}

// StreamResolver finds a downloadable stream for a media id.
type StreamResolver interface {
	StreamURL(ctx context.Context, mediaID string) (string, error)
}

// Segment describes one cut for a Transcoder.
type Segment struct {
	Source     string
	Start      float64
	Duration   time.Duration
	SampleRate int
	Output     string
}

// Transcoder writes Segment.Output from Segment.Source.
type Transcoder interface {
	Extract(ctx context.Context, seg Segment) error
}

type Stage string

const (
	StageResolve   Stage = "resolve"
	StageTranscode Stage = "transcode"
	StageVerify    Stage = "verify"
	StageWrite     Stage = "write"
)

// Error is a failed fetch.
type Error struct {
	MediaID string
	Start   float64
	Stage   Stage
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s at %ss: %s: %v", e.MediaID, dataset.FormatOffset(e.Start), e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ClipName is the file name a clip is stored under.
func ClipName(mediaID string, start float64) string {
	return fmt.Sprintf("%s_%s.%s", mediaID, dataset.FormatOffset(start), clipExt)
}

// Clipper is the default Fetcher.
type Clipper struct {
	Resolver   StreamResolver
	Transcoder Transcoder
	SampleRate int
	Duration   time.Duration
	Timeout    time.Duration // per clip; zero disables
	Verify     bool
}

// NewClipper returns a Clipper backed by yt-dlp and ffmpeg.
func NewClipper(sampleRate int) *Clipper {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Clipper{
		Resolver:   &YTDLP{},
		Transcoder: &FFmpeg{},
		SampleRate: sampleRate,
		Duration:   DefaultClipDuration,
		Timeout:    DefaultTimeout,
		Verify:     true,
	}
}

// Fetch downloads one clip into req.DestDir.
func (c *Clipper) Fetch(ctx context.Context, req Request) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	fail := func(stage Stage, err error) (string, error) {
		return "", &Error{MediaID: req.MediaID, Start: req.Start, Stage: stage, Err: err}
	}

	if err := utils.MakeDir(req.DestDir); err != nil {
		return fail(StageWrite, err)
	}

	src, err := c.Resolver.StreamURL(ctx, req.MediaID)
	if err != nil {
		return fail(StageResolve, err)
	}

	duration := c.Duration
	if duration <= 0 {
		duration = DefaultClipDuration
	}
	out := filepath.Join(req.DestDir, ClipName(req.MediaID, req.Start))
	tmp := filepath.Join(req.DestDir, "."+uuid.NewString()+".tmp."+clipExt)
	defer os.Remove(tmp)

	err = c.Transcoder.Extract(ctx, Segment{
		Source:     src,
		Start:      req.Start,
		Duration:   duration,
		SampleRate: c.SampleRate,
		Output:     tmp,
	})
	if err != nil {
		return fail(StageTranscode, err)
	}

	if c.Verify {
		if _, err := VerifyClip(tmp, c.SampleRate); err != nil {
			return fail(StageVerify, err)
		}
	}

	if err := utils.MoveFile(tmp, out); err != nil {
		return fail(StageWrite, err)
	}
	return out, nil
}
