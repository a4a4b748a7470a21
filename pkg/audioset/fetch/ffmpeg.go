package fetch

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/dataset"
)

// FFmpeg cuts and resamples segments with the ffmpeg binary.
type FFmpeg struct {
	Executable string // default "ffmpeg"
}

// Args returns the ffmpeg command line for seg, without the binary.
func (f *FFmpeg) Args(seg Segment) []string {
	return []string{
		"-y",
		"-v", "error",
		"-ss", dataset.FormatOffset(seg.Start), // seek before -i: fast input seeking
		"-i", seg.Source,
		"-t", strconv.FormatFloat(seg.Duration.Seconds(), 'f', -1, 64),
		"-ar", strconv.Itoa(seg.SampleRate),
		"-c:a", "pcm_s16le",
		seg.Output,
	}
}

func (f *FFmpeg) Extract(ctx context.Context, seg Segment) error {
	exe := f.Executable
	if exe == "" {
		exe = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, exe, f.Args(seg)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}
	return nil
}
