package fetch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

// ClipInfo is what VerifyClip read from a clip's header.
type ClipInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// VerifyClip checks that path is a PCM WAV file with the given sample rate
// (any rate when wantRate is zero). Only the container is inspected.
func VerifyClip(path string, wantRate int) (*ClipInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("not a valid WAV file: %w", err)
	}
	if dec.NumChans < 1 || dec.BitDepth < 8 {
		return nil, errors.New("not a valid WAV file: bad format chunk")
	}

	info := &ClipInfo{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if frame := int64(info.Channels) * int64(info.BitDepth/8); frame > 0 && info.SampleRate > 0 {
		frames := dec.PCMLen() / frame
		info.Duration = time.Duration(frames) * time.Second / time.Duration(info.SampleRate)
	}

	if wantRate > 0 && info.SampleRate != wantRate {
		return info, fmt.Errorf("sample rate %d Hz, expected %d Hz", info.SampleRate, wantRate)
	}
	if info.Duration == 0 {
		return info, errors.New("clip contains no audio")
	}
	return info, nil
}
