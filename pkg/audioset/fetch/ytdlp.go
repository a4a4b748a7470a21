package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/AudioSetCurator/pkg/utils"
)

// YTDLP resolves stream URLs with yt-dlp.
type YTDLP struct {
	Executable string // empty: let go-ytdlp find yt-dlp
	Format     string // default "bestaudio"
}

func (y *YTDLP) command() *ytdlp.Command {
	format := y.Format
	if format == "" {
		format = "bestaudio"
	}
	cmd := ytdlp.New().
		Format(format).
		GetURL().
		NoPlaylist().
		NoWarnings()
	if y.Executable != "" {
		cmd.SetExecutable(y.Executable)
	}
	return cmd
}

// StreamURL returns the direct media URL of the chosen format.
func (y *YTDLP) StreamURL(ctx context.Context, mediaID string) (string, error) {
	res, err := y.command().Run(ctx, utils.WatchURL(mediaID))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if res != nil && res.Stderr != "" {
			return "", fmt.Errorf("yt-dlp failed: %w (%s)", err, strings.TrimSpace(res.Stderr))
		}
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}

	url := firstLine(res.Stdout)
	if url == "" {
		return "", errors.New("yt-dlp returned no stream URL")
	}
	return url, nil
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
