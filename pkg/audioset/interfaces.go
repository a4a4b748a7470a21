package audioset

import (
	"context"

	"github.com/himanishpuri/AudioSetCurator/pkg/audioset/labels"
)

type Service interface {
	Resolve(className string) []labels.Entry
	Find(ctx context.Context, classNames []string, datasetPath, sourceDir, destDir string) (*FindReport, error)
	Download(ctx context.Context, classNames []string, datasetPath, destDir string) (*DownloadReport, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
