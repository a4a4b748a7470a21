package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/himanishpuri/AudioSetCurator/pkg/utils"
)

// ManifestWriter writes rows back out in segments-file layout, one class
// per file, so a filtered subset can be reused as a dataset.
type ManifestWriter struct {
	w    *csv.Writer
	c    io.Closer
	Path string
	rows int
}

// NewManifestWriter writes to w.
func NewManifestWriter(w io.Writer) *ManifestWriter {
	return &ManifestWriter{w: csv.NewWriter(w)}
}

// CreateManifest creates (or truncates) dir/<name>.csv. existed reports
// whether a previous manifest was overwritten.
func CreateManifest(dir, name string) (mw *ManifestWriter, existed bool, err error) {
	if err := utils.MakeDir(dir); err != nil {
		return nil, false, fmt.Errorf("creating manifest dir: %w", err)
	}
	path := filepath.Join(dir, utils.SanitizeName(name, "unnamed")+".csv")
	if _, err := os.Stat(path); err == nil {
		existed = true
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, existed, fmt.Errorf("creating manifest: %w", err)
	}
	mw = NewManifestWriter(f)
	mw.c = f
	mw.Path = path
	return mw, existed, nil
}

// Write appends one row.
func (mw *ManifestWriter) Write(r Row) error {
	mw.rows++
	return mw.w.Write([]string{r.MediaID, FormatOffset(r.Start), FormatOffset(r.End), r.Labels})
}

// Rows returns how many rows were written.
func (mw *ManifestWriter) Rows() int { return mw.rows }

// Close flushes and closes the underlying file, if any.
func (mw *ManifestWriter) Close() error {
	mw.w.Flush()
	err := mw.w.Error()
	if mw.c != nil {
		if cerr := mw.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
