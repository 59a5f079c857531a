package out

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	captureout "avrec/internal/modules/capture/port/out"
)

// FileDownloader saves payloads into a fixed directory, replacing any file
// with the same name.
type FileDownloader struct {
	dir string
}

func NewFileDownloader(dir string) captureout.Downloader {
	return &FileDownloader{dir: dir}
}

func (d *FileDownloader) Save(_ context.Context, name string, r io.Reader) (string, int64, error) {
	if name == "" || filepath.Base(name) != name {
		return "", 0, fmt.Errorf("invalid download name %q", name)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create download dir: %w", err)
	}
	path := filepath.Join(d.dir, name)
	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return "", 0, fmt.Errorf("create download: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("write download: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("finish download: %w", err)
	}
	return path, n, nil
}
