package out

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"avrec/internal/modules/capture/domain"
	captureout "avrec/internal/modules/capture/port/out"
	apperrors "avrec/internal/platform/errors"
	"avrec/internal/platform/id"
)

// DiskBlobStore writes payloads under dir and hands out file:// handles, so
// handles survive a restart.
type DiskBlobStore struct {
	dir   string
	idGen id.Generator
}

func NewDiskBlobStore(dir string, idGen id.Generator) captureout.BlobStore {
	return &DiskBlobStore{dir: dir, idGen: idGen}
}

func (s *DiskBlobStore) Put(_ context.Context, mimeType string, payload []byte) (string, error) {
	kind := strings.SplitN(mimeType, "/", 2)[0]
	dir := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	path := filepath.Join(dir, s.idGen.New()+"."+domain.ContainerExt)
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve media path: %w", err)
	}
	if err := os.WriteFile(abs, payload, 0o644); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func (s *DiskBlobStore) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	path, ok := s.LocalPath(handle)
	if !ok {
		return nil, fmt.Errorf("handle %q: %w", handle, apperrors.ErrNotFound)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("media %s: %w", path, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("open media: %w", err)
	}
	return f, nil
}

func (s *DiskBlobStore) LocalPath(handle string) (string, bool) {
	u, err := url.Parse(handle)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

const memoryScheme = "blob:avrec/"

// MemoryBlobStore keeps payloads in process memory. Its handles are only
// valid for the lifetime of the process.
type MemoryBlobStore struct {
	idGen id.Generator

	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	mimeType string
	data     []byte
}

func NewMemoryBlobStore(idGen id.Generator) captureout.BlobStore {
	return &MemoryBlobStore{idGen: idGen, blobs: map[string]memoryBlob{}}
}

func (s *MemoryBlobStore) Put(_ context.Context, mimeType string, payload []byte) (string, error) {
	handle := memoryScheme + s.idGen.New()
	data := make([]byte, len(payload))
	copy(data, payload)
	s.mu.Lock()
	s.blobs[handle] = memoryBlob{mimeType: mimeType, data: data}
	s.mu.Unlock()
	return handle, nil
}

func (s *MemoryBlobStore) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	s.mu.RLock()
	blob, ok := s.blobs[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("handle %q: %w", handle, apperrors.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

func (s *MemoryBlobStore) LocalPath(string) (string, bool) {
	return "", false
}
