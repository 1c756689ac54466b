// Package storage owns the persisted check-in collection. All reads and
// writes of check-ins go through CheckInStore, which serializes the whole
// collection as one JSON blob behind a small BlobStore interface so the
// backend (memory, file, Redis, MySQL) is swappable.
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// BlobStore persists a single opaque blob. Get reports ok=false when the
// blob has never been written. Implementations replace the whole value on
// every Put; partial updates are not part of the contract.
type BlobStore interface {
	Get(ctx context.Context) (data []byte, ok bool, err error)
	Put(ctx context.Context, data []byte) error
}

// MemoryBlobStore keeps the blob in process memory. Used in tests and as
// the dev-mode default.
type MemoryBlobStore struct {
	mu   sync.Mutex
	data []byte
	set  bool

	// FailPuts forces Put to fail; tests use it to exercise write-error paths.
	FailPuts bool
}

var errPutFailed = errors.New("blob store: put failed")

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{}
}

func (m *MemoryBlobStore) Get(ctx context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, false, nil
	}
	cp := make([]byte, len(m.data))
	copy(cp, m.data)
	return cp, true, nil
}

func (m *MemoryBlobStore) Put(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts {
		return errPutFailed
	}
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.set = true
	return nil
}

// FileBlobStore keeps the blob in a single file on disk, the closest
// server-side analogue to the device key-value storage the mobile client
// used. Writes go through a temp file and rename so a crash mid-write never
// leaves a truncated collection behind.
type FileBlobStore struct {
	path string
	mu   sync.Mutex
}

func NewFileBlobStore(path string) *FileBlobStore {
	return &FileBlobStore{path: path}
}

func (f *FileBlobStore) Get(ctx context.Context) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (f *FileBlobStore) Put(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	dir := filepath.Dir(f.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(dir, ".checkins-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, f.path)
}
