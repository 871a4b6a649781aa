package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/relaybatch/batchjob/codec"
	"github.com/relaybatch/batchjob/ioutils"
)

// fileLock is the serializable representation of a held lease.
type fileLock struct {
	Owner   string    `json:"owner" xml:"owner" yaml:"owner"`
	Expires time.Time `json:"expires" xml:"expires" yaml:"expires"`
}

// lockState is persisted alongside the blob content so leases survive a
// process restart.
type lockState struct {
	Locks map[string]*fileLock `json:"locks" xml:"locks" yaml:"locks"`
}

// FileBlobStore is a filesystem-backed BlobStore. Blob content is stored as
// regular files under baseDir/{container}/{blob}; lease state is persisted
// to a single JSON side-file via the codec package, written with a
// temp-file-then-rename swap so a crash mid-write never leaves a torn file.
type FileBlobStore struct {
	mu       sync.Mutex
	baseDir  string
	lockPath string
	c        codec.Codec
	seq      int64
}

// NewFileBlobStore creates a FileBlobStore rooted at baseDir.
func NewFileBlobStore(baseDir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	c, err := codec.GetDefault(ioutils.MimeApplicationJSON)
	if err != nil {
		return nil, err
	}
	return &FileBlobStore{
		baseDir:  baseDir,
		lockPath: filepath.Join(baseDir, ".leases.json"),
		c:        c,
	}, nil
}

func (s *FileBlobStore) blobPath(container, blob string) string {
	return filepath.Join(s.baseDir, container, blob)
}

func (s *FileBlobStore) readLocks() (*lockState, error) {
	f, err := os.Open(s.lockPath)
	if os.IsNotExist(err) {
		return &lockState{Locks: make(map[string]*fileLock)}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	state := &lockState{}
	if err := s.c.Read(f, state); err != nil {
		return nil, err
	}
	if state.Locks == nil {
		state.Locks = make(map[string]*fileLock)
	}
	return state, nil
}

func (s *FileBlobStore) writeLocks(state *lockState) error {
	tmp := s.lockPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := s.c.Write(state, f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.lockPath)
}

// Upload copies localPath to container/blob unless it already exists.
func (s *FileBlobStore) Upload(ctx context.Context, container, blob, localPath string) (bool, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return false, nil
	}
	defer func() { _ = src.Close() }()

	dst := s.blobPath(container, blob)
	if _, err := os.Stat(dst); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return false, err
	}
	out, err := os.Create(dst)
	if err != nil {
		return false, err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, src); err != nil {
		return false, err
	}
	return true, nil
}

// Download copies container/blob to localPath.
func (s *FileBlobStore) Download(ctx context.Context, container, blob, localPath string) (bool, error) {
	src, err := os.Open(s.blobPath(container, blob))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer func() { _ = src.Close() }()

	out, err := os.Create(localPath)
	if err != nil {
		return false, err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, src); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether container/blob is present on disk.
func (s *FileBlobStore) Exists(ctx context.Context, container, blob string) (bool, error) {
	_, err := os.Stat(s.blobPath(container, blob))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes container/blob, if present.
func (s *FileBlobStore) Delete(ctx context.Context, container, blob string) error {
	err := os.Remove(s.blobPath(container, blob))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// CleanUp deletes every blob in container sorting before leastBlobName.
func (s *FileBlobStore) CleanUp(ctx context.Context, container, leastBlobName string) ([]string, error) {
	dir := filepath.Join(s.baseDir, container)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var deleted []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id := container + "/" + e.Name()
		if id < leastBlobName {
			if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
				return deleted, err
			}
			deleted = append(deleted, id)
		}
	}
	sort.Strings(deleted)
	return deleted, nil
}

// LeaseBlob attempts to acquire an advisory lease on container/blob,
// persisted to the lock side-file so it survives a process restart.
func (s *FileBlobStore) LeaseBlob(ctx context.Context, container, blob string, duration time.Duration) (Lease, error) {
	if duration <= 0 {
		duration = DefaultLeaseDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.blobPath(container, blob)); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	state, err := s.readLocks()
	if err != nil {
		return nil, err
	}

	id := container + "/" + blob
	now := time.Now()
	if lock, held := state.Locks[id]; held && now.Before(lock.Expires) {
		return nil, nil
	}

	s.seq++
	owner := fmt.Sprintf("lease-%d", s.seq)
	state.Locks[id] = &fileLock{Owner: owner, Expires: now.Add(duration)}
	if err := s.writeLocks(state); err != nil {
		return nil, err
	}
	return &fileLease{store: s, id: id, owner: owner}, nil
}

type fileLease struct {
	store *FileBlobStore
	id    string
	owner string
}

// Release releases the lease if still held by this owner.
func (l *fileLease) Release(ctx context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	state, err := l.store.readLocks()
	if err != nil {
		return err
	}
	if lock, held := state.Locks[l.id]; held && lock.Owner == l.owner {
		delete(state.Locks, l.id)
		return l.store.writeLocks(state)
	}
	return nil
}
