package blobstore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/relaybatch/batchjob/l3"
)

var logger = l3.Get()

func blobID(container, blob string) string {
	return container + "/" + blob
}

// lockEntry records a held lease: who holds it and when it expires.
type lockEntry struct {
	owner   string
	expires time.Time
}

// InMemoryBlobStore is a map-backed BlobStore suitable for tests and
// single-process deployments. Blob content is kept in memory as bytes.
type InMemoryBlobStore struct {
	mu      sync.Mutex
	content map[string][]byte
	locks   map[string]*lockEntry
	seq     int64
}

// NewInMemoryBlobStore creates an empty InMemoryBlobStore.
func NewInMemoryBlobStore() *InMemoryBlobStore {
	return &InMemoryBlobStore{
		content: make(map[string][]byte),
		locks:   make(map[string]*lockEntry),
	}
}

// Upload reads localPath and stores it under container/blob, unless
// localPath is missing or the blob already exists.
func (s *InMemoryBlobStore) Upload(ctx context.Context, container, blob, localPath string) (bool, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := blobID(container, blob)
	if _, exists := s.content[id]; exists {
		return false, nil
	}
	s.content[id] = data
	logger.DebugF("InMemoryBlobStore: uploaded %s (%d bytes)", id, len(data))
	return true, nil
}

// Download writes container/blob's content to localPath.
func (s *InMemoryBlobStore) Download(ctx context.Context, container, blob, localPath string) (bool, error) {
	s.mu.Lock()
	data, exists := s.content[blobID(container, blob)]
	s.mu.Unlock()
	if !exists {
		return false, nil
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether container/blob is present.
func (s *InMemoryBlobStore) Exists(ctx context.Context, container, blob string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.content[blobID(container, blob)]
	return exists, nil
}

// Delete removes container/blob, if present.
func (s *InMemoryBlobStore) Delete(ctx context.Context, container, blob string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.content, blobID(container, blob))
	return nil
}

// CleanUp deletes every blob in container sorting before leastBlobName.
func (s *InMemoryBlobStore) CleanUp(ctx context.Context, container, leastBlobName string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := container + "/"
	var deleted []string
	for id := range s.content {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix && id < leastBlobName {
			deleted = append(deleted, id)
		}
	}
	sort.Strings(deleted)
	for _, id := range deleted {
		delete(s.content, id)
	}
	return deleted, nil
}

// LeaseBlob attempts to acquire an advisory lease on container/blob. It
// returns a nil Lease (not an error) if the blob doesn't exist or is already
// leased by another owner.
func (s *InMemoryBlobStore) LeaseBlob(ctx context.Context, container, blob string, duration time.Duration) (Lease, error) {
	if duration <= 0 {
		duration = DefaultLeaseDuration
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := blobID(container, blob)
	if _, exists := s.content[id]; !exists {
		logger.DebugF("InMemoryBlobStore: lease requested for missing blob %s", id)
		return nil, nil
	}

	now := time.Now()
	if lock, held := s.locks[id]; held && now.Before(lock.expires) {
		return nil, nil
	}

	s.seq++
	owner := fmt.Sprintf("lease-%d", s.seq)
	s.locks[id] = &lockEntry{owner: owner, expires: now.Add(duration)}
	logger.DebugF("InMemoryBlobStore: leased %s to %s until %s", id, owner, s.locks[id].expires)
	return &inMemoryLease{store: s, id: id, owner: owner}, nil
}

type inMemoryLease struct {
	store *InMemoryBlobStore
	id    string
	owner string
}

// Release releases the lease if it is still held by this owner. It is a
// no-op if the lease has already expired and been taken by someone else.
func (l *inMemoryLease) Release(ctx context.Context) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if lock, held := l.store.locks[l.id]; held && lock.owner == l.owner {
		delete(l.store.locks, l.id)
	}
	return nil
}
