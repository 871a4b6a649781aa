package rowstore

import (
	"context"
	"sort"
	"sync"

	"github.com/relaybatch/batchjob/l3"
)

var logger = l3.Get()

// InMemoryRowStore is a map-backed RowStore suitable for tests and
// single-process deployments where persistence across restarts is not
// required. Reads return defensive copies so callers cannot mutate stored
// rows by reference.
type InMemoryRowStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]*Row
}

// NewInMemoryRowStore creates an empty InMemoryRowStore.
func NewInMemoryRowStore() *InMemoryRowStore {
	return &InMemoryRowStore{partitions: make(map[string]map[string]*Row)}
}

// CreateIfNotExist is a no-op: partitions are created lazily on first write.
func (s *InMemoryRowStore) CreateIfNotExist(ctx context.Context) error {
	return nil
}

// InsertRow adds row if no row exists at its keys yet.
func (s *InMemoryRowStore) InsertRow(ctx context.Context, row *Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.partitions[row.PartitionKey]
	if !ok {
		rows = make(map[string]*Row)
		s.partitions[row.PartitionKey] = rows
	}
	if _, exists := rows[row.RowKey]; exists {
		return ErrRowExists
	}
	rows[row.RowKey] = row.Clone()
	return nil
}

// UpsertRow writes row, replacing or merging with any existing entry.
func (s *InMemoryRowStore) UpsertRow(ctx context.Context, row *Row, mode UpdateMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, ok := s.partitions[row.PartitionKey]
	if !ok {
		rows = make(map[string]*Row)
		s.partitions[row.PartitionKey] = rows
	}

	if mode == Merge {
		if existing, exists := rows[row.RowKey]; exists {
			merged := existing.Clone()
			for k, v := range row.Properties {
				merged.Properties[k] = v
			}
			rows[row.RowKey] = merged
			return nil
		}
	}
	rows[row.RowKey] = row.Clone()
	return nil
}

// GetRow returns a copy of the row at (partitionKey, rowKey).
func (s *InMemoryRowStore) GetRow(ctx context.Context, partitionKey, rowKey string) (*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.partitions[partitionKey]
	if !ok {
		return nil, ErrRowNotFound
	}
	row, ok := rows[rowKey]
	if !ok {
		return nil, ErrRowNotFound
	}
	return row.Clone(), nil
}

// QueryRows returns copies of all rows in partitionKey with RowKey greater
// than rowKeyGreaterThan, sorted by RowKey ascending.
func (s *InMemoryRowStore) QueryRows(ctx context.Context, partitionKey, rowKeyGreaterThan string) ([]*Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.partitions[partitionKey]
	if !ok {
		return nil, nil
	}
	result := make([]*Row, 0, len(rows))
	for key, row := range rows {
		if key > rowKeyGreaterThan {
			result = append(result, row.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RowKey < result[j].RowKey })
	return result, nil
}

// DeleteRow removes the row at (partitionKey, rowKey), if present.
func (s *InMemoryRowStore) DeleteRow(ctx context.Context, partitionKey, rowKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rows, ok := s.partitions[partitionKey]; ok {
		delete(rows, rowKey)
		logger.DebugF("InMemoryRowStore: deleted row %s/%s", partitionKey, rowKey)
	}
	return nil
}
