package rowstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/relaybatch/batchjob/codec"
	"github.com/relaybatch/batchjob/fsutils"
	"github.com/relaybatch/batchjob/ioutils"
)

// fileRows is the top-level structure persisted to a FileRowStore's file.
type fileRows struct {
	Rows []*Row `json:"rows" yaml:"rows"`
}

// FileRowStore is a file-based RowStore. It persists every row of a single
// table to one file using golly's codec package; the serialization format
// (YAML or JSON) is determined from the file extension via
// fsutils.LookupContentType. All reads and writes are serialized through a
// mutex, and the entire file is rewritten on each mutation using a
// temp-file-then-rename swap so a crash mid-write cannot corrupt it.
type FileRowStore struct {
	mu   sync.Mutex
	path string
	c    codec.Codec
}

// NewFileRowStore creates a FileRowStore persisting to path. Supported
// extensions are .yaml, .yml, and .json. XML is deliberately not supported:
// Row.Properties is a map[string]any, and encoding/xml cannot marshal a map
// (every row would fail to persist the first time one is written). The
// containing directory is created if missing; an empty state file is
// created if path doesn't exist.
func NewFileRowStore(path string) (*FileRowStore, error) {
	contentType := fsutils.LookupContentType(path)
	if contentType == ioutils.MimeTextXML || contentType == ioutils.MimeApplicationXML {
		return nil, fmt.Errorf("rowstore: xml is not supported for %s: Row.Properties is a map and encoding/xml cannot marshal it", filepath.Base(path))
	}

	c, err := codec.GetDefault(contentType)
	if err != nil {
		return nil, fmt.Errorf("rowstore: unsupported file type %q for %s: %w", contentType, filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	fs := &FileRowStore{path: path, c: c}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.DebugF("FileRowStore: creating initial state file %s", path)
		if err := fs.writeState(&fileRows{}); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FileRowStore) readState() (*fileRows, error) {
	f, err := os.Open(fs.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var state fileRows
	if err := fs.c.Read(f, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (fs *FileRowStore) writeState(state *fileRows) error {
	tmp := fs.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fs.c.Write(state, f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, fs.path)
}

func findRow(state *fileRows, partitionKey, rowKey string) (int, *Row) {
	for i, row := range state.Rows {
		if row.PartitionKey == partitionKey && row.RowKey == rowKey {
			return i, row
		}
	}
	return -1, nil
}

// CreateIfNotExist is a no-op: NewFileRowStore already created the file.
func (fs *FileRowStore) CreateIfNotExist(ctx context.Context) error {
	return nil
}

// InsertRow adds row if no row exists at its keys yet.
func (fs *FileRowStore) InsertRow(ctx context.Context, row *Row) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	state, err := fs.readState()
	if err != nil {
		return err
	}
	if idx, _ := findRow(state, row.PartitionKey, row.RowKey); idx >= 0 {
		return ErrRowExists
	}
	state.Rows = append(state.Rows, row.Clone())
	return fs.writeState(state)
}

// UpsertRow writes row, replacing or merging with any existing entry.
func (fs *FileRowStore) UpsertRow(ctx context.Context, row *Row, mode UpdateMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	state, err := fs.readState()
	if err != nil {
		return err
	}
	if idx, existing := findRow(state, row.PartitionKey, row.RowKey); idx >= 0 {
		if mode == Merge {
			merged := existing.Clone()
			for k, v := range row.Properties {
				merged.Properties[k] = v
			}
			state.Rows[idx] = merged
		} else {
			state.Rows[idx] = row.Clone()
		}
	} else {
		state.Rows = append(state.Rows, row.Clone())
	}
	return fs.writeState(state)
}

// GetRow returns the row at (partitionKey, rowKey), or ErrRowNotFound.
func (fs *FileRowStore) GetRow(ctx context.Context, partitionKey, rowKey string) (*Row, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	state, err := fs.readState()
	if err != nil {
		return nil, err
	}
	_, row := findRow(state, partitionKey, rowKey)
	if row == nil {
		return nil, ErrRowNotFound
	}
	return row.Clone(), nil
}

// QueryRows returns all rows in partitionKey with RowKey greater than
// rowKeyGreaterThan, sorted by RowKey ascending.
func (fs *FileRowStore) QueryRows(ctx context.Context, partitionKey, rowKeyGreaterThan string) ([]*Row, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	state, err := fs.readState()
	if err != nil {
		return nil, err
	}
	var result []*Row
	for _, row := range state.Rows {
		if row.PartitionKey == partitionKey && row.RowKey > rowKeyGreaterThan {
			result = append(result, row.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RowKey < result[j].RowKey })
	return result, nil
}

// DeleteRow removes the row at (partitionKey, rowKey), if present.
func (fs *FileRowStore) DeleteRow(ctx context.Context, partitionKey, rowKey string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	state, err := fs.readState()
	if err != nil {
		return err
	}
	idx, _ := findRow(state, partitionKey, rowKey)
	if idx < 0 {
		return nil
	}
	state.Rows = append(state.Rows[:idx], state.Rows[idx+1:]...)
	return fs.writeState(state)
}
