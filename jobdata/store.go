package jobdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/relaybatch/batchjob/blobstore"
	"github.com/relaybatch/batchjob/l3"
	"github.com/relaybatch/batchjob/rowstore"
)

var logger = l3.Get()

// LeaseContainer is the blob container that holds one advisory-lease blob
// per jobType.
const LeaseContainer = "BatchJobAdmin"

// ErrInvalidJobID is returned by GetInfo when jobID does not have exactly
// four underscore-separated segments.
var ErrInvalidJobID = errors.New("jobdata: job id must have exactly 4 underscore-separated segments")

// Clock returns the current time; Store calls it instead of time.Now
// directly so tests can inject a fixed or stepped clock.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

// Store is the domain layer over a row store (two tables: JobInfo and
// JobRun) and a blob store (dependency blobs plus the per-jobType lease).
type Store struct {
	infoStore rowstore.RowStore
	runStore  rowstore.RowStore
	blobs     blobstore.BlobStore
	clock     Clock
}

// Option configures a Store constructed with NewStore.
type Option func(*Store)

// WithClock overrides the Store's time source. Default is UTC wall time.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewStore builds a Store over the given row and blob store adapters.
func NewStore(infoStore, runStore rowstore.RowStore, blobs blobstore.BlobStore, opts ...Option) *Store {
	s := &Store{
		infoStore: infoStore,
		runStore:  runStore,
		blobs:     blobs,
		clock:     defaultClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIfNotExist provisions the backing JobInfo and JobRun tables.
func (s *Store) CreateIfNotExist(ctx context.Context) error {
	if err := s.infoStore.CreateIfNotExist(ctx); err != nil {
		return err
	}
	return s.runStore.CreateIfNotExist(ctx)
}

// UpsertInfo writes info, replacing any existing row at the same keys.
func (s *Store) UpsertInfo(ctx context.Context, info *JobInfo) error {
	return s.infoStore.UpsertRow(ctx, infoToRow(info), rowstore.Replace)
}

// GetInfo decomposes jobID into its partition (the trailing two
// underscore-separated segments) and looks it up. It returns (nil, nil),
// not an error, if no such row exists.
func (s *Store) GetInfo(ctx context.Context, jobID string) (*JobInfo, error) {
	parts := strings.Split(jobID, "_")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: got %d segments in %q", ErrInvalidJobID, len(parts), jobID)
	}
	partitionKey := strings.Join(parts[2:], "_")

	row, err := s.infoStore.GetRow(ctx, partitionKey, jobID)
	if errors.Is(err, rowstore.ErrRowNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rowToInfo(row), nil
}

// ListInfos returns every JobInfo in partition, ordered as the row store
// returns them.
func (s *Store) ListInfos(ctx context.Context, partition string) ([]*JobInfo, error) {
	rows, err := s.infoStore.QueryRows(ctx, partition, "")
	if err != nil {
		return nil, err
	}
	infos := make([]*JobInfo, len(rows))
	for i, row := range rows {
		infos[i] = rowToInfo(row)
	}
	return infos, nil
}

// ListRuns returns every JobRun recorded against jobID.
func (s *Store) ListRuns(ctx context.Context, jobID string) ([]*JobRun, error) {
	rows, err := s.runStore.QueryRows(ctx, jobID, "")
	if err != nil {
		return nil, err
	}
	runs := make([]*JobRun, len(rows))
	for i, row := range rows {
		runs[i] = rowToRun(row)
	}
	return runs, nil
}

// CompleteRun appends a JobRun for this execution, then upserts info.
// The run row is written first: if the subsequent info upsert fails, the
// audit trail still records what happened. There is no transactional
// guarantee across the two writes.
func (s *Store) CompleteRun(ctx context.Context, success bool, info *JobInfo, message string, startTime time.Time) error {
	endTime := s.clock()
	info.UpdateTime = endTime

	run := &JobRun{
		PartitionKey: info.RowKey,
		RowKey:       formatRunTimestamp(endTime) + "_" + info.RowKey,
		IsError:      !success,
		Message:      message,
		EndStatus:    info.Status,
		StartTime:    startTime,
		EndTime:      endTime,
	}
	if err := s.runStore.InsertRow(ctx, runToRow(run)); err != nil {
		logger.ErrorF("jobdata: failed to insert run row for %s: %v", info.RowKey, err)
		return err
	}
	return s.UpsertInfo(ctx, info)
}

// SummarizeFailures returns (consecutive, total): total is the number of
// error runs recorded against info; consecutive is the number of leading
// error runs when sorted by startTime descending (0 if the most recent run
// succeeded).
func (s *Store) SummarizeFailures(ctx context.Context, info *JobInfo) (consecutive int, total int, err error) {
	runs, err := s.ListRuns(ctx, info.RowKey)
	if err != nil {
		return 0, 0, err
	}

	sortRunsByStartTimeDesc(runs)
	counting := true
	for _, run := range runs {
		if run.IsError {
			total++
			if counting {
				consecutive++
			}
		} else {
			counting = false
		}
	}
	return consecutive, total, nil
}

// FailJob transitions info to Failed and upserts it. No JobRun row is
// appended — policy transitions are silent in the run log.
func (s *Store) FailJob(ctx context.Context, info *JobInfo, now time.Time) error {
	info.Status = Failed
	info.UpdateTime = now
	logger.InfoF("jobdata: %s failed (threshold reached)", info.RowKey)
	return s.UpsertInfo(ctx, info)
}

// ExpireJob transitions info to Expired and upserts it. No JobRun row is
// appended.
func (s *Store) ExpireJob(ctx context.Context, info *JobInfo, now time.Time) error {
	info.Status = Expired
	info.UpdateTime = now
	logger.InfoF("jobdata: %s expired", info.RowKey)
	return s.UpsertInfo(ctx, info)
}

// LeaseJob acquires an advisory lease on the BatchJobAdmin/{jobType} blob.
// It returns (nil, nil) — not an error — if the lease blob does not exist
// or is already held: callers treat either as "no lease".
func (s *Store) LeaseJob(ctx context.Context, jobType string, duration time.Duration) (blobstore.Lease, error) {
	if duration <= 0 {
		duration = blobstore.DefaultLeaseDuration
	}
	return s.blobs.LeaseBlob(ctx, LeaseContainer, jobType, duration)
}

// BlobExists delegates to the underlying blob store's Exists check; it
// backs BaseJob's dependency checks (listExpected/listNotExpected).
func (s *Store) BlobExists(ctx context.Context, container, blob string) (bool, error) {
	return s.blobs.Exists(ctx, container, blob)
}
