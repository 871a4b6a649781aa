package basejob

import (
	"context"
	"fmt"
	"time"

	"github.com/relaybatch/batchjob/jobdata"
	"github.com/relaybatch/batchjob/l3"
)

var logger = l3.Get()

// BlobRef names one blob a job depends on (or must not see) for a run date.
type BlobRef struct {
	Container string
	Blob      string
}

// Hooks is the capability set a job implementation supplies in place of
// subclassing a base job type. T is the element type of the sequence
// LoadItems produces; ProcessItem receives the same type. Every field has a
// sensible zero behavior via DefaultHooks.
type Hooks[T any] struct {
	// ListExpected returns blobs that must exist before the job runs.
	ListExpected func(runDate time.Time) []BlobRef
	// ListNotExpected returns blobs that must be absent before the job runs.
	ListNotExpected func(runDate time.Time) []BlobRef
	// LoadItems returns the next page of work starting strictly after
	// lastProcessed, and whether this page is the last one.
	LoadItems func(ctx context.Context, lastProcessed string) (allLoaded bool, items []T, err error)
	// ProcessItem handles one item: true if processed, false if skipped. A
	// returned error aborts the remainder of the batch.
	ProcessItem func(ctx context.Context, item T) (bool, error)
	// PostLoop runs once after the item loop ends, for any reason.
	PostLoop func(ctx context.Context, runDate time.Time) error
}

// DefaultHooks returns the no-op hook set: no dependencies, no items to
// load, and a PostLoop that does nothing. ProcessItem is never called with
// these defaults since LoadItems never yields an item.
func DefaultHooks[T any]() Hooks[T] {
	return Hooks[T]{
		ListExpected:    func(time.Time) []BlobRef { return nil },
		ListNotExpected: func(time.Time) []BlobRef { return nil },
		LoadItems: func(ctx context.Context, lastProcessed string) (bool, []T, error) {
			return true, nil, nil
		},
		ProcessItem: func(ctx context.Context, item T) (bool, error) {
			return false, fmt.Errorf("basejob: ProcessItem is not implemented")
		},
		PostLoop: func(ctx context.Context, runDate time.Time) error { return nil },
	}
}

// Runnable is the interface JobRunner drives: run one invocation of one
// JobInfo to whatever state it reaches, reporting overall success.
type Runnable interface {
	Run(ctx context.Context) bool
	Info() *jobdata.JobInfo
}

// Job executes one invocation of one JobInfo against a Hooks[T] bundle.
type Job[T any] struct {
	store   *jobdata.Store
	info    *jobdata.JobInfo
	jobName string
	hooks   Hooks[T]
	clock   func() time.Time
	message string
}

// Option configures a Job constructed with New.
type Option[T any] func(*Job[T])

// WithClock overrides the Job's time source. Default is UTC wall time.
func WithClock[T any](clock func() time.Time) Option[T] {
	return func(j *Job[T]) {
		if clock != nil {
			j.clock = clock
		}
	}
}

// New builds a Job over store and info using hooks. jobName identifies the
// job implementation in log and result messages (the Go stand-in for the
// original's reflective class name).
func New[T any](store *jobdata.Store, info *jobdata.JobInfo, jobName string, hooks Hooks[T], opts ...Option[T]) *Job[T] {
	j := &Job[T]{
		store:   store,
		info:    info,
		jobName: jobName,
		hooks:   hooks,
		clock:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Info returns the JobInfo this Job executes.
func (j *Job[T]) Info() *jobdata.JobInfo {
	return j.info
}

// Run executes one invocation: dependency check, batch loop, post-loop,
// result persistence. Any error returned from a hook is caught here,
// suspending the job with a truncated error message; Run itself never
// returns an error.
func (j *Job[T]) Run(ctx context.Context) bool {
	startTime := j.clock()

	ok, err := j.internalRun(ctx, startTime)
	if err == nil {
		return ok
	}

	logger.WarnF("basejob: %s suspended by error: %v", j.info.RowKey, err)
	j.info.Status = jobdata.Suspended
	j.message = "Job failed with error: " + truncate(err.Error(), 200)
	if saveErr := j.saveResults(ctx, false, startTime); saveErr != nil {
		logger.ErrorF("basejob: failed to save error result for %s: %v", j.info.RowKey, saveErr)
	}
	return false
}

func (j *Job[T]) internalRun(ctx context.Context, startTime time.Time) (bool, error) {
	runDate := j.runDate()

	proceed, err := j.checkDependencies(ctx, runDate)
	if err != nil {
		return false, err
	}
	if !proceed {
		// Terminal status, or a dependency mismatch: internalRun reports
		// success (the invocation itself didn't fail) without persisting
		// anything — the mismatch message never reaches a JobRun row.
		return true, nil
	}

	lastProcessed := j.info.States.GetAsString("lastProcessed")
	allLoaded, items, err := j.hooks.LoadItems(ctx, lastProcessed)
	if err != nil {
		return false, err
	}

	batchSize := j.info.Inputs.GetAsInt("batchSize")
	processInterval := j.info.Inputs.GetAsFloat("processInterval")

	itemCount := 0
	for _, item := range items {
		processed, err := j.hooks.ProcessItem(ctx, item)
		if err != nil {
			return false, err
		}
		if processed {
			j.info.States.Set("processed", j.info.States.GetAsInt("processed")+1)
		} else {
			j.info.States.Set("skipped", j.info.States.GetAsInt("skipped")+1)
		}

		itemCount++
		// The cursor advances before the batch-size check: the next
		// invocation resumes strictly after the last handled item. An item
		// whose ProcessItem returns an error does not advance the cursor.
		j.info.States.Set("lastProcessed", fmt.Sprintf("%v", item))

		if itemCount >= batchSize {
			j.info.Status = jobdata.Suspended
			j.message = fmt.Sprintf("Job %s is suspended for reaching batch size %d after handling %d with ending item %s.",
				j.jobName, batchSize, itemCount, j.info.States.GetAsString("lastProcessed"))
			break
		}

		if processInterval > 0 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(time.Duration(processInterval * float64(time.Second))):
			}
		}
	}

	if err := j.hooks.PostLoop(ctx, runDate); err != nil {
		return false, err
	}

	if j.message == "" {
		if allLoaded {
			j.info.Status = jobdata.Completed
			j.message = fmt.Sprintf("Job %s completed after handling %d with ending item %s.",
				j.jobName, itemCount, j.info.States.GetAsString("lastProcessed"))
		} else {
			j.info.Status = jobdata.Suspended
			j.message = fmt.Sprintf("Job %s is suspended for more data to load.", j.jobName)
		}
	}

	if err := j.saveResults(ctx, true, startTime); err != nil {
		return false, err
	}
	return true, nil
}

func (j *Job[T]) checkDependencies(ctx context.Context, runDate time.Time) (bool, error) {
	if j.info.IsTerminal() {
		return false, nil
	}

	for _, ref := range j.hooks.ListExpected(runDate) {
		exists, err := j.store.BlobExists(ctx, ref.Container, ref.Blob)
		if err != nil {
			return false, err
		}
		if !exists {
			j.message = fmt.Sprintf("Job %s expects data %s/%s but it does not exist.", j.jobName, ref.Container, ref.Blob)
			return false, nil
		}
	}
	for _, ref := range j.hooks.ListNotExpected(runDate) {
		exists, err := j.store.BlobExists(ctx, ref.Container, ref.Blob)
		if err != nil {
			return false, err
		}
		if exists {
			j.message = fmt.Sprintf("Job %s does not expect data %s/%s but it exists.", j.jobName, ref.Container, ref.Blob)
			return false, nil
		}
	}

	j.info.Status = jobdata.Active
	return true, nil
}

func (j *Job[T]) saveResults(ctx context.Context, success bool, startTime time.Time) error {
	j.info.UpdateTime = j.clock()
	return j.store.CompleteRun(ctx, success, j.info, j.message, startTime)
}

func (j *Job[T]) runDate() time.Time {
	if t, ok := j.info.Inputs.Get("runDate").(time.Time); ok {
		return t
	}
	return time.Time{}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
