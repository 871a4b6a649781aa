package jobsettings

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/relaybatch/batchjob/basejob"
	"github.com/relaybatch/batchjob/config"
	"github.com/relaybatch/batchjob/jobdata"
	"github.com/relaybatch/batchjob/jobschedule"
	"github.com/relaybatch/batchjob/l3"
)

var logger = l3.Get()

// ErrJobTypeHasUnderscore is returned by New when jobType contains an
// underscore. GetInfo's job-id decomposition assumes jobType never
// introduces an extra underscore-separated segment into the RowKey.
var ErrJobTypeHasUnderscore = errors.New("jobsettings: jobType must not contain '_'")

// Default threshold and scheduling values, matching JobSettingsFactory's
// create_default defaults.
const (
	DefaultMaxFailures              = 20
	DefaultMaxConsecutiveFailures   = 5
	DefaultExpireHours              = 24
	DefaultBatchSize                = 1000
	DefaultProcessIntervalInSeconds = 0.0
)

// Constructor builds the Runnable for one JobInfo. Registering one
// Constructor per friendly job name is the dispatch mechanism for resolving
// a job name to behavior.
type Constructor func(store *jobdata.Store, info *jobdata.JobInfo) basejob.Runnable

// DefaultConstructor builds a Job with no-op Hooks: dependency checks still
// run, but the batch loop never has anything to process. It backs an
// unregistered job class by falling back to a bare BaseJob instance.
func DefaultConstructor(store *jobdata.Store, info *jobdata.JobInfo) basejob.Runnable {
	return basejob.New(store, info, "BaseJob", basejob.DefaultHooks[struct{}]())
}

// Settings configures one job class: its schedule gate, failure/expiry
// thresholds, batch size, process pacing, and concurrency discipline.
type Settings struct {
	JobSchedule              *jobschedule.Schedule
	MaxFailures              int
	MaxConsecutiveFailures   int
	ExpireHours              int
	BatchSize                int
	ProcessIntervalInSeconds float64
	JobType                  string
	JobVersion               int
	RequireLock              bool
	Constructor              Constructor
}

// New validates jobType and returns a Settings with the package defaults. A
// nil schedule becomes unconstrained; a nil constructor becomes
// DefaultConstructor.
func New(schedule *jobschedule.Schedule, jobType string, jobVersion int, constructor Constructor) (*Settings, error) {
	if strings.Contains(jobType, "_") {
		return nil, fmt.Errorf("%w: %q", ErrJobTypeHasUnderscore, jobType)
	}
	if schedule == nil {
		schedule = jobschedule.New()
	}
	if constructor == nil {
		constructor = DefaultConstructor
	}
	if jobVersion == 0 {
		jobVersion = 1
	}
	return &Settings{
		JobSchedule:              schedule,
		MaxFailures:              DefaultMaxFailures,
		MaxConsecutiveFailures:   DefaultMaxConsecutiveFailures,
		ExpireHours:              DefaultExpireHours,
		BatchSize:                DefaultBatchSize,
		ProcessIntervalInSeconds: DefaultProcessIntervalInSeconds,
		JobType:                  jobType,
		JobVersion:               jobVersion,
		RequireLock:              false,
		Constructor:              constructor,
	}, nil
}

// GetJobPartition returns the PartitionKey shared by every JobInfo of this
// job class: "{jobType}_{jobVersion+VersionOffset}".
func (s *Settings) GetJobPartition() string {
	return fmt.Sprintf("%s_%d", s.JobType, s.JobVersion+jobdata.VersionOffset)
}

// GetJobID returns the canonical RowKey for runDate/revision:
// "YYYYMMDD_{revision+RevisionOffset}_{partitionKey}".
func (s *Settings) GetJobID(runDate time.Time, revision int) string {
	return fmt.Sprintf("%s_%d_%s", runDate.Format("20060102"), revision+jobdata.RevisionOffset, s.GetJobPartition())
}

// CreateInfo constructs a fresh Pending JobInfo for revision/runDate. A zero
// runDate is replaced with the current UTC time; the stored runDate is
// always normalized to midnight UTC.
func (s *Settings) CreateInfo(revision int, runDate time.Time) *jobdata.JobInfo {
	if runDate.IsZero() {
		runDate = time.Now().UTC()
	}
	normalized := time.Date(runDate.Year(), runDate.Month(), runDate.Day(), 0, 0, 0, 0, time.UTC)

	inputs := config.NewMapAttributes()
	inputs.Set("runDate", normalized)
	inputs.Set("batchSize", s.BatchSize)
	inputs.Set("processInterval", s.ProcessIntervalInSeconds)

	states := config.NewMapAttributes()
	states.Set("lastProcessed", "")
	states.Set("processed", 0)
	states.Set("skipped", 0)

	now := time.Now().UTC()
	return &jobdata.JobInfo{
		PartitionKey: s.GetJobPartition(),
		RowKey:       s.GetJobID(normalized, revision),
		Revision:     revision,
		Inputs:       inputs,
		States:       states,
		Status:       jobdata.Pending,
		CreateTime:   now,
		UpdateTime:   now,
	}
}
