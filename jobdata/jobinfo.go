package jobdata

import (
	"time"

	"github.com/relaybatch/batchjob/config"
)

// JobStatus is the state of one scheduled attempt at a job.
type JobStatus string

const (
	// Pending is assigned when a JobInfo is created without having checked
	// dependencies yet, or dependencies were not ready.
	Pending JobStatus = "pending"
	// Active means the job is running or ready to run (dependency check passed).
	Active JobStatus = "active"
	// Suspended means the job paused due to a batch size limit or an error.
	Suspended JobStatus = "suspended"
	// Completed is a terminal state: the job finished successfully.
	Completed JobStatus = "completed"
	// Failed is a terminal state: too many errors, total or consecutive.
	Failed JobStatus = "failed"
	// Expired is a terminal state: the job did not finish within expireHours.
	Expired JobStatus = "expired"
)

// IsTerminal reports whether status is one of the absorbing end states.
func IsTerminal(status JobStatus) bool {
	switch status {
	case Completed, Failed, Expired:
		return true
	default:
		return false
	}
}

// VersionOffset and RevisionOffset pad jobVersion/revision in derived keys
// so that stringified keys preserve lexicographic == numeric order for the
// small integers these fields normally hold.
const (
	VersionOffset  = 1_000_000
	RevisionOffset = 1_000_000
)

// JobInfo is one scheduled attempt at a job: one row in the JobInfo table.
type JobInfo struct {
	PartitionKey string
	RowKey       string
	Revision     int
	// Inputs holds the recognized fields runDate/batchSize/processInterval
	// plus anything a job implementation adds; it is never rewritten once
	// the JobInfo is created.
	Inputs config.Attributes
	// States holds lastProcessed/processed/skipped plus any user-added
	// fields (e.g. a TesterJob-style running total); re-serialized after
	// every run.
	States     config.Attributes
	Status     JobStatus
	CreateTime time.Time
	UpdateTime time.Time
}

// IsTerminal reports whether info's current status is absorbing.
func (info *JobInfo) IsTerminal() bool {
	return IsTerminal(info.Status)
}

// Clone returns a deep copy of info, including its Inputs/States bags, so
// that callers touching many JobInfo values in one pass (the runner's
// fail/expire sweep) cannot accidentally share mutable state between them.
func (info *JobInfo) Clone() *JobInfo {
	if info == nil {
		return nil
	}
	clone := *info
	clone.Inputs = cloneAttributes(info.Inputs)
	clone.States = cloneAttributes(info.States)
	return &clone
}

func cloneAttributes(a config.Attributes) config.Attributes {
	if a == nil {
		return nil
	}
	clone := config.NewMapAttributes()
	clone.Merge(a)
	return clone
}

// JobRun is an append-only audit entry for one execution of a JobInfo.
type JobRun struct {
	PartitionKey string // the JobInfo's RowKey
	RowKey       string // endTime_PartitionKey
	IsError      bool
	Message      string
	EndStatus    JobStatus
	StartTime    time.Time
	EndTime      time.Time
}
