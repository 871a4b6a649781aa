package jobrunner

import (
	"context"
	"time"

	"github.com/relaybatch/batchjob/basejob"
	"github.com/relaybatch/batchjob/jobdata"
	"github.com/relaybatch/batchjob/jobsettings"
	"github.com/relaybatch/batchjob/l3"
)

var logger = l3.Get()

// Outcome reports what one Run call did: the RowKeys of JobInfos it ran
// successfully or with an error, and the RowKeys it transitioned to Failed
// or Expired during the sweep.
type Outcome struct {
	RunSuccess   []string
	RunWithError []string
	SetFailed    []string
	SetExpired   []string
}

// Runner resolves a friendly job name to jobsettings.Settings and drives one
// invocation: lease guard, fail/expire sweep, at most one resumed-or-new job
// run.
type Runner struct {
	factory *jobsettings.Factory
	store   *jobdata.Store
	clock   func() time.Time
}

// Option configures a Runner constructed with New.
type Option func(*Runner)

// WithClock overrides the Runner's time source. Default is UTC wall time.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// New builds a Runner over factory and store.
func New(factory *jobsettings.Factory, store *jobdata.Store, opts ...Option) *Runner {
	r := &Runner{
		factory: factory,
		store:   store,
		clock:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves friendlyName to its Settings and performs one invocation. A
// zero runDateOverride means "now". If settings.RequireLock is set and the
// lease cannot be acquired, Run returns an empty Outcome — another runner
// holds it, this is not an error.
func (r *Runner) Run(ctx context.Context, friendlyName string, revision int, runDateOverride time.Time) (*Outcome, error) {
	settings := r.factory.Create(friendlyName)
	runDate := runDateOverride
	if runDate.IsZero() {
		runDate = r.clock()
	}

	outcome := &Outcome{}

	if !settings.RequireLock {
		err := r.internalRun(ctx, settings, revision, runDate, outcome)
		return outcome, err
	}

	lease, err := r.store.LeaseJob(ctx, settings.JobType, 0)
	if err != nil {
		return nil, err
	}
	if lease == nil {
		logger.DebugF("jobrunner: %s is held by another runner, skipping", settings.JobType)
		return outcome, nil
	}
	defer func() {
		if releaseErr := lease.Release(ctx); releaseErr != nil {
			logger.WarnF("jobrunner: failed to release lease for %s: %v", settings.JobType, releaseErr)
		}
	}()

	err = r.internalRun(ctx, settings, revision, runDate, outcome)
	return outcome, err
}

func (r *Runner) internalRun(ctx context.Context, settings *jobsettings.Settings, revision int, runDate time.Time, outcome *Outcome) error {
	currentTime := r.clock()

	allInfos, err := r.store.ListInfos(ctx, settings.GetJobPartition())
	if err != nil {
		return err
	}

	newJobID := settings.GetJobID(runDate, revision)
	var jobToRun basejob.Runnable

	for _, info := range allInfos {
		if newJobID == info.RowKey {
			// The candidate id already exists: don't create it again.
			newJobID = ""
		}
		if info.IsTerminal() {
			continue
		}

		consecutive, total, err := r.store.SummarizeFailures(ctx, info)
		if err != nil {
			return err
		}

		switch {
		case consecutive >= settings.MaxConsecutiveFailures || total >= settings.MaxFailures:
			if err := r.store.FailJob(ctx, info, currentTime); err != nil {
				return err
			}
			outcome.SetFailed = append(outcome.SetFailed, info.RowKey)
		case currentTime.After(info.CreateTime.Add(time.Duration(settings.ExpireHours) * time.Hour)):
			if err := r.store.ExpireJob(ctx, info, currentTime); err != nil {
				return err
			}
			outcome.SetExpired = append(outcome.SetExpired, info.RowKey)
		case jobToRun == nil:
			jobToRun = settings.Constructor(r.store, info)
		}
	}

	// No existing job to resume, and the candidate id hasn't been created
	// yet: check the schedule gate before creating one.
	if jobToRun == nil && newJobID != "" && settings.JobSchedule.Check(currentTime) {
		info := settings.CreateInfo(revision, runDate)
		jobToRun = settings.Constructor(r.store, info)
	}

	if jobToRun == nil {
		return nil
	}

	if jobToRun.Run(ctx) {
		outcome.RunSuccess = append(outcome.RunSuccess, jobToRun.Info().RowKey)
	} else {
		outcome.RunWithError = append(outcome.RunWithError, jobToRun.Info().RowKey)
	}
	return nil
}
