package jobsettings

import (
	"fmt"
	"io"

	"github.com/relaybatch/batchjob/codec"
	"github.com/relaybatch/batchjob/errutils"
	"github.com/relaybatch/batchjob/ioutils"
	"github.com/relaybatch/batchjob/jobschedule"
	"github.com/relaybatch/batchjob/managers"
)

// ConstructorRegistry maps a jobClass name (as referenced by a YAML
// configuration document) to the Constructor it resolves to.
type ConstructorRegistry = managers.ItemManager[Constructor]

// NewConstructorRegistry returns an empty ConstructorRegistry.
func NewConstructorRegistry() ConstructorRegistry {
	return managers.NewItemManager[Constructor]()
}

type yamlSchedule struct {
	InMonths    string `yaml:"inMonths"`
	OnDays      string `yaml:"onDays"`
	OnWeekdays  string `yaml:"onWeekdays"`
	AfterHour   *int   `yaml:"afterHour"`
	AfterMinute *int   `yaml:"afterMinute"`
	AfterSecond *int   `yaml:"afterSecond"`
}

type yamlEntry struct {
	JobClass                 string        `yaml:"jobClass"`
	JobType                  string        `yaml:"jobType"`
	JobVersion               int           `yaml:"jobVersion"`
	MaxFailures              *int          `yaml:"maxFailures"`
	MaxConsecutiveFailures   *int          `yaml:"maxConsecutiveFailures"`
	ExpireHours              *int          `yaml:"expireHours"`
	BatchSize                *int          `yaml:"batchSize"`
	ProcessIntervalInSeconds *float64      `yaml:"processIntervalInSeconds"`
	RequireLock              bool          `yaml:"requireLock"`
	JobSchedule              *yamlSchedule `yaml:"jobSchedule"`
}

func (e *yamlSchedule) toOptions() []jobschedule.Option {
	var opts []jobschedule.Option
	if e.InMonths != "" {
		opts = append(opts, jobschedule.WithMonths(e.InMonths))
	}
	if e.OnDays != "" {
		opts = append(opts, jobschedule.WithDays(e.OnDays))
	}
	if e.OnWeekdays != "" {
		opts = append(opts, jobschedule.WithWeekdays(e.OnWeekdays))
	}
	if e.AfterHour != nil || e.AfterMinute != nil || e.AfterSecond != nil {
		hour, minute, second := 0, 0, 0
		if e.AfterHour != nil {
			hour = *e.AfterHour
		}
		if e.AfterMinute != nil {
			minute = *e.AfterMinute
		}
		if e.AfterSecond != nil {
			second = *e.AfterSecond
		}
		opts = append(opts, jobschedule.WithAfter(hour, minute, second))
	}
	return opts
}

// LoadFactoryFromYAML reads a `friendlyName -> {jobClass, jobType, ...}`
// mapping from r and resolves each entry's jobClass against registry,
// returning a populated Factory. Every entry is attempted even if one
// fails; all failures are aggregated into one errutils.MultiError.
func LoadFactoryFromYAML(r io.Reader, registry ConstructorRegistry) (*Factory, error) {
	c, err := codec.GetDefault(ioutils.MimeTextYAML)
	if err != nil {
		return nil, err
	}

	var doc map[string]yamlEntry
	if err := c.Read(r, &doc); err != nil {
		return nil, err
	}

	factory := NewFactory()
	multiErr := errutils.NewMultiErr(nil)

	for friendlyName, entry := range doc {
		constructor := registry.Get(entry.JobClass)
		if constructor == nil {
			multiErr.Add(fmt.Errorf("jobsettings: %q: unregistered jobClass %q", friendlyName, entry.JobClass))
			continue
		}

		var scheduleOpts []jobschedule.Option
		if entry.JobSchedule != nil {
			scheduleOpts = entry.JobSchedule.toOptions()
		}
		schedule := jobschedule.New(scheduleOpts...)
		settings, err := New(schedule, entry.JobType, entry.JobVersion, constructor)
		if err != nil {
			multiErr.Add(fmt.Errorf("jobsettings: %q: %w", friendlyName, err))
			continue
		}

		if entry.MaxFailures != nil {
			settings.MaxFailures = *entry.MaxFailures
		}
		if entry.MaxConsecutiveFailures != nil {
			settings.MaxConsecutiveFailures = *entry.MaxConsecutiveFailures
		}
		if entry.ExpireHours != nil {
			settings.ExpireHours = *entry.ExpireHours
		}
		if entry.BatchSize != nil {
			settings.BatchSize = *entry.BatchSize
		}
		if entry.ProcessIntervalInSeconds != nil {
			settings.ProcessIntervalInSeconds = *entry.ProcessIntervalInSeconds
		}
		settings.RequireLock = entry.RequireLock

		factory.Register(friendlyName, settings)
	}

	if multiErr.HasErrors() {
		return factory, multiErr
	}
	return factory, nil
}
