package jobsettings

import (
	"github.com/relaybatch/batchjob/jobschedule"
	"github.com/relaybatch/batchjob/managers"
)

// Factory resolves a friendly job name to a Settings, backed by a
// managers.ItemManager registry rather than a dictionary of dotted class
// paths — the Go stand-in for JobSettingsFactory.
type Factory struct {
	registry managers.ItemManager[*Settings]
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{registry: managers.NewItemManager[*Settings]()}
}

// Register associates friendlyName with settings, overwriting any existing
// registration for that name.
func (f *Factory) Register(friendlyName string, settings *Settings) {
	f.registry.Register(friendlyName, settings)
}

// Create resolves friendlyName to its registered Settings. An unregistered
// name yields a default Settings pointing at friendlyName itself as the
// jobType (jobVersion 1, unconstrained schedule, DefaultConstructor) —
// matching JobSettingsFactory.create's "create_default" fallback.
func (f *Factory) Create(friendlyName string) *Settings {
	if s := f.registry.Get(friendlyName); s != nil {
		return s
	}

	settings, err := New(jobschedule.New(), friendlyName, 1, DefaultConstructor)
	if err != nil {
		// friendlyName itself isn't a valid bare jobType (it contains '_');
		// fall back to a sanitized one rather than failing the lookup.
		logger.WarnF("jobsettings: friendly name %q is not a valid default jobType: %v", friendlyName, err)
		sanitized := sanitizeJobType(friendlyName)
		settings, _ = New(jobschedule.New(), sanitized, 1, DefaultConstructor)
	}
	return settings
}

func sanitizeJobType(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '_' {
			out = append(out, '-')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
