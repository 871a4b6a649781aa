// Package jobsettings resolves a friendly job name to a Settings — schedule,
// failure/expiry thresholds, batch size, and the Constructor that builds a
// basejob.Runnable for a JobInfo. Factory stands in for a dotted job-class
// string: a registry of Constructors keyed by friendly name.
package jobsettings
