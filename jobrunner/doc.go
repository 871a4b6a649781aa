// Package jobrunner drives one invocation of one friendly job name: it
// resolves jobsettings.Settings, sweeps existing JobInfos for this job's
// partition to fail or expire the ones that need it, picks at most one
// resumable or newly-due JobInfo, and runs it. It follows a guard-acquire-
// release discipline around the lease, but drives a single synchronous pass
// per invocation rather than a ticking loop.
package jobrunner
