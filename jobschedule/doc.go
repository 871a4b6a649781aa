// Package jobschedule gates whether a job is "due" at a given instant. It is
// deliberately not a ticking scheduler: callers invoke Check once per
// external invocation and act on the boolean result.
package jobschedule
