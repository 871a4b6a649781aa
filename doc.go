// Package batchjob is a durable, resumable, schedule-driven batch job
// orchestration core built on top of a partitioned row store and a leased
// blob store.
//
// The engine decides, on each invocation for a named job, whether to resume
// an in-flight run, fail it, expire it, or start a new one; drives a single
// resumable run to completion in bounded batches; and records every outcome
// durably. It does not schedule itself — a host (cron, a queue consumer, an
// HTTP handler) invokes jobrunner.Runner.Run once per tick.
//
// Sub-packages, leaves first:
//
//	import "github.com/relaybatch/batchjob/rowstore"   // partitioned row store contract + reference adapters
//	import "github.com/relaybatch/batchjob/blobstore"  // leased blob store contract + reference adapters
//	import "github.com/relaybatch/batchjob/jobdata"    // JobInfo/JobRun persistence and failure summarization
//	import "github.com/relaybatch/batchjob/jobschedule" // cron-like coarse gating
//	import "github.com/relaybatch/batchjob/jobsettings" // friendly-name -> immutable settings registry
//	import "github.com/relaybatch/batchjob/basejob"     // per-run state machine and resumable batch loop
//	import "github.com/relaybatch/batchjob/jobrunner"   // per-invocation orchestrator
//
// Ambient concerns (logging, codecs, attribute bags, generic registries) are
// provided by the vendored golly toolkit packages alongside these
// (l3, codec, config, managers, errutils, fsutils, ioutils, textutils).
package batchjob
