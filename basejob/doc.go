// Package basejob executes one invocation of one jobdata.JobInfo: dependency
// check, resumable batch loop over user-supplied hooks, and result
// persistence. It provides a generic Job[T], built by New from a Hooks bundle
// and driven by its Run method, rather than a base class to subclass — Go
// favors composition over inheritance.
package basejob
