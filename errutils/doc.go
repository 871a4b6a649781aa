package errutils

// Package errutils provides a set of utilities for working with errors in Go.

// Example:
//
// The following example demonstrates how to use a `MultiError` to collect several errors:
//
//     package main
//
//     import (
//         "fmt"
//         "github.com/relaybatch/batchjob/errutils"
//     )
//
//     func main() {
//         multiErr := errutils.NewMultiErr(nil)
//         multiErr.Add(someFunction())
//         multiErr.Add(otherFunction())
//         if multiErr.HasErrors() {
//             fmt.Println(multiErr.Error())
//         }
//     }
//
// In the above example, `Add` keeps every non-nil error returned by `someFunction()` and `otherFunction()`.
// `Error()` joins the collected messages with newlines and the result is printed using `fmt.Println()`.
