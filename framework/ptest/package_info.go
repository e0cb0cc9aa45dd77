// Package ptest provides a test context which is similar to Go's testing.T, for running
// checks against a live service outside of "go test". A T identifies one test by its path
// of names, accumulates its errors, captures its debug output, and can start subtests,
// optionally several at a time.
//
// Failing or skipping a test stops it with a panic that is recovered by the T that
// started it, the same way testing.T.FailNow uses runtime.Goexit. This is what makes
// testify's require package usable with a *T.
package ptest
