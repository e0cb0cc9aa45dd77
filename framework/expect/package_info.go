// Package expect contains declarative checks that are applied to responses from the
// service under test: status code policies, JSON body field equality, and body presence.
//
// Every check reports a mismatch as a *Failure describing what was expected and what was
// observed, rather than failing a test directly, so the same checks serve both functional
// scenarios and load workloads.
package expect
