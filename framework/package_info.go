// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of tests against a REST service. The base package
// contains shared types such as Logger; other components are in subpackages.
//
// The general model is:
//
// 1. The test harness talks to the service under test only through its documented HTTP
// contract (package harness). It never inspects the service's internals.
//
// 2. Known remote state is established before a test by fixture declarations (package
// fixture), and responses are judged by declarative assertions (package expect).
//
// 3. There is a general notion of a test context which is similar to Go's testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results (package ptest). Functional scenarios are sequences of HTTP
// steps run on top of it (package scenario).
//
// 4. Staged concurrent traffic is generated by virtual users (package load), and the
// recorded latencies are judged post-hoc against percentile thresholds (package threshold).
//
// The domain-specific code that knows what is being tested is responsible for providing
// the scenario tables, payloads and load plans.
package framework
