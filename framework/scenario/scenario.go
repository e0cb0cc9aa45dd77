// Package scenario runs functional scenarios: ordered HTTP steps against the service under
// test, each judged by declarative assertions, with known state established beforehand by
// fixtures.
//
// Scenarios are plain data, so a catalogue of them can be declared as tables and the
// runner can be tested against a fake harness.Sender.
package scenario

import (
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
)

// Scenario is a named sequence of steps. Setup fixtures are applied before the first step
// and Teardown fixtures after the last, whatever the outcome; neither is an assertion.
type Scenario struct {
	Name     string
	Setup    []fixture.Fixture
	Teardown []fixture.Fixture
	// Vars, if set, seeds the scenario's variables, for instance with a generated username.
	// It is called once per execution.
	Vars  func() Vars
	Steps []Step
	// Skip, if non-empty, is the reason the scenario is not run.
	Skip string
}

// Step is one HTTP call with the assertions to apply to its response. Extract maps a
// variable name to a JMESPath expression evaluated on the response body once all the
// assertions have passed.
type Step struct {
	Name    string
	Request harness.Request
	Expect  []expect.Assertion
	Extract map[string]string
}

func (s Step) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Request.String()
}

// Outcome is the overall result of executing a scenario.
type Outcome string

const (
	// Passed means every assertion of every step held.
	Passed Outcome = "passed"
	// Failed means an assertion did not hold; the scenario stopped at that step.
	Failed Outcome = "failed"
	// Errored means no response could be obtained, or a request could not be built.
	Errored Outcome = "errored"
	// Skipped means the scenario was not run.
	Skipped Outcome = "skipped"
)

// Check is one assertion that held.
type Check struct {
	Step      string `json:"step"`
	Assertion string `json:"assertion"`
}

// Verdict is the result of executing one scenario. For a Failed scenario, Failure is the
// first assertion that did not hold and Passed lists every check before it. For an Errored
// scenario, Err is the cause, usually a *harness.TransportError.
type Verdict struct {
	Scenario   string
	Outcome    Outcome
	Passed     []Check
	FailedStep string
	Failure    *expect.Failure
	Err        error
	Duration   time.Duration
}

// OK is true for passed and skipped scenarios.
func (v Verdict) OK() bool {
	return v.Outcome == Passed || v.Outcome == Skipped
}
