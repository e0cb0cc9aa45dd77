package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework"
	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/ptest"
)

// Runner executes scenarios through a Sender and keeps every verdict it produced.
type Runner struct {
	sender harness.Sender
	// Parallelism is how many scenarios Run may execute at once. Values below 2 mean
	// scenarios run one after another.
	Parallelism int

	verdicts []Verdict
	lock     sync.Mutex
}

func NewRunner(sender harness.Sender) *Runner {
	return &Runner{sender: sender}
}

// Run executes each scenario as a subtest of t. A scenario that fails or errors marks only
// its own subtest as failed; the remaining scenarios still run.
func (r *Runner) Run(ctx context.Context, t *ptest.T, scenarios []Scenario) {
	runOne := func(s Scenario) func(*ptest.T) {
		return func(t *ptest.T) {
			if s.Skip != "" {
				r.record(Verdict{Scenario: t.ID().String(), Outcome: Skipped})
				t.SkipWithReason(s.Skip)
			}
			v := r.Execute(ctx, s, t.DebugLogger())
			v.Scenario = t.ID().String()
			r.record(v)
			switch v.Outcome {
			case Failed:
				t.Errorf("step %q: %s", v.FailedStep, v.Failure)
			case Errored:
				t.Errorf("step %q: %s", v.FailedStep, v.Err)
			}
		}
	}

	if r.Parallelism < 2 {
		for _, s := range scenarios {
			t.Run(s.Name, runOne(s))
		}
		return
	}
	t.Parallel(r.Parallelism, func(g *ptest.Group) {
		for _, s := range scenarios {
			g.Run(s.Name, runOne(s))
		}
	})
}

// Execute runs one scenario to completion and returns its verdict. Fixture requests and
// every step's request and response are written to logger.
func (r *Runner) Execute(ctx context.Context, s Scenario, logger framework.Logger) Verdict {
	if logger == nil {
		logger = framework.NullLogger()
	}
	startTime := time.Now()
	verdict := Verdict{Scenario: s.Name}

	vars := Vars{}
	if s.Vars != nil {
		for k, v := range s.Vars() {
			vars[k] = v
		}
	}
	fixtures := fixture.NewManager(r.sender, logger)

	applyFixtures := func(list []fixture.Fixture) error {
		for _, f := range list {
			expanded, err := vars.ExpandFixture(f)
			if err != nil {
				return err
			}
			fixtures.Apply(ctx, expanded)
		}
		return nil
	}

	if err := applyFixtures(s.Setup); err != nil {
		verdict.Outcome, verdict.FailedStep, verdict.Err = Errored, "setup", err
		verdict.Duration = time.Since(startTime)
		return verdict
	}

	verdict.Outcome = Passed
	for _, step := range s.Steps {
		if !r.executeStep(ctx, step, vars, logger, &verdict) {
			break
		}
	}

	if err := applyFixtures(s.Teardown); err != nil {
		logger.Printf("teardown skipped: %s", err)
	}
	verdict.Duration = time.Since(startTime)
	return verdict
}

func (r *Runner) executeStep(
	ctx context.Context,
	step Step,
	vars Vars,
	logger framework.Logger,
	verdict *Verdict,
) bool {
	label := step.label()
	stop := func(outcome Outcome, failure *expect.Failure, err error) bool {
		verdict.Outcome, verdict.FailedStep, verdict.Failure, verdict.Err = outcome, label, failure, err
		return false
	}

	req, err := vars.ExpandRequest(step.Request)
	if err != nil {
		return stop(Errored, nil, err)
	}
	logger.Printf("step %q: %s", label, req)
	resp, err := r.sender.Send(ctx, req)
	if err != nil {
		logger.Printf("step %q: %s", label, err)
		return stop(Errored, nil, err)
	}
	logger.Printf("step %q: %s", label, resp)

	for _, a := range step.Expect {
		if err := a.Check(resp); err != nil {
			var failure *expect.Failure
			if !errors.As(err, &failure) {
				failure = &expect.Failure{Assertion: a.Describe(), Actual: err.Error()}
			}
			return stop(Failed, failure, nil)
		}
		verdict.Passed = append(verdict.Passed, Check{Step: label, Assertion: a.Describe()})
	}

	if len(step.Extract) > 0 {
		extracted, err := Extract(resp.Body, step.Extract)
		if err != nil {
			return stop(Failed, &expect.Failure{
				Assertion: "extract variables",
				Expected:  fmt.Sprintf("values for %v", step.Extract),
				Actual:    err.Error(),
				Body:      string(resp.Body),
			}, nil)
		}
		for k, v := range extracted {
			vars[k] = v
		}
	}
	return true
}

func (r *Runner) record(v Verdict) {
	r.lock.Lock()
	r.verdicts = append(r.verdicts, v)
	r.lock.Unlock()
}

// Verdicts returns every verdict produced so far, in completion order.
func (r *Runner) Verdicts() []Verdict {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Verdict(nil), r.verdicts...)
}
