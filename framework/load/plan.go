// Package load generates staged concurrent traffic against the service under test.
//
// A Plan describes ramp stages and a request Pattern. Each virtual user (VU) repeats the
// pattern in its own goroutine: build a request, send it, check the status, record the
// latency, and pause for the plan's pace. A controller adjusts the number of running VUs
// along a linear ramp between stage targets. When the last stage ends, the recorded
// latencies are judged against the plan's threshold.
package load

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/threshold"
)

const DefaultPace = time.Second

// DefaultCheck is the status policy used when an Action does not specify one.
var DefaultCheck = expect.OneOf(200, 201)

// Stage is a time window by the end of which the number of VUs must reach Target.
type Stage struct {
	Duration time.Duration `yaml:"duration" json:"duration"`
	Target   int           `yaml:"target" json:"target"`
}

// Iteration is the state of one pass of a VU through its Pattern. Rand and Vars belong to
// the VU's goroutine, so Build functions can use them without locking. Vars starts empty
// on every iteration; a Build function can set values for the actions after it.
type Iteration struct {
	VU     int
	Number int
	Rand   *rand.Rand
	Vars   map[string]string
}

// Action is one request in a Pattern.
type Action struct {
	Name  string
	Build func(it *Iteration) harness.Request
	// Check is the status policy for a successful request. Defaults to DefaultCheck.
	Check expect.StatusPolicy
}

func (a Action) check() expect.StatusPolicy {
	if a.Check == nil {
		return DefaultCheck
	}
	return a.Check
}

// Pattern is the fixed sequence of actions a VU performs on each iteration.
type Pattern struct {
	Actions []Action
}

// Plan is a complete load run.
type Plan struct {
	Name   string
	Stages []Stage
	// Pace is how long a VU sleeps after each iteration. Defaults to DefaultPace.
	Pace      time.Duration
	Threshold threshold.Spec
	Pattern   Pattern
}

// TotalDuration is the sum of all stage durations.
func (p Plan) TotalDuration() time.Duration {
	var total time.Duration
	for _, s := range p.Stages {
		total += s.Duration
	}
	return total
}

// PeakTarget is the largest stage target.
func (p Plan) PeakTarget() int {
	peak := 0
	for _, s := range p.Stages {
		if s.Target > peak {
			peak = s.Target
		}
	}
	return peak
}

func (p Plan) pace() time.Duration {
	if p.Pace <= 0 {
		return DefaultPace
	}
	return p.Pace
}

// Validate checks that the plan can be run.
func (p Plan) Validate() error {
	if len(p.Stages) == 0 {
		return errors.New("plan has no stages")
	}
	for i, s := range p.Stages {
		if s.Duration <= 0 {
			return fmt.Errorf("stage %d: duration must be positive", i+1)
		}
		if s.Target < 0 {
			return fmt.Errorf("stage %d: target must not be negative", i+1)
		}
	}
	if len(p.Pattern.Actions) == 0 {
		return errors.New("plan has no actions")
	}
	for i, a := range p.Pattern.Actions {
		if a.Build == nil {
			return fmt.Errorf("action %d (%s) has no request builder", i+1, a.Name)
		}
	}
	if err := p.Threshold.Validate(); err != nil {
		return fmt.Errorf("threshold: %w", err)
	}
	return nil
}

// TargetAt is the number of VUs that should be running at the given offset from the start
// of the run, and the index of the stage that offset falls in. The target moves linearly
// from the previous stage's target (zero before the first stage) to the current stage's
// target, reaching it exactly at the stage's end. An offset past the last stage returns the
// last target and len(Stages).
func (p Plan) TargetAt(elapsed time.Duration) (target int, stage int) {
	previous := 0
	var stageStart time.Duration
	for i, s := range p.Stages {
		stageEnd := stageStart + s.Duration
		if elapsed < stageEnd {
			fraction := float64(elapsed-stageStart) / float64(s.Duration)
			if fraction < 0 {
				fraction = 0
			}
			value := float64(previous) + float64(s.Target-previous)*fraction
			return int(value + 0.5), i
		}
		previous = s.Target
		stageStart = stageEnd
	}
	return previous, len(p.Stages)
}
