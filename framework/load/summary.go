package load

import (
	"fmt"
	"io"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/threshold"
)

// Summary is the outcome of a load run.
type Summary struct {
	Plan            string
	Requests        int
	ChecksPassed    int
	ChecksFailed    int
	TransportErrors int
	Stats           threshold.Stats
	Threshold       threshold.Evaluation
	Timeline        Timeline
	Duration        time.Duration
	// Aborted is true if the run was cancelled before its last stage ended.
	Aborted bool
}

// OK is true if the latency threshold was met. Failed checks are reported but, as with
// k6 checks, do not fail the run by themselves.
func (s Summary) OK() bool {
	return s.Threshold.Passed
}

func summarize(plan Plan, samples []Sample, latencies []time.Duration) Summary {
	s := Summary{Plan: plan.Name, Requests: len(samples)}
	for _, sample := range samples {
		switch {
		case sample.Passed:
			s.ChecksPassed++
		default:
			s.ChecksFailed++
		}
		if sample.Err != nil {
			s.TransportErrors++
		}
	}
	s.Stats = threshold.Summarize(latencies)
	s.Threshold = threshold.Evaluate(latencies, plan.Threshold)
	return s
}

// Print writes a human-readable report of the run.
func (s Summary) Print(out io.Writer) {
	fmt.Fprintf(out, "Load plan %q finished in %s", s.Plan, s.Duration.Round(time.Millisecond))
	if s.Aborted {
		fmt.Fprint(out, " (aborted)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  requests:         %d\n", s.Requests)
	fmt.Fprintf(out, "  checks passed:    %d\n", s.ChecksPassed)
	fmt.Fprintf(out, "  checks failed:    %d\n", s.ChecksFailed)
	fmt.Fprintf(out, "  transport errors: %d\n", s.TransportErrors)
	fmt.Fprintf(out, "  latency:          %s\n", s.Stats)
	fmt.Fprintf(out, "  threshold:        %s\n", s.Threshold)
	fmt.Fprint(out, "  phases:          ")
	for _, t := range s.Timeline {
		fmt.Fprintf(out, " %s@%s", t.Phase, t.At.Round(time.Millisecond))
	}
	fmt.Fprintln(out)
}
