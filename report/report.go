// Package report writes the machine-readable record of a harness run: the verdict of every
// functional scenario and the summary of every load plan.
package report

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/load"
	"github.com/petstore-harness/petstore-contract-tests/framework/scenario"
	"github.com/petstore-harness/petstore-contract-tests/framework/threshold"
)

type Report struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	BaseURL     string           `json:"baseUrl,omitempty"`
	OK          bool             `json:"ok"`
	Scenarios   []ScenarioResult `json:"scenarios,omitempty"`
	LoadRuns    []LoadResult     `json:"loadRuns,omitempty"`
}

type ScenarioResult struct {
	Name       string           `json:"name"`
	Outcome    scenario.Outcome `json:"outcome"`
	DurationMS float64          `json:"durationMs"`
	Passed     []scenario.Check `json:"passedChecks,omitempty"`
	FailedStep string           `json:"failedStep,omitempty"`
	Failure    *FailureDetail   `json:"failure,omitempty"`
	Error      string           `json:"error,omitempty"`
}

type FailureDetail struct {
	Assertion string `json:"assertion"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
	Body      string `json:"body,omitempty"`
}

type LoadResult struct {
	Plan            string          `json:"plan"`
	OK              bool            `json:"ok"`
	Aborted         bool            `json:"aborted,omitempty"`
	DurationMS      float64         `json:"durationMs"`
	Requests        int             `json:"requests"`
	ChecksPassed    int             `json:"checksPassed"`
	ChecksFailed    int             `json:"checksFailed"`
	TransportErrors int             `json:"transportErrors"`
	Latency         LatencyStats    `json:"latencyMs"`
	Threshold       ThresholdResult `json:"threshold"`
	Phases          []PhaseChange   `json:"phases,omitempty"`
}

type LatencyStats struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P95  float64 `json:"p95"`
	P99  float64 `json:"p99"`
}

type ThresholdResult struct {
	Spec       string  `json:"spec"`
	Passed     bool    `json:"passed"`
	ObservedMS float64 `json:"observedMs"`
	Samples    int     `json:"samples"`
}

type PhaseChange struct {
	Phase     string  `json:"phase"`
	OffsetMS  float64 `json:"offsetMs"`
	ActiveVUs int     `json:"activeVus"`
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// New starts a report with no results, which is OK.
func New(baseURL string) *Report {
	return &Report{GeneratedAt: time.Now().UTC(), BaseURL: baseURL, OK: true}
}

// AddVerdicts records functional scenario verdicts.
func (r *Report) AddVerdicts(verdicts []scenario.Verdict) {
	for _, v := range verdicts {
		result := ScenarioResult{
			Name:       v.Scenario,
			Outcome:    v.Outcome,
			DurationMS: millis(v.Duration),
			Passed:     v.Passed,
			FailedStep: v.FailedStep,
		}
		if v.Failure != nil {
			result.Failure = &FailureDetail{
				Assertion: v.Failure.Assertion,
				Expected:  v.Failure.Expected,
				Actual:    v.Failure.Actual,
				Body:      v.Failure.Body,
			}
		}
		if v.Err != nil {
			result.Error = v.Err.Error()
		}
		r.OK = r.OK && v.OK()
		r.Scenarios = append(r.Scenarios, result)
	}
}

// AddLoadSummary records the outcome of one load plan.
func (r *Report) AddLoadSummary(s load.Summary) {
	result := LoadResult{
		Plan:            s.Plan,
		OK:              s.OK(),
		Aborted:         s.Aborted,
		DurationMS:      millis(s.Duration),
		Requests:        s.Requests,
		ChecksPassed:    s.ChecksPassed,
		ChecksFailed:    s.ChecksFailed,
		TransportErrors: s.TransportErrors,
		Latency:         latencyStats(s.Stats),
		Threshold: ThresholdResult{
			Spec:       s.Threshold.Required.String(),
			Passed:     s.Threshold.Passed,
			ObservedMS: millis(s.Threshold.Observed),
			Samples:    s.Threshold.Samples,
		},
	}
	for _, t := range s.Timeline {
		result.Phases = append(result.Phases, PhaseChange{
			Phase:     t.Phase.String(),
			OffsetMS:  millis(t.At),
			ActiveVUs: t.VUs,
		})
	}
	r.OK = r.OK && result.OK
	r.LoadRuns = append(r.LoadRuns, result)
}

func latencyStats(s threshold.Stats) LatencyStats {
	return LatencyStats{
		Min:  millis(s.Min),
		Mean: millis(s.Mean),
		Max:  millis(s.Max),
		P50:  millis(s.P50),
		P90:  millis(s.P90),
		P95:  millis(s.P95),
		P99:  millis(s.P99),
	}
}

// Write encodes the report as indented JSON.
func (r *Report) Write(out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteFile writes the report to path, replacing any existing file.
func (r *Report) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return r.Write(f)
}
