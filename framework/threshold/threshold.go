// Package threshold turns recorded request latencies into percentile statistics and judges
// them against pass/fail bounds such as "p(95)<500". Evaluation happens once, after all
// samples have been collected; there is no mid-run abort.
package threshold

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Comparator is the relation the observed percentile must have to the bound.
type Comparator string

const (
	LessThan        Comparator = "<"
	LessThanOrEqual Comparator = "<="
)

// Spec is a percentile latency bound, for instance the 95th percentile under 500ms.
type Spec struct {
	Percentile float64
	Comparator Comparator
	Bound      time.Duration
}

func (s Spec) String() string {
	return fmt.Sprintf("p(%s)%s%s", strconv.FormatFloat(s.Percentile, 'f', -1, 64), s.Comparator, s.Bound)
}

// Satisfied reports whether an observed value meets the bound.
func (s Spec) Satisfied(observed time.Duration) bool {
	if s.Comparator == LessThanOrEqual {
		return observed <= s.Bound
	}
	return observed < s.Bound
}

// Validate checks that the spec can be evaluated.
func (s Spec) Validate() error {
	if s.Percentile < 0 || s.Percentile > 100 || math.IsNaN(s.Percentile) {
		return fmt.Errorf("percentile %v is out of range 0-100", s.Percentile)
	}
	if s.Comparator != LessThan && s.Comparator != LessThanOrEqual {
		return fmt.Errorf("unsupported comparator %q", s.Comparator)
	}
	if s.Bound <= 0 {
		return errors.New("bound must be positive")
	}
	return nil
}

var specPattern = regexp.MustCompile(`^p\(?\s*([0-9]+(?:\.[0-9]+)?)\s*\)?\s*(<=|<)\s*([0-9]+(?:\.[0-9]+)?)\s*(ns|us|µs|ms|s|m)?$`)

// Parse reads a threshold expression. Both the k6 form "p(95)<500" and "p95 < 500ms" are
// accepted; a bound without a unit is in milliseconds.
func Parse(expr string) (Spec, error) {
	m := specPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return Spec{}, fmt.Errorf("invalid threshold expression %q", expr)
	}
	p, _ := strconv.ParseFloat(m[1], 64)
	unit := m[4]
	if unit == "" {
		unit = "ms"
	}
	bound, err := time.ParseDuration(m[3] + unit)
	if err != nil {
		return Spec{}, fmt.Errorf("invalid threshold expression %q: %w", expr, err)
	}
	spec := Spec{Percentile: p, Comparator: Comparator(m[2]), Bound: bound}
	if err := spec.Validate(); err != nil {
		return Spec{}, fmt.Errorf("invalid threshold expression %q: %w", expr, err)
	}
	return spec, nil
}

// MustParse is like Parse but panics on error. It is meant for built-in plan definitions.
func MustParse(expr string) Spec {
	s, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return s
}

// UnmarshalText allows a Spec to be read directly from YAML or configuration strings.
func (s *Spec) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Spec) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func sortedCopy(latencies []time.Duration) []time.Duration {
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

// Percentile returns the p-th percentile (0-100) of the latencies, interpolating linearly
// between the two nearest ranks. It returns 0 for an empty slice.
func Percentile(latencies []time.Duration, p float64) time.Duration {
	return percentileOfSorted(sortedCopy(latencies), p)
}

func percentileOfSorted(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower] + time.Duration(math.Round(float64(sorted[upper]-sorted[lower])*weight))
}

// Evaluation is the outcome of judging one Spec against a sample.
type Evaluation struct {
	Passed   bool
	Observed time.Duration
	Required Spec
	Samples  int
}

func (e Evaluation) String() string {
	if e.Samples == 0 {
		return fmt.Sprintf("%s: FAILED (no samples)", e.Required)
	}
	result := "passed"
	if !e.Passed {
		result = "FAILED"
	}
	return fmt.Sprintf("%s: %s (observed p(%s)=%s over %d samples)", e.Required, result,
		strconv.FormatFloat(e.Required.Percentile, 'f', -1, 64), e.Observed, e.Samples)
}

// Evaluate computes the spec's percentile over the latencies and compares it to the
// bound. An empty sample never passes.
func Evaluate(latencies []time.Duration, spec Spec) Evaluation {
	e := Evaluation{Required: spec, Samples: len(latencies)}
	if len(latencies) == 0 {
		return e
	}
	e.Observed = Percentile(latencies, spec.Percentile)
	e.Passed = spec.Satisfied(e.Observed)
	return e
}

// Stats is a descriptive summary of a latency sample.
type Stats struct {
	Count int           `json:"count"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
	P50   time.Duration `json:"p50"`
	P90   time.Duration `json:"p90"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// Summarize computes Stats over the latencies. All fields are zero for an empty sample.
func Summarize(latencies []time.Duration) Stats {
	if len(latencies) == 0 {
		return Stats{}
	}
	sorted := sortedCopy(latencies)
	var total time.Duration
	for _, l := range sorted {
		total += l
	}
	return Stats{
		Count: len(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  total / time.Duration(len(sorted)),
		P50:   percentileOfSorted(sorted, 50),
		P90:   percentileOfSorted(sorted, 90),
		P95:   percentileOfSorted(sorted, 95),
		P99:   percentileOfSorted(sorted, 99),
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("count=%d min=%s mean=%s p50=%s p90=%s p95=%s p99=%s max=%s",
		s.Count, s.Min, s.Mean, s.P50, s.P90, s.P95, s.P99, s.Max)
}
