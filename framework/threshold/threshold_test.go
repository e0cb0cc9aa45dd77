package threshold

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		expr string
		want Spec
	}{
		{"p(95)<500", Spec{Percentile: 95, Comparator: LessThan, Bound: ms(500)}},
		{"p(95)<600", Spec{Percentile: 95, Comparator: LessThan, Bound: ms(600)}},
		{"p95 < 500ms", Spec{Percentile: 95, Comparator: LessThan, Bound: ms(500)}},
		{"p99<=1.5s", Spec{Percentile: 99, Comparator: LessThanOrEqual, Bound: 1500 * time.Millisecond}},
		{" p(99.9) <= 250 ", Spec{Percentile: 99.9, Comparator: LessThanOrEqual, Bound: ms(250)}},
	} {
		t.Run(tc.expr, func(t *testing.T) {
			spec, err := Parse(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, spec)
		})
	}

	for _, bad := range []string{"", "p(95)>500", "avg<500", "p(101)<500", "p(95)<0", "p(95)<500h"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := Parse(bad)
			assert.Error(t, err)
		})
	}
}

func TestSpecString(t *testing.T) {
	assert.Equal(t, "p(95)<500ms", MustParse("p(95)<500").String())
	assert.Equal(t, "p(99.5)<=1.5s", MustParse("p99.5<=1.5s").String())
	assert.Panics(t, func() { MustParse("nonsense") })
}

func TestSpecFromYAML(t *testing.T) {
	var holder struct {
		Threshold Spec `yaml:"threshold"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`threshold: "p(95)<600"`), &holder))
	assert.Equal(t, MustParse("p(95)<600"), holder.Threshold)
}

func TestPercentileInterpolates(t *testing.T) {
	latencies := []time.Duration{ms(40), ms(10), ms(30), ms(20)}
	assert.Equal(t, ms(10), Percentile(latencies, 0))
	assert.Equal(t, ms(25), Percentile(latencies, 50))
	assert.Equal(t, ms(40), Percentile(latencies, 100))
	assert.Equal(t, ms(10), Percentile(latencies[1:2], 95))
	assert.Equal(t, time.Duration(0), Percentile(nil, 95))
	assert.Equal(t, []time.Duration{ms(40), ms(10), ms(30), ms(20)}, latencies, "input is not reordered")

	hundred := make([]time.Duration, 100)
	for i := range hundred {
		hundred[i] = ms(i + 1)
	}
	assert.Equal(t, ms(50)+ms(1)/2, Percentile(hundred, 50))
	assert.Equal(t, ms(95)+ms(1)*5/100, Percentile(hundred, 95))
}

func TestPercentileIsMonotone(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	latencies := make([]time.Duration, 257)
	for i := range latencies {
		latencies[i] = time.Duration(r.Int63n(int64(time.Second)))
	}
	previous := time.Duration(-1)
	for p := 0.0; p <= 100; p += 0.5 {
		v := Percentile(latencies, p)
		assert.GreaterOrEqual(t, int64(v), int64(previous), "p=%v", p)
		previous = v
	}
}

func TestEvaluate(t *testing.T) {
	spec := MustParse("p(95)<500")

	fast := []time.Duration{ms(100), ms(120), ms(200), ms(300)}
	e := Evaluate(fast, spec)
	assert.True(t, e.Passed)
	assert.Equal(t, 4, e.Samples)
	assert.Equal(t, spec, e.Required)
	assert.Contains(t, e.String(), "passed")

	slow := append(fast, ms(900), ms(1000))
	e = Evaluate(slow, spec)
	assert.False(t, e.Passed)
	assert.Greater(t, int64(e.Observed), int64(ms(500)))
	assert.Contains(t, e.String(), "FAILED")

	atBound := []time.Duration{ms(500)}
	assert.False(t, Evaluate(atBound, spec).Passed)
	assert.True(t, Evaluate(atBound, MustParse("p(95)<=500")).Passed)
}

func TestEvaluateEmptySampleFails(t *testing.T) {
	e := Evaluate(nil, MustParse("p(95)<500"))
	assert.False(t, e.Passed)
	assert.Equal(t, 0, e.Samples)
	assert.Contains(t, e.String(), "no samples")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))

	s := Summarize([]time.Duration{ms(30), ms(10), ms(20)})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, ms(10), s.Min)
	assert.Equal(t, ms(30), s.Max)
	assert.Equal(t, ms(20), s.Mean)
	assert.Equal(t, ms(20), s.P50)
	assert.True(t, s.P50 <= s.P90 && s.P90 <= s.P95 && s.P95 <= s.P99 && s.P99 <= s.Max)
}
