package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/load"
	"github.com/petstore-harness/petstore-contract-tests/framework/scenario"
	"github.com/petstore-harness/petstore-contract-tests/framework/threshold"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func sampleVerdicts() []scenario.Verdict {
	return []scenario.Verdict{
		{
			Scenario: "pets/find pet by id",
			Outcome:  scenario.Passed,
			Passed:   []scenario.Check{{Step: "GET /pet/1006", Assertion: "status 200"}},
			Duration: 1500 * time.Microsecond,
		},
		{
			Scenario:   "pets/find nonexistent pet",
			Outcome:    scenario.Failed,
			FailedStep: "GET /pet/9999",
			Failure:    &expect.Failure{Assertion: "status 404", Expected: "404", Actual: "200", Body: "{}"},
		},
		{
			Scenario:   "users/log out",
			Outcome:    scenario.Errored,
			FailedStep: "GET /user/logout",
			Err:        errors.New("connection refused"),
		},
	}
}

func TestReportFromVerdicts(t *testing.T) {
	r := New("http://localhost:8080")
	r.AddVerdicts(sampleVerdicts()[:1])
	assert.True(t, r.OK)

	r.AddVerdicts(sampleVerdicts()[1:])
	assert.False(t, r.OK)
	require.Len(t, r.Scenarios, 3)
	assert.Equal(t, 1.5, r.Scenarios[0].DurationMS)
	assert.Equal(t, "200", r.Scenarios[1].Failure.Actual)
	assert.Equal(t, "connection refused", r.Scenarios[2].Error)
}

func TestReportFromLoadSummary(t *testing.T) {
	spec := threshold.MustParse("p(95)<500ms")
	latencies := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	summary := load.Summary{
		Plan:         "create-pet",
		Requests:     3,
		ChecksPassed: 3,
		Stats:        threshold.Summarize(latencies),
		Threshold:    threshold.Evaluate(latencies, spec),
		Timeline: load.Timeline{
			{Phase: load.Phase{Kind: load.Idle}},
			{Phase: load.Phase{Kind: load.RampingUp, Stage: 1}, At: 100 * time.Millisecond, VUs: 1},
		},
	}

	r := New("")
	r.AddLoadSummary(summary)
	assert.True(t, r.OK)
	require.Len(t, r.LoadRuns, 1)
	run := r.LoadRuns[0]
	assert.Equal(t, "p(95)<500ms", run.Threshold.Spec)
	assert.Equal(t, 20.0, run.Latency.P50)
	assert.Equal(t, 3, run.Threshold.Samples)
	require.Len(t, run.Phases, 2)
	assert.Equal(t, 100.0, run.Phases[1].OffsetMS)

	r.AddLoadSummary(load.Summary{Plan: "empty", Threshold: threshold.Evaluate(nil, spec)})
	assert.False(t, r.OK)
}

func TestWriteFile(t *testing.T) {
	r := New("http://localhost:8080")
	r.AddVerdicts(sampleVerdicts())
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	value := ldvalue.Parse(data)
	assert.Equal(t, ldvalue.Bool(false), value.GetByKey("ok"))
	assert.Equal(t, 3, value.GetByKey("scenarios").Count())
	assert.Equal(t, ldvalue.String("failed"), value.GetByKey("scenarios").GetByIndex(1).GetByKey("outcome"))

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	assert.Equal(t, string(data), buf.String())
}
