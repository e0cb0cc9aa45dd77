package load

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/framework/threshold"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func okSender(delay time.Duration) harness.Sender {
	return harness.SenderFunc(func(ctx context.Context, req harness.Request) (*harness.Response, error) {
		time.Sleep(delay)
		return &harness.Response{Status: 200}, nil
	})
}

func simplePattern() Pattern {
	return Pattern{Actions: []Action{{
		Name:  "create pet",
		Build: func(it *Iteration) harness.Request { return harness.Request{Method: "POST", Path: "/pet"} },
	}}}
}

func shortPlan() Plan {
	return Plan{
		Name:      "short",
		Stages:    []Stage{{Duration: ms(100), Target: 2}, {Duration: ms(200), Target: 2}, {Duration: ms(100), Target: 0}},
		Pace:      ms(10),
		Threshold: threshold.MustParse("p(95)<1000"),
		Pattern:   simplePattern(),
	}
}

func TestTargetAt(t *testing.T) {
	plan := Plan{Stages: []Stage{
		{Duration: time.Second, Target: 10},
		{Duration: 2 * time.Second, Target: 10},
		{Duration: time.Second, Target: 0},
	}}
	for _, tc := range []struct {
		elapsed time.Duration
		target  int
		stage   int
	}{
		{0, 0, 0},
		{ms(500), 5, 0},
		{ms(999), 10, 0},
		{time.Second, 10, 1},
		{ms(2500), 10, 1},
		{ms(3500), 5, 2},
		{4 * time.Second, 0, 3},
		{time.Hour, 0, 3},
	} {
		t.Run(tc.elapsed.String(), func(t *testing.T) {
			target, stage := plan.TargetAt(tc.elapsed)
			assert.Equal(t, tc.target, target)
			assert.Equal(t, tc.stage, stage)
		})
	}
	assert.Equal(t, 4*time.Second, plan.TotalDuration())
	assert.Equal(t, 10, plan.PeakTarget())
}

func TestStagePhases(t *testing.T) {
	stages := []Stage{{Target: 10}, {Target: 20}, {Target: 20}, {Target: 0}}
	assert.Equal(t, Phase{Kind: RampingUp, Stage: 0}, stagePhase(stages, 0))
	assert.Equal(t, Phase{Kind: RampingUp, Stage: 1}, stagePhase(stages, 1))
	assert.Equal(t, Phase{Kind: Holding, Stage: 2}, stagePhase(stages, 2))
	assert.Equal(t, Phase{Kind: RampingDown, Stage: 3}, stagePhase(stages, 3))
	assert.Equal(t, "ramping-down(4)", stagePhase(stages, 3).String())
	assert.Equal(t, "drained", Phase{Kind: Drained}.String())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, shortPlan().Validate())

	for name, mutate := range map[string]func(*Plan){
		"no stages":     func(p *Plan) { p.Stages = nil },
		"zero duration": func(p *Plan) { p.Stages[0].Duration = 0 },
		"negative":      func(p *Plan) { p.Stages[0].Target = -1 },
		"no actions":    func(p *Plan) { p.Pattern = Pattern{} },
		"no builder":    func(p *Plan) { p.Pattern.Actions[0].Build = nil },
		"no threshold":  func(p *Plan) { p.Threshold = threshold.Spec{} },
	} {
		t.Run(name, func(t *testing.T) {
			p := shortPlan()
			mutate(&p)
			assert.Error(t, p.Validate())
			_, err := NewGenerator(GeneratorConfig{Sender: okSender(0)}).Run(context.Background(), p)
			assert.Error(t, err)
		})
	}
}

func TestRunFollowsStages(t *testing.T) {
	var observed []Transition
	var lock sync.Mutex
	metrics := NewMetrics()
	g := NewGenerator(GeneratorConfig{
		Sender:  okSender(ms(1)),
		Tick:    ms(5),
		Metrics: metrics,
		Observer: func(tr Transition) {
			lock.Lock()
			observed = append(observed, tr)
			lock.Unlock()
		},
	})

	summary, err := g.Run(context.Background(), shortPlan())
	require.NoError(t, err)

	assert.Equal(t, "short", summary.Plan)
	assert.False(t, summary.Aborted)
	assert.True(t, summary.OK())
	assert.GreaterOrEqual(t, summary.Requests, 20)
	assert.Equal(t, summary.Requests, summary.ChecksPassed)
	assert.Equal(t, 0, summary.ChecksFailed)
	assert.Equal(t, summary.Requests, summary.Stats.Count)
	assert.Equal(t, summary.Requests, summary.Threshold.Samples)
	assert.GreaterOrEqual(t, int64(summary.Duration), int64(ms(400)))

	assert.Equal(t, []Phase{
		{Kind: Idle},
		{Kind: RampingUp, Stage: 0},
		{Kind: Holding, Stage: 1},
		{Kind: RampingDown, Stage: 2},
		{Kind: Drained},
		{Kind: Completed},
	}, summary.Timeline.Phases())
	assert.Equal(t, summary.Timeline, Timeline(observed))
	for i := 1; i < len(summary.Timeline); i++ {
		assert.GreaterOrEqual(t, int64(summary.Timeline[i].At), int64(summary.Timeline[i-1].At))
	}
	assert.Equal(t, 0, summary.Timeline[len(summary.Timeline)-1].VUs)

	assert.Equal(t, float64(summary.Requests),
		testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("short", "create pet", "200", "passed")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.activeVUs.WithLabelValues("short")))
}

func TestTransportErrorsAreFailedChecksAndVUsContinue(t *testing.T) {
	sender := harness.SenderFunc(func(ctx context.Context, req harness.Request) (*harness.Response, error) {
		return nil, &harness.TransportError{Method: req.Method, URL: req.Path, Err: errors.New("connection refused")}
	})
	plan := shortPlan()
	plan.Stages = []Stage{{Duration: ms(150), Target: 1}}

	summary, err := NewGenerator(GeneratorConfig{Sender: sender, Tick: ms(5)}).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Greater(t, summary.Requests, 1, "the VU kept iterating after an error")
	assert.Equal(t, summary.Requests, summary.ChecksFailed)
	assert.Equal(t, summary.Requests, summary.TransportErrors)
	assert.Equal(t, 0, summary.ChecksPassed)
}

func TestStatusCheckPolicy(t *testing.T) {
	sender := harness.SenderFunc(func(ctx context.Context, req harness.Request) (*harness.Response, error) {
		return &harness.Response{Status: 404}, nil
	})
	plan := shortPlan()
	plan.Stages = []Stage{{Duration: ms(60), Target: 1}}
	plan.Pattern = Pattern{Actions: []Action{
		{Name: "default check", Build: simplePattern().Actions[0].Build},
		{Name: "accepts 404", Build: simplePattern().Actions[0].Build, Check: expect.Exactly(404)},
	}}

	summary, err := NewGenerator(GeneratorConfig{Sender: sender, Tick: ms(5)}).Run(context.Background(), plan)
	require.NoError(t, err)
	require.Greater(t, summary.Requests, 0)
	assert.Equal(t, summary.Requests, summary.ChecksPassed+summary.ChecksFailed)
	assert.Equal(t, summary.ChecksPassed, summary.ChecksFailed)
	assert.Equal(t, 0, summary.TransportErrors)
}

func TestIterationVarsFlowBetweenActions(t *testing.T) {
	var lock sync.Mutex
	var paths []string
	sender := harness.SenderFunc(func(ctx context.Context, req harness.Request) (*harness.Response, error) {
		lock.Lock()
		paths = append(paths, req.Path)
		lock.Unlock()
		return &harness.Response{Status: 200}, nil
	})
	plan := shortPlan()
	plan.Stages = []Stage{{Duration: ms(50), Target: 1}}
	plan.Pace = ms(100)
	plan.Pattern = Pattern{Actions: []Action{
		{Name: "create", Build: func(it *Iteration) harness.Request {
			it.Vars["username"] = fmt.Sprintf("user-%d-%d", it.VU, it.Number)
			return harness.Request{Method: "POST", Path: "/user"}
		}},
		{Name: "login", Build: func(it *Iteration) harness.Request {
			return harness.Request{Method: "GET", Path: "/user/login?username=" + it.Vars["username"]}
		}},
	}}

	_, err := NewGenerator(GeneratorConfig{Sender: sender, Tick: ms(5), Seed: 1}).Run(context.Background(), plan)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(paths), 2)
	assert.Equal(t, []string{"/user", "/user/login?username=user-0-0"}, paths[:2])
}

func TestCancellationStopsNewIterationsButLetsRequestsFinish(t *testing.T) {
	var started, finished, cancelledDuringRequest int32
	sender := harness.SenderFunc(func(ctx context.Context, req harness.Request) (*harness.Response, error) {
		atomic.AddInt32(&started, 1)
		time.Sleep(ms(60))
		if ctx.Err() != nil {
			atomic.AddInt32(&cancelledDuringRequest, 1)
		}
		atomic.AddInt32(&finished, 1)
		return &harness.Response{Status: 201}, nil
	})
	plan := shortPlan()
	plan.Stages = []Stage{{Duration: ms(10), Target: 3}, {Duration: time.Minute, Target: 3}}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(ms(100))
		cancel()
	}()
	startTime := time.Now()
	summary, err := NewGenerator(GeneratorConfig{Sender: sender, Tick: ms(5)}).Run(ctx, plan)
	require.NoError(t, err)

	assert.True(t, summary.Aborted)
	assert.Less(t, int64(time.Since(startTime)), int64(10*time.Second))
	assert.Equal(t, atomic.LoadInt32(&started), atomic.LoadInt32(&finished), "every started request completed")
	assert.Equal(t, int(atomic.LoadInt32(&finished)), summary.Requests)
	assert.Equal(t, int32(0), atomic.LoadInt32(&cancelledDuringRequest), "request contexts are not cancelled")
	phases := summary.Timeline.Phases()
	assert.Equal(t, []Phase{{Kind: Drained}, {Kind: Completed}}, phases[len(phases)-2:])
}

func TestEmptyRunFailsThreshold(t *testing.T) {
	plan := shortPlan()
	plan.Stages = []Stage{{Duration: ms(30), Target: 0}}
	summary, err := NewGenerator(GeneratorConfig{Sender: okSender(0), Tick: ms(5)}).Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Requests)
	assert.False(t, summary.OK())
	assert.Equal(t, []Phase{
		{Kind: Idle}, {Kind: Holding, Stage: 0}, {Kind: Drained}, {Kind: Completed},
	}, summary.Timeline.Phases())
}

func TestRecorderIsConcurrencySafe(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Add(Sample{Action: "a", Latency: ms(i)})
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1000, r.Len())
	assert.Len(t, r.Latencies(), 1000)
	assert.Len(t, r.Samples(), 1000)
}
