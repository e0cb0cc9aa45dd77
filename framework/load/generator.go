package load

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
)

// DefaultTick is how often the controller recomputes the VU target.
const DefaultTick = 100 * time.Millisecond

// GeneratorConfig contains the parameters for NewGenerator.
type GeneratorConfig struct {
	Sender harness.Sender
	Logger framework.Logger
	// Tick is the controller interval. Defaults to DefaultTick.
	Tick time.Duration
	// Metrics, if set, is updated live during the run.
	Metrics *Metrics
	// Observer, if set, is called from the controller goroutine on every phase transition.
	Observer func(Transition)
	// Seed is the base of each VU's random source. Zero means a time-based seed.
	Seed int64
}

// Generator runs load plans. It holds no per-run state, so one Generator can run several
// plans one after another.
type Generator struct {
	config GeneratorConfig
}

func NewGenerator(config GeneratorConfig) *Generator {
	if config.Logger == nil {
		config.Logger = framework.NullLogger()
	}
	if config.Tick <= 0 {
		config.Tick = DefaultTick
	}
	return &Generator{config: config}
}

type run struct {
	config   GeneratorConfig
	plan     Plan
	ctx      context.Context
	start    time.Time
	seed     int64
	recorder Recorder
	stage    int32
	phase    Phase
	timeline Timeline
	vus      []context.CancelFunc
	nextVU   int
	wg       sync.WaitGroup
}

// Run executes the plan and returns its summary once every VU has stopped. Cancelling ctx
// ends the run early: no new iterations start, but requests already in flight are allowed
// to complete or time out. The only error is an invalid plan; threshold violations and
// failed checks are reported in the Summary.
func (g *Generator) Run(ctx context.Context, plan Plan) (Summary, error) {
	if err := plan.Validate(); err != nil {
		return Summary{}, err
	}
	r := &run{
		config: g.config,
		plan:   plan,
		ctx:    ctx,
		start:  time.Now(),
		seed:   g.config.Seed,
	}
	if r.seed == 0 {
		r.seed = r.start.UnixNano()
	}
	r.enter(Phase{Kind: Idle})
	g.config.Logger.Printf("load plan %q: %d stages over %s, peak %d VUs, threshold %s",
		plan.Name, len(plan.Stages), plan.TotalDuration(), plan.PeakTarget(), plan.Threshold)

	aborted := r.control()

	for _, stop := range r.vus {
		stop()
	}
	r.vus = nil
	r.config.Metrics.setVUs(plan.Name, 0, 0)
	r.wg.Wait()
	r.enter(Phase{Kind: Drained})

	summary := summarize(plan, r.recorder.Samples(), r.recorder.Latencies())
	summary.Aborted = aborted
	summary.Duration = time.Since(r.start)
	r.enter(Phase{Kind: Completed})
	summary.Timeline = r.timeline

	g.config.Logger.Printf("load plan %q: %d requests, %d failed checks, %s",
		plan.Name, summary.Requests, summary.ChecksFailed, summary.Threshold)
	return summary, nil
}

// control runs the ramp until the last stage ends or ctx is cancelled. It returns true if
// the run was cancelled.
func (r *run) control() bool {
	total := r.plan.TotalDuration()
	ticker := time.NewTicker(r.config.Tick)
	defer ticker.Stop()

	r.adjust(0)
	for {
		select {
		case <-r.ctx.Done():
			return true
		case <-ticker.C:
		}
		elapsed := time.Since(r.start)
		if elapsed >= total {
			return false
		}
		r.adjust(elapsed)
	}
}

func (r *run) adjust(elapsed time.Duration) {
	target, stage := r.plan.TargetAt(elapsed)
	if stage < len(r.plan.Stages) {
		atomic.StoreInt32(&r.stage, int32(stage))
		if p := stagePhase(r.plan.Stages, stage); p != r.phase {
			r.enter(p)
		}
	}
	for len(r.vus) < target {
		r.startVU()
	}
	for len(r.vus) > target {
		last := len(r.vus) - 1
		r.vus[last]()
		r.vus = r.vus[:last]
	}
	r.config.Metrics.setVUs(r.plan.Name, len(r.vus), target)
}

func (r *run) enter(p Phase) {
	r.phase = p
	t := Transition{Phase: p, At: time.Since(r.start), VUs: len(r.vus)}
	r.timeline = append(r.timeline, t)
	r.config.Logger.Printf("load plan %q: %s at %s with %d VUs", r.plan.Name, p, t.At.Round(time.Millisecond), t.VUs)
	if r.config.Observer != nil {
		r.config.Observer(t)
	}
}

func (r *run) startVU() {
	ctx, stop := context.WithCancel(r.ctx)
	id := r.nextVU
	r.nextVU++
	r.vus = append(r.vus, stop)
	rnd := rand.New(rand.NewSource(r.seed + int64(id)))
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.runVU(ctx, id, rnd)
	}()
}

func (r *run) runVU(ctx context.Context, id int, rnd *rand.Rand) {
	// Requests outlive a stop signal; the client's own timeout bounds them.
	requestCtx := context.WithoutCancel(ctx)
	pace := r.plan.pace()
	for n := 0; ; n++ {
		if ctx.Err() != nil {
			return
		}
		it := &Iteration{VU: id, Number: n, Rand: rnd, Vars: make(map[string]string)}
		for _, action := range r.plan.Pattern.Actions {
			r.perform(requestCtx, action, it)
		}
		timer := time.NewTimer(pace)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (r *run) perform(ctx context.Context, action Action, it *Iteration) {
	req := action.Build(it)
	stage := int(atomic.LoadInt32(&r.stage))
	startTime := time.Now()
	resp, err := r.config.Sender.Send(ctx, req)
	sample := Sample{Action: action.Name, Stage: stage, Latency: time.Since(startTime), Err: err}
	if err == nil {
		sample.Status = resp.Status
		sample.Passed = action.check().Matches(resp.Status)
	}
	r.recorder.Add(sample)
	r.config.Metrics.observe(r.plan.Name, sample)
}
