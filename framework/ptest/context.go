package ptest

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework"

	"golang.org/x/sync/errgroup"
)

// TestConfiguration contains the parameters for Run.
type TestConfiguration struct {
	// Filter excludes tests by ID. Nil means run everything.
	Filter Filter
	// TestLogger is notified of test progress. Nil means no notifications.
	TestLogger TestLogger
	// Context is an arbitrary value made available to every test through T.Context, such
	// as the client for the service under test.
	Context interface{}
}

type environment struct {
	config  TestConfiguration
	results Results
	lock    sync.Mutex
}

func (e *environment) addResult(result TestResult, failed bool) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.results.Tests = append(e.results.Tests, result)
	if failed {
		e.results.Failures = append(e.results.Failures, result)
	}
}

// T is the context of one test. A T must only be used from the goroutine that is running
// its test; subtests started with Run or Parallel get their own T.
type T struct {
	env         *environment
	id          TestID
	debugLogger framework.CapturingLogger
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
	cleanups    []func()
	lock        sync.Mutex
}

// Run executes a top-level test action and returns the results of all subtests it ran.
func Run(config TestConfiguration, action func(*T)) Results {
	if config.TestLogger == nil {
		config.TestLogger = nullTestLogger{}
	}
	env := &environment{config: config}
	t := &T{env: env}
	t.run(action)
	return env.results
}

func (t *T) run(action func(*T)) {
	startTime := time.Now()
	defer func() {
		if r := recover(); r != nil {
			if !t.skipped {
				t.failed = true
				var addError error
				if _, ok := r.(*T); ok {
					if len(t.errors) == 0 {
						addError = errors.New("test failed with no failure message")
					}
				} else {
					addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
				}
				if addError != nil {
					t.errors = append(t.errors, addError)
					t.env.config.TestLogger.TestError(t.id, addError)
				}
			}
		}
		t.runCleanups()
		if len(t.id.Path) == 0 {
			return
		}
		result := TestResult{TestID: t.id, Errors: t.errors, Skipped: t.skipped, Duration: time.Since(startTime)}
		t.env.addResult(result, t.failed)
	}()

	action(t)
}

func (t *T) runCleanups() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("unexpected panic in cleanup: %+v", r)
				}
			}()
			t.cleanups[i]()
		}()
	}
	t.cleanups = nil
}

func (t *T) ID() TestID {
	return t.id
}

// Context returns the value that was provided in TestConfiguration.Context.
func (t *T) Context() interface{} {
	return t.env.config.Context
}

// Run starts a subtest and waits for it to finish. A failure of the subtest does not stop
// or fail the current test.
func (t *T) Run(name string, action func(*T)) {
	id := t.id.Plus(name)
	logger := t.env.config.TestLogger

	logger.TestStarted(id)
	if t.env.config.Filter != nil && !t.env.config.Filter(id) {
		logger.TestSkipped(id, "excluded by filter parameters")
		t.env.addResult(TestResult{TestID: id, Skipped: true}, false)
		return
	}
	t1 := &T{
		id:  id,
		env: t.env,
	}
	t1.run(action)
	if t1.skipped {
		logger.TestSkipped(id, t1.skipReason)
	} else {
		logger.TestFinished(id, t1.failed, t1.debugLogger.Output())
	}
}

// Group starts subtests that run concurrently. It is only valid inside the function
// passed to Parallel.
type Group struct {
	t     *T
	group *errgroup.Group
}

// Run starts a subtest in the group, blocking only if the group is at its limit.
func (g *Group) Run(name string, action func(*T)) {
	g.group.Go(func() error {
		g.t.Run(name, action)
		return nil
	})
}

// Parallel calls fn to start subtests through a Group, and waits until all of them have
// finished. At most limit subtests run at once; zero or less means no limit.
func (t *T) Parallel(limit int, fn func(*Group)) {
	var group errgroup.Group
	if limit > 0 {
		group.SetLimit(limit)
	}
	fn(&Group{t: t, group: &group})
	_ = group.Wait()
}

func (t *T) Errorf(format string, args ...interface{}) {
	err := fmt.Errorf(format, args...)
	t.lock.Lock()
	t.failed = true
	t.errors = append(t.errors, err)
	t.lock.Unlock()
	t.env.config.TestLogger.TestError(t.id, err)
}

// Failed reports whether the test has had any errors so far.
func (t *T) Failed() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.failed
}

func (t *T) FailNow() {
	panic(t)
}

func (t *T) Skip() {
	t.skipped = true
	panic(t)
}

func (t *T) SkipWithReason(reason string) {
	t.skipReason = reason
	t.Skip()
}

// Defer schedules a function to run when the test ends, whether it passed or not.
// Deferred functions run in reverse order.
func (t *T) Defer(fn func()) {
	t.cleanups = append(t.cleanups, fn)
}

func (t *T) Debug(message string, args ...interface{}) {
	t.debugLogger.Printf(message, args...)
}

func (t *T) DebugLogger() framework.Logger {
	return &t.debugLogger
}
