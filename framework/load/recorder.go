package load

import (
	"sync"
	"time"
)

// Sample is the record of one request made by a VU.
type Sample struct {
	Action  string
	Stage   int
	Status  int
	Latency time.Duration
	Passed  bool
	Err     error
}

// Recorder is the concurrency-safe pool of samples shared by all VUs of a run.
type Recorder struct {
	samples []Sample
	lock    sync.Mutex
}

func (r *Recorder) Add(s Sample) {
	r.lock.Lock()
	r.samples = append(r.samples, s)
	r.lock.Unlock()
}

func (r *Recorder) Len() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.samples)
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []Sample {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]Sample(nil), r.samples...)
}

// Latencies returns the latency of every sample, including those whose request failed with
// a transport error: a request that timed out took at least that long.
func (r *Recorder) Latencies() []time.Duration {
	r.lock.Lock()
	defer r.lock.Unlock()
	ret := make([]time.Duration, 0, len(r.samples))
	for _, s := range r.samples {
		ret = append(ret, s.Latency)
	}
	return ret
}
