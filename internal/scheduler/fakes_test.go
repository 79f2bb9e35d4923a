package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thomas-vilte/changelens/internal/models"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order on the caller's
// goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

type requestRecorder struct {
	mu      sync.Mutex
	sources []TriggerSource
	times   []time.Time
	clock   Clock
}

func (r *requestRecorder) request(source TriggerSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
	if r.clock != nil {
		r.times = append(r.times, r.clock.Now())
	}
}

func (r *requestRecorder) Sources() []TriggerSource {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TriggerSource(nil), r.sources...)
}

// fakeClassifiers counts calls and answers with fixed outcomes or an error.
type fakeClassifiers struct {
	mu       sync.Mutex
	calls    int
	inputs   []string
	outcomes []models.ClassifierOutcome
	err      error
}

func (f *fakeClassifiers) Run(_ context.Context, cleaned string, _ models.ClassificationContext) ([]models.ClassifierOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inputs = append(f.inputs, cleaned)
	if f.err != nil {
		return nil, f.err
	}
	return f.outcomes, nil
}

func (f *fakeClassifiers) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeClassifiers) Inputs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inputs...)
}

type fakeDeliverer struct {
	mu        sync.Mutex
	records   []models.StoredClassification
	err       error
	panicWith string
}

func (d *fakeDeliverer) Deliver(_ context.Context, record models.StoredClassification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, record)
	if d.panicWith != "" {
		panic(d.panicWith)
	}
	return d.err
}

func (d *fakeDeliverer) Records() []models.StoredClassification {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.StoredClassification(nil), d.records...)
}

type fakeObserver struct {
	mu        sync.Mutex
	cycles    []string
	requests  int
	coalesced int
}

func (o *fakeObserver) ObserveCycle(_ context.Context, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cycles = append(o.cycles, outcome)
}

func (o *fakeObserver) ObserveRequest(_ context.Context, _ string, coalesced bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests++
	if coalesced {
		o.coalesced++
	}
}

// mutableSource returns whatever text was last set.
type mutableSource struct {
	mu   sync.Mutex
	text string
	err  error
}

func (s *mutableSource) Set(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

func (s *mutableSource) Fetch(context.Context) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Change{}, s.err
	}
	return Change{Text: s.text, Context: models.ClassificationContext{Project: "changelens"}}, nil
}

var errFetch = errors.New("git not available")

const sampleDiff = `diff --git a/main.go b/main.go
index 3b18e51..a9c4d1f 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,4 @@
 package main
+// guard against nil config
 func main() {}
`
