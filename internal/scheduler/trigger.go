package scheduler

import (
	"sync"
	"time"
)

// TriggerSource names what asked for a cycle.
type TriggerSource string

const (
	TriggerInterval   TriggerSource = "interval"
	TriggerManualSave TriggerSource = "manual_save"
	TriggerAutoSave   TriggerSource = "auto_save"
	TriggerDirect     TriggerSource = "direct"
)

const (
	DefaultInterval = 30 * time.Minute
	DefaultDebounce = 60 * time.Second
)

// RequestFunc is the single entry point every trigger funnels into.
type RequestFunc func(source TriggerSource)

// Coordinator turns timer ticks and save events into cycle requests. It
// knows nothing about whether a cycle is running.
type Coordinator struct {
	clock    Clock
	interval time.Duration
	debounce time.Duration
	request  RequestFunc

	mu            sync.Mutex
	started       bool
	disposed      bool
	intervalTimer Timer
	debounceTimer Timer
	debounceGen   uint64
}

// NewCoordinator builds a coordinator. Non-positive durations fall back to
// DefaultInterval and DefaultDebounce.
func NewCoordinator(clock Clock, interval, debounce time.Duration, request RequestFunc) *Coordinator {
	if clock == nil {
		clock = RealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coordinator{
		clock:    clock,
		interval: interval,
		debounce: debounce,
		request:  request,
	}
}

// Start arms the interval timer. It is a no-op after the first call or
// after Dispose.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.disposed {
		return
	}
	c.started = true
	c.armIntervalLocked()
}

func (c *Coordinator) armIntervalLocked() {
	c.intervalTimer = c.clock.AfterFunc(c.interval, c.onInterval)
}

func (c *Coordinator) onInterval() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.armIntervalLocked()
	c.mu.Unlock()

	c.request(TriggerInterval)
}

// ManualSave requests a cycle right away.
func (c *Coordinator) ManualSave() {
	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()

	if disposed {
		return
	}
	c.request(TriggerManualSave)
}

// AutoSave restarts the debounce window. Only the last event of a burst
// results in a request.
func (c *Coordinator) AutoSave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
	}

	c.debounceGen++
	gen := c.debounceGen
	c.debounceTimer = c.clock.AfterFunc(c.debounce, func() {
		c.onDebounce(gen)
	})
}

func (c *Coordinator) onDebounce(gen uint64) {
	c.mu.Lock()
	// a newer event re-armed the window after this timer fired
	if c.disposed || gen != c.debounceGen {
		c.mu.Unlock()
		return
	}
	c.debounceTimer = nil
	c.mu.Unlock()

	c.request(TriggerAutoSave)
}

// Dispose cancels every pending timer. Later events are ignored.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true

	if c.intervalTimer != nil {
		c.intervalTimer.Stop()
		c.intervalTimer = nil
	}
	if c.debounceTimer != nil {
		c.debounceTimer.Stop()
		c.debounceTimer = nil
	}
}

func (c *Coordinator) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
