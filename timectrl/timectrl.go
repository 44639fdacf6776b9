package timectrl

import (
	"sort"
	"sync"
	"time"
)

// Clock is the time source used by animation and scheduling code. Depending
// on the interface rather than on time directly lets tests step time by hand.
type Clock interface {
	// Now returns the current clock time.
	Now() time.Time
	// AfterFunc calls fn once the clock has advanced by d. fn runs on the
	// goroutine that advances the clock.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer, false if it had already fired or been stopped.
	Stop() bool
}

// Mode describes how the TimeController advances time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

// TimeController drives frame time and notifies registered listeners. It
// implements Clock: timers fire when the controller's time passes their
// deadline, whether it is advanced by the run loop or by hand.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	// currentTime tracks the controller's time. It is updated as the
	// controller advances.
	currentTime time.Time

	listeners []func(time.Time)

	timers []*timer
	seq    uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
		stop:        make(chan struct{}),
	}
}

// Now returns the current time. Implements Clock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// AfterFunc schedules fn to run once time has advanced by d. Implements
// Clock. A non-positive d fires on the next advance.
func (tc *TimeController) AfterFunc(d time.Duration, fn func()) Timer {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.seq++
	t := &timer{
		tc:       tc,
		deadline: tc.currentTime.Add(d),
		seq:      tc.seq,
		fn:       fn,
	}
	tc.timers = append(tc.timers, t)
	return t
}

// SetTime jumps to now, firing any timers that fall due and notifying
// listeners.
func (tc *TimeController) SetTime(now time.Time) {
	tc.advanceTo(now)
}

// Advance moves time forward by d.
func (tc *TimeController) Advance(d time.Duration) {
	tc.advanceTo(tc.Now().Add(d))
}

// AddListener registers a callback invoked on every advance.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Start runs the controller for the specified duration (zero means until
// Stop) in a separate goroutine. It returns a channel that is closed when the
// controller finishes.
func (tc *TimeController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.mu.Lock()
		simTime := tc.StartTime
		tc.currentTime = simTime
		tc.mu.Unlock()

		elapsed := time.Duration(0)

		// In both modes we use a ticker for simplicity and determinism.
		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()

		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			select {
			case <-tc.stop:
				return
			case <-ticker.C:
			}
			simTime = simTime.Add(tc.Tick)
			elapsed += tc.Tick

			tc.advanceTo(simTime)
		}
	}()
	return done
}

// Stop ends a running Start loop. It is safe to call more than once.
func (tc *TimeController) Stop() {
	tc.stopOnce.Do(func() { close(tc.stop) })
}

func (tc *TimeController) advanceTo(now time.Time) {
	tc.mu.Lock()
	tc.currentTime = now
	var due, pending []*timer
	for _, t := range tc.timers {
		if !t.deadline.After(now) {
			due = append(due, t)
		} else {
			pending = append(pending, t)
		}
	}
	tc.timers = pending
	listeners := append([]func(time.Time){}, tc.listeners...)
	tc.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})

	// Callbacks run outside the lock so they may schedule new timers.
	for _, t := range due {
		t.fn()
	}
	for _, fn := range listeners {
		fn(now)
	}
}

type timer struct {
	tc       *TimeController
	deadline time.Time
	seq      uint64
	fn       func()
}

func (t *timer) Stop() bool {
	t.tc.mu.Lock()
	defer t.tc.mu.Unlock()
	for i, p := range t.tc.timers {
		if p == t {
			t.tc.timers = append(t.tc.timers[:i], t.tc.timers[i+1:]...)
			return true
		}
	}
	return false
}
