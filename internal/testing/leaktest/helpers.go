// Package leaktest checks that background workers exit when stopped.
package leaktest

import (
	"runtime"
	"testing"
	"time"
)

const (
	settleDelay  = 10 * time.Millisecond
	pollInterval = 10 * time.Millisecond
)

// GoroutineChecker compares the goroutine count against a baseline
type GoroutineChecker struct {
	t        testing.TB
	baseline int
}

// NewGoroutineChecker records the current goroutine count
func NewGoroutineChecker(t testing.TB) *GoroutineChecker {
	t.Helper()
	runtime.Gosched()
	time.Sleep(settleDelay)
	return &GoroutineChecker{t: t, baseline: runtime.NumGoroutine()}
}

// Check fails the test if more than tolerance goroutines are still running
// above the baseline once timeout has passed.
func (g *GoroutineChecker) Check(tolerance int, timeout time.Duration) {
	g.t.Helper()
	if n, ok := waitFor(g.baseline+tolerance, timeout); !ok {
		g.t.Errorf("goroutine leak: baseline=%d now=%d tolerance=%d", g.baseline, n, tolerance)
	}
}

// Run executes fn and checks it leaves no goroutines behind
func Run(t testing.TB, timeout time.Duration, fn func()) {
	t.Helper()
	checker := NewGoroutineChecker(t)
	fn()
	checker.Check(0, timeout)
}

// waitFor polls until at most target goroutines remain or timeout passes
func waitFor(target int, timeout time.Duration) (int, bool) {
	deadline := time.Now().Add(timeout)
	for {
		runtime.Gosched()
		n := runtime.NumGoroutine()
		if n <= target {
			return n, true
		}
		if time.Now().After(deadline) {
			return n, false
		}
		time.Sleep(pollInterval)
	}
}
