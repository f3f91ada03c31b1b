package batch

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// minRate keeps a slow site from stalling the rest of the batch.
	minRate = 1.0

	// maxRate bounds how hard a fast batch hits hosts.
	maxRate = 50.0

	// rttSmoothing is the weight of a new RTT sample in the moving average.
	rttSmoothing = 0.2

	// speedup is applied per sample while the average RTT beats the target.
	speedup = 1.1

	// maxSlowdown is the largest single-step reduction (0.5 halves the rate).
	maxSlowdown = 0.5
)

// Throttle is a request rate limiter that adapts to observed round-trip
// times. It keeps an exponential moving average of RTT and slows down while
// the average is above the target, speeding back up once it drops below.
type Throttle struct {
	limiter *rate.Limiter
	target  time.Duration

	mu      sync.RWMutex
	avgRTT  time.Duration
	current float64
	fixed   bool
}

// NewThrottle creates a Throttle starting at rps requests per second.
func NewThrottle(rps int, target time.Duration) *Throttle {
	r := clampRate(float64(rps))
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(r), burstFor(r)),
		target:  target,
		avgRTT:  target,
		current: r,
	}
}

// Wait blocks until a request may be sent or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Observe records one round-trip time and adjusts the rate.
func (t *Throttle) Observe(rtt time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fixed {
		return
	}

	t.avgRTT = time.Duration(rttSmoothing*float64(rtt) + (1-rttSmoothing)*float64(t.avgRTT))
	ratio := float64(t.target) / float64(t.avgRTT)

	next := t.current * speedup
	if ratio < 1 {
		next = math.Max(t.current*ratio, t.current*maxSlowdown)
	}
	next = clampRate(next)

	if math.Abs(next-t.current) > 0.1 {
		t.setLocked(next)
	}
}

// Fix pins the rate to rps and stops adaptation.
func (t *Throttle) Fix(rps int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fixed = true
	t.setLocked(clampRate(float64(rps)))
}

// Rate returns the current rate in requests per second.
func (t *Throttle) Rate() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return int(math.Round(t.current))
}

// AverageRTT returns the moving average of observed round-trip times.
func (t *Throttle) AverageRTT() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.avgRTT
}

func (t *Throttle) setLocked(r float64) {
	t.current = r
	t.limiter.SetLimit(rate.Limit(r))
	t.limiter.SetBurst(burstFor(r))
}

func burstFor(r float64) int {
	return int(math.Ceil(r))
}

func clampRate(r float64) float64 {
	return math.Min(math.Max(r, minRate), maxRate)
}

// throttledTransport waits on a Throttle before each request and reports the
// time to response headers back to it.
type throttledTransport struct {
	next     http.RoundTripper
	throttle *Throttle
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.throttle.Wait(req.Context()); err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err == nil {
		t.throttle.Observe(time.Since(start))
	}
	return resp, err
}
