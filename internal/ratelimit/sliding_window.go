package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter enforces a rolling quota, used for the per-key
// daily model-call limit. It keeps counts for the current and previous
// fixed windows and weights the previous count by how much of it still
// overlaps the rolling window, so the limit slides smoothly across
// window boundaries in O(1) space.
//
// A nil counter is a valid, disabled counter: every method treats nil
// as "no limit".
type SlidingWindowCounter struct {
	mu              sync.Mutex
	currCount       int
	prevCount       int
	currWindowStart time.Time
	windowDuration  time.Duration
	maxRequests     int
}

// NewSlidingWindowCounter creates a counter allowing maxRequests per
// windowDuration. Returns nil (disabled) when maxRequests <= 0.
func NewSlidingWindowCounter(maxRequests int, windowDuration time.Duration) *SlidingWindowCounter {
	if maxRequests <= 0 {
		return nil
	}
	return &SlidingWindowCounter{
		currWindowStart: time.Now(),
		windowDuration:  windowDuration,
		maxRequests:     maxRequests,
	}
}

// Allow consumes one unit of quota if available.
func (swc *SlidingWindowCounter) Allow() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weightedCount() >= float64(swc.maxRequests) {
		return false
	}
	swc.currCount++
	return true
}

// Check reports whether quota remains without consuming any. As with
// Limiter.Check, a Check/Consume pair spanning several limiters needs
// the caller's own lock around both calls.
func (swc *SlidingWindowCounter) Check() bool {
	if swc == nil {
		return true
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	return swc.weightedCount() < float64(swc.maxRequests)
}

// Consume records one unit after a successful Check. It refuses to
// count past the limit if the window rotated in between.
func (swc *SlidingWindowCounter) Consume() {
	if swc == nil {
		return
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	if swc.weightedCount() < float64(swc.maxRequests) {
		swc.currCount++
	}
}

// GetRemaining returns the approximate quota left, or -1 when the
// counter is disabled.
func (swc *SlidingWindowCounter) GetRemaining() int {
	if swc == nil {
		return -1
	}

	swc.mu.Lock()
	defer swc.mu.Unlock()

	swc.rotate()
	remaining := float64(swc.maxRequests) - swc.weightedCount()
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// rotate advances to a new fixed window once the current one has
// elapsed. Caller must hold mu.
func (swc *SlidingWindowCounter) rotate() {
	elapsed := time.Since(swc.currWindowStart)
	if elapsed < swc.windowDuration {
		return
	}

	windowsPassed := int(elapsed / swc.windowDuration)
	if windowsPassed == 1 {
		swc.prevCount = swc.currCount
	} else {
		// Idle for more than a full window, nothing carries over.
		swc.prevCount = 0
	}
	swc.currCount = 0
	swc.currWindowStart = swc.currWindowStart.Add(time.Duration(windowsPassed) * swc.windowDuration)
}

// weightedCount returns currCount plus the still-overlapping share of
// prevCount. Caller must hold mu.
func (swc *SlidingWindowCounter) weightedCount() float64 {
	elapsed := time.Since(swc.currWindowStart)
	overlap := float64(swc.windowDuration-elapsed) / float64(swc.windowDuration)
	if overlap < 0 {
		overlap = 0
	}
	if overlap > 1 {
		overlap = 1
	}
	return float64(swc.currCount) + float64(swc.prevCount)*overlap
}
