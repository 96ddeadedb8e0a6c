package ratelimit

import (
	"sync"
	"time"

	"github.com/martinvidela/cursobot-go/internal/metrics"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	// Name labels this limiter in metrics ("user", "model").
	Name string

	// Burst and RefillRate parameterize each key's token bucket.
	// RefillRate is tokens per second.
	Burst      float64
	RefillRate float64

	// DailyLimit caps requests per rolling 24h window on top of the
	// bucket. Zero disables the daily cap.
	DailyLimit int

	// CleanupPeriod is how often idle keys are swept out.
	CleanupPeriod time.Duration

	// Metrics, when set, receives drop counts and active-key gauges.
	Metrics *metrics.Metrics
}

// KeyedLimiter applies a token bucket, and optionally a rolling daily
// window, per key. Keys are conversation ids for the user limiter and
// a single shared key for the model budget. Idle keys are swept by a
// background goroutine; call Stop to shut it down.
type KeyedLimiter struct {
	mu       sync.RWMutex
	entries  map[string]*keyedEntry
	config   KeyedConfig
	onDrop   func()
	onUpdate func(count int)
	stopCh   chan struct{}
}

// keyedEntry pairs the bucket with the daily window. Its mutex makes
// the check-both-then-consume-both sequence atomic, so a request can
// never consume from one limit after failing the other.
type keyedEntry struct {
	mu      sync.Mutex
	limiter *Limiter
	daily   *SlidingWindowCounter
}

// NewKeyedLimiter creates the limiter and starts its sweep goroutine.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}

	kl := &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		config:  cfg,
		stopCh:  make(chan struct{}),
	}

	if cfg.Metrics != nil {
		kl.onDrop = func() {
			cfg.Metrics.RecordRateLimiterDrop(cfg.Name)
		}
		kl.onUpdate = func(count int) {
			cfg.Metrics.SetRateLimiterKeys(cfg.Name, count)
		}
	}

	go kl.cleanupLoop()

	return kl
}

// Allow reports whether a request for key may proceed, consuming from
// both the bucket and the daily window when it does. An empty key is
// never limited.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	entry := kl.getOrCreateEntry(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Check both limits first; consume only when both pass.
	if entry.daily != nil && !entry.daily.Check() {
		if kl.onDrop != nil {
			kl.onDrop()
		}
		return false
	}
	if !entry.limiter.Check() {
		if kl.onDrop != nil {
			kl.onDrop()
		}
		return false
	}

	if entry.daily != nil {
		entry.daily.Consume()
	}
	entry.limiter.Consume()

	return true
}

func (kl *KeyedLimiter) getOrCreateEntry(key string) *keyedEntry {
	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()
	if exists {
		return entry
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	if entry, exists = kl.entries[key]; exists {
		return entry
	}

	entry = &keyedEntry{
		limiter: New(kl.config.Burst, kl.config.RefillRate),
		daily:   NewSlidingWindowCounter(kl.config.DailyLimit, 24*time.Hour),
	}
	kl.entries[key] = entry
	return entry
}

// GetAvailable returns the bucket tokens left for a key. A key that
// was never limited reports full burst.
func (kl *KeyedLimiter) GetAvailable(key string) float64 {
	if key == "" {
		return kl.config.Burst
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if !exists {
		return kl.config.Burst
	}
	return entry.limiter.Available()
}

// GetDailyRemaining returns the daily quota left for a key, -1 when
// the daily cap is disabled.
func (kl *KeyedLimiter) GetDailyRemaining(key string) int {
	if kl.config.DailyLimit <= 0 {
		return -1
	}

	kl.mu.RLock()
	entry, exists := kl.entries[key]
	kl.mu.RUnlock()

	if !exists {
		return kl.config.DailyLimit
	}
	return entry.daily.GetRemaining()
}

// GetActiveCount returns the number of keys currently tracked.
func (kl *KeyedLimiter) GetActiveCount() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.entries)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.mu.Lock()
			for key, entry := range kl.entries {
				// A key is idle only when its bucket has refilled AND
				// its daily window is empty. Sweeping a key with daily
				// usage would reset the daily cap.
				if !entry.limiter.IsFull() {
					continue
				}
				if entry.daily != nil && entry.daily.GetRemaining() < kl.config.DailyLimit {
					continue
				}
				delete(kl.entries, key)
			}
			activeCount := len(kl.entries)
			kl.mu.Unlock()

			if kl.onUpdate != nil {
				kl.onUpdate(activeCount)
			}
		}
	}
}

// Stop shuts down the sweep goroutine. Safe to call more than once.
func (kl *KeyedLimiter) Stop() {
	select {
	case <-kl.stopCh:
	default:
		close(kl.stopCh)
	}
}
