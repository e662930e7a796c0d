package admission

import (
	"sync"
	"time"
)

const (
	// DefaultRateLimitWindow is the trailing interval inspected per identity.
	DefaultRateLimitWindow = 3600 * time.Second
	// DefaultRateLimitMaxRequests is the admission quota inside one window.
	DefaultRateLimitMaxRequests = 5
)

// identityWindow holds the accepted-submission timestamps for one identity
// token. Its mutex serializes the purge-count-append sequence so concurrent
// requests for the same token cannot both slip under the quota.
type identityWindow struct {
	mutex      sync.Mutex
	timestamps []time.Time
	evicted    bool
}

// SlidingWindowLimiter admits at most maxRequests submissions per identity
// token within any trailing window. State lives entirely in process memory;
// entries age out as the window slides and fully aged tokens are removed by
// EvictExpired.
type SlidingWindowLimiter struct {
	windowLength time.Duration
	maxRequests  int
	now          func() time.Time

	windowsMutex   sync.Mutex
	windowsByToken map[string]*identityWindow
}

// SlidingWindowLimiterConfig captures the limiter's tunables. A nil Now
// function falls back to time.Now; non-positive window or quota values fall
// back to the defaults.
type SlidingWindowLimiterConfig struct {
	WindowLength time.Duration
	MaxRequests  int
	Now          func() time.Time
}

// NewSlidingWindowLimiter creates a limiter with the provided configuration.
func NewSlidingWindowLimiter(configuration SlidingWindowLimiterConfig) *SlidingWindowLimiter {
	if configuration.WindowLength <= 0 {
		configuration.WindowLength = DefaultRateLimitWindow
	}
	if configuration.MaxRequests <= 0 {
		configuration.MaxRequests = DefaultRateLimitMaxRequests
	}
	if configuration.Now == nil {
		configuration.Now = time.Now
	}
	return &SlidingWindowLimiter{
		windowLength:   configuration.WindowLength,
		maxRequests:    configuration.MaxRequests,
		now:            configuration.Now,
		windowsByToken: make(map[string]*identityWindow),
	}
}

// CheckAndRecord reports whether the identity token may submit now. When the
// token still has quota inside the trailing window the current instant is
// recorded and true is returned; otherwise nothing is recorded and false is
// returned. The operation never fails.
func (limiter *SlidingWindowLimiter) CheckAndRecord(identityToken string) bool {
	currentInstant := limiter.now()
	windowStart := currentInstant.Add(-limiter.windowLength)

	for {
		window := limiter.lookupOrCreateWindow(identityToken)

		window.mutex.Lock()
		if window.evicted {
			// EvictExpired removed this record between lookup and lock;
			// retry against the live map entry.
			window.mutex.Unlock()
			continue
		}

		window.timestamps = purgeBefore(window.timestamps, windowStart)
		if len(window.timestamps) >= limiter.maxRequests {
			window.mutex.Unlock()
			return false
		}

		window.timestamps = append(window.timestamps, currentInstant)
		window.mutex.Unlock()
		return true
	}
}

// EvictExpired removes identity tokens whose every recorded timestamp has
// aged out of the window and returns how many tokens were removed. Without
// periodic eviction the token map would grow with every distinct identity.
func (limiter *SlidingWindowLimiter) EvictExpired() int {
	windowStart := limiter.now().Add(-limiter.windowLength)

	limiter.windowsMutex.Lock()
	defer limiter.windowsMutex.Unlock()

	evictedCount := 0
	for identityToken, window := range limiter.windowsByToken {
		window.mutex.Lock()
		window.timestamps = purgeBefore(window.timestamps, windowStart)
		if len(window.timestamps) == 0 {
			window.evicted = true
			delete(limiter.windowsByToken, identityToken)
			evictedCount++
		}
		window.mutex.Unlock()
	}

	return evictedCount
}

// TrackedIdentityCount returns how many identity tokens currently hold state.
func (limiter *SlidingWindowLimiter) TrackedIdentityCount() int {
	limiter.windowsMutex.Lock()
	defer limiter.windowsMutex.Unlock()
	return len(limiter.windowsByToken)
}

func (limiter *SlidingWindowLimiter) lookupOrCreateWindow(identityToken string) *identityWindow {
	limiter.windowsMutex.Lock()
	defer limiter.windowsMutex.Unlock()

	window, windowExists := limiter.windowsByToken[identityToken]
	if !windowExists {
		window = &identityWindow{}
		limiter.windowsByToken[identityToken] = window
	}
	return window
}

func purgeBefore(timestamps []time.Time, windowStart time.Time) []time.Time {
	retained := timestamps[:0]
	for _, recordedInstant := range timestamps {
		if recordedInstant.After(windowStart) {
			retained = append(retained, recordedInstant)
		}
	}
	return retained
}
