package ratelimit

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tinycd/tinycd/common/logger"
)

// RateLimitService implements per-key sliding-window admission control.
// All operations are serialized behind a single mutex, which is never held
// across I/O.
type RateLimitService struct {
	clock      clock.Clock
	mu         sync.Mutex
	timestamps map[string][]time.Time
	logger.Log
}

func NewRateLimitService(clk clock.Clock, logFactory logger.LogFactory) *RateLimitService {
	return &RateLimitService{
		clock:      clk,
		timestamps: make(map[string][]time.Time),
		Log:        logFactory("RateLimitService"),
	}
}

// Admit returns true if a request for key is admitted, recording it against
// the window, or false if the key is throttled. Timestamps older than the
// window are dropped first, so memory per key is bounded by maxRequests.
func (s *RateLimitService) Admit(key string, maxRequests int, windowSeconds int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	cutoff := now.Add(-time.Duration(windowSeconds) * time.Second)

	kept := s.timestamps[key][:0]
	for _, ts := range s.timestamps[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= maxRequests {
		s.timestamps[key] = kept
		s.Debugf("Throttled %q: %d requests in the last %ds", key, len(kept), windowSeconds)
		return false
	}

	s.timestamps[key] = append(kept, now)
	return true
}
