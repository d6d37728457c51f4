package limiter

import (
	"time"

	"golang.org/x/time/rate"
)

// DynamicRateLimiter throttles withdrawal creation requests. Its rate
// and burst can be adjusted at runtime without recreating the limiter.
type DynamicRateLimiter struct {
	limiter *rate.Limiter
}

func NewDynamicRateLimiter(interval time.Duration, burst int) *DynamicRateLimiter {
	return &DynamicRateLimiter{
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Allow reports whether a request may proceed now.
func (drl *DynamicRateLimiter) Allow() bool {
	return drl.limiter.Allow()
}

// Update changes the sustained interval and burst of the limiter.
func (drl *DynamicRateLimiter) Update(interval time.Duration, burst int) {
	drl.limiter.SetLimit(rate.Every(interval))
	drl.limiter.SetBurst(burst)
}
