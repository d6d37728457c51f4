package limiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_BurstExhausted(t *testing.T) {
	drl := NewDynamicRateLimiter(time.Hour, 2)

	assert.True(t, drl.Allow())
	assert.True(t, drl.Allow())
	assert.False(t, drl.Allow(), "requests above the burst must be rejected")
}

func TestUpdate_TakesEffectWithoutRecreation(t *testing.T) {
	drl := NewDynamicRateLimiter(time.Hour, 1)

	assert.True(t, drl.Allow())
	assert.False(t, drl.Allow())

	drl.Update(time.Nanosecond, 100)

	assert.True(t, drl.Allow(), "a raised limit must admit requests immediately")
}
