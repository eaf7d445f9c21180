package ratelimit

import (
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLoginRateLimiter_BlocksAfterMaxAttempts(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)}
	rl := NewLoginRateLimiter(3, time.Minute)
	defer rl.Stop()
	rl.now = clock.Now

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "other IPs are independent")

	assert.Equal(t, 61, rl.RetryAfterSeconds("1.2.3.4"))

	clock.Advance(61 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"), "a new window starts after expiry")
}

func TestLoginRateLimiter_ResetClearsCounter(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	defer rl.Stop()

	assert.True(t, rl.Allow("ip"))
	assert.False(t, rl.Allow("ip"))

	rl.Reset("ip")
	assert.True(t, rl.Allow("ip"))
	assert.Equal(t, 0, rl.RetryAfterSeconds("unknown"))
}

func TestPostRateLimiter_CooldownAfterBurst(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)}
	rl := NewPostRateLimiter(2, 10*time.Second, 30*time.Second)
	defer rl.Stop()
	rl.now = clock.Now

	assert.True(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u1"))
	assert.False(t, rl.Allow("u1"))
	assert.Equal(t, 31, rl.CooldownSeconds("u1"))

	clock.Advance(15 * time.Second)
	assert.False(t, rl.Allow("u1"), "still cooling down even though the window passed")

	clock.Advance(16 * time.Second)
	assert.True(t, rl.Allow("u1"))
	assert.Equal(t, 0, rl.CooldownSeconds("u1"))
}

func TestSubmitLimiter_TokenBucket(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)}
	l := NewSubmitLimiter(2, 2)
	defer l.Stop()
	l.now = clock.Now

	assert.True(t, l.Allow("ip"))
	assert.True(t, l.Allow("ip"))
	assert.False(t, l.Allow("ip"))

	clock.Advance(30 * time.Second)
	assert.True(t, l.Allow("ip"), "one token refills every 30s at 2/min")
}

func TestSubmitLimiter_EvictsIdleKeys(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)}
	l := NewSubmitLimiter(1, 1)
	defer l.Stop()
	l.now = clock.Now

	l.Allow("ip")
	clock.Advance(11 * time.Minute)
	l.evictIdle()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.limiters)
}

func cidrs(t *testing.T, blocks ...string) TrustedProxies {
	t.Helper()
	var out TrustedProxies
	for _, b := range blocks {
		_, n, err := net.ParseCIDR(b)
		require.NoError(t, err)
		out = append(out, n)
	}
	return out
}

func TestExtractIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ExtractIP(r, nil))

	// A direct client cannot pick its own rate limit key.
	r.Header.Set("X-Real-IP", "9.9.9.9")
	r.Header.Set("X-Forwarded-For", "1.1.1.1")
	assert.Equal(t, "10.0.0.1", ExtractIP(r, nil))
	assert.Equal(t, "10.0.0.1", ExtractIP(r, cidrs(t, "192.168.0.0/16")))

	proxy := cidrs(t, "10.0.0.0/8")
	assert.Equal(t, "1.1.1.1", ExtractIP(r, proxy))

	// The proxy appends the real peer; whatever the client sent is left of it.
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	assert.Equal(t, "2.2.2.2", ExtractIP(r, proxy))

	r.Header.Set("X-Forwarded-For", "3.3.3.3, 10.0.0.7")
	assert.Equal(t, "3.3.3.3", ExtractIP(r, proxy), "trusted hops are skipped")

	r.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "10.0.0.1", ExtractIP(r, proxy))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "9.9.9.9", ExtractIP(r, proxy))
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
}
