package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowKey(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC)

	assert.Equal(t, "user-1:1767323040", windowKey("user-1", start))
	assert.NotEqual(t, windowKey("user-1", start), windowKey("user-1", start.Add(time.Minute)))
}

func TestKeysAreNamespaced(t *testing.T) {
	c := &Client{namespace: "parley:"}
	assert.Equal(t, "parley:negotiation:abc", c.key(negotiationCachePrefix, "abc"))
	assert.Equal(t, "parley:ratelimit:user-1:60", c.key(rateLimitPrefix, windowKey("user-1", time.Unix(60, 0))))

	bare := &Client{}
	assert.Equal(t, "negotiation:abc", bare.key(negotiationCachePrefix, "abc"))
}

func TestLimitIncludesBurst(t *testing.T) {
	r := NewRateLimiter(nil, 60, 10)
	assert.Equal(t, 70, r.Limit())
}
