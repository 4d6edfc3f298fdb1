package urlguard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheAddGet(t *testing.T) {
	c := NewAssessmentCache(128, time.Minute)

	a := &RiskAssessment{ID: "a1", Fingerprint: "https://example.com/login"}
	c.Add(a.Fingerprint, a)

	got, ok := c.Get(a.Fingerprint)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = c.Get("https://other.example/")
	assert.False(t, ok)
}

func TestCacheTTLExpiry(t *testing.T) {
	c := NewAssessmentCache(128, 20*time.Millisecond)

	c.Add("fp", &RiskAssessment{ID: "a1"})
	_, ok := c.Get("fp")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = c.Get("fp")
	assert.False(t, ok)
}

func TestCacheUpdateResetsTTL(t *testing.T) {
	c := NewAssessmentCache(128, 50*time.Millisecond)

	c.Add("fp", &RiskAssessment{ID: "a1"})
	time.Sleep(30 * time.Millisecond)
	c.Add("fp", &RiskAssessment{ID: "a2"})
	time.Sleep(30 * time.Millisecond)

	got, ok := c.Get("fp")
	require.True(t, ok)
	assert.Equal(t, "a2", got.ID)
}

func TestCacheLRUEviction(t *testing.T) {
	// Capacity below the shard count gives one slot per shard: a second
	// insert landing in an occupied shard must evict its predecessor.
	c := NewAssessmentCache(assessmentCacheShards, time.Minute)

	for i := 0; i < assessmentCacheShards*8; i++ {
		key := fmt.Sprintf("fp-%d", i)
		c.Add(key, &RiskAssessment{ID: key})
	}

	assert.LessOrEqual(t, c.Len(), assessmentCacheShards)
	assert.Greater(t, c.Len(), 0)
}

func TestCacheFlush(t *testing.T) {
	c := NewAssessmentCache(128, time.Minute)
	for i := 0; i < 10; i++ {
		c.Add(fmt.Sprintf("fp-%d", i), &RiskAssessment{})
	}
	require.Greater(t, c.Len(), 0)

	c.Flush()
	assert.Zero(t, c.Len())

	_, ok := c.Get("fp-0")
	assert.False(t, ok)
}
