package urlguard

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardedFlightCoalesces(t *testing.T) {
	g := newShardedFlightGroup()

	var executions atomic.Int32
	release := make(chan struct{})

	const callers = 16
	results := make([]interface{}, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err, _ := g.Do("same-key", func() (interface{}, error) {
				executions.Add(1)
				<-release
				return "verdict", nil
			})
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give every caller time to join the flight before it completes.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), executions.Load())
	for _, r := range results {
		assert.Equal(t, "verdict", r)
	}
}

func TestShardedFlightDistinctKeysRunIndependently(t *testing.T) {
	g := newShardedFlightGroup()

	a, err, _ := g.Do("key-a", func() (interface{}, error) { return 1, nil })
	require.NoError(t, err)
	b, err, _ := g.Do("key-b", func() (interface{}, error) { return 2, nil })
	require.NoError(t, err)

	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestShardedFlightForget(t *testing.T) {
	g := newShardedFlightGroup()

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	first, _, _ := g.Do("k", fn)
	g.Forget("k")
	second, _, _ := g.Do("k", fn)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}
