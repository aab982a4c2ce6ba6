package pool

import (
	"crypto/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelize(t *testing.T) {
	pl := NewPool(0)
	defer pl.TearDown()

	results := pl.Parallelize(100, func(i int) interface{} {
		return i * i
	})
	require.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, i*i, r.(int), "results must land at their own index")
	}
}

func TestParallelizeNilPool(t *testing.T) {
	var pl *Pool
	results := pl.Parallelize(10, func(i int) interface{} {
		return i
	})
	require.Len(t, results, 10)
	for i, r := range results {
		assert.Equal(t, i, r.(int))
	}
}

func TestSearch(t *testing.T) {
	pl := NewPool(4)
	defer pl.TearDown()

	var mu sync.Mutex
	next := 0
	results := pl.Search(3, func() interface{} {
		mu.Lock()
		defer mu.Unlock()
		next++
		// fail two out of three candidates
		if next%3 != 0 {
			return nil
		}
		return next
	})
	require.Len(t, results, 3)
	var found []int
	for _, r := range results {
		require.NotNil(t, r)
		found = append(found, r.(int))
	}
	sort.Ints(found)
	for i, v := range found {
		assert.Zero(t, v%3, "only successful candidates may be returned")
		if i > 0 {
			assert.NotEqual(t, found[i-1], v, "successes must be distinct")
		}
	}
}

func TestSearchNilPool(t *testing.T) {
	var pl *Pool
	calls := 0
	results := pl.Search(2, func() interface{} {
		calls++
		if calls%2 == 0 {
			return calls
		}
		return nil
	})
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].(int))
	assert.Equal(t, 4, results[1].(int))
}

func TestLockedReader(t *testing.T) {
	reader := NewLockedReader(rand.Reader)

	var wg sync.WaitGroup
	bufs := make([][]byte, 8)
	for i := range bufs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			bufs[i] = make([]byte, 32)
			_, err := reader.Read(bufs[i])
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := make(map[string]struct{})
	for _, b := range bufs {
		_, dup := seen[string(b)]
		assert.False(t, dup, "concurrent reads must not duplicate output")
		seen[string(b)] = struct{}{}
	}
}
