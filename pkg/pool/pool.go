// Package pool provides a reusable worker pool for the CPU-heavy parts of
// the engine: safe-prime search during key generation, and batch proof
// verification.
//
// All functions accepting a *Pool also work with a nil receiver, performing
// the same work sequentially on the calling goroutine.
package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// searchAlone runs f, which may return nil, until count successes are found.
func searchAlone(f func() interface{}, count int) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		results[i] = nil
		for ; results[i] == nil; results[i] = f() {
		}
	}
	return results
}

// parallelizeAlone evaluates f at each index sequentially.
func parallelizeAlone(f func(int) interface{}, count int) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		results[i] = f(i)
	}
	return results
}

// command tells a latent worker what to do: either evaluate a function at a
// single index, or keep trying a candidate function until it succeeds.
type command struct {
	search bool
	// ctr counts the results that still need to be produced.
	ctr *int64
	// i is the index to evaluate at, when not searching.
	i int
	f func(int) interface{}
	// results receives the outputs.
	results []interface{}
}

// workerSearch keeps querying f while *ctr > 0, decrementing *ctr for every
// successful (non-nil) result.
func workerSearch(results []interface{}, ctrChanged chan<- struct{}, f func(int) interface{}, ctr *int64) {
	for atomic.LoadInt64(ctr) > 0 {
		res := f(0)
		if res == nil {
			continue
		}
		i := atomic.AddInt64(ctr, -1)
		ctrChanged <- struct{}{}
		if i < 0 {
			break
		}
		results[i] = res
	}
}

func worker(commands <-chan command, ctrChanged chan<- struct{}) {
	for c := range commands {
		if c.search {
			workerSearch(c.results, ctrChanged, c.f, c.ctr)
		} else {
			c.results[c.i] = c.f(c.i)
			atomic.AddInt64(c.ctr, -1)
			ctrChanged <- struct{}{}
		}
	}
}

// Pool is a pool of long-lived workers sharing a single command channel,
// which effectively makes it a work stealing pool.
//
// Creating one pool and reusing it avoids the overhead of spinning up
// goroutines for every key generation or batch verification.
type Pool struct {
	commands chan command
	// ctrChanged signals that a task finished.
	ctrChanged  chan struct{}
	workerCount int
}

// NewPool creates a new pool with the given number of workers.
//
// If count <= 0, the number of available CPUs is used instead.
func NewPool(count int) *Pool {
	var p Pool

	if count <= 0 {
		count = runtime.NumCPU()
	}

	p.commands = make(chan command)
	p.workerCount = count
	p.ctrChanged = make(chan struct{})

	for i := 0; i < count; i++ {
		go worker(p.commands, p.ctrChanged)
	}

	return &p
}

// TearDown stops the pool's workers. The pool must not be used afterwards.
func (p *Pool) TearDown() {
	close(p.commands)
}

// Search queries f until count successes are found.
//
// f should try a single candidate, returning nil when that candidate is
// unsuccessful. The result contains the first count successes.
func (p *Pool) Search(count int, f func() interface{}) []interface{} {
	if p == nil {
		return searchAlone(f, count)
	}

	results := make([]interface{}, count)

	ctr := int64(count)
	cmd := command{
		search:  true,
		ctr:     &ctr,
		f:       func(i int) interface{} { return f() },
		results: results,
	}
	for i := 0; i < p.workerCount; i++ {
		p.commands <- cmd
	}
	for atomic.LoadInt64(&ctr) > 0 {
		<-p.ctrChanged
	}

	return results
}

// Parallelize calls f once per index, returning [f(0), ..., f(count - 1)].
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	if p == nil {
		return parallelizeAlone(f, count)
	}

	results := make([]interface{}, count)

	ctr := int64(count)
	cmdI := 0
	for cmdI < count {
		cmd := command{
			search:  false,
			i:       cmdI,
			ctr:     &ctr,
			f:       f,
			results: results,
		}
		// We can't send all the commands without blocking, so we interleave
		// picking off finished results to free workers up to receive more.
		select {
		case p.commands <- cmd:
			cmdI++
		case <-p.ctrChanged:
		}
	}
	for atomic.LoadInt64(&ctr) > 0 {
		<-p.ctrChanged
	}

	return results
}

// LockedReader wraps an io.Reader to be safe for concurrent reads, which the
// prime search needs when multiple workers share one entropy source.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying reader.
func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{reader: r}
}

// Read implements io.Reader.
//
// Concurrent callers race for which bytes they receive, but no bytes are
// ever delivered twice.
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
