// Package cpu implements the generator.Generator interface with goroutine
// workers racing to the first matching address.
package cpu

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Amr-9/SeedHunter/pkg/generator"
	"github.com/Amr-9/SeedHunter/pkg/generator/seed"
	"github.com/Amr-9/SeedHunter/pkg/generator/solana"
)

// flushEvery is how many attempts a worker counts locally before publishing
// them to the aggregate counter read by Stats.
const flushEvery = 1024

// CPUGenerator implements the Generator interface using CPU-based goroutines.
// Stats reports on the most recent Search.
type CPUGenerator struct {
	attempts  atomic.Uint64 // Aggregate attempts, flushed by workers in batches
	startTime atomic.Int64  // Unix nanoseconds when the current search started
	workers   int           // Default number of concurrent workers
	newSource seed.Factory  // Builds each worker's seed source
}

// Option configures a CPUGenerator.
type Option func(*CPUGenerator)

// WithSeedFactory replaces the per-worker seed source.
func WithSeedFactory(f seed.Factory) Option {
	return func(g *CPUGenerator) {
		if f != nil {
			g.newSource = f
		}
	}
}

// NewCPUGenerator creates a new CPU-based generator.
// If workers is 0, it defaults to the number of logical CPUs.
func NewCPUGenerator(workers int, opts ...Option) *CPUGenerator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g := &CPUGenerator{
		workers:   workers,
		newSource: seed.DefaultFactory,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the implementation name.
func (g *CPUGenerator) Name() string {
	return "CPU"
}

// Workers returns the default worker count.
func (g *CPUGenerator) Workers() int {
	return g.workers
}

// Stats returns the current performance statistics.
func (g *CPUGenerator) Stats() generator.Stats {
	started := g.startTime.Load()
	if started == 0 {
		return generator.Stats{}
	}

	attempts := g.attempts.Load()
	elapsed := time.Since(time.Unix(0, started)).Seconds()

	var hashRate float64
	if elapsed > 0 {
		hashRate = float64(attempts) / elapsed
	}

	return generator.Stats{
		Attempts:    attempts,
		HashRate:    hashRate,
		ElapsedSecs: elapsed,
	}
}

// searchState is shared by the workers of a single Search call.
// Once stop is set it is never cleared; result is written at most once.
type searchState struct {
	stop   atomic.Bool
	mu     sync.Mutex
	result *generator.Result
	fault  error
}

// publish stores r if no result has been stored yet and tells every worker
// to stop. It reports whether r was kept.
func (s *searchState) publish(r *generator.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return false
	}
	s.result = r
	s.stop.Store(true)
	return true
}

// fail records the first worker fault and stops the search.
func (s *searchState) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fault == nil {
		s.fault = err
	}
	s.stop.Store(true)
}

// Search starts the workers and blocks until every one of them has stopped.
func (g *CPUGenerator) Search(ctx context.Context, config *generator.Config) (*generator.Result, error) {
	workers := g.workers
	if config.Workers > 0 {
		workers = config.Workers
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	start := time.Now()
	g.attempts.Store(0)
	g.startTime.Store(start.UnixNano())

	state := &searchState{}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			g.worker(id, config, state, start)
		}(i)
	}

	// Turn cancellation and the deadline into the stop flag so the hot loop
	// only ever reads one atomic.
	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			state.stop.Store(true)
		case <-finished:
		}
	}()

	wg.Wait()
	close(finished)

	state.mu.Lock()
	defer state.mu.Unlock()

	switch {
	case state.result != nil:
		return state.result, nil
	case state.fault != nil:
		return nil, state.fault
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, fmt.Errorf("%w after %s", generator.ErrTimeout, time.Since(start).Round(time.Millisecond))
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, generator.ErrNoResult
	}
}

// worker derives candidates until it finds a match or the stop flag is set.
func (g *CPUGenerator) worker(id int, config *generator.Config, state *searchState, start time.Time) {
	var (
		s       seed.Seed
		count   uint64
		pending uint64
	)
	// Flushes on every exit path, panics included.
	defer func() {
		g.attempts.Add(pending)
		if r := recover(); r != nil {
			state.fail(&generator.WorkerError{Worker: id, Panic: r})
		}
	}()

	src := g.newSource(id)
	deriver := solana.NewDeriver(config.Base, config.Owner)
	criteria := config.Criteria

	for !state.stop.Load() {
		src.Fill(&s)
		address := deriver.Derive(&s)

		count++
		pending++
		if pending == flushEvery {
			g.attempts.Add(pending)
			pending = 0
		}

		if criteria.Matches(address) {
			state.publish(&generator.Result{
				Address:         address,
				Seed:            s,
				Base:            config.Base,
				Owner:           config.Owner,
				Prefix:          criteria.Prefix,
				Suffix:          criteria.Suffix,
				CaseInsensitive: criteria.CaseInsensitive,
				Attempts:        count,
				Duration:        time.Since(start),
			})
			break
		}
	}
}
