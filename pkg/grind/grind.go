// Package grind is the single entry point for vanity seed searches.
//
// It validates the caller's identifiers, turns the raw prefix/suffix into
// search criteria, runs the search on a generator.Generator (CPU by default),
// and decorates the winning result with throughput figures.
package grind

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/Amr-9/SeedHunter/pkg/generator"
	"github.com/Amr-9/SeedHunter/pkg/generator/cpu"
	"github.com/Amr-9/SeedHunter/pkg/generator/seed"
	"github.com/Amr-9/SeedHunter/pkg/generator/solana"
)

// Request is the plain configuration record for one search.
type Request struct {
	Base            string        // Base58 base account
	Owner           string        // Base58 owner program
	Prefix          string        // Requested prefix; invalid or empty means none
	Suffix          string        // Requested suffix; invalid or empty means none
	CaseInsensitive bool          // Ignore ASCII letter case when matching
	Workers         int           // Worker count, 0 = all logical CPUs
	Timeout         time.Duration // Search deadline, 0 = none
}

// GeneratorFactory builds the backend used for a session.
type GeneratorFactory func(workers int, sources seed.Factory) generator.Generator

// Option configures a Session.
type Option func(*options)

type options struct {
	newGenerator GeneratorFactory
	sources      seed.Factory
}

// WithGenerator replaces the default CPU backend.
func WithGenerator(f GeneratorFactory) Option {
	return func(o *options) {
		o.newGenerator = f
	}
}

// WithSeedFactory replaces the per-worker seed sources.
func WithSeedFactory(f seed.Factory) Option {
	return func(o *options) {
		o.sources = f
	}
}

func newCPU(workers int, sources seed.Factory) generator.Generator {
	return cpu.NewCPUGenerator(workers, cpu.WithSeedFactory(sources))
}

// Session is one validated search, ready to run. Stats may be read from other
// goroutines while Run is in progress.
type Session struct {
	config generator.Config
	gen    generator.Generator
}

// NewSession validates req. Malformed identifiers fail here and no search is
// started.
func NewSession(req Request, opts ...Option) (*Session, error) {
	o := options{newGenerator: newCPU, sources: seed.DefaultFactory}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := solana.ParsePubkey(req.Base)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generator.ErrInvalidBase, err)
	}
	owner, err := solana.ParsePubkey(req.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generator.ErrInvalidOwner, err)
	}

	workers := req.Workers
	if workers < 0 {
		workers = 0
	}

	return &Session{
		config: generator.Config{
			Base:     base,
			Owner:    owner,
			Criteria: solana.NewCriteria(req.Prefix, req.Suffix, req.CaseInsensitive),
			Workers:  workers,
			Timeout:  req.Timeout,
		},
		gen: o.newGenerator(workers, o.sources),
	}, nil
}

// Run performs the search and returns the first match.
func (s *Session) Run(ctx context.Context) (*generator.Result, error) {
	result, err := s.gen.Search(ctx, &s.config)
	if err != nil {
		return nil, err
	}
	result.AttemptsPerSecond = generator.AttemptsPerSecond(result.Attempts, result.Duration)
	return result, nil
}

// Stats returns the backend's live progress.
func (s *Session) Stats() generator.Stats {
	return s.gen.Stats()
}

// Criteria returns the validated pattern the session searches for.
func (s *Session) Criteria() solana.Criteria {
	return s.config.Criteria
}

// Workers returns the number of workers the search will start.
func (s *Session) Workers() int {
	if s.config.Workers > 0 {
		return s.config.Workers
	}
	return runtime.NumCPU()
}

// Backend returns the name of the generator running the search.
func (s *Session) Backend() string {
	return s.gen.Name()
}

// Grind validates req and runs the search.
func Grind(ctx context.Context, req Request, opts ...Option) (*generator.Result, error) {
	s, err := NewSession(req, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
