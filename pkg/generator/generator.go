// Package generator defines the shared contract for vanity address searches.
// A search repeatedly derives Solana seed addresses (see package solana) from
// fresh seeds until one satisfies a prefix/suffix pattern. Backends implement
// Generator; the CPU backend lives in package cpu.
package generator

import (
	"context"
	"time"

	"github.com/Amr-9/SeedHunter/pkg/generator/seed"
	"github.com/Amr-9/SeedHunter/pkg/generator/solana"
)

// Config holds the configuration for one vanity address search.
// It is immutable for the lifetime of the search.
type Config struct {
	Base     solana.Pubkey   // Base account mixed in before the seed
	Owner    solana.Pubkey   // Owner program mixed in after the seed
	Criteria solana.Criteria // Validated prefix/suffix pattern
	Workers  int             // Number of concurrent workers (0 = backend default)
	Timeout  time.Duration   // Search deadline (0 = none)
}

// Result contains the first matching address of a search.
type Result struct {
	Address           string        // Base58 derived address
	Seed              seed.Seed     // Seed that produced Address
	Base              solana.Pubkey // Base account used
	Owner             solana.Pubkey // Owner program used
	Prefix            string        // Normalized prefix ("" if unconstrained)
	Suffix            string        // Normalized suffix ("" if unconstrained)
	CaseInsensitive   bool          // Whether matching ignored case
	Attempts          uint64        // Attempts made by the winning worker
	Duration          time.Duration // Wall-clock time from search start to match
	AttemptsPerSecond uint64        // Attempts / Duration, truncated
}

// SeedText returns the seed rendered as text. The raw bytes in Seed remain
// the canonical value.
func (r *Result) SeedText() string {
	return r.Seed.String()
}

// SeedBytes returns a copy of the raw seed bytes.
func (r *Result) SeedBytes() []byte {
	return r.Seed.Bytes()
}

// DurationSeconds returns Duration as fractional seconds.
func (r *Result) DurationSeconds() float64 {
	return r.Duration.Seconds()
}

// Stats holds real-time performance statistics.
type Stats struct {
	Attempts    uint64  // Total number of addresses derived across all workers
	HashRate    float64 // Current hashes per second
	ElapsedSecs float64 // Time elapsed since start
}

// Generator defines the contract for address search backends.
type Generator interface {
	// Search blocks until a matching address is found, the context is done,
	// or the configured timeout passes. Exactly one Result is returned on success.
	Search(ctx context.Context, config *Config) (*Result, error)

	// Stats returns the current performance statistics.
	// This method is safe to call concurrently from any goroutine.
	Stats() Stats

	// Name returns the implementation name (e.g., "CPU").
	Name() string
}

// AttemptsPerSecond returns attempts / d in whole attempts per second.
// It returns 0 when d is not positive.
func AttemptsPerSecond(attempts uint64, d time.Duration) uint64 {
	secs := d.Seconds()
	if secs <= 0 {
		return 0
	}
	return uint64(float64(attempts) / secs)
}
