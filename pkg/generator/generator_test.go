package generator

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttemptsPerSecond(t *testing.T) {
	tests := []struct {
		name     string
		attempts uint64
		duration time.Duration
		want     uint64
	}{
		{name: "even split", attempts: 1000, duration: 2 * time.Second, want: 500},
		{name: "truncates", attempts: 1000, duration: 3 * time.Second, want: 333},
		{name: "sub-second", attempts: 10, duration: 100 * time.Millisecond, want: 100},
		{name: "zero duration", attempts: 1000, duration: 0, want: 0},
		{name: "zero attempts", attempts: 0, duration: time.Second, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AttemptsPerSecond(tt.attempts, tt.duration))
		})
	}
}

func TestWorkerError(t *testing.T) {
	var err error = &WorkerError{Worker: 3, Panic: "boom"}
	wrapped := fmt.Errorf("grind: %w", err)

	assert.True(t, errors.Is(wrapped, ErrWorkerFailed))
	assert.False(t, errors.Is(wrapped, ErrNoResult))
	assert.Equal(t, "worker 3 failed: boom", err.Error())

	var we *WorkerError
	assert.True(t, errors.As(wrapped, &we))
	assert.Equal(t, 3, we.Worker)
}

func TestResultSeedRendering(t *testing.T) {
	r := &Result{Duration: 1500 * time.Millisecond}
	copy(r.Seed[:], "abcDEF0123456789")

	assert.Equal(t, "abcDEF0123456789", r.SeedText())
	assert.Equal(t, []byte("abcDEF0123456789"), r.SeedBytes())
	assert.InDelta(t, 1.5, r.DurationSeconds(), 1e-9)
}
