package generator

import (
	"errors"
	"fmt"
)

// Search failures. All of them are returned, never logged, by the core packages.
var (
	// ErrInvalidBase reports a malformed base identifier. No search is started.
	ErrInvalidBase = errors.New("invalid base")

	// ErrInvalidOwner reports a malformed owner identifier. No search is started.
	ErrInvalidOwner = errors.New("invalid owner")

	// ErrNoResult means every worker stopped without a match being recorded.
	// It indicates a logic or environment anomaly.
	ErrNoResult = errors.New("search produced no result")

	// ErrWorkerFailed means a worker terminated abnormally.
	ErrWorkerFailed = errors.New("worker failed")

	// ErrTimeout means the search deadline passed before a match was found.
	ErrTimeout = errors.New("search timed out")
)

// WorkerError records a worker that panicked during a search.
type WorkerError struct {
	Worker int
	Panic  any
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d failed: %v", e.Worker, e.Panic)
}

// Unwrap lets errors.Is match ErrWorkerFailed.
func (e *WorkerError) Unwrap() error {
	return ErrWorkerFailed
}
