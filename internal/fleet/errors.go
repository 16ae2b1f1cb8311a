package fleet

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("monitor not found")
	ErrVersionConflict  = errors.New("monitor version conflict")
	ErrInvalidSortKey   = errors.New("invalid sort field")
	ErrInvalidDirection = errors.New("invalid sort direction")
	ErrInvalidState     = errors.New("invalid state filter")
	ErrInvalidPage      = errors.New("invalid page bounds")
	ErrInvalidMonitor   = errors.New("invalid monitor document")
)

// FetchError reports a failed primary store query.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch monitors: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AggregateError reports a failed alert statistics aggregation.
type AggregateError struct {
	Err error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("failed to aggregate alert stats: %v", e.Err)
}

func (e *AggregateError) Unwrap() error { return e.Err }
