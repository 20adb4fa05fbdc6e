package domain

import (
	"errors"
	"fmt"
)

// ErrGameNotFound is returned by the registry when an app_id has no game row.
var ErrGameNotFound = errors.New("game not found in registry")

// FetchError wraps any network/API-level failure from the review API,
// keeping the identifier and cursor that were being fetched. The client
// has already spent its retry budget by the time one of these surfaces.
type FetchError struct {
	AppID  int64
	Cursor string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch reviews app_id=%d cursor=%q: %v", e.AppID, e.Cursor, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// LoadError wraps a failed batch write. Batches are retried once as a whole;
// a LoadError means both attempts failed and the game's load is abandoned.
type LoadError struct {
	AppID int64
	Batch int
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %d reviews app_id=%d: %v", e.Batch, e.AppID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
