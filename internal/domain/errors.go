package domain

import "fmt"

// PersistenceError reports a snapshot or report that could not be written.
// Results already held in memory stay valid.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

var (
	ErrNotFound = errString("not found")

	// ErrRateLimited marks a source that refused service because of rate limiting.
	ErrRateLimited = errString("rate limited")
)

type errString string

func (e errString) Error() string { return string(e) }
