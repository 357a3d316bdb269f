package discovery

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// FailureKind names the containment level at which a failure was absorbed.
type FailureKind string

const (
	// FailureLink means one detail link was skipped.
	FailureLink FailureKind = "link"
	// FailureBoard means the rest of one board was skipped.
	FailureBoard FailureKind = "board"
	// FailureSession means the remaining boards were skipped.
	FailureSession FailureKind = "session"
	// FailureCleanup means the browser did not shut down cleanly.
	FailureCleanup FailureKind = "cleanup"
)

// Failure is an error absorbed during a harvest.
type Failure struct {
	Kind    FailureKind
	BoardID string
	Href    string
	Err     error
}

func (f Failure) Error() string {
	switch {
	case f.Href != "":
		return fmt.Sprintf("%s %s (board %s): %v", f.Kind, f.Href, f.BoardID, f.Err)
	case f.BoardID != "":
		return fmt.Sprintf("%s %s: %v", f.Kind, f.BoardID, f.Err)
	default:
		return fmt.Sprintf("%s: %v", f.Kind, f.Err)
	}
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Report describes how a harvest went.
type Report struct {
	StartedAt    time.Time
	FinishedAt   time.Time
	Collected    int
	UsedFallback bool
	Failures     []Failure
}

func (r *Report) add(f Failure) {
	r.Failures = append(r.Failures, f)
}

// Count returns the number of failures of the given kind.
func (r *Report) Count(kind FailureKind) int {
	n := 0
	for _, f := range r.Failures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Err combines every absorbed failure, or returns nil if there were none.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}
