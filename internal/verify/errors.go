package verify

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoItems           = errors.New("order has no items")
	ErrNoDocuments       = errors.New("no documents generated")
	ErrGenerationTimeout = errors.New("timed out waiting for document generation")
)

// QueryError is a failed read of the order (transport, protocol or GraphQL errors).
type QueryError struct {
	OrderID string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to fetch order %s: %v", e.OrderID, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// MutationError is a failed updateOrderStatus call.
type MutationError struct {
	OrderID string
	Status  string
	Err     error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("failed to update order %s to status %s: %v", e.OrderID, e.Status, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// PreconditionError means the order lacks data required before triggering generation.
type PreconditionError struct {
	OrderID string
	Err     error
	Remedy  string
}

func (e *PreconditionError) Error() string {
	if e.Remedy == "" {
		return fmt.Sprintf("order %s: %v", e.OrderID, e.Err)
	}
	return fmt.Sprintf("order %s: %v (%s)", e.OrderID, e.Err, e.Remedy)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// VerificationError means the expected documents did not materialize.
// Err is ErrNoDocuments, or ErrGenerationTimeout when the wait window expired.
type VerificationError struct {
	OrderID  string
	Waited   time.Duration
	Attempts int
	Err      error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("order %s: %v after %s (%d checks)", e.OrderID, e.Err, e.Waited.Round(time.Millisecond), e.Attempts)
}

func (e *VerificationError) Unwrap() error { return e.Err }

// CanceledError means the run was interrupted, e.g. by SIGINT, while no
// request was in flight.
type CanceledError struct {
	OrderID string
	Stage   Stage
	Err     error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("order %s: verification canceled during %s: %v", e.OrderID, e.Stage, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }

// RecordedError is the failure of a Result decoded from storage, where the
// original typed error is no longer available.
type RecordedError struct {
	Stage   Stage
	Message string
}

func (e *RecordedError) Error() string {
	return fmt.Sprintf("failed at %s: %s", e.Stage, e.Message)
}

// ArtifactWarning reports an unreachable PDF URL. It never fails a run.
type ArtifactWarning struct {
	URL        string
	StatusCode int
	Err        error
}

func (w *ArtifactWarning) Error() string {
	if w.Err != nil {
		return fmt.Sprintf("could not access PDF %s: %v", w.URL, w.Err)
	}
	return fmt.Sprintf("PDF %s returned HTTP %d", w.URL, w.StatusCode)
}

func (w *ArtifactWarning) Unwrap() error { return w.Err }

// IsFatal reports whether err aborts a run before the postcondition check.
func IsFatal(err error) bool {
	var qe *QueryError
	var me *MutationError
	var pe *PreconditionError
	var ce *CanceledError
	return errors.As(err, &qe) || errors.As(err, &me) || errors.As(err, &pe) || errors.As(err, &ce)
}
