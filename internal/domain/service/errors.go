package service

import "errors"

// ErrQuotaExceeded is returned when a provider's call budget is exhausted.
// It is non-fatal: the scheduler pauses enqueue for the source until the
// calendar reset, already-enqueued tasks keep running.
var ErrQuotaExceeded = errors.New("upstream quota exceeded")

// ErrNoData is returned by sub-score providers when a symbol is unknown.
// Callers substitute the neutral score instead of failing.
var ErrNoData = errors.New("no data for symbol")

// TransientError wraps an upstream failure worth retrying at the task level.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient upstream error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient marks err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err (or anything it wraps) is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
