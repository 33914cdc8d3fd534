package upstream

import "fmt"

// Kind classifies a failed completion call.
type Kind int

const (
	// KindTimeout means the upstream did not answer within the call deadline.
	KindTimeout Kind = iota + 1
	// KindUnavailable covers 5xx, 429 and transport failures.
	KindUnavailable
	// KindRejected covers the remaining 4xx statuses. Never retried.
	KindRejected
	// KindMalformed means a 2xx response whose body could not be used.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is a classified completion failure. Status and Body are only set when
// the upstream produced an HTTP response.
type Error struct {
	Kind   Kind
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("upstream %s (status %d): %v", e.Kind, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("upstream %s (status %d): %s", e.Kind, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("upstream %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failed call may be attempted again.
func (e *Error) Retryable() bool { return e.Kind != KindRejected }
