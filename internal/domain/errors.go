package domain

import "fmt"

// The handler layer maps each of these to one HTTP status.

// ErrNotFound reports a recap that was never requested for the owner and
// month, so it has no state yet.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no %s for %s", e.Resource, e.ID)
}

// ErrExternalService wraps a failed expense store call: a refused
// connection, a non-2xx PostgREST answer or an unreadable body.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout reports an expense store call cut off by its deadline or by
// the HTTP client timeout.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("%s timed out", e.Operation)
}

// ErrCircuitOpen reports a store call rejected without being attempted
// because recent calls kept failing.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("%s unavailable: circuit open", e.Service)
}

// ErrValidation reports a request that names no owner or a month that is
// not YYYY-MM. Field holds the offending parameter.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ErrForbidden indicates the caller may not read the requested owner's data.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized reports an owner route called without a usable access
// token while owner auth is enabled.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
