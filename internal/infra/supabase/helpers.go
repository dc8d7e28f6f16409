package supabase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/resilience"
)

// StatusError is a non-2xx answer from PostgREST.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, e.Body)
}

func isPermanentStatus(status int) bool {
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return false
	}
	return status >= 400 && status < 500
}

// toDomainError maps a failed store call to the domain error taxonomy.
// HTTP client timeouts count as timeouts even when the context is alive.
func toDomainError(service, operation string, err error) error {
	var netErr net.Error
	switch {
	case resilience.IsBreakerRejection(err):
		return &domain.ErrCircuitOpen{Service: service}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &domain.ErrTimeout{Operation: operation}
	default:
		return &domain.ErrExternalService{Service: service, Err: err}
	}
}
