// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
)

// ExpenseFetcher retrieves an owner's expense records inside a month range.
// Implemented by the Supabase adapter.
type ExpenseFetcher interface {
	ListExpenses(ctx context.Context, ownerID string, rng domain.MonthRange) ([]domain.ExpenseRecord, error)
}

// StoreProber reports whether the data store is reachable.
type StoreProber interface {
	Ping(ctx context.Context) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
