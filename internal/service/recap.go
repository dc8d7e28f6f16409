// Package service provides the business logic layer (use cases).
// RecapService turns an owner and a month into a monthly expense recap:
// range resolution, fetching, aggregation and spreadsheet export.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/observability"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/xlsx"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("service/recap")

// RecapQuery selects a recap. Category is an optional exact-match filter.
// Refresh skips the cache and starts a new fetch even if one is in flight.
type RecapQuery struct {
	OwnerID  string
	Month    string
	Category string
	Refresh  bool
}

// RecapService orchestrates the expense store, the recap cache and the
// per-key snapshots.
type RecapService struct {
	fetcher   port.ExpenseFetcher
	prober    port.StoreProber
	cache     port.Cache[*domain.MonthlyRecap]
	snapshots *snapshotStore
	group     singleflight.Group
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewRecapService creates the recap service with all dependencies injected.
// cache and prober may be nil.
func NewRecapService(
	fetcher port.ExpenseFetcher,
	prober port.StoreProber,
	cache port.Cache[*domain.MonthlyRecap],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *RecapService {
	return &RecapService{
		fetcher:   fetcher,
		prober:    prober,
		cache:     cache,
		snapshots: newSnapshotStore(),
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func recapKey(ownerID, month string) string {
	return fmt.Sprintf("recap:%s:%s", ownerID, month)
}

func validateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return &domain.ErrValidation{Field: "ownerId", Message: "is required"}
	}
	return nil
}

// GetMonthlyRecap returns the recap for q. When the fetch fails the returned
// recap is still non-nil: its state is failed and it carries the last good
// records of the same owner and month (Stale) or none. The error is returned
// alongside it so callers can pick a status code.
func (s *RecapService) GetMonthlyRecap(ctx context.Context, q RecapQuery) (*domain.MonthlyRecap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "RecapService.GetMonthlyRecap")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("recap", time.Since(start))
	}()

	if err := validateOwner(q.OwnerID); err != nil {
		s.metrics.IncrRequest("invalid")
		return nil, err
	}
	rng, err := ResolveMonth(q.Month)
	if err != nil {
		s.metrics.IncrRequest("invalid")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("owner.id", q.OwnerID),
		attribute.String("recap.month", rng.Month),
		attribute.String("recap.category", q.Category),
	)

	base, err := s.load(ctx, q.OwnerID, rng, q.Refresh)
	if base == nil {
		s.metrics.IncrRequest("error")
		return nil, err
	}

	recap := withFilter(base, q.Category)
	if err != nil {
		s.metrics.IncrRequest("error")
		return recap, err
	}
	s.metrics.IncrRequest("success")
	return recap, nil
}

// load returns the unfiltered recap for the owner and month, from the cache
// when possible. Concurrent loads of the same key share one fetch.
func (s *RecapService) load(ctx context.Context, ownerID string, rng domain.MonthRange, refresh bool) (*domain.MonthlyRecap, error) {
	key := recapKey(ownerID, rng.Month)

	if s.cache != nil && !refresh {
		if cached, ok := s.cache.Get(key); ok {
			s.metrics.IncrCacheHit("recap")
			return cached, nil
		}
		s.metrics.IncrCacheMiss("recap")
	}
	if refresh {
		s.group.Forget(key)
	}

	// The shared fetch must not die with whichever caller started it;
	// the HTTP client timeout still bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.fetch(fetchCtx, key, ownerID, rng)
	})
	if shared {
		s.logger.Debug("recap fetch shared",
			zap.String("owner_id", ownerID),
			zap.String("month", rng.Month),
		)
	}

	recap, _ := v.(*domain.MonthlyRecap)
	return recap, err
}

func (s *RecapService) fetch(ctx context.Context, key, ownerID string, rng domain.MonthRange) (*domain.MonthlyRecap, error) {
	ctx, span := tracer.Start(ctx, "RecapService.fetch")
	defer span.End()

	gen := s.snapshots.begin(key)

	records, err := s.fetcher.ListExpenses(ctx, ownerID, rng)
	if err != nil {
		s.logger.Error("failed to fetch expenses",
			zap.String("owner_id", ownerID),
			zap.String("month", rng.Month),
			zap.Uint64("generation", gen),
			zap.Error(err),
		)
		s.metrics.IncrExternalError("supabase")

		// A failed outcome must not leave an older good recap behind in
		// the cache, or the next plain read would hide the failure.
		snap, applied := s.snapshots.fail(key, gen, err, func(snapshot) {
			if s.cache != nil {
				s.cache.Delete(key)
			}
		})
		if !applied {
			s.discarded(ownerID, rng.Month, gen, snap.gen)
			return recapFrom(ownerID, rng, snap), snap.err
		}
		if snap.stale {
			s.metrics.IncrStaleFallback()
			s.logger.Warn("serving last good recap",
				zap.String("owner_id", ownerID),
				zap.String("month", rng.Month),
				zap.Int("records", len(snap.records)),
			)
		}
		return recapFrom(ownerID, rng, snap), fmt.Errorf("expense fetch: %w", err)
	}

	var recap *domain.MonthlyRecap
	snap, applied := s.snapshots.commit(key, gen, records, s.now(), func(snap snapshot) {
		recap = recapFrom(ownerID, rng, snap)
		if s.cache != nil {
			s.cache.Set(key, recap)
		}
	})
	if !applied {
		s.discarded(ownerID, rng.Month, gen, snap.gen)
		return recapFrom(ownerID, rng, snap), snap.err
	}
	return recap, nil
}

func (s *RecapService) discarded(ownerID, month string, gen, current uint64) {
	s.metrics.IncrDiscarded()
	s.logger.Info("discarding outdated recap response",
		zap.String("owner_id", ownerID),
		zap.String("month", month),
		zap.Uint64("generation", gen),
		zap.Uint64("current_generation", current),
	)
}

func recapFrom(ownerID string, rng domain.MonthRange, snap snapshot) *domain.MonthlyRecap {
	recap := &domain.MonthlyRecap{
		OwnerID:   ownerID,
		Range:     rng,
		State:     snap.state,
		Stale:     snap.stale,
		Aggregate: Aggregate(snap.records, ""),
		Records:   snap.records,
		FetchedAt: snap.fetchedAt,
	}
	if snap.err != nil {
		recap.Error = snap.err.Error()
	}
	return recap
}

// withFilter returns a copy of base narrowed to category. base is shared
// with the cache and is never modified.
func withFilter(base *domain.MonthlyRecap, category string) *domain.MonthlyRecap {
	out := *base
	out.Category = category
	out.Aggregate = Aggregate(base.Records, category)
	return &out
}

// State reports the lifecycle state of a recap previously requested.
func (s *RecapService) State(ownerID, month string) (domain.RecapState, error) {
	if err := validateOwner(ownerID); err != nil {
		return "", err
	}
	rng, err := ResolveMonth(month)
	if err != nil {
		return "", err
	}

	key := recapKey(ownerID, rng.Month)
	state, ok := s.snapshots.state(key)
	if !ok {
		return "", &domain.ErrNotFound{Resource: "recap", ID: ownerID + "/" + rng.Month}
	}
	return state, nil
}

// ExportRecap writes the owner's unfiltered records for month as a workbook
// and returns how many records it contains. Nothing is written on failure.
// Exports are counted apart from recap requests.
func (s *RecapService) ExportRecap(ctx context.Context, ownerID, month string, w io.Writer) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	ctx, span := tracer.Start(ctx, "RecapService.ExportRecap")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("export", time.Since(start))
	}()

	if err := validateOwner(ownerID); err != nil {
		return 0, err
	}
	rng, err := ResolveMonth(month)
	if err != nil {
		return 0, err
	}
	span.SetAttributes(
		attribute.String("owner.id", ownerID),
		attribute.String("recap.month", rng.Month),
	)

	recap, err := s.load(ctx, ownerID, rng, false)
	if err != nil {
		return 0, err
	}

	if err := xlsx.WriteRecap(w, recap.Records); err != nil {
		return 0, fmt.Errorf("write workbook: %w", err)
	}
	s.metrics.IncrExport()

	span.SetAttributes(attribute.Int("export.records", len(recap.Records)))
	return len(recap.Records), nil
}

// Ping probes the expense store.
func (s *RecapService) Ping(ctx context.Context) error {
	if s.prober == nil {
		return nil
	}
	return s.prober.Ping(ctx)
}
