package supabase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/resilience"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/supabase"

	"go.uber.org/zap"
)

var march = domain.MonthRange{Month: "2025-03", FirstDay: "2025-03-01", LastDay: "2025-03-31"}

func newTestClient(t *testing.T, url string, retries int) *supabase.Client {
	t.Helper()
	return supabase.NewClient(
		&http.Client{Timeout: 2 * time.Second},
		url,
		"anon-key",
		"",
		"pengeluaran",
		resilience.NewCircuitBreaker(t.Name()),
		resilience.Config{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxConcurrency: 4},
		zap.NewNop(),
	)
}

func TestListExpenses_BuildsQueryAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/pengeluaran" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("select") != "*" {
			t.Errorf("expected select=*, got %q", q.Get("select"))
		}
		if q.Get("user_id") != "eq.user-1" {
			t.Errorf("expected owner filter, got %q", q.Get("user_id"))
		}
		dates := q["tanggal"]
		if len(dates) != 2 || dates[0] != "gte.2025-03-01" || dates[1] != "lte.2025-03-31" {
			t.Errorf("unexpected date filters %v", dates)
		}
		if q.Has("order") || q.Has("limit") {
			t.Errorf("expected no ordering or limit, got %v", q)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("expected apikey header, got %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer anon-key" {
			t.Errorf("expected bearer anon key, got %q", r.Header.Get("Authorization"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 7, "user_id": "user-1", "tanggal": "2025-03-12", "catatan": "Ojek", "kategori": "Transport", "jumlah": 20000},
			{"id": "a1b2", "user_id": "user-1", "tanggal": "2025-03-05", "catatan": "Nasi goreng", "kategori": "Food", "jumlah": "15000.5"}
		]`))
	}))
	defer srv.Close()

	records, err := newTestClient(t, srv.URL, 0).ListExpenses(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != "7" || first.Date != "2025-03-12" || first.Category != "Transport" || first.Amount != 20000 || first.Note != "Ojek" {
		t.Errorf("unexpected first record %+v", first)
	}
	if records[1].ID != "a1b2" || records[1].Amount != 15000.5 || records[1].OwnerID != "user-1" {
		t.Errorf("unexpected second record %+v", records[1])
	}
}

func TestListExpenses_ServiceKeyAsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer service-key" {
			t.Errorf("expected service key bearer, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := supabase.NewClient(&http.Client{}, srv.URL, "anon-key", "service-key", "pengeluaran",
		resilience.NewCircuitBreaker(t.Name()), resilience.Config{MaxConcurrency: 1}, zap.NewNop())

	records, err := c.ListExpenses(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", records)
	}
}

func TestListExpenses_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"tanggal":"2025-03-01","kategori":"Food","jumlah":1000}]`))
	}))
	defer srv.Close()

	records, err := newTestClient(t, srv.URL, 3).ListExpenses(context.Background(), "user-1", march)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestListExpenses_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"invalid input syntax for type date"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).ListExpenses(context.Background(), "user-1", march)

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %T: %v", err, err)
	}
	var status *supabase.StatusError
	if !errors.As(err, &status) || status.Status != http.StatusBadRequest {
		t.Errorf("expected wrapped 400 status error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestListExpenses_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 2).ListExpenses(context.Background(), "user-1", march)

	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestListExpenses_CircuitOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	for i := 0; i < 5; i++ {
		_, _ = c.ListExpenses(context.Background(), "user-1", march)
	}

	_, err := c.ListExpenses(context.Background(), "user-1", march)
	var open *domain.ErrCircuitOpen
	if !errors.As(err, &open) {
		t.Fatalf("expected ErrCircuitOpen, got %T: %v", err, err)
	}
}

func TestListExpenses_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv.URL, 0).ListExpenses(ctx, "user-1", march)
	var timeout *domain.ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %T: %v", err, err)
	}
}

func TestListExpenses_ClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	client := supabase.NewClient(
		&http.Client{Timeout: 30 * time.Millisecond},
		srv.URL, "anon-key", "", "pengeluaran",
		resilience.NewCircuitBreaker(t.Name()),
		resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 1},
		zap.NewNop(),
	)

	_, err := client.ListExpenses(context.Background(), "user-1", march)
	var timeout *domain.ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %T: %v", err, err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "1" {
			t.Errorf("expected limit=1, got %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if err := newTestClient(t, srv.URL, 0).Ping(context.Background()); err != nil {
		t.Fatalf("expected healthy store, got %v", err)
	}
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if err := newTestClient(t, url, 0).Ping(context.Background()); err == nil {
		t.Fatal("expected error for unreachable store")
	}
}
