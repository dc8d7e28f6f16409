package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/peykeuangan/rekap-pengeluaran-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ============================================================
// Expenses (implements port.ExpenseFetcher)
// ============================================================

// supabaseExpense maps the expense table columns.
type supabaseExpense struct {
	ID       json.RawMessage `json:"id"`
	UserID   string          `json:"user_id"`
	Tanggal  string          `json:"tanggal"`
	Catatan  string          `json:"catatan"`
	Kategori string          `json:"kategori"`
	Jumlah   json.Number     `json:"jumlah"`
}

func (r supabaseExpense) toDomain() domain.ExpenseRecord {
	amount, _ := r.Jumlah.Float64()
	id := strings.Trim(string(r.ID), `"`)
	if id == "null" {
		id = ""
	}
	return domain.ExpenseRecord{
		ID:       id,
		Date:     r.Tanggal,
		Note:     r.Catatan,
		Category: r.Kategori,
		Amount:   amount,
		OwnerID:  r.UserID,
	}
}

// expenseQuery builds the PostgREST filter: owner equality plus inclusive
// date bounds. No ordering and no limit; rows come back in store order.
func expenseQuery(ownerID string, rng domain.MonthRange) url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+ownerID)
	q.Add("tanggal", "gte."+rng.FirstDay)
	q.Add("tanggal", "lte."+rng.LastDay)
	return q
}

// ListExpenses fetches all expenses of ownerID dated inside rng.
func (c *Client) ListExpenses(ctx context.Context, ownerID string, rng domain.MonthRange) ([]domain.ExpenseRecord, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpenses")
	defer span.End()
	span.SetAttributes(
		attribute.String("owner.id", ownerID),
		attribute.String("recap.month", rng.Month),
	)

	query := expenseQuery(ownerID, rng)
	var records []domain.ExpenseRecord

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, c.table, query)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				records = []domain.ExpenseRecord{}
				return nil
			}

			var rows []supabaseExpense
			if err := json.Unmarshal(body, &rows); err != nil {
				return resilience.Permanent(fmt.Errorf("failed to decode expenses: %w", err))
			}

			records = make([]domain.ExpenseRecord, 0, len(rows))
			for _, r := range rows {
				records = append(records, r.toDomain())
			}
			return nil
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list expenses failed")
		c.logger.Error("supabase: list expenses failed",
			zap.String("owner_id", ownerID),
			zap.String("month", rng.Month),
			zap.Error(err),
		)
		return nil, toDomainError("supabase/expenses", "list expenses", err)
	}

	span.SetAttributes(attribute.Int("expenses.count", len(records)))
	return records, nil
}

// Ping issues a one-row read against the expense table.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	query := url.Values{}
	query.Set("select", "tanggal")
	query.Set("limit", "1")

	if _, err := c.doRequest(ctx, http.MethodGet, c.table, query); err != nil {
		span.RecordError(err)
		return toDomainError("supabase", "ping", err)
	}
	return nil
}
