// Package domain defines the core entities of the expense recap.
// These models are independent of the data store and represent the
// canonical data structures used throughout the service.
package domain

import "time"

// ============================================================
// Expenses
// ============================================================

// ExpenseRecord is a single expense entry owned by a user.
// Records are created and edited outside this service; we only read them.
type ExpenseRecord struct {
	ID       string  `json:"id,omitempty"`
	Date     string  `json:"date"` // YYYY-MM-DD
	Note     string  `json:"note"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"` // Rupiah
	OwnerID  string  `json:"ownerId"`
}

// MonthRange is the inclusive calendar range of a month.
type MonthRange struct {
	Month    string `json:"month"`    // YYYY-MM
	FirstDay string `json:"firstDay"` // YYYY-MM-01
	LastDay  string `json:"lastDay"`
}

// CategoryTotal represents spending per category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Aggregate holds the values derived from a record sequence.
// CategoryTotals keeps the order in which categories were first seen.
type Aggregate struct {
	TotalAll       float64         `json:"totalAll"`
	CategoryTotals []CategoryTotal `json:"categoryTotals"`
	VisibleRecords []ExpenseRecord `json:"records"`
}

// ============================================================
// Recap
// ============================================================

// RecapState describes what a caller should show for a recap.
type RecapState string

const (
	RecapLoading RecapState = "loading"
	RecapLoaded  RecapState = "loaded"
	RecapEmpty   RecapState = "empty"
	RecapFailed  RecapState = "failed"
)

// MonthlyRecap is returned by GET /v1/owners/{ownerId}/recaps/{month}.
type MonthlyRecap struct {
	OwnerID  string     `json:"ownerId"`
	Range    MonthRange `json:"range"`
	Category string     `json:"category,omitempty"`
	State    RecapState `json:"state"`

	// Stale is set when the fetch failed and the records come from the
	// last successful load of the same owner and month.
	Stale bool   `json:"stale,omitempty"`
	Error string `json:"error,omitempty"`

	Aggregate

	// Records is the unfiltered sequence; exports always use it.
	Records   []ExpenseRecord `json:"-"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Categories lists the categories present in the recap, first-seen order.
func (r *MonthlyRecap) Categories() []string {
	out := make([]string, 0, len(r.CategoryTotals))
	for _, ct := range r.CategoryTotals {
		out = append(out, ct.Category)
	}
	return out
}
