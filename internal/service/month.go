package service

import (
	"time"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// ResolveMonth converts a YYYY-MM selection into its inclusive calendar range.
// Malformed input is rejected before any date arithmetic happens.
func ResolveMonth(month string) (domain.MonthRange, error) {
	if len(month) != len(monthLayout) || month[4] != '-' {
		return domain.MonthRange{}, &domain.ErrValidation{Field: "month", Message: "must be in YYYY-MM format"}
	}

	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return domain.MonthRange{}, &domain.ErrValidation{Field: "month", Message: "must be in YYYY-MM format"}
	}

	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the following month is the last day of this one.
	last := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)

	return domain.MonthRange{
		Month:    month,
		FirstDay: first.Format(dayLayout),
		LastDay:  last.Format(dayLayout),
	}, nil
}
