package service

import "github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"

// Aggregate derives the grand total, the per-category totals and the
// visible subset from a record sequence. Totals always cover every record;
// filter only narrows VisibleRecords. An empty filter means no filter.
func Aggregate(records []domain.ExpenseRecord, filter string) domain.Aggregate {
	agg := domain.Aggregate{
		CategoryTotals: []domain.CategoryTotal{},
		VisibleRecords: []domain.ExpenseRecord{},
	}

	index := make(map[string]int)
	for _, r := range records {
		agg.TotalAll += r.Amount

		i, ok := index[r.Category]
		if !ok {
			i = len(agg.CategoryTotals)
			index[r.Category] = i
			agg.CategoryTotals = append(agg.CategoryTotals, domain.CategoryTotal{Category: r.Category})
		}
		agg.CategoryTotals[i].Total += r.Amount

		if filter == "" || r.Category == filter {
			agg.VisibleRecords = append(agg.VisibleRecords, r)
		}
	}

	return agg
}
