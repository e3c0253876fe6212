package report

import (
	"sort"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Report is the presented form of a period aggregation.
type Report struct {
	From       calendar.Date              `json:"from"`
	To         calendar.Date              `json:"to"`
	Lines      []Line                     `json:"lines"`
	TypeTotals map[string]decimal.Decimal `json:"type_totals"`
	GrandTotal decimal.Decimal            `json:"grand_total"`
}

// Build aggregates missions and rounds the result for display. Column
// totals are summed before rounding.
func Build(missions []*entity.Mission, from, to calendar.Date) *Report {
	lines := AggregatePeriod(missions, from, to)

	r := &Report{
		From:       from,
		To:         to,
		Lines:      make([]Line, 0, len(lines)),
		TypeTotals: make(map[string]decimal.Decimal),
	}
	for _, l := range lines {
		for t, v := range l.PerTypeTotal {
			r.TypeTotals[t] = r.TypeTotals[t].Add(v)
		}
		r.GrandTotal = r.GrandTotal.Add(l.Total)
		r.Lines = append(r.Lines, l.Rounded())
	}
	for t, v := range r.TypeTotals {
		r.TypeTotals[t] = v.Round(2)
	}
	r.GrandTotal = r.GrandTotal.Round(2)
	return r
}

// Types lists the expense types present in r: canonical ones first in
// their fixed order, then any others sorted.
func (r *Report) Types() []string {
	var types, extra []string
	canonical := make(map[string]bool, len(entity.ExpenseTypes))
	for _, t := range entity.ExpenseTypes {
		canonical[t] = true
		if _, ok := r.TypeTotals[t]; ok {
			types = append(types, t)
		}
	}
	for t := range r.TypeTotals {
		if !canonical[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(types, extra...)
}
