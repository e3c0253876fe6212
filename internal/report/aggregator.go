// Package report sums mission expenses per employee and bank over a
// date range.
package report

import (
	"sort"

	"github.com/garyjia/mission-expenses/internal/allocation"
	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Line is one (employee, bank) bucket.
type Line struct {
	EmployeeCode   int                        `json:"employee_code"`
	EmployeeName   string                     `json:"employee_name"`
	EmployeeBranch string                     `json:"employee_branch"`
	BankName       string                     `json:"bank_name"`
	PerTypeTotal   map[string]decimal.Decimal `json:"per_type_total"`
	Total          decimal.Decimal            `json:"total"`
}

type lineKey struct {
	code int
	bank string
}

// AggregatePeriod attributes every expense of the missions dated within
// [from, to] to its banks and sums the shares per type. Lines are ordered
// by employee code, then bank name. Amounts keep full precision.
func AggregatePeriod(missions []*entity.Mission, from, to calendar.Date) []Line {
	buckets := make(map[lineKey]*Line)
	var order []lineKey

	for _, m := range missions {
		if !m.MissionDate.Within(from, to) {
			continue
		}
		for _, e := range m.Expenses {
			for _, share := range allocation.Allocate(e, m.Bank) {
				key := lineKey{code: m.EmployeeCode, bank: share.Bank}
				line, ok := buckets[key]
				if !ok {
					line = &Line{
						EmployeeCode:   m.EmployeeCode,
						EmployeeName:   m.EmployeeName,
						EmployeeBranch: m.EmployeeBranch,
						BankName:       share.Bank,
						PerTypeTotal:   make(map[string]decimal.Decimal),
					}
					buckets[key] = line
					order = append(order, key)
				}
				line.PerTypeTotal[e.Type] = line.PerTypeTotal[e.Type].Add(share.Amount)
				line.Total = line.Total.Add(share.Amount)
			}
		}
	}

	lines := make([]Line, 0, len(order))
	for _, key := range order {
		lines = append(lines, *buckets[key])
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].EmployeeCode != lines[j].EmployeeCode {
			return lines[i].EmployeeCode < lines[j].EmployeeCode
		}
		return lines[i].BankName < lines[j].BankName
	})
	return lines
}

// Rounded returns a copy of l with every amount rounded to 2 places.
func (l Line) Rounded() Line {
	out := l
	out.PerTypeTotal = make(map[string]decimal.Decimal, len(l.PerTypeTotal))
	for t, v := range l.PerTypeTotal {
		out.PerTypeTotal[t] = v.Round(2)
	}
	out.Total = l.Total.Round(2)
	return out
}
