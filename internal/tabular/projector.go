package tabular

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garyjia/mission-expenses/internal/allocation"
	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/expense"
	"github.com/shopspring/decimal"
)

// BankSlot accumulates one bank's share of a mission at full precision.
type BankSlot struct {
	BankName      string
	PerTypeAmount map[string]decimal.Decimal
	SlotTotal     decimal.Decimal
}

func (s *BankSlot) add(expenseType string, amount decimal.Decimal) {
	s.PerTypeAmount[expenseType] = s.PerTypeAmount[expenseType].Add(amount)
	s.SlotTotal = s.SlotTotal.Add(amount)
}

// BankSlots groups a mission's allocated expenses by bank, sorted by bank
// name. A mission with no expenses yields a single unspecified slot.
func BankSlots(m *entity.Mission) []*BankSlot {
	var slots []*BankSlot
	byBank := make(map[string]*BankSlot)

	for _, e := range m.Expenses {
		for _, share := range allocation.Allocate(e, m.Bank) {
			slot, ok := byBank[share.Bank]
			if !ok {
				slot = &BankSlot{BankName: share.Bank, PerTypeAmount: make(map[string]decimal.Decimal)}
				byBank[share.Bank] = slot
				slots = append(slots, slot)
			}
			slot.add(e.Type, share.Amount)
		}
	}

	if len(slots) == 0 {
		return []*BankSlot{{BankName: entity.UnspecifiedBank, PerTypeAmount: make(map[string]decimal.Decimal)}}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].BankName < slots[j].BankName
	})
	return slots
}

// ProjectToRows renders missions in the detailed layout, one row each.
// Banks past the SlotCount-th are left out of the slot columns but still
// counted in the grand total.
func ProjectToRows(missions []*entity.Mission) ([]Row, []Warning) {
	rows := make([]Row, 0, len(missions))
	var warnings []Warning

	for i, m := range missions {
		row, w := projectMission(m, i+2) // row 1 is the header
		rows = append(rows, row)
		warnings = append(warnings, w...)
	}
	return rows, warnings
}

func projectMission(m *entity.Mission, sheetRow int) (Row, []Warning) {
	var warnings []Warning
	warn := func(kind WarningKind, raw, msg string) {
		warnings = append(warnings, Warning{
			Kind:      kind,
			Row:       sheetRow,
			MissionID: m.ID,
			Employee:  m.EmployeeName,
			Raw:       raw,
			Message:   msg,
		})
	}

	for _, e := range m.Expenses {
		if !expense.IsCanonical(e.Type) {
			warn(WarnNonCanonicalType, e.Type, "expense type has no column; counted in totals only")
		}
		if issue := allocation.Check(e, m.Bank); issue != nil {
			if !issue.Drift.IsZero() {
				warn(WarnAllocationMismatch, e.ID,
					fmt.Sprintf("bank allocations differ from amount %s by %s", e.Amount.StringFixed(2), issue.Drift.StringFixed(2)))
			}
			if len(issue.UnknownBanks) > 0 {
				warn(WarnUnknownAllocationBank, e.ID,
					fmt.Sprintf("allocations name unselected banks: %s", strings.Join(issue.UnknownBanks, ", ")))
			}
		}
	}

	slots := BankSlots(m)
	grand := decimal.Zero
	for _, s := range slots {
		grand = grand.Add(s.SlotTotal)
	}

	if len(slots) > SlotCount {
		var dropped []string
		for _, s := range slots[SlotCount:] {
			dropped = append(dropped, s.BankName)
		}
		warn(WarnSlotsTruncated, strings.Join(dropped, ", "),
			fmt.Sprintf("%d banks exceed the %d slot columns; included in grand total only", len(dropped), SlotCount))
	}

	row := Row{
		EmployeeName:   EscapeFormula(m.EmployeeName),
		EmployeeCode:   m.EmployeeCode,
		EmployeeBranch: EscapeFormula(m.EmployeeBranch),
		Date:           m.MissionDate.String(),
		Weekday:        calendar.DayName(m.MissionDate),
		Statement:      EscapeFormula(m.Statement),
		GrandTotal:     round2(grand),
	}
	for i := 0; i < SlotCount; i++ {
		if i < len(slots) {
			row.Slots[i] = renderSlot(slots[i])
		} else {
			row.Slots[i] = emptySlot()
		}
	}
	return row, warnings
}

func renderSlot(s *BankSlot) SlotCells {
	cells := SlotCells{
		Bank:    EscapeFormula(s.BankName),
		Amounts: make([]decimal.Decimal, len(entity.ExpenseTypes)),
		Total:   round2(s.SlotTotal),
	}
	for i, t := range entity.ExpenseTypes {
		cells.Amounts[i] = round2(s.PerTypeAmount[t])
	}
	return cells
}

func emptySlot() SlotCells {
	return SlotCells{
		Bank:    EmptySlotMarker,
		Amounts: make([]decimal.Decimal, len(entity.ExpenseTypes)),
	}
}
