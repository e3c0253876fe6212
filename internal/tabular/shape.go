package tabular

import "github.com/garyjia/mission-expenses/internal/domain/entity"

// RowShape is either DetailedRow or SimpleRow.
type RowShape interface {
	raw() RawRow
}

// DetailedRow carries up to SlotCount bank groups with per-type subtotals.
type DetailedRow struct{ Row RawRow }

// SimpleRow carries one bank and one aggregate total.
type SimpleRow struct{ Row RawRow }

func (d DetailedRow) raw() RawRow { return d.Row }
func (s SimpleRow) raw() RawRow   { return s.Row }

// DetectShape classifies r. Any numbered bank or expense-type column
// makes the row detailed.
func DetectShape(r RawRow) RowShape {
	for i := 1; i <= SlotCount; i++ {
		if r.Has(SlotBankField(i)) {
			return DetailedRow{Row: r}
		}
		for _, t := range entity.ExpenseTypes {
			if r.Has(SlotTypeField(t, i)) {
				return DetailedRow{Row: r}
			}
		}
	}
	return SimpleRow{Row: r}
}
