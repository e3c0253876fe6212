package tabular

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Row is one exported mission in the fixed detailed layout.
type Row struct {
	EmployeeName   string
	EmployeeCode   int
	EmployeeBranch string
	Date           string
	Weekday        string
	Statement      string
	Slots          [SlotCount]SlotCells
	GrandTotal     decimal.Decimal
}

// SlotCells is the rendered content of one bank column group.
type SlotCells struct {
	Bank    string
	Amounts []decimal.Decimal // one per entity.ExpenseTypes entry
	Total   decimal.Decimal
}

// Values flattens the row in header order. Amounts are float64 so the
// spreadsheet stores them as numbers.
func (r Row) Values() []interface{} {
	values := make([]interface{}, 0, ColumnCount)
	values = append(values,
		r.EmployeeName,
		r.EmployeeCode,
		r.EmployeeBranch,
		r.Date,
		r.Weekday,
		r.Statement,
	)
	for _, slot := range r.Slots {
		values = append(values, slot.Bank)
		for _, a := range slot.Amounts {
			values = append(values, a.InexactFloat64())
		}
		values = append(values, slot.Total.InexactFloat64())
	}
	return append(values, r.GrandTotal.InexactFloat64())
}

// RawRow is one data row of an imported sheet, keyed by resolved field.
type RawRow struct {
	Sheet  string
	Number int // 1-based spreadsheet row number
	Cells  map[string]string
}

// Get returns the trimmed cell for field, or "".
func (r RawRow) Get(field string) string {
	return strings.TrimSpace(r.Cells[field])
}

// Has reports whether the sheet carried a column for field.
func (r RawRow) Has(field string) bool {
	_, ok := r.Cells[field]
	return ok
}

// IsBlank reports whether every cell is empty.
func (r RawRow) IsBlank() bool {
	for _, v := range r.Cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Sheet is a parsed worksheet.
type Sheet struct {
	Name    string
	Columns []string // resolved field keys in column order
	Rows    []RawRow
}

// HasColumn reports whether field is among the sheet's columns.
func (s *Sheet) HasColumn(field string) bool {
	for _, c := range s.Columns {
		if c == field {
			return true
		}
	}
	return false
}

// Workbook groups the sheets an import reads.
type Workbook struct {
	Missions *Sheet
	Expenses *Sheet // optional legacy itemized sheet
}
