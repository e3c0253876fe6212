// Package spreadsheet moves tabular rows in and out of xlsx workbooks.
package spreadsheet

import (
	"fmt"

	"github.com/garyjia/mission-expenses/internal/expense"
	"github.com/garyjia/mission-expenses/internal/report"
	"github.com/garyjia/mission-expenses/internal/tabular"
	"github.com/xuri/excelize/v2"
)

// Sheet names written on export
const (
	MissionsSheet = "المأموريات"
	ReportSheet   = "تقرير الفترة"
)

const (
	leadingWidth = 18.0
	amountWidth  = 12.0
)

// WriteMissions renders rows under the export header as a single-sheet
// workbook and returns the file bytes.
func WriteMissions(rows []tabular.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MissionsSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	records := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.Values())
	}
	if err := writeTable(f, MissionsSheet, toInterfaces(tabular.Headers()), records, 7); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(MissionsSheet, "A", "F", leadingWidth); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(tabular.ColumnCount)
	if err := f.SetColWidth(MissionsSheet, "G", last, amountWidth); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	return save(f)
}

// WriteReport renders a period report: one line per employee and bank,
// a column per expense type and a closing totals row.
func WriteReport(r *report.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	types := r.Types()
	header := []interface{}{"كود الموظف", "اسم الموظف", "الفرع", "البنك"}
	for _, t := range types {
		header = append(header, typeLabel(t))
	}
	header = append(header, "الإجمالي")

	records := make([][]interface{}, 0, len(r.Lines)+1)
	for _, l := range r.Lines {
		rec := []interface{}{
			l.EmployeeCode,
			tabular.EscapeFormula(l.EmployeeName),
			tabular.EscapeFormula(l.EmployeeBranch),
			tabular.EscapeFormula(l.BankName),
		}
		for _, t := range types {
			rec = append(rec, l.PerTypeTotal[t].InexactFloat64())
		}
		records = append(records, append(rec, l.Total.InexactFloat64()))
	}

	totals := []interface{}{"", "الإجمالي", "", fmt.Sprintf("%s - %s", r.From, r.To)}
	for _, t := range types {
		totals = append(totals, r.TypeTotals[t].InexactFloat64())
	}
	records = append(records, append(totals, r.GrandTotal.InexactFloat64()))

	if err := writeTable(f, ReportSheet, header, records, 5); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(ReportSheet, "A", "D", leadingWidth); err != nil {
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}
	return save(f)
}

// writeTable writes header and records from A1 on. Columns from
// firstAmountCol (1-based) on get a two-decimal number format.
func writeTable(f *excelize.File, sheet string, header []interface{}, records [][]interface{}, firstAmountCol int) error {
	rtl := true
	if err := f.SetSheetView(sheet, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("failed to set sheet view: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i := range records {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &records[i]); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if len(records) > 0 {
		amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
		if err != nil {
			return fmt.Errorf("failed to create amount style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(header), len(records)+1)
		first, _ := excelize.CoordinatesToCellName(firstAmountCol, 2)
		if err := f.SetCellStyle(sheet, first, last, amountStyle); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func save(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func typeLabel(t string) string {
	if expense.IsCanonical(t) {
		return expense.ArabicLabel(t)
	}
	return tabular.EscapeFormula(t)
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
