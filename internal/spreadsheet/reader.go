package spreadsheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/garyjia/mission-expenses/internal/expense"
	"github.com/garyjia/mission-expenses/internal/tabular"
	"github.com/xuri/excelize/v2"
)

// headerScanRows bounds the search for a header row below title rows.
const headerScanRows = 10

// minHeaderFields is how many recognized cells make a row the header.
const minHeaderFields = 2

// Sheet names are matched after expense.Fold.
var (
	missionSheetNames = map[string]bool{
		"الماموريات": true,
		"ماموريات":   true,
		"missions":   true,
		"mission":    true,
	}
	expenseSheetNames = map[string]bool{
		"المصروفات":     true,
		"مصروفات":       true,
		"البنود":        true,
		"expenses":      true,
		"expense items": true,
		"items":         true,
	}
)

// ReadWorkbook loads an xlsx file and locates its missions sheet and the
// optional itemized expenses sheet. Without a sheet named as missions,
// the first sheet that is not the expenses sheet is used.
func ReadWorkbook(data []byte) (tabular.Workbook, error) {
	return Read(bytes.NewReader(data))
}

// Read is ReadWorkbook over a stream.
func Read(r io.Reader) (tabular.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return tabular.Workbook{}, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()
	return readFile(f)
}

// ReadFile is ReadWorkbook over a path on disk.
func ReadFile(path string) (tabular.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return tabular.Workbook{}, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()
	return readFile(f)
}

func readFile(f *excelize.File) (tabular.Workbook, error) {
	var missionsName, expensesName string
	sheets := f.GetSheetList()
	for _, name := range sheets {
		folded := expense.Fold(name)
		switch {
		case missionsName == "" && missionSheetNames[folded]:
			missionsName = name
		case expensesName == "" && expenseSheetNames[folded]:
			expensesName = name
		}
	}
	if missionsName == "" {
		for _, name := range sheets {
			if name != expensesName {
				missionsName = name
				break
			}
		}
	}
	if missionsName == "" {
		return tabular.Workbook{}, tabular.ErrNoMissionsSheet
	}

	var wb tabular.Workbook
	missions, err := readSheet(f, missionsName)
	if err != nil {
		return tabular.Workbook{}, err
	}
	wb.Missions = missions

	if expensesName != "" {
		expenses, err := readSheet(f, expensesName)
		if err != nil {
			return tabular.Workbook{}, err
		}
		wb.Expenses = expenses
	}
	return wb, nil
}

// readSheet returns nil when the sheet has no recognizable header row.
func readSheet(f *excelize.File, name string) (*tabular.Sheet, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}

	headerIdx := -1
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		if recognized(rows[i]) >= minHeaderFields {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil
	}

	sheet := tabular.NewSheet(name, rows[headerIdx], rows[headerIdx+1:])
	for i := range sheet.Rows {
		sheet.Rows[i].Number += headerIdx
	}
	return sheet, nil
}

func recognized(row []string) int {
	n := 0
	for _, cell := range row {
		if _, ok := tabular.ResolveHeader(cell); ok {
			n++
		}
	}
	return n
}
