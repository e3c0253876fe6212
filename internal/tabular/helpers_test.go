package tabular

import (
	"fmt"
	"strconv"
	"time"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/shopspring/decimal"
)

func mustDate(y int, m time.Month, d int) calendar.Date {
	date, ok := calendar.NewDate(y, m, d)
	if !ok {
		panic(fmt.Sprintf("invalid test date %d-%d-%d", y, m, d))
	}
	return date
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newItem(id, expenseType, amount string, banks ...string) entity.ExpenseItem {
	return entity.ExpenseItem{ID: id, Type: expenseType, Amount: dec(amount), Banks: banks}
}

func newMission(id string, expenses ...entity.ExpenseItem) *entity.Mission {
	m := &entity.Mission{
		ID:             id,
		EmployeeCode:   1001,
		EmployeeName:   "أحمد علي",
		EmployeeBranch: "القاهرة",
		MissionDate:    mustDate(2024, time.March, 5),
		Statement:      "زيارة فرع",
		Expenses:       expenses,
	}
	m.RecalculateTotal()
	return m
}

// record renders projected values the way a spreadsheet reader returns them.
func record(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case string:
			out[i] = x
		case int:
			out[i] = strconv.Itoa(x)
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

// exportedWorkbook projects missions and reads the rows back as a sheet.
func exportedWorkbook(missions []*entity.Mission) (Workbook, []Warning) {
	rows, warnings := ProjectToRows(missions)
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = record(r.Values())
	}
	return Workbook{Missions: NewSheet("المأموريات", Headers(), records)}, warnings
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func fixedClock() time.Time {
	return time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC)
}

func warningKinds(ws []Warning) []WarningKind {
	kinds := make([]WarningKind, len(ws))
	for i, w := range ws {
		kinds[i] = w.Kind
	}
	return kinds
}
