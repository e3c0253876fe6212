// Package tabular projects missions onto the fixed-width spreadsheet
// layout and parses that layout back into missions.
package tabular

import (
	"fmt"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/expense"
)

// SlotCount is the number of bank column groups in a detailed row.
const SlotCount = 4

// EmptySlotMarker fills the bank cell of an unused slot.
const EmptySlotMarker = "لا توجد مأمورية"

// Field keys that headers resolve to
const (
	FieldID             = "id"
	FieldEmployeeName   = "employee_name"
	FieldEmployeeCode   = "employee_code"
	FieldEmployeeBranch = "employee_branch"
	FieldDate           = "mission_date"
	FieldWeekday        = "weekday"
	FieldStatement      = "statement"
	FieldBank           = "bank"
	FieldTotal          = "total"
	FieldGrandTotal     = "grand_total"

	// expenses sheet
	FieldMissionRef  = "mission_ref"
	FieldExpenseType = "expense_type"
	FieldAmount      = "amount"
	FieldBanks       = "banks"
	FieldAllocations = "bank_allocations"
)

// SlotBankField is the bank-name column of slot i (1-based).
func SlotBankField(i int) string { return fmt.Sprintf("%s_%d", FieldBank, i) }

// SlotTypeField is the expense-type subtotal column of slot i.
func SlotTypeField(expenseType string, i int) string { return fmt.Sprintf("%s_%d", expenseType, i) }

// SlotTotalField is the slot total column of slot i.
func SlotTotalField(i int) string { return fmt.Sprintf("slot_total_%d", i) }

// Headers returns the export header row: six leading columns, four
// seven-column slot groups and the grand total.
func Headers() []string {
	headers := []string{
		"اسم الموظف",
		"كود الموظف",
		"الفرع",
		"التاريخ",
		"اليوم",
		"البيان",
	}
	for i := 1; i <= SlotCount; i++ {
		headers = append(headers, fmt.Sprintf("البنك %d", i))
		for _, t := range entity.ExpenseTypes {
			headers = append(headers, fmt.Sprintf("%s %d", expense.ArabicLabel(t), i))
		}
		headers = append(headers, fmt.Sprintf("إجمالي البنك %d", i))
	}
	return append(headers, "الإجمالي الكلي")
}

// ColumnCount is the width of a detailed row.
var ColumnCount = 6 + SlotCount*(len(entity.ExpenseTypes)+2) + 1
