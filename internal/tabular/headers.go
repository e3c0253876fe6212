package tabular

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/expense"
)

// headerAliases are stored folded (see expense.Fold).
var headerAliases = map[string]string{
	"id":               FieldID,
	"المعرف":           FieldID,
	"معرف":             FieldID,
	"الرقم":            FieldID,
	"رقم":              FieldID,
	"م":                FieldID,
	"اسم الموظف":       FieldEmployeeName,
	"الموظف":           FieldEmployeeName,
	"الاسم":            FieldEmployeeName,
	"employee":         FieldEmployeeName,
	"employee name":    FieldEmployeeName,
	"name":             FieldEmployeeName,
	"كود الموظف":       FieldEmployeeCode,
	"كود":              FieldEmployeeCode,
	"الكود":            FieldEmployeeCode,
	"رقم الموظف":       FieldEmployeeCode,
	"employee code":    FieldEmployeeCode,
	"code":             FieldEmployeeCode,
	"الفرع":            FieldEmployeeBranch,
	"فرع":              FieldEmployeeBranch,
	"فرع الموظف":       FieldEmployeeBranch,
	"branch":           FieldEmployeeBranch,
	"employee branch":  FieldEmployeeBranch,
	"التاريخ":          FieldDate,
	"تاريخ":            FieldDate,
	"تاريخ المامورية":  FieldDate,
	"date":             FieldDate,
	"mission date":     FieldDate,
	"اليوم":            FieldWeekday,
	"day":              FieldWeekday,
	"weekday":          FieldWeekday,
	"البيان":           FieldStatement,
	"بيان":             FieldStatement,
	"الوصف":            FieldStatement,
	"statement":        FieldStatement,
	"description":      FieldStatement,
	"البنك":            FieldBank,
	"بنك":              FieldBank,
	"bank":             FieldBank,
	"الاجمالي":         FieldTotal,
	"اجمالي":           FieldTotal,
	"total":            FieldTotal,
	"total amount":     FieldTotal,
	"الاجمالي الكلي":   FieldGrandTotal,
	"اجمالي الكلي":     FieldGrandTotal,
	"الاجمالي العام":   FieldGrandTotal,
	"grand total":      FieldGrandTotal,
	"رقم المامورية":    FieldMissionRef,
	"معرف المامورية":   FieldMissionRef,
	"mission id":       FieldMissionRef,
	"mission_id":       FieldMissionRef,
	"mission":          FieldMissionRef,
	"النوع":            FieldExpenseType,
	"نوع المصروف":      FieldExpenseType,
	"البند":            FieldExpenseType,
	"type":             FieldExpenseType,
	"expense type":     FieldExpenseType,
	"المبلغ":           FieldAmount,
	"القيمة":           FieldAmount,
	"amount":           FieldAmount,
	"البنوك":           FieldBanks,
	"banks":            FieldBanks,
	"توزيع البنوك":     FieldAllocations,
	"bank allocations": FieldAllocations,
	"allocations":      FieldAllocations,
}

var slotTotalAliases = map[string]bool{
	"اجمالي البنك": true,
	"اجمالي":       true,
	"الاجمالي":     true,
	"total":        true,
	"bank total":   true,
	"slot total":   true,
}

var (
	numberedHeader   = regexp.MustCompile(`^(.*?)\s*(\d+)$`)
	headerDecoration = strings.NewReplacer(":", " ", "*", " ", "(", " ", ")", " ", "[", " ", "]", " ")
)

// ResolveHeader maps a raw, possibly decorated header cell to a field key.
// The second result is false for headers outside the vocabulary.
func ResolveHeader(raw string) (string, bool) {
	h := expense.Fold(headerDecoration.Replace(calendar.NormalizeDigits(raw)))
	if h == "" {
		return "", false
	}
	if field, ok := headerAliases[h]; ok {
		return field, true
	}

	m := numberedHeader.FindStringSubmatch(h)
	if m == nil {
		return "", false
	}
	idx, err := strconv.Atoi(m[2])
	if err != nil || idx < 1 || idx > SlotCount {
		return "", false
	}
	base := strings.TrimSpace(m[1])
	switch {
	case base == "":
		return "", false
	case headerAliases[base] == FieldBank:
		return SlotBankField(idx), true
	case slotTotalAliases[base]:
		return SlotTotalField(idx), true
	}
	if t := expense.Normalize(base); expense.IsCanonical(t) {
		return SlotTypeField(t, idx), true
	}
	return "", false
}
