package tabular

import (
	"testing"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	headers := Headers()
	require.Len(t, headers, ColumnCount)
	assert.Equal(t, 35, ColumnCount)
	assert.Equal(t, "اسم الموظف", headers[0])
	assert.Equal(t, "البنك 1", headers[6])
	assert.Equal(t, "انتقالات 1", headers[7])
	assert.Equal(t, "إجمالي البنك 1", headers[12])
	assert.Equal(t, "الإجمالي الكلي", headers[len(headers)-1])

	seen := make(map[string]bool)
	for _, h := range headers {
		field, ok := ResolveHeader(h)
		require.True(t, ok, "header %q should resolve", h)
		assert.False(t, seen[field], "header %q resolves to duplicate field %q", h, field)
		seen[field] = true
	}
}

func TestBankSlots(t *testing.T) {
	t.Run("groups shares by bank in name order", func(t *testing.T) {
		m := newMission("m1",
			newItem("e1", entity.ExpenseTypeTransportation, "100", "بنك مصر", "البنك الأهلي"),
			newItem("e2", entity.ExpenseTypeFees, "30", "بنك مصر"),
		)
		slots := BankSlots(m)
		require.Len(t, slots, 2)

		assert.Equal(t, "البنك الأهلي", slots[0].BankName)
		assert.True(t, slots[0].SlotTotal.Equal(dec("50")))

		assert.Equal(t, "بنك مصر", slots[1].BankName)
		assert.True(t, slots[1].PerTypeAmount[entity.ExpenseTypeTransportation].Equal(dec("50")))
		assert.True(t, slots[1].PerTypeAmount[entity.ExpenseTypeFees].Equal(dec("30")))
		assert.True(t, slots[1].SlotTotal.Equal(dec("80")))
	})

	t.Run("mission without expenses has one unspecified slot", func(t *testing.T) {
		slots := BankSlots(newMission("m1"))
		require.Len(t, slots, 1)
		assert.Equal(t, entity.UnspecifiedBank, slots[0].BankName)
		assert.True(t, slots[0].SlotTotal.IsZero())
	})

	t.Run("expense without banks uses the mission bank", func(t *testing.T) {
		m := newMission("m1", newItem("e1", entity.ExpenseTypeTips, "15"))
		m.Bank = "بنك القاهرة"
		slots := BankSlots(m)
		require.Len(t, slots, 1)
		assert.Equal(t, "بنك القاهرة", slots[0].BankName)
	})
}

func TestProjectToRows(t *testing.T) {
	m := newMission("m1",
		newItem("e1", entity.ExpenseTypeTransportation, "100", "A", "B"),
		newItem("e2", entity.ExpenseTypeFees, "30", "B"),
	)
	rows, warnings := ProjectToRows([]*entity.Mission{m})
	require.Len(t, rows, 1)
	assert.Empty(t, warnings)

	row := rows[0]
	assert.Equal(t, "أحمد علي", row.EmployeeName)
	assert.Equal(t, 1001, row.EmployeeCode)
	assert.Equal(t, "2024-03-05", row.Date)
	assert.Equal(t, "الثلاثاء", row.Weekday)
	assert.True(t, row.GrandTotal.Equal(dec("130")))

	assert.Equal(t, "A", row.Slots[0].Bank)
	assert.True(t, row.Slots[0].Amounts[0].Equal(dec("50")))
	assert.True(t, row.Slots[0].Total.Equal(dec("50")))

	assert.Equal(t, "B", row.Slots[1].Bank)
	assert.True(t, row.Slots[1].Amounts[0].Equal(dec("50")))
	assert.True(t, row.Slots[1].Amounts[1].Equal(dec("30")))
	assert.True(t, row.Slots[1].Total.Equal(dec("80")))

	for _, slot := range row.Slots[2:] {
		assert.Equal(t, EmptySlotMarker, slot.Bank)
		assert.True(t, slot.Total.IsZero())
	}
	assert.Len(t, row.Values(), ColumnCount)
}

func TestProjectToRows_Warnings(t *testing.T) {
	t.Run("more banks than slots", func(t *testing.T) {
		m := newMission("m1", newItem("e1", entity.ExpenseTypeFees, "500", "A", "B", "C", "D", "E"))
		rows, warnings := ProjectToRows([]*entity.Mission{m})
		require.Len(t, warnings, 1)
		assert.Equal(t, WarnSlotsTruncated, warnings[0].Kind)
		assert.Equal(t, "E", warnings[0].Raw)
		assert.Equal(t, 2, warnings[0].Row)
		assert.True(t, rows[0].GrandTotal.Equal(dec("500")), "grand total keeps dropped banks")
		for _, slot := range rows[0].Slots {
			assert.True(t, slot.Total.Equal(dec("100")))
		}
	})

	t.Run("allocation drift and unknown banks", func(t *testing.T) {
		e := newItem("e1", entity.ExpenseTypeFees, "100", "A", "B")
		e.BankAllocations = map[string]decimal.Decimal{"A": dec("70"), "Z": dec("10")}
		_, warnings := ProjectToRows([]*entity.Mission{newMission("m1", e)})
		assert.ElementsMatch(t, []WarningKind{WarnAllocationMismatch, WarnUnknownAllocationBank}, warningKinds(warnings))
	})

	t.Run("non canonical type", func(t *testing.T) {
		m := newMission("m1", newItem("e1", "parking", "20", "A"))
		rows, warnings := ProjectToRows([]*entity.Mission{m})
		require.Len(t, warnings, 1)
		assert.Equal(t, WarnNonCanonicalType, warnings[0].Kind)
		assert.True(t, rows[0].GrandTotal.Equal(dec("20")))
	})
}

func TestProjectToRows_EscapesFormulas(t *testing.T) {
	m := newMission("m1", newItem("e1", entity.ExpenseTypeTips, "10", "@bank"))
	m.Statement = "=1+1"
	m.EmployeeName = "+20100"

	rows, _ := ProjectToRows([]*entity.Mission{m})
	require.Len(t, rows, 1)
	assert.Equal(t, "'=1+1", rows[0].Statement)
	assert.Equal(t, "'+20100", rows[0].EmployeeName)
	assert.Equal(t, "'@bank", rows[0].Slots[0].Bank)
}
