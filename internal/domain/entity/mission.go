package entity

import (
	"time"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/shopspring/decimal"
)

// Mission is an employee assignment together with its expenses
type Mission struct {
	ID             string          `json:"id"`
	EmployeeCode   int             `json:"employee_code"`
	EmployeeName   string          `json:"employee_name"`
	EmployeeBranch string          `json:"employee_branch"`
	MissionDate    calendar.Date   `json:"mission_date"`
	Bank           string          `json:"bank,omitempty"` // legacy primary bank, fallback for expenses without banks
	Statement      string          `json:"statement,omitempty"`
	Expenses       []ExpenseItem   `json:"expenses"`
	TotalAmount    decimal.Decimal `json:"total_amount"` // always sum(Expenses[].Amount)
	CreatedAt      time.Time       `json:"created_at"`
}

// ExpenseItem is one categorized amount within a mission
type ExpenseItem struct {
	ID              string                     `json:"id"`
	Type            string                     `json:"type"`
	Amount          decimal.Decimal            `json:"amount"`
	Banks           []string                   `json:"banks"`
	BankAllocations map[string]decimal.Decimal `json:"bank_allocations,omitempty"` // manual overrides of the equal split
}

// RecalculateTotal refreshes the cached TotalAmount from the expenses.
func (m *Mission) RecalculateTotal() {
	total := decimal.Zero
	for _, e := range m.Expenses {
		total = total.Add(e.Amount)
	}
	m.TotalAmount = total
}

// ExpenseIndex returns the position of the expense with the given id, or -1.
func (m *Mission) ExpenseIndex(id string) int {
	for i := range m.Expenses {
		if m.Expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so snapshots can be handed out safely.
func (m *Mission) Clone() *Mission {
	if m == nil {
		return nil
	}
	c := *m
	c.Expenses = make([]ExpenseItem, len(m.Expenses))
	for i, e := range m.Expenses {
		c.Expenses[i] = e.Clone()
	}
	return &c
}

// Clone returns a deep copy of the expense.
func (e ExpenseItem) Clone() ExpenseItem {
	c := e
	if e.Banks != nil {
		c.Banks = append([]string(nil), e.Banks...)
	}
	if e.BankAllocations != nil {
		c.BankAllocations = make(map[string]decimal.Decimal, len(e.BankAllocations))
		for k, v := range e.BankAllocations {
			c.BankAllocations[k] = v
		}
	}
	return c
}

// HasBank reports whether bank is among the selected banks.
func (e ExpenseItem) HasBank(bank string) bool {
	for _, b := range e.Banks {
		if b == bank {
			return true
		}
	}
	return false
}

// AllocationTotal sums the explicit overrides.
func (e ExpenseItem) AllocationTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range e.BankAllocations {
		total = total.Add(v)
	}
	return total
}
