package http

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/formula"
	"github.com/shopspring/decimal"
)

// Amount accepts a JSON number or a string holding an arithmetic
// expression such as "=120+35.5".
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := formula.Evaluate(s)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		a.Decimal = v
		return nil
	}
	v, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("amount %s: %w", b, err)
	}
	a.Decimal = v
	return nil
}

// MissionRequest is the body of POST and PUT /api/missions
type MissionRequest struct {
	EmployeeCode   int              `json:"employee_code"`
	EmployeeName   string           `json:"employee_name"`
	EmployeeBranch string           `json:"employee_branch"`
	MissionDate    calendar.Date    `json:"mission_date"`
	Bank           string           `json:"bank"`
	Statement      string           `json:"statement"`
	Expenses       []ExpenseRequest `json:"expenses"`
}

// ExpenseRequest is one expense in a request body
type ExpenseRequest struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	Amount          Amount            `json:"amount"`
	Banks           []string          `json:"banks"`
	BankAllocations map[string]Amount `json:"bank_allocations"`
}

// AllocationPreviewRequest is the body of POST /api/allocations/preview
type AllocationPreviewRequest struct {
	Expense      ExpenseRequest `json:"expense"`
	FallbackBank string         `json:"fallback_bank"`
}

// ShareResponse is one bank's part of a previewed expense
type ShareResponse struct {
	Bank   string          `json:"bank"`
	Amount decimal.Decimal `json:"amount"`
}

// AllocationPreviewResponse carries the split and any reconciliation issue
type AllocationPreviewResponse struct {
	Shares       []ShareResponse  `json:"shares"`
	Total        decimal.Decimal  `json:"total"`
	Drift        *decimal.Decimal `json:"drift,omitempty"`
	UnknownBanks []string         `json:"unknown_banks,omitempty"`
}

func (r MissionRequest) toEntity() *entity.Mission {
	m := &entity.Mission{
		EmployeeCode:   r.EmployeeCode,
		EmployeeName:   r.EmployeeName,
		EmployeeBranch: r.EmployeeBranch,
		MissionDate:    r.MissionDate,
		Bank:           r.Bank,
		Statement:      r.Statement,
		Expenses:       make([]entity.ExpenseItem, 0, len(r.Expenses)),
	}
	for _, e := range r.Expenses {
		m.Expenses = append(m.Expenses, e.toEntity())
	}
	return m
}

func (r ExpenseRequest) toEntity() entity.ExpenseItem {
	item := entity.ExpenseItem{
		ID:     r.ID,
		Type:   r.Type,
		Amount: r.Amount.Decimal,
		Banks:  r.Banks,
	}
	if len(r.BankAllocations) > 0 {
		item.BankAllocations = make(map[string]decimal.Decimal, len(r.BankAllocations))
		for bank, v := range r.BankAllocations {
			item.BankAllocations[bank] = v.Decimal
		}
	}
	return item
}
