package tabular

import (
	"fmt"
	"strings"
)

// WarningKind classifies a non-fatal problem.
type WarningKind string

const (
	WarnInvalidDate           WarningKind = "invalid_date"
	WarnTotalMismatch         WarningKind = "total_mismatch"
	WarnSlotTotalMismatch     WarningKind = "slot_total_mismatch"
	WarnSlotWithoutBank       WarningKind = "slot_without_bank"
	WarnSlotsTruncated        WarningKind = "slots_truncated"
	WarnAllocationMismatch    WarningKind = "allocation_mismatch"
	WarnUnknownAllocationBank WarningKind = "unknown_allocation_bank"
	WarnNonCanonicalType      WarningKind = "non_canonical_type"
	WarnOrphanExpense         WarningKind = "orphan_expense"
)

// Warning is reported alongside a result instead of failing it.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Sheet     string      `json:"sheet,omitempty"`
	Row       int         `json:"row,omitempty"`
	MissionID string      `json:"mission_id,omitempty"`
	Employee  string      `json:"employee,omitempty"`
	Raw       string      `json:"raw,omitempty"`
	Message   string      `json:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(string(w.Kind))
	if w.Sheet != "" {
		fmt.Fprintf(&b, " sheet=%q", w.Sheet)
	}
	if w.Row > 0 {
		fmt.Fprintf(&b, " row=%d", w.Row)
	}
	if w.Employee != "" {
		fmt.Fprintf(&b, " employee=%q", w.Employee)
	}
	if w.Raw != "" {
		fmt.Fprintf(&b, " raw=%q", w.Raw)
	}
	b.WriteString(": ")
	b.WriteString(w.Message)
	return b.String()
}
