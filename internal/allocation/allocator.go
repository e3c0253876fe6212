// Package allocation attributes an expense amount to the banks it was
// charged against.
package allocation

import (
	"sort"
	"strings"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Share is one bank's part of an expense.
type Share struct {
	Bank   string
	Amount decimal.Decimal
}

// Shares is an ordered allocation result; order follows the expense's
// bank list.
type Shares []Share

// Map converts the shares to a bank → amount map.
func (s Shares) Map() map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(s))
	for _, sh := range s {
		m[sh.Bank] = m[sh.Bank].Add(sh.Amount)
	}
	return m
}

// Total sums all shares.
func (s Shares) Total() decimal.Decimal {
	total := decimal.Zero
	for _, sh := range s {
		total = total.Add(sh.Amount)
	}
	return total
}

// Allocate splits expense.Amount across its banks. Explicit allocations
// win for the banks they name; every other selected bank receives
// Amount / len(Banks) truncated to cents, and the last of them also takes
// the leftover cents. Without banks the whole amount goes to
// fallbackBank, or to entity.UnspecifiedBank when that is blank.
func Allocate(expense entity.ExpenseItem, fallbackBank string) Shares {
	banks := uniqueBanks(expense.Banks)
	if len(banks) == 0 {
		target := strings.TrimSpace(fallbackBank)
		if target == "" {
			target = entity.UnspecifiedBank
		}
		return Shares{{Bank: target, Amount: expense.Amount}}
	}

	count := decimal.NewFromInt(int64(len(banks)))
	equal := expense.Amount.Div(count).Truncate(centPlaces)
	remainder := expense.Amount.Sub(equal.Mul(count))

	last := -1
	for i, bank := range banks {
		if _, ok := expense.BankAllocations[bank]; !ok {
			last = i
		}
	}

	shares := make(Shares, 0, len(banks))
	for i, bank := range banks {
		amount := equal
		if explicit, ok := expense.BankAllocations[bank]; ok {
			amount = explicit
		} else if i == last {
			amount = amount.Add(remainder)
		}
		shares = append(shares, Share{Bank: bank, Amount: amount})
	}
	return shares
}

const centPlaces = 2

// Issue describes an allocation that does not reconcile with its expense.
type Issue struct {
	ExpenseID string
	// Drift is allocated total minus Amount; zero when only UnknownBanks is set.
	Drift        decimal.Decimal
	UnknownBanks []string
}

// Tolerance below which an allocation drift is ignored.
var Tolerance = decimal.New(1, -2)

// Check inspects explicit allocations. It returns nil for expenses whose
// attribution is consistent with their amount.
func Check(expense entity.ExpenseItem, fallbackBank string) *Issue {
	if len(expense.BankAllocations) == 0 {
		return nil
	}

	var unknown []string
	for bank := range expense.BankAllocations {
		if !expense.HasBank(bank) {
			unknown = append(unknown, bank)
		}
	}

	drift := Allocate(expense, fallbackBank).Total().Sub(expense.Amount)
	if drift.Abs().LessThanOrEqual(Tolerance) {
		drift = decimal.Zero
	}
	if drift.IsZero() && len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &Issue{ExpenseID: expense.ID, Drift: drift, UnknownBanks: unknown}
}

func uniqueBanks(banks []string) []string {
	seen := make(map[string]bool, len(banks))
	out := make([]string, 0, len(banks))
	for _, b := range banks {
		b = strings.TrimSpace(b)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}
