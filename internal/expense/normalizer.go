// Package expense maps bilingual expense-type labels to canonical keys.
package expense

import (
	"strings"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
)

// labels holds the display names of each canonical type
type labels struct {
	Arabic  string
	English string
}

var displayLabels = map[string]labels{
	entity.ExpenseTypeTransportation: {Arabic: "انتقالات", English: "Transportation"},
	entity.ExpenseTypeFees:           {Arabic: "رسوم", English: "Fees"},
	entity.ExpenseTypeTips:           {Arabic: "إكراميات", English: "Tips"},
	entity.ExpenseTypeOfficeSupplies: {Arabic: "أدوات مكتبية", English: "Office Supplies"},
	entity.ExpenseTypeHospitality:    {Arabic: "ضيافة", English: "Hospitality"},
}

// variants are matched after Fold.
var variants = map[string]string{
	"انتقالات":       entity.ExpenseTypeTransportation,
	"انتقال":         entity.ExpenseTypeTransportation,
	"مواصلات":        entity.ExpenseTypeTransportation,
	"نقل":            entity.ExpenseTypeTransportation,
	"transportation": entity.ExpenseTypeTransportation,
	"transport":      entity.ExpenseTypeTransportation,
	"travel":         entity.ExpenseTypeTransportation,

	"رسوم":    entity.ExpenseTypeFees,
	"رسم":     entity.ExpenseTypeFees,
	"fees":    entity.ExpenseTypeFees,
	"fee":     entity.ExpenseTypeFees,
	"charges": entity.ExpenseTypeFees,

	"اكراميات": entity.ExpenseTypeTips,
	"اكرامية":  entity.ExpenseTypeTips,
	"اكراميه":  entity.ExpenseTypeTips,
	"بقشيش":    entity.ExpenseTypeTips,
	"tips":     entity.ExpenseTypeTips,
	"tip":      entity.ExpenseTypeTips,
	"gratuity": entity.ExpenseTypeTips,

	"ادوات مكتبية":    entity.ExpenseTypeOfficeSupplies,
	"ادوات مكتبيه":    entity.ExpenseTypeOfficeSupplies,
	"ادوات":           entity.ExpenseTypeOfficeSupplies,
	"مستلزمات مكتبية": entity.ExpenseTypeOfficeSupplies,
	"office-supplies": entity.ExpenseTypeOfficeSupplies,
	"office supplies": entity.ExpenseTypeOfficeSupplies,
	"office_supplies": entity.ExpenseTypeOfficeSupplies,
	"officesupplies":  entity.ExpenseTypeOfficeSupplies,
	"stationery":      entity.ExpenseTypeOfficeSupplies,

	"ضيافة":       entity.ExpenseTypeHospitality,
	"ضيافه":       entity.ExpenseTypeHospitality,
	"hospitality": entity.ExpenseTypeHospitality,
	"catering":    entity.ExpenseTypeHospitality,
}

// Normalize returns the canonical key for label. Unknown labels are
// returned unchanged so future types survive a round trip.
func Normalize(label string) string {
	if canonical, ok := variants[Fold(label)]; ok {
		return canonical
	}
	return label
}

// IsCanonical reports whether t is one of the known canonical keys.
func IsCanonical(t string) bool {
	_, ok := displayLabels[t]
	return ok
}

// ArabicLabel returns the Arabic display name, or t itself when unknown.
func ArabicLabel(t string) string {
	if l, ok := displayLabels[t]; ok {
		return l.Arabic
	}
	return t
}

// EnglishLabel returns the English display name, or t itself when unknown.
func EnglishLabel(t string) string {
	if l, ok := displayLabels[t]; ok {
		return l.English
	}
	return t
}

var arabicFolds = strings.NewReplacer(
	"أ", "ا",
	"إ", "ا",
	"آ", "ا",
	"ٱ", "ا",
	"ى", "ي",
	"ـ", "", // tatweel
)

// Fold lowercases, trims, collapses whitespace and unifies Arabic letter
// variants so decorated labels compare equal.
func Fold(s string) string {
	s = arabicFolds.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
