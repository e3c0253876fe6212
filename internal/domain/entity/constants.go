package entity

// Canonical expense type keys
const (
	ExpenseTypeTransportation = "transportation"  // انتقالات
	ExpenseTypeFees           = "fees"            // رسوم
	ExpenseTypeTips           = "tips"            // إكراميات
	ExpenseTypeOfficeSupplies = "office-supplies" // أدوات مكتبية
	ExpenseTypeHospitality    = "hospitality"     // ضيافة
)

// ExpenseTypes lists the canonical types in their fixed column order.
var ExpenseTypes = []string{
	ExpenseTypeTransportation,
	ExpenseTypeFees,
	ExpenseTypeTips,
	ExpenseTypeOfficeSupplies,
	ExpenseTypeHospitality,
}

// UnspecifiedBank receives amounts that no bank could be attributed to.
const UnspecifiedBank = "غير محدد"
