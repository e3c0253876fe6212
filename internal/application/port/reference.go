package port

import "github.com/garyjia/mission-expenses/internal/domain/entity"

// ReferenceData is the read-only employee and bank directory.
type ReferenceData interface {
	Employees() []entity.Employee
	// Employee returns false for unknown codes
	Employee(code int) (entity.Employee, bool)
	Banks() []entity.Bank
	HasBank(name string) bool
}
