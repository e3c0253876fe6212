package service

import (
	"sort"

	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
)

// ReferenceService exposes the employee and bank directory
type ReferenceService interface {
	// Employees are ordered by code
	Employees() []entity.Employee
	Employee(code int) (entity.Employee, bool)
	// Banks are ordered by name
	Banks() []entity.Bank
}

type referenceServiceImpl struct {
	data port.ReferenceData
}

// NewReferenceService creates a new ReferenceService
func NewReferenceService(data port.ReferenceData) ReferenceService {
	return &referenceServiceImpl{data: data}
}

func (s *referenceServiceImpl) Employees() []entity.Employee {
	employees := append([]entity.Employee(nil), s.data.Employees()...)
	sort.Slice(employees, func(i, j int) bool { return employees[i].Code < employees[j].Code })
	return employees
}

func (s *referenceServiceImpl) Employee(code int) (entity.Employee, bool) {
	return s.data.Employee(code)
}

func (s *referenceServiceImpl) Banks() []entity.Bank {
	banks := append([]entity.Bank(nil), s.data.Banks()...)
	sort.Slice(banks, func(i, j int) bool { return banks[i].Name < banks[j].Name })
	return banks
}
