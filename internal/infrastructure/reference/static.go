// Package reference serves the employee and bank directory from
// configuration.
package reference

import (
	"strings"

	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
)

// Static is an immutable in-memory directory
type Static struct {
	employees []entity.Employee
	byCode    map[int]entity.Employee
	banks     []entity.Bank
	bankNames map[string]bool
}

// NewStatic builds a directory. Blank bank names are skipped and
// duplicates keep their first occurrence.
func NewStatic(employees []entity.Employee, banks []string) *Static {
	s := &Static{
		byCode:    make(map[int]entity.Employee, len(employees)),
		bankNames: make(map[string]bool, len(banks)),
	}
	for _, e := range employees {
		if _, dup := s.byCode[e.Code]; dup {
			continue
		}
		s.byCode[e.Code] = e
		s.employees = append(s.employees, e)
	}
	for _, name := range banks {
		name = strings.TrimSpace(name)
		if name == "" || s.bankNames[name] {
			continue
		}
		s.bankNames[name] = true
		s.banks = append(s.banks, entity.Bank{Name: name})
	}
	return s
}

func (s *Static) Employees() []entity.Employee {
	return append([]entity.Employee(nil), s.employees...)
}

func (s *Static) Employee(code int) (entity.Employee, bool) {
	e, ok := s.byCode[code]
	return e, ok
}

func (s *Static) Banks() []entity.Bank {
	return append([]entity.Bank(nil), s.banks...)
}

// HasBank reports whether name is listed. An empty directory accepts
// every bank.
func (s *Static) HasBank(name string) bool {
	if len(s.bankNames) == 0 {
		return true
	}
	return s.bankNames[strings.TrimSpace(name)]
}

var _ port.ReferenceData = (*Static)(nil)
