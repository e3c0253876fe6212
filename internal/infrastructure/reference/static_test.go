package reference

import (
	"testing"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestStatic(t *testing.T) {
	s := NewStatic(
		[]entity.Employee{
			{Code: 7, Name: "Omar", Branch: "Alex"},
			{Code: 3, Name: "Sara", Branch: "Giza"},
			{Code: 7, Name: "Duplicate"},
		},
		[]string{"بنك مصر", " ", "CIB", "بنك مصر"},
	)

	assert.Len(t, s.Employees(), 2)
	e, ok := s.Employee(7)
	assert.True(t, ok)
	assert.Equal(t, "Omar", e.Name)
	_, ok = s.Employee(99)
	assert.False(t, ok)

	assert.Equal(t, []entity.Bank{{Name: "بنك مصر"}, {Name: "CIB"}}, s.Banks())
	assert.True(t, s.HasBank(" CIB "))
	assert.False(t, s.HasBank("HSBC"))

	assert.True(t, NewStatic(nil, nil).HasBank("anything"))
}
