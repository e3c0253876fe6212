package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissionService_Create(t *testing.T) {
	tests := []struct {
		name    string
		input   *entity.Mission
		wantErr error
		check   func(t *testing.T, m *entity.Mission)
	}{
		{
			name: "fills employee from directory and normalizes types",
			input: &entity.Mission{
				EmployeeCode: 1001,
				Expenses: []entity.ExpenseItem{
					{Type: "انتقالات", Amount: amount("100"), Banks: []string{" بنك مصر ", "بنك مصر", "البنك الأهلي"}},
					{Type: "Tips", Amount: amount("20.5")},
				},
			},
			check: func(t *testing.T, m *entity.Mission) {
				assert.Equal(t, "id-1", m.ID)
				assert.Equal(t, "أحمد علي", m.EmployeeName)
				assert.Equal(t, "القاهرة", m.EmployeeBranch)
				assert.Equal(t, "2024-06-01", m.MissionDate.String())
				assert.Equal(t, testNow, m.CreatedAt)
				require.Len(t, m.Expenses, 2)
				assert.Equal(t, entity.ExpenseTypeTransportation, m.Expenses[0].Type)
				assert.Equal(t, []string{"بنك مصر", "البنك الأهلي"}, m.Expenses[0].Banks)
				assert.Equal(t, entity.ExpenseTypeTips, m.Expenses[1].Type)
				assert.NotEmpty(t, m.Expenses[1].ID)
				assert.True(t, m.TotalAmount.Equal(amount("120.5")))
			},
		},
		{
			name:  "keeps explicit name and stores no expenses",
			input: &entity.Mission{EmployeeCode: 5, EmployeeName: "Guest", MissionDate: date(2024, 2, 29)},
			check: func(t *testing.T, m *entity.Mission) {
				assert.Equal(t, "Guest", m.EmployeeName)
				assert.Equal(t, "2024-02-29", m.MissionDate.String())
				assert.NotNil(t, m.Expenses)
				assert.True(t, m.TotalAmount.IsZero())
			},
		},
		{
			name:    "unknown employee without name",
			input:   &entity.Mission{EmployeeCode: 77},
			wantErr: ErrInvalidMission,
		},
		{
			name:    "missing code",
			input:   &entity.Mission{EmployeeName: "x"},
			wantErr: ErrInvalidMission,
		},
		{
			name:    "nil payload",
			wantErr: ErrInvalidMission,
		},
		{
			name: "negative amount",
			input: &entity.Mission{EmployeeCode: 1001, Expenses: []entity.ExpenseItem{
				{Type: entity.ExpenseTypeFees, Amount: amount("-1")},
			}},
			wantErr: ErrInvalidExpense,
		},
		{
			name: "allocation outside selected banks",
			input: &entity.Mission{EmployeeCode: 1001, Expenses: []entity.ExpenseItem{
				{
					Type:            entity.ExpenseTypeFees,
					Amount:          amount("10"),
					Banks:           []string{"بنك مصر"},
					BankAllocations: map[string]decimal.Decimal{"البنك الأهلي": amount("10")},
				},
			}},
			wantErr: ErrInvalidExpense,
		},
		{
			name: "missing type",
			input: &entity.Mission{EmployeeCode: 1001, Expenses: []entity.ExpenseItem{
				{Type: "  ", Amount: amount("10")},
			}},
			wantErr: ErrInvalidExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewMissionRepository()
			s := newTestMissionService(repo, &mockLogger{})

			got, err := s.Create(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				list, _ := repo.List(context.Background())
				assert.Empty(t, list)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)

			stored, err := repo.Get(context.Background(), got.ID)
			require.NoError(t, err)
			assert.True(t, stored.TotalAmount.Equal(got.TotalAmount))
		})
	}
}

func TestMissionService_CreateDoesNotAliasInput(t *testing.T) {
	repo := memory.NewMissionRepository()
	s := newTestMissionService(repo, &mockLogger{})

	input := &entity.Mission{EmployeeCode: 1001, Expenses: []entity.ExpenseItem{
		{Type: "fees", Amount: amount("10"), Banks: []string{"بنك مصر"}},
	}}
	_, err := s.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Empty(t, input.ID)
	assert.Equal(t, "fees", input.Expenses[0].Type)
	assert.Empty(t, input.Expenses[0].ID)
}

func TestMissionService_ExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMissionRepository()
	logger := &mockLogger{}
	s := newTestMissionService(repo, logger)

	m, err := s.Create(ctx, &entity.Mission{EmployeeCode: 1002})
	require.NoError(t, err)

	m, err = s.AddExpense(ctx, m.ID, entity.ExpenseItem{ID: "ignored", Type: "رسوم", Amount: amount("40"), Banks: []string{"بنك مصر"}})
	require.NoError(t, err)
	require.Len(t, m.Expenses, 1)
	expenseID := m.Expenses[0].ID
	assert.NotEqual(t, "ignored", expenseID)
	assert.True(t, m.TotalAmount.Equal(amount("40")))

	m, err = s.AddExpense(ctx, m.ID, entity.ExpenseItem{Type: "ضيافة", Amount: amount("12.25")})
	require.NoError(t, err)
	assert.True(t, m.TotalAmount.Equal(amount("52.25")))

	m, err = s.UpdateExpense(ctx, m.ID, expenseID, entity.ExpenseItem{
		Type:            entity.ExpenseTypeFees,
		Amount:          amount("60"),
		Banks:           []string{"بنك مصر", "البنك الأهلي"},
		BankAllocations: map[string]decimal.Decimal{"بنك مصر": amount("50")},
	})
	require.NoError(t, err)
	assert.Equal(t, expenseID, m.Expenses[0].ID)
	assert.True(t, m.TotalAmount.Equal(amount("72.25")))
	assert.Equal(t, 1, logger.count("warn"), "allocation drift is flagged")

	m, err = s.RemoveExpense(ctx, m.ID, expenseID)
	require.NoError(t, err)
	require.Len(t, m.Expenses, 1)
	assert.True(t, m.TotalAmount.Equal(amount("12.25")))

	_, err = s.RemoveExpense(ctx, m.ID, "nope")
	assert.ErrorIs(t, err, ErrExpenseNotFound)
	_, err = s.UpdateExpense(ctx, m.ID, "nope", entity.ExpenseItem{Type: "fees"})
	assert.ErrorIs(t, err, ErrExpenseNotFound)
	_, err = s.AddExpense(ctx, "missing", entity.ExpenseItem{Type: "fees"})
	assert.ErrorIs(t, err, ErrMissionNotFound)

	stored, err := s.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(amount("12.25")))
}

func TestMissionService_FailedMutationLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMissionRepository()
	s := newTestMissionService(repo, &mockLogger{})

	m, err := s.Create(ctx, &entity.Mission{EmployeeCode: 1002, Expenses: []entity.ExpenseItem{
		{Type: "fees", Amount: amount("5")},
	}})
	require.NoError(t, err)

	_, err = s.AddExpense(ctx, m.ID, entity.ExpenseItem{Type: "fees", Amount: amount("-3")})
	require.ErrorIs(t, err, ErrInvalidExpense)

	stored, _ := s.Get(ctx, m.ID)
	assert.Len(t, stored.Expenses, 1)
	assert.True(t, stored.TotalAmount.Equal(amount("5")))
}

func TestMissionService_UpdateListDelete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMissionRepository()
	s := newTestMissionService(repo, &mockLogger{})

	older, err := s.Create(ctx, &entity.Mission{EmployeeCode: 1001, MissionDate: date(2024, 1, 10)})
	require.NoError(t, err)
	newer, err := s.Create(ctx, &entity.Mission{EmployeeCode: 1002, MissionDate: date(2024, 3, 1)})
	require.NoError(t, err)

	updated, err := s.Update(ctx, older.ID, &entity.Mission{
		EmployeeCode: 1001,
		MissionDate:  date(2024, 4, 1),
		Statement:    "moved",
		Expenses:     []entity.ExpenseItem{{Type: "tips", Amount: amount("3")}},
	})
	require.NoError(t, err)
	assert.Equal(t, older.ID, updated.ID)
	assert.Equal(t, older.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "moved", updated.Statement)
	assert.True(t, updated.TotalAmount.Equal(amount("3")))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)

	_, err = s.Update(ctx, "missing", &entity.Mission{EmployeeCode: 1001})
	assert.ErrorIs(t, err, ErrMissionNotFound)

	require.NoError(t, s.Delete(ctx, older.ID))
	assert.ErrorIs(t, s.Delete(ctx, older.ID), ErrMissionNotFound)
	_, err = s.Get(ctx, older.ID)
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestMissionService_RepositoryErrors(t *testing.T) {
	boom := errors.New("disk full")
	repo := &mockMissionRepo{
		MissionRepository: memory.NewMissionRepository(),
		upsertFunc:        func(ctx context.Context, m *entity.Mission) error { return boom },
		listFunc:          func(ctx context.Context) ([]*entity.Mission, error) { return nil, boom },
	}
	logger := &mockLogger{}
	s := NewMissionService(repo, testDirectory(), repo.MissionRepository, logger)

	_, err := s.Create(context.Background(), &entity.Mission{EmployeeCode: 1001})
	assert.ErrorIs(t, err, boom)
	_, err = s.List(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, logger.count("error"))
}

func TestMissionService_PreviewAllocation(t *testing.T) {
	s := newTestMissionService(memory.NewMissionRepository(), &mockLogger{})

	shares, issue := s.PreviewAllocation(entity.ExpenseItem{Type: "fees", Amount: amount("100"), Banks: []string{"A", "B"}}, "")
	assert.Nil(t, issue)
	require.Len(t, shares, 2)
	assert.True(t, shares[0].Amount.Equal(amount("50")))

	shares, issue = s.PreviewAllocation(entity.ExpenseItem{Type: "fees", Amount: amount("40")}, "X")
	assert.Nil(t, issue)
	assert.Equal(t, "X", shares[0].Bank)

	_, issue = s.PreviewAllocation(entity.ExpenseItem{
		Amount:          amount("100"),
		Banks:           []string{"A"},
		BankAllocations: map[string]decimal.Decimal{"A": amount("90")},
	}, "")
	require.NotNil(t, issue)
	assert.True(t, issue.Drift.Equal(amount("-10")))
}
