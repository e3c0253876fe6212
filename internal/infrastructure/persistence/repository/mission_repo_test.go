package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/mission-expenses/migrations"
	"github.com/garyjia/mission-expenses/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRepo(t *testing.T) (*MissionRepository, *sqlite.DB) {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "missions.db"), MaxOpenConns: 1}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).Run(migrations.FS, "embedded"))

	txDB := sqlite.NewDB(db.DB, logger)
	return NewMissionRepository(txDB, logger).(*MissionRepository), txDB
}

func sampleMission(id string) *entity.Mission {
	date, _ := calendar.NewDate(2024, time.March, 5)
	m := &entity.Mission{
		ID:             id,
		EmployeeCode:   1001,
		EmployeeName:   "أحمد علي",
		EmployeeBranch: "القاهرة",
		MissionDate:    date,
		Bank:           "بنك مصر",
		Statement:      "زيارة فرع",
		CreatedAt:      time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
		Expenses: []entity.ExpenseItem{
			{
				ID:     id + "-e1",
				Type:   entity.ExpenseTypeTransportation,
				Amount: decimal.RequireFromString("150.75"),
				Banks:  []string{"البنك الأهلي", "بنك مصر"},
				BankAllocations: map[string]decimal.Decimal{
					"البنك الأهلي": decimal.RequireFromString("100"),
					"بنك مصر":      decimal.RequireFromString("50.75"),
				},
			},
			{
				ID:     id + "-e2",
				Type:   entity.ExpenseTypeFees,
				Amount: decimal.RequireFromString("20"),
			},
		},
	}
	m.RecalculateTotal()
	return m
}

func TestMissionRepository_RoundTrip(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()
	want := sampleMission("m1")

	require.NoError(t, repo.Upsert(ctx, want))

	got, err := repo.Get(ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.EmployeeCode, got.EmployeeCode)
	assert.Equal(t, want.EmployeeName, got.EmployeeName)
	assert.Equal(t, want.EmployeeBranch, got.EmployeeBranch)
	assert.Equal(t, want.MissionDate, got.MissionDate)
	assert.Equal(t, want.Bank, got.Bank)
	assert.Equal(t, want.Statement, got.Statement)
	assert.True(t, want.TotalAmount.Equal(got.TotalAmount), got.TotalAmount.String())
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	require.Len(t, got.Expenses, 2)
	first := got.Expenses[0]
	assert.Equal(t, "m1-e1", first.ID)
	assert.Equal(t, []string{"البنك الأهلي", "بنك مصر"}, first.Banks)
	assert.True(t, first.BankAllocations["بنك مصر"].Equal(decimal.RequireFromString("50.75")))
	assert.Nil(t, got.Expenses[1].Banks)
	assert.Nil(t, got.Expenses[1].BankAllocations)
}

func TestMissionRepository_GetMissing(t *testing.T) {
	repo, _ := setupRepo(t)

	got, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMissionRepository_UpsertReplacesExpensesAndKeepsOrder(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleMission("a")))
	require.NoError(t, repo.Upsert(ctx, sampleMission("b")))

	updated := sampleMission("a")
	updated.Expenses = updated.Expenses[1:]
	updated.RecalculateTotal()
	require.NoError(t, repo.Upsert(ctx, updated))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	require.Len(t, list[0].Expenses, 1)
	assert.Equal(t, entity.ExpenseTypeFees, list[0].Expenses[0].Type)
	assert.Len(t, list[1].Expenses, 2)
}

func TestMissionRepository_DeleteAndReplaceAll(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sampleMission("a")))
	require.NoError(t, repo.Delete(ctx, "a"))
	require.NoError(t, repo.Delete(ctx, "unknown"))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Upsert(ctx, sampleMission("old")))
	require.NoError(t, repo.ReplaceAll(ctx, []*entity.Mission{sampleMission("x"), sampleMission("y")}))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "x", list[0].ID)
	assert.Equal(t, "y", list[1].ID)
}

func TestMissionRepository_TransactionRollback(t *testing.T) {
	repo, db := setupRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, sampleMission("keep")))

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.ReplaceAll(ctx, []*entity.Mission{sampleMission("new")}))

		inside, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, inside, 1)
		assert.Equal(t, "new", inside[0].ID)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].ID)
}
