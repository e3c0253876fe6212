package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/memory"
	"github.com/garyjia/mission-expenses/internal/spreadsheet"
	"github.com/garyjia/mission-expenses/internal/tabular"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedMissions(t *testing.T, repo *memory.MissionRepository) {
	t.Helper()
	s := newTestMissionService(repo, &mockLogger{})
	_, err := s.Create(context.Background(), &entity.Mission{
		EmployeeCode: 1001,
		MissionDate:  date(2024, 3, 5),
		Statement:    "=HYPERLINK(\"x\")",
		Expenses: []entity.ExpenseItem{
			{Type: "transportation", Amount: amount("100"), Banks: []string{"بنك مصر", "البنك الأهلي"}},
			{Type: "fees", Amount: amount("30"), Banks: []string{"بنك مصر"}},
		},
	})
	require.NoError(t, err)
	_, err = s.Create(context.Background(), &entity.Mission{
		EmployeeCode: 1002,
		MissionDate:  date(2024, 3, 7),
		Expenses: []entity.ExpenseItem{
			{Type: "tips", Amount: amount("15"), Banks: []string{"A", "B", "C", "D", "E"}},
		},
	})
	require.NoError(t, err)
}

func newTestTransferService(repo *memory.MissionRepository, archive *mockFileStorage, logger *mockLogger) *transferServiceImpl {
	s := NewTransferService(repo, repo, archive, TransferOptions{ArchiveExports: archive != nil}, logger).(*transferServiceImpl)
	s.now = func() time.Time { return testNow }
	return s
}

func TestTransferService_ExportImportAppend(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMissionRepository()
	seedMissions(t, repo)
	archive := &mockFileStorage{}
	logger := &mockLogger{}
	s := newTestTransferService(repo, archive, logger)

	exported, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, exported.Missions)
	assert.Equal(t, "missions-20240601-093000.xlsx", exported.Filename)
	assert.Equal(t, "2024/06/missions-20240601-093000.xlsx", exported.ArchivedPath)
	assert.Equal(t, exported.Data, archive.saved[exported.ArchivedPath])
	require.Len(t, exported.Warnings, 1)
	assert.Equal(t, tabular.WarnSlotsTruncated, exported.Warnings[0].Kind)

	report, err := s.Import(ctx, exported.Data, ImportAppend)
	require.NoError(t, err)
	assert.Equal(t, ImportAppend, report.Mode)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 4, report.Total)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, tabular.WarnTotalMismatch, report.Warnings[0].Kind)
	assert.Equal(t, 2, logger.count("warn"))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	ids := make(map[string]bool)
	for _, m := range all {
		assert.False(t, ids[m.ID], "duplicate id %s", m.ID)
		ids[m.ID] = true
	}

	var reimported *entity.Mission
	for _, m := range all[2:] {
		if m.EmployeeCode == 1001 {
			reimported = m
		}
	}
	require.NotNil(t, reimported)
	assert.Equal(t, "=HYPERLINK(\"x\")", reimported.Statement)
	assert.True(t, reimported.TotalAmount.Equal(amount("130")))
	assert.Equal(t, testNow, reimported.CreatedAt)
}

func TestTransferService_ImportReplace(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMissionRepository()
	seedMissions(t, repo)
	s := newTestTransferService(repo, nil, &mockLogger{})

	exported, err := s.Export(ctx)
	require.NoError(t, err)
	assert.Empty(t, exported.ArchivedPath)

	report, err := s.Import(ctx, exported.Data, ImportReplace)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 2, report.Total)

	all, _ := repo.List(ctx)
	require.Len(t, all, 2)
	for _, m := range all {
		assert.NotContains(t, []string{"id-1", "id-4"}, m.ID)
	}
}

func TestTransferService_ImportFailuresPersistNothing(t *testing.T) {
	noHeader := excelize.NewFile()
	row := []interface{}{"foo", "bar"}
	require.NoError(t, noHeader.SetSheetRow("Sheet1", "A1", &row))
	buf, err := noHeader.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, noHeader.Close())

	headerOnly, err := spreadsheet.WriteMissions(nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		data    []byte
		mode    ImportMode
		wantErr error
	}{
		{"not a workbook", []byte("garbage"), ImportAppend, spreadsheet.ErrUnreadableWorkbook},
		{"no missions sheet", buf.Bytes(), ImportReplace, tabular.ErrNoMissionsSheet},
		{"no data rows", headerOnly, ImportReplace, tabular.ErrNoDataRows},
		{"bad mode", headerOnly, ImportMode("merge"), ErrInvalidImportMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := memory.NewMissionRepository()
			seedMissions(t, repo)
			s := newTestTransferService(repo, nil, &mockLogger{})

			report, err := s.Import(ctx, tt.data, tt.mode)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)

			all, _ := repo.List(ctx)
			assert.Len(t, all, 2)
		})
	}
}

func TestTransferService_ImportRollsBackOnStoreError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMissionRepository()
	seedMissions(t, store)

	exported, err := newTestTransferService(store, nil, &mockLogger{}).Export(ctx)
	require.NoError(t, err)

	boom := errors.New("constraint failed")
	calls := 0
	repo := &mockMissionRepo{
		MissionRepository: store,
		upsertFunc: func(ctx context.Context, m *entity.Mission) error {
			calls++
			if calls == 2 {
				return boom
			}
			return store.Upsert(ctx, m)
		},
	}
	s := NewTransferService(repo, store, nil, TransferOptions{}, &mockLogger{})

	_, err = s.Import(ctx, exported.Data, ImportAppend)
	require.ErrorIs(t, err, boom)

	all, _ := store.List(ctx)
	assert.Len(t, all, 2)
}

func TestTransferService_ArchiveFailureDoesNotFailExport(t *testing.T) {
	repo := memory.NewMissionRepository()
	seedMissions(t, repo)
	archive := &mockFileStorage{saveFunc: func(ctx context.Context, path string, content []byte) error {
		return errors.New("read-only")
	}}
	logger := &mockLogger{}
	s := newTestTransferService(repo, archive, logger)

	exported, err := s.Export(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, exported.Data)
	assert.Empty(t, exported.ArchivedPath)
	assert.Equal(t, 1, logger.count("error"))
}

func TestTransferService_ArchivedExports(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMissionRepository()
	seedMissions(t, repo)
	archive := &mockFileStorage{}
	s := newTestTransferService(repo, archive, &mockLogger{})

	exported, err := s.Export(ctx)
	require.NoError(t, err)
	archive.saved["2024/06/notes.txt"] = []byte("skip")

	listed, err := s.Archived(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ArchivedExport{{
		Path:     "2024/06/missions-20240601-093000.xlsx",
		Filename: "missions-20240601-093000.xlsx",
	}}, listed)

	opened, err := s.OpenArchived(ctx, "/"+exported.ArchivedPath)
	require.NoError(t, err)
	assert.Equal(t, exported.Data, opened.Data)
	assert.Equal(t, "missions-20240601-093000.xlsx", opened.Filename)

	require.NoError(t, s.DeleteArchived(ctx, exported.ArchivedPath))
	assert.False(t, archive.Exists(ctx, exported.ArchivedPath))

	_, err = s.OpenArchived(ctx, exported.ArchivedPath)
	assert.ErrorIs(t, err, ErrArchivedNotFound)
	assert.ErrorIs(t, s.DeleteArchived(ctx, exported.ArchivedPath), ErrArchivedNotFound)
}

func TestTransferService_ArchivedPathValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestTransferService(memory.NewMissionRepository(), &mockFileStorage{}, &mockLogger{})

	for _, p := range []string{"", "/", "..", "../secret.xlsx", "2024/../../x.xlsx", "2024/06/notes.txt"} {
		_, err := s.OpenArchived(ctx, p)
		assert.ErrorIs(t, err, ErrInvalidArchivedPath, p)
	}
}

func TestTransferService_ArchiveDisabled(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewMissionRepository()
	s := NewTransferService(repo, repo, nil, TransferOptions{}, &mockLogger{})

	_, err := s.Archived(ctx)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
	_, err = s.OpenArchived(ctx, "2024/06/a.xlsx")
	assert.ErrorIs(t, err, ErrArchiveDisabled)
	assert.ErrorIs(t, s.DeleteArchived(ctx, "2024/06/a.xlsx"), ErrArchiveDisabled)
}

func TestTransferService_ArchiveListFailure(t *testing.T) {
	archive := &mockFileStorage{listFunc: func(ctx context.Context, dir string) ([]string, error) {
		return nil, errors.New("disk gone")
	}}
	logger := &mockLogger{}
	s := newTestTransferService(memory.NewMissionRepository(), archive, logger)

	_, err := s.Archived(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, logger.count("error"))
}

func TestParseImportMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ImportMode
		wantErr bool
	}{
		{"", ImportAppend, false},
		{"append", ImportAppend, false},
		{" Replace ", ImportReplace, false},
		{"merge", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseImportMode(tt.in, ImportAppend)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImportMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
