package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MissionRepository implements port.MissionRepository on the missions and
// expense_items tables. Amounts are stored as decimal text, banks and
// allocations as JSON.
type MissionRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewMissionRepository creates a new mission repository
func NewMissionRepository(db *sqlite.DB, logger *zap.Logger) port.MissionRepository {
	return &MissionRepository{
		db:     db,
		logger: logger,
	}
}

const missionColumns = `id, employee_code, employee_name, employee_branch,
	mission_date, bank, statement, total_amount, created_at`

// List returns every mission in insertion order
func (r *MissionRepository) List(ctx context.Context) ([]*entity.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions ORDER BY rowid ASC`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list missions", zap.Error(err))
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	defer rows.Close()

	missions := make([]*entity.Mission, 0)
	byID := make(map[string]*entity.Mission)
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate missions: %w", err)
	}

	if err := r.loadExpenses(ctx, byID, ""); err != nil {
		return nil, err
	}
	return missions, nil
}

// Get retrieves a mission by ID
func (r *MissionRepository) Get(ctx context.Context, id string) (*entity.Mission, error) {
	query := `SELECT ` + missionColumns + ` FROM missions WHERE id = ?`

	m, err := scanMission(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get mission by ID", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get mission: %w", err)
	}

	if err := r.loadExpenses(ctx, map[string]*entity.Mission{m.ID: m}, m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

// Upsert writes the mission row and replaces its expenses
func (r *MissionRepository) Upsert(ctx context.Context, mission *entity.Mission) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		return r.write(ctx, mission)
	})
}

// Delete removes the mission and its expenses
func (r *MissionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.getExecutor(ctx)
		if _, err := exec.ExecContext(ctx, `DELETE FROM expense_items WHERE mission_id = ?`, id); err != nil {
			r.logger.Error("Failed to delete expenses", zap.String("mission_id", id), zap.Error(err))
			return fmt.Errorf("failed to delete expenses: %w", err)
		}
		if _, err := exec.ExecContext(ctx, `DELETE FROM missions WHERE id = ?`, id); err != nil {
			r.logger.Error("Failed to delete mission", zap.String("id", id), zap.Error(err))
			return fmt.Errorf("failed to delete mission: %w", err)
		}
		return nil
	})
}

// ReplaceAll empties both tables and writes missions in order
func (r *MissionRepository) ReplaceAll(ctx context.Context, missions []*entity.Mission) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.getExecutor(ctx)
		for _, table := range []string{"expense_items", "missions"} {
			if _, err := exec.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				r.logger.Error("Failed to clear table", zap.String("table", table), zap.Error(err))
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		for _, m := range missions {
			if err := r.write(ctx, m); err != nil {
				return err
			}
		}
		r.logger.Info("Replaced stored missions", zap.Int("count", len(missions)))
		return nil
	})
}

// write must run inside a transaction
func (r *MissionRepository) write(ctx context.Context, m *entity.Mission) error {
	exec := r.getExecutor(ctx)

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO missions (` + missionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_code = excluded.employee_code,
			employee_name = excluded.employee_name,
			employee_branch = excluded.employee_branch,
			mission_date = excluded.mission_date,
			bank = excluded.bank,
			statement = excluded.statement,
			total_amount = excluded.total_amount,
			created_at = excluded.created_at
	`
	_, err := exec.ExecContext(ctx, query,
		m.ID,
		m.EmployeeCode,
		m.EmployeeName,
		m.EmployeeBranch,
		m.MissionDate,
		m.Bank,
		m.Statement,
		m.TotalAmount,
		createdAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert mission", zap.String("id", m.ID), zap.Error(err))
		return fmt.Errorf("failed to upsert mission: %w", err)
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM expense_items WHERE mission_id = ?`, m.ID); err != nil {
		r.logger.Error("Failed to clear expenses", zap.String("mission_id", m.ID), zap.Error(err))
		return fmt.Errorf("failed to clear expenses: %w", err)
	}

	insert := `
		INSERT INTO expense_items (
			mission_id, position, id, expense_type, amount, banks, bank_allocations
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	for i, e := range m.Expenses {
		banks, err := json.Marshal(e.Banks)
		if err != nil {
			return fmt.Errorf("failed to encode banks: %w", err)
		}
		allocations, err := json.Marshal(e.BankAllocations)
		if err != nil {
			return fmt.Errorf("failed to encode allocations: %w", err)
		}

		if _, err := exec.ExecContext(ctx, insert,
			m.ID, i, e.ID, e.Type, e.Amount, string(banks), string(allocations),
		); err != nil {
			r.logger.Error("Failed to insert expense",
				zap.String("mission_id", m.ID),
				zap.String("expense_id", e.ID),
				zap.Error(err))
			return fmt.Errorf("failed to insert expense: %w", err)
		}
	}
	return nil
}

// loadExpenses attaches expense rows to their missions. An empty
// missionID loads every row.
func (r *MissionRepository) loadExpenses(ctx context.Context, byID map[string]*entity.Mission, missionID string) error {
	query := `
		SELECT mission_id, id, expense_type, amount, banks, bank_allocations
		FROM expense_items
	`
	var args []interface{}
	if missionID != "" {
		query += ` WHERE mission_id = ?`
		args = append(args, missionID)
	}
	query += ` ORDER BY mission_id, position`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to load expenses", zap.Error(err))
		return fmt.Errorf("failed to load expenses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			owner       string
			item        entity.ExpenseItem
			banks       string
			allocations string
		)
		if err := rows.Scan(&owner, &item.ID, &item.Type, &item.Amount, &banks, &allocations); err != nil {
			return fmt.Errorf("failed to scan expense: %w", err)
		}
		if err := json.Unmarshal([]byte(banks), &item.Banks); err != nil {
			return fmt.Errorf("failed to decode banks of expense %s: %w", item.ID, err)
		}
		if err := json.Unmarshal([]byte(allocations), &item.BankAllocations); err != nil {
			return fmt.Errorf("failed to decode allocations of expense %s: %w", item.ID, err)
		}

		if m, ok := byID[owner]; ok {
			m.Expenses = append(m.Expenses, item)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMission(row rowScanner) (*entity.Mission, error) {
	var m entity.Mission
	var total decimal.Decimal
	err := row.Scan(
		&m.ID,
		&m.EmployeeCode,
		&m.EmployeeName,
		&m.EmployeeBranch,
		&m.MissionDate,
		&m.Bank,
		&m.Statement,
		&total,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.TotalAmount = total
	m.Expenses = []entity.ExpenseItem{}
	return &m, nil
}

func (r *MissionRepository) getExecutor(ctx context.Context) sqlite.Querier {
	return sqlite.Executor(ctx, r.db.DB)
}

// Verify interface compliance
var _ port.MissionRepository = (*MissionRepository)(nil)
