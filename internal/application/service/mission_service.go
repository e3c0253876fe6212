package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/garyjia/mission-expenses/internal/allocation"
	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/expense"
	"github.com/google/uuid"
)

// Logger interface for service logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MissionService manages missions and their expenses. Every mutation
// keeps TotalAmount equal to the sum of the expense amounts.
type MissionService interface {
	// Create stores a new mission under a fresh id
	Create(ctx context.Context, mission *entity.Mission) (*entity.Mission, error)

	// Update replaces the editable fields and expenses of a mission
	Update(ctx context.Context, id string, mission *entity.Mission) (*entity.Mission, error)

	Get(ctx context.Context, id string) (*entity.Mission, error)

	// List returns missions newest first
	List(ctx context.Context) ([]*entity.Mission, error)

	Delete(ctx context.Context, id string) error

	AddExpense(ctx context.Context, missionID string, item entity.ExpenseItem) (*entity.Mission, error)
	UpdateExpense(ctx context.Context, missionID, expenseID string, item entity.ExpenseItem) (*entity.Mission, error)
	RemoveExpense(ctx context.Context, missionID, expenseID string) (*entity.Mission, error)

	// PreviewAllocation splits an unsaved expense across its banks
	PreviewAllocation(item entity.ExpenseItem, fallbackBank string) (allocation.Shares, *allocation.Issue)
}

type missionServiceImpl struct {
	repo      port.MissionRepository
	reference port.ReferenceData
	txManager port.TransactionManager
	logger    Logger
	now       func() time.Time
	newID     func() string
}

// NewMissionService creates a new MissionService
func NewMissionService(
	repo port.MissionRepository,
	reference port.ReferenceData,
	txManager port.TransactionManager,
	logger Logger,
) MissionService {
	return &missionServiceImpl{
		repo:      repo,
		reference: reference,
		txManager: txManager,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create fills employee name and branch from the directory when they are
// missing and defaults the mission date to today.
func (s *missionServiceImpl) Create(ctx context.Context, mission *entity.Mission) (*entity.Mission, error) {
	if mission == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidMission)
	}
	m := mission.Clone()
	m.ID = s.newID()
	m.CreatedAt = s.now()
	if m.Expenses == nil {
		m.Expenses = []entity.ExpenseItem{}
	}

	if err := s.prepare(m); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, m); err != nil {
		s.logger.Error("Failed to create mission",
			"error", err,
			"employee_code", m.EmployeeCode)
		return nil, fmt.Errorf("create mission: %w", err)
	}

	s.logger.Info("Mission created",
		"mission_id", m.ID,
		"employee_code", m.EmployeeCode,
		"expense_count", len(m.Expenses),
		"total", m.TotalAmount.String())

	return m, nil
}

func (s *missionServiceImpl) Update(ctx context.Context, id string, mission *entity.Mission) (*entity.Mission, error) {
	if mission == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidMission)
	}
	return s.mutate(ctx, id, "update mission", func(m *entity.Mission) error {
		in := mission.Clone()
		m.EmployeeCode = in.EmployeeCode
		m.EmployeeName = in.EmployeeName
		m.EmployeeBranch = in.EmployeeBranch
		m.MissionDate = in.MissionDate
		m.Bank = in.Bank
		m.Statement = in.Statement
		m.Expenses = in.Expenses
		if m.Expenses == nil {
			m.Expenses = []entity.ExpenseItem{}
		}
		return nil
	})
}

func (s *missionServiceImpl) Get(ctx context.Context, id string) (*entity.Mission, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get mission", "error", err, "mission_id", id)
		return nil, fmt.Errorf("get mission: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissionNotFound, id)
	}
	return m, nil
}

func (s *missionServiceImpl) List(ctx context.Context) ([]*entity.Mission, error) {
	missions, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list missions", "error", err)
		return nil, fmt.Errorf("list missions: %w", err)
	}
	sortNewestFirst(missions)
	return missions, nil
}

func (s *missionServiceImpl) Delete(ctx context.Context, id string) error {
	return s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, m.ID); err != nil {
			s.logger.Error("Failed to delete mission", "error", err, "mission_id", id)
			return fmt.Errorf("delete mission: %w", err)
		}
		s.logger.Info("Mission deleted", "mission_id", id)
		return nil
	})
}

func (s *missionServiceImpl) AddExpense(ctx context.Context, missionID string, item entity.ExpenseItem) (*entity.Mission, error) {
	return s.mutate(ctx, missionID, "add expense", func(m *entity.Mission) error {
		e := item.Clone()
		e.ID = ""
		m.Expenses = append(m.Expenses, e)
		return nil
	})
}

func (s *missionServiceImpl) UpdateExpense(ctx context.Context, missionID, expenseID string, item entity.ExpenseItem) (*entity.Mission, error) {
	return s.mutate(ctx, missionID, "update expense", func(m *entity.Mission) error {
		i := m.ExpenseIndex(expenseID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		e := item.Clone()
		e.ID = expenseID
		m.Expenses[i] = e
		return nil
	})
}

func (s *missionServiceImpl) RemoveExpense(ctx context.Context, missionID, expenseID string) (*entity.Mission, error) {
	return s.mutate(ctx, missionID, "remove expense", func(m *entity.Mission) error {
		i := m.ExpenseIndex(expenseID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrExpenseNotFound, expenseID)
		}
		m.Expenses = append(m.Expenses[:i], m.Expenses[i+1:]...)
		return nil
	})
}

func (s *missionServiceImpl) PreviewAllocation(item entity.ExpenseItem, fallbackBank string) (allocation.Shares, *allocation.Issue) {
	e := item.Clone()
	e.Type = expense.Normalize(e.Type)
	return allocation.Allocate(e, fallbackBank), allocation.Check(e, fallbackBank)
}

// mutate loads a mission, applies change, re-validates and stores it in
// one transaction.
func (s *missionServiceImpl) mutate(ctx context.Context, id, op string, change func(m *entity.Mission) error) (*entity.Mission, error) {
	var out *entity.Mission
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		m, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := change(m); err != nil {
			return err
		}
		if err := s.prepare(m); err != nil {
			return err
		}
		if err := s.repo.Upsert(ctx, m); err != nil {
			s.logger.Error("Failed to store mission",
				"error", err,
				"operation", op,
				"mission_id", id)
			return fmt.Errorf("%s: %w", op, err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Mission updated",
		"operation", op,
		"mission_id", id,
		"expense_count", len(out.Expenses),
		"total", out.TotalAmount.String())
	return out, nil
}

// prepare validates m in place and recomputes its total.
func (s *missionServiceImpl) prepare(m *entity.Mission) error {
	m.EmployeeName = strings.TrimSpace(m.EmployeeName)
	m.EmployeeBranch = strings.TrimSpace(m.EmployeeBranch)
	m.Bank = strings.TrimSpace(m.Bank)

	if emp, ok := s.reference.Employee(m.EmployeeCode); ok {
		if m.EmployeeName == "" {
			m.EmployeeName = emp.Name
		}
		if m.EmployeeBranch == "" {
			m.EmployeeBranch = emp.Branch
		}
	}
	if m.EmployeeName == "" || m.EmployeeCode <= 0 {
		return fmt.Errorf("%w: employee name and code are required", ErrInvalidMission)
	}
	if m.MissionDate.IsZero() {
		m.MissionDate = calendar.FromTime(s.now())
	}

	for i := range m.Expenses {
		e, err := s.prepareExpense(m, m.Expenses[i])
		if err != nil {
			return err
		}
		m.Expenses[i] = e
	}
	m.RecalculateTotal()
	return nil
}

func (s *missionServiceImpl) prepareExpense(m *entity.Mission, e entity.ExpenseItem) (entity.ExpenseItem, error) {
	if e.ID == "" {
		e.ID = s.newID()
	}
	e.Type = expense.Normalize(strings.TrimSpace(e.Type))
	if e.Type == "" {
		return e, fmt.Errorf("%w: type is required", ErrInvalidExpense)
	}
	if e.Amount.IsNegative() {
		return e, fmt.Errorf("%w: amount %s is negative", ErrInvalidExpense, e.Amount)
	}

	banks := make([]string, 0, len(e.Banks))
	for _, b := range e.Banks {
		b = strings.TrimSpace(b)
		if b == "" || containsString(banks, b) {
			continue
		}
		if !s.reference.HasBank(b) {
			s.logger.Warn("Expense uses a bank outside the directory",
				"mission_id", m.ID,
				"bank", b)
		}
		banks = append(banks, b)
	}
	e.Banks = banks

	for bank, v := range e.BankAllocations {
		if !e.HasBank(bank) {
			return e, fmt.Errorf("%w: allocation for %q which is not a selected bank", ErrInvalidExpense, bank)
		}
		if v.IsNegative() {
			return e, fmt.Errorf("%w: allocation for %q is negative", ErrInvalidExpense, bank)
		}
	}
	if len(e.BankAllocations) == 0 {
		e.BankAllocations = nil
	}

	if issue := allocation.Check(e, m.Bank); issue != nil {
		s.logger.Warn("Bank allocations do not add up to the expense amount",
			"mission_id", m.ID,
			"expense_id", e.ID,
			"amount", e.Amount.String(),
			"drift", issue.Drift.String())
	}
	return e, nil
}

func sortNewestFirst(missions []*entity.Mission) {
	sort.SliceStable(missions, func(i, j int) bool {
		a, b := missions[i], missions[j]
		if c := a.MissionDate.Compare(b.MissionDate); c != 0 {
			return c > 0
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
