package service

import (
	"context"
	"fmt"

	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/report"
	"github.com/garyjia/mission-expenses/internal/spreadsheet"
)

// ReportService builds period reports over stored missions
type ReportService interface {
	Period(ctx context.Context, from, to calendar.Date) (*report.Report, error)
	PeriodWorkbook(ctx context.Context, from, to calendar.Date) ([]byte, error)
}

type reportServiceImpl struct {
	repo   port.MissionRepository
	logger Logger
}

// NewReportService creates a new ReportService
func NewReportService(repo port.MissionRepository, logger Logger) ReportService {
	return &reportServiceImpl{repo: repo, logger: logger}
}

// Period aggregates missions dated within [from, to].
func (s *reportServiceImpl) Period(ctx context.Context, from, to calendar.Date) (*report.Report, error) {
	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from, to)
	}

	missions, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to load missions for report", "error", err)
		return nil, fmt.Errorf("list missions: %w", err)
	}

	r := report.Build(missions, from, to)
	s.logger.Info("Period report built",
		"from", from.String(),
		"to", to.String(),
		"lines", len(r.Lines),
		"grand_total", r.GrandTotal.String())
	return r, nil
}

func (s *reportServiceImpl) PeriodWorkbook(ctx context.Context, from, to calendar.Date) ([]byte, error) {
	r, err := s.Period(ctx, from, to)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.WriteReport(r)
	if err != nil {
		s.logger.Error("Failed to render report workbook", "error", err)
		return nil, fmt.Errorf("render report: %w", err)
	}
	return data, nil
}
