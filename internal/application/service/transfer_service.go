package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/spreadsheet"
	"github.com/garyjia/mission-expenses/internal/tabular"
	"github.com/shopspring/decimal"
)

// ImportMode selects how imported missions join the stored collection
type ImportMode string

const (
	ImportAppend  ImportMode = "append"
	ImportReplace ImportMode = "replace"
)

// ParseImportMode accepts "append" and "replace"; empty means fallback.
func ParseImportMode(s string, fallback ImportMode) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return fallback, nil
	case ImportAppend:
		return ImportAppend, nil
	case ImportReplace:
		return ImportReplace, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidImportMode, s)
}

// ExportResult is a rendered workbook and the problems met rendering it.
type ExportResult struct {
	Data         []byte
	Filename     string
	ArchivedPath string
	Missions     int
	Warnings     []tabular.Warning
}

// ImportReport summarizes a committed import.
type ImportReport struct {
	Mode     ImportMode        `json:"mode"`
	Imported int               `json:"imported"`
	Total    int               `json:"total"`
	Warnings []tabular.Warning `json:"warnings"`
}

// TransferOptions configures TransferService.
type TransferOptions struct {
	ArchiveExports bool
	Tolerance      decimal.Decimal
}

// TransferService moves the mission collection to and from xlsx.
type TransferService interface {
	// Export renders every stored mission in the detailed layout
	Export(ctx context.Context) (*ExportResult, error)

	// Import parses data and stores the reconstructed missions. Nothing is
	// stored when the workbook is structurally unusable.
	Import(ctx context.Context, data []byte, mode ImportMode) (*ImportReport, error)

	// Archived lists archived exports, oldest first
	Archived(ctx context.Context) ([]ArchivedExport, error)
	// OpenArchived returns the workbook stored at an archived path
	OpenArchived(ctx context.Context, archivedPath string) (*ExportResult, error)
	DeleteArchived(ctx context.Context, archivedPath string) error
}

// ArchivedExport is one workbook kept in the export archive.
type ArchivedExport struct {
	Path     string `json:"path"`
	Filename string `json:"filename"`
}

type transferServiceImpl struct {
	repo      port.MissionRepository
	txManager port.TransactionManager
	archive   port.FileStorage
	opts      TransferOptions
	logger    Logger
	now       func() time.Time
}

// NewTransferService creates a new TransferService. archive may be nil.
func NewTransferService(
	repo port.MissionRepository,
	txManager port.TransactionManager,
	archive port.FileStorage,
	opts TransferOptions,
	logger Logger,
) TransferService {
	if opts.Tolerance.IsZero() {
		opts.Tolerance = tabular.DefaultTolerance
	}
	return &transferServiceImpl{
		repo:      repo,
		txManager: txManager,
		archive:   archive,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *transferServiceImpl) Export(ctx context.Context) (*ExportResult, error) {
	missions, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to load missions for export", "error", err)
		return nil, fmt.Errorf("list missions: %w", err)
	}
	sortNewestFirst(missions)

	rows, warnings := tabular.ProjectToRows(missions)
	s.logWarnings("Export warning", warnings)

	data, err := spreadsheet.WriteMissions(rows)
	if err != nil {
		s.logger.Error("Failed to render export workbook", "error", err)
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	now := s.now()
	result := &ExportResult{
		Data:     data,
		Filename: fmt.Sprintf("missions-%s.xlsx", now.Format("20060102-150405")),
		Missions: len(missions),
		Warnings: warnings,
	}

	if s.opts.ArchiveExports && s.archive != nil {
		archived := path.Join(now.Format("2006"), now.Format("01"), result.Filename)
		if err := s.archive.Save(ctx, archived, data); err != nil {
			// the download still succeeds without an archived copy
			s.logger.Error("Failed to archive export", "error", err, "path", archived)
		} else {
			result.ArchivedPath = archived
			s.logger.Info("Export archived", "file", s.archive.GetFullPath(archived))
		}
	}

	s.logger.Info("Missions exported",
		"missions", result.Missions,
		"warnings", len(warnings),
		"bytes", len(data),
		"archived_path", result.ArchivedPath)

	return result, nil
}

func (s *transferServiceImpl) Import(ctx context.Context, data []byte, mode ImportMode) (*ImportReport, error) {
	if mode != ImportAppend && mode != ImportReplace {
		return nil, fmt.Errorf("%w: %q", ErrInvalidImportMode, mode)
	}

	wb, err := spreadsheet.ReadWorkbook(data)
	if err != nil {
		s.logger.Error("Failed to read import workbook", "error", err, "bytes", len(data))
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	parser := tabular.NewParser(
		tabular.WithClock(s.now),
		tabular.WithTolerance(s.opts.Tolerance),
	)

	report := &ImportReport{Mode: mode}
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.List(ctx)
		if err != nil {
			return fmt.Errorf("list missions: %w", err)
		}

		result, err := parser.Parse(wb, existing)
		if err != nil {
			return err
		}

		merged := tabular.Merge(existing, result.Missions, mode == ImportReplace)
		if mode == ImportReplace {
			if err := s.repo.ReplaceAll(ctx, merged); err != nil {
				return fmt.Errorf("replace missions: %w", err)
			}
		} else {
			for _, m := range result.Missions {
				if err := s.repo.Upsert(ctx, m); err != nil {
					return fmt.Errorf("store mission %s: %w", m.ID, err)
				}
			}
		}

		report.Imported = len(result.Missions)
		report.Total = len(merged)
		report.Warnings = result.Warnings
		return nil
	})
	if err != nil {
		s.logger.Error("Import aborted", "error", err, "mode", string(mode))
		return nil, err
	}
	if report.Warnings == nil {
		report.Warnings = []tabular.Warning{}
	}

	s.logWarnings("Import warning", report.Warnings)
	s.logger.Info("Missions imported",
		"mode", string(mode),
		"imported", report.Imported,
		"total", report.Total,
		"warnings", len(report.Warnings))

	return report, nil
}

func (s *transferServiceImpl) logWarnings(msg string, warnings []tabular.Warning) {
	for _, w := range warnings {
		s.logger.Warn(msg,
			"kind", string(w.Kind),
			"sheet", w.Sheet,
			"row", w.Row,
			"mission_id", w.MissionID,
			"employee", w.Employee,
			"raw", w.Raw,
			"detail", w.Message)
	}
}

func (s *transferServiceImpl) Archived(ctx context.Context) ([]ArchivedExport, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	paths, err := s.archive.List(ctx, "")
	if err != nil {
		s.logger.Error("Failed to list archived exports", "error", err)
		return nil, fmt.Errorf("list archive: %w", err)
	}

	exports := make([]ArchivedExport, 0, len(paths))
	for _, p := range paths {
		if path.Ext(p) != ".xlsx" {
			continue
		}
		exports = append(exports, ArchivedExport{Path: p, Filename: path.Base(p)})
	}
	return exports, nil
}

func (s *transferServiceImpl) OpenArchived(ctx context.Context, archivedPath string) (*ExportResult, error) {
	clean, err := s.locateArchived(ctx, archivedPath)
	if err != nil {
		return nil, err
	}

	data, err := s.archive.Read(ctx, clean)
	if err != nil {
		s.logger.Error("Failed to read archived export", "error", err, "path", clean)
		return nil, fmt.Errorf("read archived export: %w", err)
	}
	return &ExportResult{
		Data:         data,
		Filename:     path.Base(clean),
		ArchivedPath: clean,
	}, nil
}

func (s *transferServiceImpl) DeleteArchived(ctx context.Context, archivedPath string) error {
	clean, err := s.locateArchived(ctx, archivedPath)
	if err != nil {
		return err
	}

	if err := s.archive.Delete(ctx, clean); err != nil {
		s.logger.Error("Failed to delete archived export", "error", err, "path", clean)
		return fmt.Errorf("delete archived export: %w", err)
	}
	s.logger.Info("Archived export deleted", "path", clean)
	return nil
}

// locateArchived cleans archivedPath and checks that it names a stored
// workbook inside the archive.
func (s *transferServiceImpl) locateArchived(ctx context.Context, archivedPath string) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}

	clean := path.Clean(strings.TrimPrefix(strings.TrimSpace(archivedPath), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || path.Ext(clean) != ".xlsx" {
		return "", fmt.Errorf("%w: %q", ErrInvalidArchivedPath, archivedPath)
	}
	if !s.archive.Exists(ctx, clean) {
		return "", fmt.Errorf("%w: %s", ErrArchivedNotFound, clean)
	}
	return clean, nil
}
