// Package container wires the mission services to their infrastructure
// and owns their lifecycle.
package container

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/application/service"
	"github.com/garyjia/mission-expenses/internal/config"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/memory"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/repository"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/mission-expenses/internal/infrastructure/reference"
	"github.com/garyjia/mission-expenses/internal/infrastructure/storage"
	"github.com/garyjia/mission-expenses/migrations"
	"github.com/garyjia/mission-expenses/pkg/database"
)

// DatabaseBundle holds the persistence components for one driver.
// DB is nil for the memory driver.
type DatabaseBundle struct {
	DB             *database.DB
	Missions       port.MissionRepository
	TransactionMgr port.TransactionManager
}

// ProvideDatabase opens the configured mission store. The sqlite driver
// also runs pending migrations, from MigrationsDir when set and from the
// embedded schema otherwise.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Driver == config.DriverMemory {
		repo := memory.NewMissionRepository()
		logger.Warn("Using in-memory mission store; data is lost on exit")
		return &DatabaseBundle{Missions: repo, TransactionMgr: repo}, nil
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if dir := strings.TrimSpace(cfg.MigrationsDir); dir != "" {
		err = migrator.RunMigrations(dir)
	} else {
		err = migrator.Run(migrations.FS, "embedded")
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	txDB := sqlite.NewDB(db.DB, logger)
	return &DatabaseBundle{
		DB:             db,
		Missions:       repository.NewMissionRepository(txDB, logger),
		TransactionMgr: txDB,
	}, nil
}

// ProvideReference builds the static employee and bank directory.
func ProvideReference(cfg *config.ReferenceConfig) port.ReferenceData {
	return reference.NewStatic(cfg.Employees, cfg.Banks)
}

// ProvideStorage returns the export archive, or nil when archiving is off.
func ProvideStorage(cfg *config.StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if !cfg.ArchiveExports {
		return nil, nil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return storage.NewLocalFileStorage(cfg.ExportDir, logger), nil
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Missions  service.MissionService
	Transfer  service.TransferService
	Reports   service.ReportService
	Reference service.ReferenceService
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Missions  port.MissionRepository
	TxManager port.TransactionManager
	Reference port.ReferenceData
	Archive   port.FileStorage
	Import    *config.ImportConfig
	Storage   *config.StorageConfig
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Missions == nil {
		return nil, fmt.Errorf("mission repository is required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Reference == nil {
		return nil, fmt.Errorf("reference data is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := service.TransferOptions{}
	if deps.Storage != nil {
		opts.ArchiveExports = deps.Storage.ArchiveExports
	}
	if deps.Import != nil {
		tol, err := deps.Import.Tolerance()
		if err != nil {
			return nil, err
		}
		opts.Tolerance = tol
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	return &ServiceBundle{
		Missions: service.NewMissionService(
			deps.Missions,
			deps.Reference,
			deps.TxManager,
			serviceLogger,
		),
		Transfer: service.NewTransferService(
			deps.Missions,
			deps.TxManager,
			deps.Archive,
			opts,
			serviceLogger,
		),
		Reports:   service.NewReportService(deps.Missions, serviceLogger),
		Reference: service.NewReferenceService(deps.Reference),
	}, nil
}
