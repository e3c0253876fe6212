package service

import "errors"

var (
	ErrMissionNotFound   = errors.New("mission not found")
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrInvalidMission    = errors.New("invalid mission")
	ErrInvalidExpense    = errors.New("invalid expense")
	ErrInvalidRange      = errors.New("invalid date range")
	ErrInvalidImportMode = errors.New("invalid import mode")

	ErrArchiveDisabled     = errors.New("export archive is disabled")
	ErrArchivedNotFound    = errors.New("archived export not found")
	ErrInvalidArchivedPath = errors.New("invalid archived export path")
)
