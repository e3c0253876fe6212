package port

import (
	"context"

	"github.com/garyjia/mission-expenses/internal/domain/entity"
)

// MissionRepository defines persistence operations for Mission.
// Implementations hand out copies: callers may mutate what they receive.
type MissionRepository interface {
	// List returns every mission with its expenses
	List(ctx context.Context) ([]*entity.Mission, error)

	// Get returns nil, nil when no mission has the id
	Get(ctx context.Context, id string) (*entity.Mission, error)

	// Upsert inserts the mission or replaces it and all its expenses
	Upsert(ctx context.Context, mission *entity.Mission) error

	// Delete removes the mission and its expenses; unknown ids are not an error
	Delete(ctx context.Context, id string) error

	// ReplaceAll drops every stored mission and stores missions instead
	ReplaceAll(ctx context.Context, missions []*entity.Mission) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
