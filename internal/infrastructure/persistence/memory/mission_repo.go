// Package memory keeps missions in process memory. It backs tests and the
// "memory" database driver.
package memory

import (
	"context"
	"sync"

	"github.com/garyjia/mission-expenses/internal/application/port"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
)

// MissionRepository implements port.MissionRepository and
// port.TransactionManager over a map. Reads and writes copy missions.
type MissionRepository struct {
	mu       sync.RWMutex
	missions map[string]*entity.Mission
	order    []string

	txMu sync.Mutex
}

// NewMissionRepository creates an empty repository
func NewMissionRepository() *MissionRepository {
	return &MissionRepository{missions: make(map[string]*entity.Mission)}
}

// List returns missions in insertion order
func (r *MissionRepository) List(ctx context.Context) ([]*entity.Mission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entity.Mission, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.missions[id].Clone())
	}
	return out, nil
}

func (r *MissionRepository) Get(ctx context.Context, id string) (*entity.Mission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.missions[id].Clone(), nil
}

func (r *MissionRepository) Upsert(ctx context.Context, mission *entity.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[mission.ID]; !ok {
		r.order = append(r.order, mission.ID)
	}
	r.missions[mission.ID] = mission.Clone()
	return nil
}

func (r *MissionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missions[id]; !ok {
		return nil
	}
	delete(r.missions, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MissionRepository) ReplaceAll(ctx context.Context, missions []*entity.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions = make(map[string]*entity.Mission, len(missions))
	r.order = make([]string, 0, len(missions))
	for _, m := range missions {
		if _, ok := r.missions[m.ID]; !ok {
			r.order = append(r.order, m.ID)
		}
		r.missions[m.ID] = m.Clone()
	}
	return nil
}

// WithTransaction serializes transactions and restores the previous state
// when fn fails or panics. Writes outside a transaction are not isolated
// from it.
func (r *MissionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	r.txMu.Lock()
	defer r.txMu.Unlock()

	snapshot, order := r.snapshot()
	committed := false
	defer func() {
		if !committed {
			r.restore(snapshot, order)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *MissionRepository) snapshot() (map[string]*entity.Mission, []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	missions := make(map[string]*entity.Mission, len(r.missions))
	for id, m := range r.missions {
		missions[id] = m.Clone()
	}
	return missions, append([]string(nil), r.order...)
}

func (r *MissionRepository) restore(missions map[string]*entity.Mission, order []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions = missions
	r.order = order
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

var (
	_ port.MissionRepository  = (*MissionRepository)(nil)
	_ port.TransactionManager = (*MissionRepository)(nil)
)
