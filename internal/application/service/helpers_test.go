package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/mission-expenses/internal/domain/calendar"
	"github.com/garyjia/mission-expenses/internal/domain/entity"
	"github.com/garyjia/mission-expenses/internal/infrastructure/persistence/memory"
	"github.com/garyjia/mission-expenses/internal/infrastructure/reference"
	"github.com/shopspring/decimal"
)

type logEntry struct {
	level string
	msg   string
}

type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  { m.add("info", msg) }
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  { m.add("warn", msg) }
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) { m.add("error", msg) }

func (m *mockLogger) add(level, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, logEntry{level: level, msg: msg})
}

func (m *mockLogger) count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

// mockMissionRepo delegates to an in-memory store unless a func is set.
type mockMissionRepo struct {
	*memory.MissionRepository
	listFunc   func(ctx context.Context) ([]*entity.Mission, error)
	upsertFunc func(ctx context.Context, m *entity.Mission) error
}

func (m *mockMissionRepo) List(ctx context.Context) ([]*entity.Mission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return m.MissionRepository.List(ctx)
}

func (m *mockMissionRepo) Upsert(ctx context.Context, mission *entity.Mission) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, mission)
	}
	return m.MissionRepository.Upsert(ctx, mission)
}

type mockFileStorage struct {
	saved    map[string][]byte
	saveFunc func(ctx context.Context, path string, content []byte) error
	listFunc func(ctx context.Context, dir string) ([]string, error)
}

func (m *mockFileStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, path, content)
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[path] = content
	return nil
}

func (m *mockFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if b, ok := m.saved[path]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("not found: %s", path)
}

func (m *mockFileStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.saved[path]
	return ok
}

func (m *mockFileStorage) Delete(ctx context.Context, path string) error {
	delete(m.saved, path)
	return nil
}

func (m *mockFileStorage) List(ctx context.Context, dir string) ([]string, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, dir)
	}
	paths := make([]string, 0, len(m.saved))
	for p := range m.saved {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *mockFileStorage) GetFullPath(relativePath string) string {
	return "/archive/" + relativePath
}

func testDirectory() *reference.Static {
	return reference.NewStatic(
		[]entity.Employee{
			{Code: 1001, Name: "أحمد علي", Branch: "القاهرة"},
			{Code: 1002, Name: "Sara", Branch: "Giza"},
		},
		[]string{"البنك الأهلي", "بنك مصر"},
	)
}

var testNow = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newTestMissionService(repo *memory.MissionRepository, logger *mockLogger) *missionServiceImpl {
	s := NewMissionService(repo, testDirectory(), repo, logger).(*missionServiceImpl)
	s.now = func() time.Time { return testNow }
	s.newID = sequence("id")
	return s
}

func date(y int, m time.Month, d int) calendar.Date {
	v, ok := calendar.NewDate(y, m, d)
	if !ok {
		panic("bad date")
	}
	return v
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
