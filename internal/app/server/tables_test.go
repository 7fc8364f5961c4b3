package server

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hris/internal/domain/payroll"
	"hris/internal/domain/payroll/statutory"
	"hris/internal/platform/cache"
)

type memoryTables struct {
	mu   sync.Mutex
	sets map[int]statutory.TableSet
	puts int
}

func newMemoryTables() *memoryTables {
	return &memoryTables{sets: map[int]statutory.TableSet{}}
}

func (m *memoryTables) TableSet(_ context.Context, year int) (statutory.TableSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[year]
	if !ok {
		return statutory.TableSet{}, &statutory.MissingTableError{Year: year}
	}
	return set, nil
}

func (m *memoryTables) UpsertTableSet(_ context.Context, set statutory.TableSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[set.Year] = set
	m.puts++
	return nil
}

func (m *memoryTables) Years(context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	years := make([]int, 0, len(m.sets))
	for year := range m.sets {
		years = append(years, year)
	}
	return years, nil
}

func (m *memoryTables) putCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func builtinTableFile(t *testing.T, year string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "domain", "payroll", "statutory", "tables", year+".yaml"))
	require.NoError(t, err)
	return data
}

func tableService(store *memoryTables) *payroll.TableService {
	return payroll.NewTableService(store, payroll.NewCachedSource(store, cache.NewMemory(), time.Minute))
}

func TestLoadTablesStoresEveryYearInDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024.yaml"), builtinTableFile(t, "2024"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025.yaml"), builtinTableFile(t, "2025"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o600))

	store := newMemoryTables()
	years, err := LoadTables(context.Background(), tableService(store), dir)
	require.NoError(t, err)
	assert.Equal(t, []int{2024, 2025}, years)
	assert.Equal(t, 2, store.putCount())
}

func TestLoadTablesRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("year: [nope"), 0o600))

	_, err := LoadTables(context.Background(), tableService(newMemoryTables()), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")
}

func TestWatchTablesReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	store := newMemoryTables()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- WatchTables(ctx, tableService(store), dir) }()

	data := builtinTableFile(t, "2025")
	path := filepath.Join(dir, "2025.yaml")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, data, 0o600)
		return store.putCount() > 0
	}, 5*time.Second, 100*time.Millisecond)

	set, err := store.TableSet(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 2025, set.Year)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
