package payroll

import (
	"context"
	"fmt"

	"hris/internal/domain/payroll/statutory"
)

// TableService manages uploaded statutory tables. Writes go to the store and
// then drop the cached copies.
type TableService struct {
	store TableStoreAPI
	cache *CachedSource
}

func NewTableService(store TableStoreAPI, cached *CachedSource) *TableService {
	return &TableService{store: store, cache: cached}
}

func (s *TableService) Years(ctx context.Context) ([]int, error) {
	return s.store.Years(ctx)
}

func (s *TableService) Get(ctx context.Context, year int) (statutory.TableSet, error) {
	return s.store.TableSet(ctx, year)
}

// Upload parses a YAML or JSON table set and stores it, replacing the year.
func (s *TableService) Upload(ctx context.Context, data []byte) (statutory.TableSet, error) {
	set, err := statutory.ParseTableSet(data)
	if err != nil {
		return statutory.TableSet{}, fmt.Errorf("%w: %v", statutory.ErrInvalidInput, err)
	}
	if err := s.Store(ctx, set); err != nil {
		return statutory.TableSet{}, err
	}
	return set, nil
}

func (s *TableService) Store(ctx context.Context, set statutory.TableSet) error {
	if err := s.store.UpsertTableSet(ctx, set); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return nil
}

// SeedBuiltin stores every shipped table set whose year the store does not have yet.
func (s *TableService) SeedBuiltin(ctx context.Context) ([]int, error) {
	builtin, err := statutory.BuiltinTableSets()
	if err != nil {
		return nil, err
	}
	existing, err := s.store.Years(ctx)
	if err != nil {
		return nil, err
	}
	have := make(map[int]bool, len(existing))
	for _, year := range existing {
		have[year] = true
	}
	var seeded []int
	for _, year := range builtin.Years() {
		if have[year] {
			continue
		}
		if err := s.Store(ctx, builtin[year]); err != nil {
			return seeded, fmt.Errorf("seed %d tables: %w", year, err)
		}
		seeded = append(seeded, year)
	}
	return seeded, nil
}
