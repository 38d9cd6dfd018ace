package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
)

func (s *Store) CreateTable(ctx context.Context, _ repositories.SQLExecutor, table *models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tableNumberTaken(table.TableNumber, 0) {
		return fmt.Errorf("%w: creating table %d (constraint: tables_table_number_key)", repositories.ErrDuplicateKey, table.TableNumber)
	}
	s.nextTableID++
	now := time.Now()
	table.ID = s.nextTableID
	table.CreatedAt = now
	table.UpdatedAt = now
	if table.AssignedWaiters == nil {
		table.AssignedWaiters = []int64{}
	}
	s.tables[table.ID] = cloneTable(table)
	return nil
}

func (s *Store) GetTableByID(ctx context.Context, id int64) (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneTable(t), nil
}

func (s *Store) GetTables(ctx context.Context, filters models.TableFilters) ([]models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := []models.Table{}
	for _, t := range s.tables {
		if filters.Status != nil && *filters.Status != "" && string(t.Status) != *filters.Status {
			continue
		}
		if filters.Section != nil && *filters.Section != "" && t.Section != *filters.Section {
			continue
		}
		tables = append(tables, *cloneTable(t))
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].TableNumber < tables[j].TableNumber })
	return tables, nil
}

func (s *Store) LockTables(ctx context.Context, _ repositories.SQLExecutor, ids []int64) ([]*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tables []*models.Table
	seen := map[int64]bool{}
	for _, id := range ids {
		t, ok := s.tables[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		tables = append(tables, cloneTable(t))
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	return tables, nil
}

func (s *Store) UpdateTable(ctx context.Context, _ repositories.SQLExecutor, table *models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tables[table.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if s.tableNumberTaken(table.TableNumber, table.ID) {
		return fmt.Errorf("%w: updating table ID %d (constraint: tables_table_number_key)", repositories.ErrDuplicateKey, table.ID)
	}
	table.CreatedAt = existing.CreatedAt
	table.UpdatedAt = time.Now()
	s.tables[table.ID] = cloneTable(table)
	return nil
}

func (s *Store) DeleteTable(ctx context.Context, _ repositories.SQLExecutor, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[id]; !ok {
		return repositories.ErrNotFound
	}
	// Orders keep the table number they were created with.
	delete(s.tables, id)
	return nil
}

// tableNumberTaken must be called with mu held.
func (s *Store) tableNumberTaken(number int, exceptID int64) bool {
	for id, t := range s.tables {
		if id != exceptID && t.TableNumber == number {
			return true
		}
	}
	return false
}
