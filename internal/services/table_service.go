package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/realtime"
	"recanto_verde_backend/internal/repositories"
	"recanto_verde_backend/pkg/utils"
)

// --- Data Transfer Objects (DTOs) ---

// CreateTableRequest is used for adding a table to the floor plan.
type CreateTableRequest struct {
	TableNumber int              `json:"table_number" binding:"required,gt=0"`
	Capacity    int              `json:"capacity" binding:"required,gt=0"`
	Position    *models.Position `json:"position"`
	Section     string           `json:"section" binding:"required"`
}

// UpdateTableRequest changes layout fields. Status has its own endpoint.
type UpdateTableRequest struct {
	TableNumber *int             `json:"table_number" binding:"omitempty,gt=0"`
	Capacity    *int             `json:"capacity" binding:"omitempty,gt=0"`
	Position    *models.Position `json:"position"`
	Section     *string          `json:"section"`
}

// UpdateTableStatusRequest is the body of PUT /tables/:id/status.
type UpdateTableStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// JoinTablesRequest lists the tables to join; the first becomes the main table.
type JoinTablesRequest struct {
	TableIDs []int64 `json:"table_ids" binding:"required"`
}

// SplitTableRequest lists the members to detach from a join.
type SplitTableRequest struct {
	TableIDs []int64 `json:"table_ids" binding:"required"`
}

// AssignWaitersRequest replaces the waiters assigned to a table.
type AssignWaitersRequest struct {
	WaiterIDs []int64 `json:"waiter_ids"`
}

// JoinResult is returned by join, unjoin and split.
type JoinResult struct {
	MainTable *models.Table   `json:"main_table"`
	Tables    []*models.Table `json:"tables"` // every table the operation changed
}

// --- TableService Interface ---
type TableService interface {
	CreateTable(ctx context.Context, req CreateTableRequest) (*models.Table, error)
	GetTableByID(ctx context.Context, id int64) (*models.Table, error)
	GetTables(ctx context.Context, filters models.TableFilters) ([]models.Table, error)
	UpdateTable(ctx context.Context, id int64, req UpdateTableRequest) (*models.Table, error)
	DeleteTable(ctx context.Context, id int64) error
	// UpdateTableStatus returns every table whose status changed, the target included.
	UpdateTableStatus(ctx context.Context, id int64, status string) ([]*models.Table, error)
	JoinTables(ctx context.Context, req JoinTablesRequest) (*JoinResult, error)
	UnjoinTable(ctx context.Context, mainID int64) (*JoinResult, error)
	SplitTable(ctx context.Context, mainID int64, req SplitTableRequest) (*JoinResult, error)
	AssignWaiters(ctx context.Context, id int64, req AssignWaitersRequest) (*models.Table, error)
}

type tableService struct {
	tableRepo repositories.TableRepository
	userRepo  repositories.UserRepository
	tx        repositories.Transactor
	publisher realtime.Publisher
	now       func() time.Time
}

// NewTableService creates a new instance of TableService.
func NewTableService(
	tr repositories.TableRepository,
	ur repositories.UserRepository,
	tx repositories.Transactor,
	pub realtime.Publisher,
) TableService {
	return &tableService{
		tableRepo: tr,
		userRepo:  ur,
		tx:        tx,
		publisher: pub,
		now:       time.Now,
	}
}

func mapTableRepoError(err error, id int64) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: id %d", ErrTableNotFound, id)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fmt.Errorf("%w: %v", ErrDuplicateTableNumber, err)
	}
	return err
}

func (s *tableService) CreateTable(ctx context.Context, req CreateTableRequest) (*models.Table, error) {
	table := &models.Table{
		TableNumber:     req.TableNumber,
		Capacity:        req.Capacity,
		Status:          models.TableStatusAvailable,
		Section:         req.Section,
		Join:            models.Standalone{},
		AssignedWaiters: []int64{},
	}
	if req.Position != nil {
		table.Position = *req.Position
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.tableRepo.CreateTable(ctx, exec, table)
	})
	if err != nil {
		return nil, mapTableRepoError(err, 0)
	}
	publishTables(ctx, s.publisher, realtime.EventTableUpdated, []*models.Table{table})
	return table, nil
}

func (s *tableService) GetTableByID(ctx context.Context, id int64) (*models.Table, error) {
	table, err := s.tableRepo.GetTableByID(ctx, id)
	if err != nil {
		return nil, mapTableRepoError(err, id)
	}
	return table, nil
}

func (s *tableService) GetTables(ctx context.Context, filters models.TableFilters) ([]models.Table, error) {
	return s.tableRepo.GetTables(ctx, filters)
}

func (s *tableService) UpdateTable(ctx context.Context, id int64, req UpdateTableRequest) (*models.Table, error) {
	var updated *models.Table
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.tableRepo.LockTables(ctx, exec, []int64{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return fmt.Errorf("%w: id %d", ErrTableNotFound, id)
		}
		table := locked[0]

		reshapes := (req.Capacity != nil && *req.Capacity != table.Capacity) ||
			(req.Section != nil && *req.Section != table.Section)
		if reshapes && !table.IsStandalone() {
			return fmt.Errorf("%w: unjoin table %d before changing capacity or section", ErrTableJoined, table.TableNumber)
		}

		if req.TableNumber != nil {
			table.TableNumber = *req.TableNumber
		}
		if req.Capacity != nil {
			table.Capacity = *req.Capacity
		}
		if req.Position != nil {
			table.Position = *req.Position
		}
		if req.Section != nil {
			table.Section = *req.Section
		}
		if err := s.tableRepo.UpdateTable(ctx, exec, table); err != nil {
			return err
		}
		updated = table
		return nil
	})
	if err != nil {
		return nil, mapTableRepoError(err, id)
	}
	publishTables(ctx, s.publisher, realtime.EventTableUpdated, []*models.Table{updated})
	return updated, nil
}

func (s *tableService) DeleteTable(ctx context.Context, id int64) error {
	var deleted *models.Table
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.tableRepo.LockTables(ctx, exec, []int64{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return fmt.Errorf("%w: id %d", ErrTableNotFound, id)
		}
		table := locked[0]
		if table.CurrentOrder != nil {
			return fmt.Errorf("%w: table %d, order %d", ErrTableHasOrder, table.TableNumber, *table.CurrentOrder)
		}
		if !table.IsStandalone() {
			return fmt.Errorf("%w: unjoin table %d before deleting it", ErrTableJoined, table.TableNumber)
		}
		if err := s.tableRepo.DeleteTable(ctx, exec, id); err != nil {
			return err
		}
		deleted = table
		return nil
	})
	if err != nil {
		return mapTableRepoError(err, id)
	}
	utils.LogInfo("Table deleted", map[string]interface{}{"table_id": id, "table_number": deleted.TableNumber})
	return nil
}

func (s *tableService) UpdateTableStatus(ctx context.Context, id int64, status string) ([]*models.Table, error) {
	if !models.IsValidTableStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableStatus, status)
	}

	var changed []*models.Table
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		changed, err = transitionTable(ctx, exec, s.tableRepo, id, models.TableStatus(status), s.now(), nil)
		return err
	})
	if err != nil {
		return nil, mapTableRepoError(err, id)
	}
	if len(changed) > 1 {
		utils.LogDebug("Table status propagated", map[string]interface{}{
			"table_id": id, "status": status, "tables": len(changed),
		})
	}
	publishTables(ctx, s.publisher, realtime.EventTableStatusChanged, changed)
	return changed, nil
}

func (s *tableService) JoinTables(ctx context.Context, req JoinTablesRequest) (*JoinResult, error) {
	ids := utils.UniqueInt64s(req.TableIDs)
	if len(ids) < 2 {
		return nil, ErrNotEnoughTables
	}

	var result *JoinResult
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		plan, err := lockFloor(ctx, exec, s.tableRepo, ids)
		if err != nil {
			return err
		}
		if err := joinTables(plan, ids); err != nil {
			return err
		}
		changed, err := persistPlan(ctx, exec, s.tableRepo, plan)
		if err != nil {
			return err
		}
		main, _ := plan.get(ids[0])
		result = &JoinResult{MainTable: main, Tables: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Tables joined", map[string]interface{}{
		"main_table": result.MainTable.TableNumber, "capacity": result.MainTable.Capacity, "table_ids": ids,
	})
	publishTables(ctx, s.publisher, realtime.EventTableUpdated, result.Tables)
	return result, nil
}

func (s *tableService) UnjoinTable(ctx context.Context, mainID int64) (*JoinResult, error) {
	return s.reshapeJoin(ctx, mainID, nil, func(plan *floorPlan) error {
		return unjoinTable(plan, mainID)
	})
}

func (s *tableService) SplitTable(ctx context.Context, mainID int64, req SplitTableRequest) (*JoinResult, error) {
	return s.reshapeJoin(ctx, mainID, req.TableIDs, func(plan *floorPlan) error {
		return splitTable(plan, mainID, req.TableIDs)
	})
}

// reshapeJoin runs an unjoin or split planner on the join led by mainID.
func (s *tableService) reshapeJoin(ctx context.Context, mainID int64, extra []int64, plan func(*floorPlan) error) (*JoinResult, error) {
	var result *JoinResult
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		floor, err := lockFloor(ctx, exec, s.tableRepo, append([]int64{mainID}, extra...))
		if err != nil {
			return err
		}
		if err := plan(floor); err != nil {
			return err
		}
		changed, err := persistPlan(ctx, exec, s.tableRepo, floor)
		if err != nil {
			return err
		}
		main, _ := floor.get(mainID)
		result = &JoinResult{MainTable: main, Tables: changed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Join reshaped", map[string]interface{}{
		"main_table": result.MainTable.TableNumber, "capacity": result.MainTable.Capacity, "changed": len(result.Tables),
	})
	publishTables(ctx, s.publisher, realtime.EventTableUpdated, result.Tables)
	return result, nil
}

func (s *tableService) AssignWaiters(ctx context.Context, id int64, req AssignWaitersRequest) (*models.Table, error) {
	waiterIDs := utils.UniqueInt64s(req.WaiterIDs)
	for _, waiterID := range waiterIDs {
		user, err := s.userRepo.FindUserByID(ctx, waiterID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: id %d", ErrInvalidWaiter, waiterID)
			}
			return nil, err
		}
		if user.Role != models.RoleWaiter || !user.IsActive {
			return nil, fmt.Errorf("%w: id %d", ErrInvalidWaiter, waiterID)
		}
	}

	var updated *models.Table
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		locked, err := s.tableRepo.LockTables(ctx, exec, []int64{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return fmt.Errorf("%w: id %d", ErrTableNotFound, id)
		}
		table := locked[0]
		table.AssignedWaiters = append([]int64{}, waiterIDs...)
		if err := s.tableRepo.UpdateTable(ctx, exec, table); err != nil {
			return err
		}
		updated = table
		return nil
	})
	if err != nil {
		return nil, mapTableRepoError(err, id)
	}
	publishTables(ctx, s.publisher, realtime.EventTableUpdated, []*models.Table{updated})
	return updated, nil
}

// publishTables emits one event per table in table-number order. Delivery is
// best effort, so failures are logged and never returned.
func publishTables(ctx context.Context, pub realtime.Publisher, eventType realtime.EventType, tables []*models.Table) {
	if pub == nil {
		return
	}
	sorted := append([]*models.Table{}, tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TableNumber < sorted[j].TableNumber })
	for _, t := range sorted {
		evt, err := realtime.TableEvent(eventType, t)
		if err != nil {
			utils.LogError(err, "Failed to build table event", map[string]interface{}{"table_id": t.ID})
			continue
		}
		publish(ctx, pub, evt)
	}
}

func publish(ctx context.Context, pub realtime.Publisher, evt realtime.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, evt); err != nil {
		utils.LogError(err, "Failed to publish event", map[string]interface{}{"event": evt.Type})
	}
}
