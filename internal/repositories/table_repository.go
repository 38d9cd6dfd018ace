package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"recanto_verde_backend/internal/models"

	"github.com/lib/pq"
)

// TableRepository defines the interface for floor table database operations.
type TableRepository interface {
	CreateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error
	GetTableByID(ctx context.Context, id int64) (*models.Table, error)
	GetTables(ctx context.Context, filters models.TableFilters) ([]models.Table, error)
	// LockTables loads the given tables with a row lock held until the
	// surrounding transaction ends. Unknown ids are silently absent.
	LockTables(ctx context.Context, executor SQLExecutor, ids []int64) ([]*models.Table, error)
	UpdateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error
	DeleteTable(ctx context.Context, executor SQLExecutor, id int64) error
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

const tableColumns = `id, table_number, capacity, status, position_x, position_y, section,
	join_kind, join_members, join_parent, original_capacity, assigned_waiters,
	current_order, occupied_at, created_at, updated_at`

func scanTableRow(row scanner) (*models.Table, error) {
	var (
		t                models.Table
		status, joinKind string
		members, waiters pq.Int64Array
		parent, current  sql.NullInt64
		origCap          sql.NullInt64
		occupiedAt       sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.TableNumber, &t.Capacity, &status, &t.Position.X, &t.Position.Y, &t.Section,
		&joinKind, &members, &parent, &origCap, &waiters,
		&current, &occupiedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = models.TableStatus(status)
	t.AssignedWaiters = []int64(waiters)

	var parentPtr *int64
	if parent.Valid {
		parentPtr = &parent.Int64
	}
	var origPtr *int
	if origCap.Valid {
		oc := int(origCap.Int64)
		origPtr = &oc
	}
	t.Join, err = models.DecodeJoin(joinKind, []int64(members), parentPtr, origPtr)
	if err != nil {
		return nil, fmt.Errorf("table %d: %w", t.ID, err)
	}
	if current.Valid {
		t.CurrentOrder = &current.Int64
	}
	if occupiedAt.Valid {
		t.OccupiedAt = &occupiedAt.Time
	}
	return &t, nil
}

func (r *tableRepository) CreateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error {
	query := `INSERT INTO tables
	            (table_number, capacity, status, position_x, position_y, section,
	             join_kind, join_members, join_parent, original_capacity, assigned_waiters,
	             current_order, occupied_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`

	now := time.Now()
	table.CreatedAt = now
	table.UpdatedAt = now
	kind, members, parent, origCap := models.EncodeJoin(table.JoinState())

	err := executor.QueryRowContext(ctx, query,
		table.TableNumber, table.Capacity, string(table.Status), table.Position.X, table.Position.Y, table.Section,
		kind, pq.Array(members), parent, origCap, pq.Array(nonNilIDs(table.AssignedWaiters)),
		table.CurrentOrder, table.OccupiedAt, table.CreatedAt, table.UpdatedAt,
	).Scan(&table.ID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("creating table %d", table.TableNumber))
	}
	return nil
}

func (r *tableRepository) GetTableByID(ctx context.Context, id int64) (*models.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE id = $1 AND deleted_at IS NULL`
	table, err := scanTableRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting table by ID %d: %v", ErrDatabaseError, id, err)
	}
	return table, nil
}

func (r *tableRepository) GetTables(ctx context.Context, filters models.TableFilters) ([]models.Table, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tableColumns + ` FROM tables`)

	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	if filters.Status != nil && *filters.Status != "" {
		args = append(args, *filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.Section != nil && *filters.Section != "" {
		args = append(args, *filters.Section)
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)))
	}
	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY table_number")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tables: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	tables := []models.Table{}
	for rows.Next() {
		t, err := scanTableRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table rows: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) LockTables(ctx context.Context, executor SQLExecutor, ids []int64) ([]*models.Table, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	// Ordered by id so concurrent lockers acquire rows in the same order.
	query := `SELECT ` + tableColumns + ` FROM tables WHERE id = ANY($1) AND deleted_at IS NULL ORDER BY id FOR UPDATE`
	rows, err := executor.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: locking tables %v: %v", ErrDatabaseError, ids, err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		t, err := scanTableRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning locked table: %v", ErrDatabaseError, err)
		}
		tables = append(tables, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating locked tables: %v", ErrDatabaseError, err)
	}
	return tables, nil
}

func (r *tableRepository) UpdateTable(ctx context.Context, executor SQLExecutor, table *models.Table) error {
	query := `UPDATE tables SET
	            table_number = $1, capacity = $2, status = $3, position_x = $4, position_y = $5, section = $6,
	            join_kind = $7, join_members = $8, join_parent = $9, original_capacity = $10,
	            assigned_waiters = $11, current_order = $12, occupied_at = $13, updated_at = $14
	          WHERE id = $15 AND deleted_at IS NULL`

	table.UpdatedAt = time.Now()
	kind, members, parent, origCap := models.EncodeJoin(table.JoinState())

	result, err := executor.ExecContext(ctx, query,
		table.TableNumber, table.Capacity, string(table.Status), table.Position.X, table.Position.Y, table.Section,
		kind, pq.Array(members), parent, origCap,
		pq.Array(nonNilIDs(table.AssignedWaiters)), table.CurrentOrder, table.OccupiedAt, table.UpdatedAt,
		table.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating table ID %d", table.ID))
	}
	return checkAffected(result, fmt.Sprintf("updating table ID %d", table.ID))
}

// DeleteTable retires the table. The row stays so past orders keep their
// table, and its number becomes free for a new table.
func (r *tableRepository) DeleteTable(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE tables SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting table ID %d", id))
	}
	return checkAffected(result, fmt.Sprintf("deleting table ID %d", id))
}

func nonNilIDs(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
