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

// MenuRepository defines the interface for menu item database operations.
type MenuRepository interface {
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error)
	GetMenuItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error)
	// GetMenuItemsByIDs returns the found items keyed by id; missing ids are absent.
	GetMenuItemsByIDs(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
	// IncrementPopularity bumps order_count by one and total_quantity by quantity.
	IncrementPopularity(ctx context.Context, executor SQLExecutor, id int64, quantity int) error
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

const menuColumns = `id, name, description, price, category, is_available, order_count, total_quantity, created_at, updated_at`

func scanMenuItemRow(row scanner) (*models.MenuItem, error) {
	var item models.MenuItem
	var description sql.NullString
	var category string
	err := row.Scan(
		&item.ID, &item.Name, &description, &item.Price, &category, &item.IsAvailable,
		&item.OrderCount, &item.TotalQuantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Category = models.MenuCategory(category)
	if description.Valid {
		item.Description = &description.String
	}
	return &item, nil
}

func (r *menuRepository) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `INSERT INTO menu_items (name, description, price, category, is_available, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		item.Name, item.Description, item.Price, string(item.Category), item.IsAvailable, item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("creating menu item %q", item.Name))
	}
	return nil
}

func (r *menuRepository) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	item, err := scanMenuItemRow(r.db.QueryRowContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu item by ID %d: %v", ErrDatabaseError, id, err)
	}
	return item, nil
}

func (r *menuRepository) GetMenuItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + menuColumns + ` FROM menu_items`)

	var conditions []string
	var args []interface{}
	if filters.Category != nil && *filters.Category != "" {
		args = append(args, *filters.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filters.IsAvailable != nil {
		args = append(args, *filters.IsAvailable)
		conditions = append(conditions, fmt.Sprintf("is_available = $%d", len(args)))
	}
	if filters.Search != nil && *filters.Search != "" {
		args = append(args, "%"+*filters.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY category, name")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	items := []models.MenuItem{}
	for rows.Next() {
		item, err := scanMenuItemRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *menuRepository) GetMenuItemsByIDs(ctx context.Context, executor SQLExecutor, ids []int64) (map[int64]*models.MenuItem, error) {
	items := make(map[int64]*models.MenuItem, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	rows, err := executor.QueryContext(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("%w: querying menu items %v: %v", ErrDatabaseError, ids, err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanMenuItemRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning menu item: %v", ErrDatabaseError, err)
		}
		items[item.ID] = item
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

func (r *menuRepository) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	query := `UPDATE menu_items SET name = $1, description = $2, price = $3, category = $4,
	            is_available = $5, updated_at = $6
	          WHERE id = $7`
	item.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		item.Name, item.Description, item.Price, string(item.Category), item.IsAvailable, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating menu item ID %d", item.ID))
	}
	return checkAffected(result, fmt.Sprintf("updating menu item ID %d", item.ID))
}

// DeleteMenuItem fails with ErrReferenced while order lines still point at the item.
func (r *menuRepository) DeleteMenuItem(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting menu item ID %d", id))
	}
	return checkAffected(result, fmt.Sprintf("deleting menu item ID %d", id))
}

func (r *menuRepository) IncrementPopularity(ctx context.Context, executor SQLExecutor, id int64, quantity int) error {
	query := `UPDATE menu_items SET order_count = order_count + 1, total_quantity = total_quantity + $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("incrementing popularity of menu item ID %d", id))
	}
	return checkAffected(result, fmt.Sprintf("incrementing popularity of menu item ID %d", id))
}
