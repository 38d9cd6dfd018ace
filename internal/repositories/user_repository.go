package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"recanto_verde_backend/internal/models"
)

// UserRepository defines the interface for user and authentication database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	// FindUserForUpdate locks the user row for the rest of the transaction.
	FindUserForUpdate(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error)
	GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, error)
	UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User) error
	UpdatePassword(ctx context.Context, executor SQLExecutor, userID int64, hashedPassword string) error
	DeleteUser(ctx context.Context, userID int64) error
	CountUsers(ctx context.Context) (int, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, is_active,
	orders_served, average_service_minutes, total_sales, created_at, updated_at`

func scanUserRow(row scanner) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &hashedPassword, &user.Role, &user.IsActive,
		&user.Performance.OrdersServed, &user.Performance.AverageServiceMinutes, &user.Performance.TotalSales,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, "", err
	}
	return user, hashedPassword, nil
}

// CreateUser inserts a new user. Email uniqueness is enforced by users_email_key.
func (r *userRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User, hashedPassword string) error {
	query := `INSERT INTO users (name, email, password_hash, role, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	user.CreatedAt = currentTime
	user.UpdatedAt = currentTime

	err := executor.QueryRowContext(ctx, query,
		user.Name, strings.ToLower(user.Email), hashedPassword, user.Role, user.IsActive, currentTime, currentTime,
	).Scan(&user.ID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("creating user %s", user.Email))
	}
	return nil
}

// FindUserByEmail retrieves a user and their password hash; the lookup ignores case.
func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	user, hashedPassword, err := scanUserRow(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by email %s: %v", ErrDatabaseError, email, err)
	}
	return user, hashedPassword, nil
}

func (r *userRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return r.findUser(ctx, r.db, userID, "")
}

func (r *userRepository) FindUserForUpdate(ctx context.Context, executor SQLExecutor, userID int64) (*models.User, error) {
	return r.findUser(ctx, executor, userID, " FOR UPDATE")
}

func (r *userRepository) findUser(ctx context.Context, executor SQLExecutor, userID int64, lock string) (*models.User, error) {
	// The hash is selected so the scan stays uniform; it is not copied into the model.
	user, _, err := scanUserRow(executor.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`+lock, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}
	return user, nil
}

func (r *userRepository) GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + userColumns + ` FROM users`)

	var conditions []string
	var args []interface{}
	if filters.Role != nil && *filters.Role != "" {
		args = append(args, *filters.Role)
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)))
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying users: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, _, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating user rows: %v", ErrDatabaseError, err)
	}
	return users, nil
}

// UpdateUser writes profile fields and performance counters.
func (r *userRepository) UpdateUser(ctx context.Context, executor SQLExecutor, user *models.User) error {
	query := `UPDATE users SET name = $1, email = $2, role = $3, is_active = $4,
	            orders_served = $5, average_service_minutes = $6, total_sales = $7, updated_at = $8
	          WHERE id = $9`
	user.UpdatedAt = time.Now()
	result, err := executor.ExecContext(ctx, query,
		user.Name, strings.ToLower(user.Email), user.Role, user.IsActive,
		user.Performance.OrdersServed, user.Performance.AverageServiceMinutes, user.Performance.TotalSales,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating user ID %d", user.ID))
	}
	return checkAffected(result, fmt.Sprintf("updating user ID %d", user.ID))
}

func (r *userRepository) UpdatePassword(ctx context.Context, executor SQLExecutor, userID int64, hashedPassword string) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`, hashedPassword, time.Now(), userID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("updating password of user ID %d", userID))
	}
	return checkAffected(result, fmt.Sprintf("updating password of user ID %d", userID))
}

// DeleteUser fails with ErrReferenced while orders still name the user as waiter.
func (r *userRepository) DeleteUser(ctx context.Context, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return mapWriteError(err, fmt.Sprintf("deleting user ID %d", userID))
	}
	return checkAffected(result, fmt.Sprintf("deleting user ID %d", userID))
}

func (r *userRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting users: %v", ErrDatabaseError, err)
	}
	return count, nil
}
