package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
)

func (s *Store) CreateUser(ctx context.Context, _ repositories.SQLExecutor, user *models.User, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	if s.emailTaken(user.Email, 0) {
		return fmt.Errorf("%w: creating user %s (constraint: users_email_key)", repositories.ErrDuplicateKey, user.Email)
	}
	s.nextUserID++
	now := time.Now()
	user.ID = s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(user)
	s.passwords[user.ID] = hashedPassword
	return nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for id, u := range s.users {
		if u.Email == email {
			return cloneUser(u), s.passwords[id], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (s *Store) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) FindUserForUpdate(ctx context.Context, _ repositories.SQLExecutor, userID int64) (*models.User, error) {
	return s.FindUserByID(ctx, userID)
}

func (s *Store) GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := []models.User{}
	for _, u := range s.users {
		if filters.Role != nil && *filters.Role != "" && u.Role != *filters.Role {
			continue
		}
		if filters.IsActive != nil && u.IsActive != *filters.IsActive {
			continue
		}
		users = append(users, *cloneUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, _ repositories.SQLExecutor, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Email = strings.ToLower(user.Email)
	if s.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("%w: updating user ID %d (constraint: users_email_key)", repositories.ErrDuplicateKey, user.ID)
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, _ repositories.SQLExecutor, userID int64, hashedPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return repositories.ErrNotFound
	}
	s.passwords[userID] = hashedPassword
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return repositories.ErrNotFound
	}
	for _, o := range s.orders {
		if o.WaiterID == userID {
			return fmt.Errorf("%w: deleting user ID %d (constraint: orders_waiter_id_fkey)", repositories.ErrReferenced, userID)
		}
	}
	delete(s.users, userID)
	delete(s.passwords, userID)
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// emailTaken must be called with mu held.
func (s *Store) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}
