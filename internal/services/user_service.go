package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
	"recanto_verde_backend/pkg/utils"
)

// UpdateUserRequest changes profile fields; a non-empty Password is re-hashed.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

// --- UserService Interface ---
type UserService interface {
	GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type userService struct {
	userRepo repositories.UserRepository
	tx       repositories.Transactor
}

// NewUserService creates a new instance of UserService.
func NewUserService(userRepo repositories.UserRepository, tx repositories.Transactor) UserService {
	return &userService{userRepo: userRepo, tx: tx}
}

func mapUserRepoError(err error, id int64) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return ErrEmailTaken
	case errors.Is(err, repositories.ErrReferenced):
		return fmt.Errorf("%w: id %d", ErrUserInUse, id)
	}
	return err
}

func (s *userService) GetUsers(ctx context.Context, filters models.UserFilters) ([]models.User, error) {
	return s.userRepo.GetUsers(ctx, filters)
}

func (s *userService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, id)
	if err != nil {
		return nil, mapUserRepoError(err, id)
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error) {
	if req.Role != nil && !models.IsValidRole(strings.ToLower(*req.Role)) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidRole, *req.Role)
	}
	var email string
	if req.Email != nil {
		email = strings.ToLower(strings.TrimSpace(*req.Email))
		if !utils.IsValidEmail(email) {
			return nil, fmt.Errorf("%w: email %q", ErrInvalidUserUpdate, *req.Email)
		}
	}
	var hashedPassword string
	if req.Password != nil && *req.Password != "" {
		if !utils.IsValidPasswordLength(*req.Password, MinPasswordLength) {
			return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUserUpdate, MinPasswordLength)
		}
		var err error
		if hashedPassword, err = hashPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	var user *models.User
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		user, err = s.userRepo.FindUserForUpdate(ctx, exec, id)
		if err != nil {
			return err
		}
		if req.Name != nil && !utils.IsEmpty(*req.Name) {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if email != "" {
			user.Email = email
		}
		if req.Role != nil {
			user.Role = strings.ToLower(*req.Role)
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if err := s.userRepo.UpdateUser(ctx, exec, user); err != nil {
			return err
		}
		if hashedPassword != "" {
			return s.userRepo.UpdatePassword(ctx, exec, id, hashedPassword)
		}
		return nil
	})
	if err != nil {
		return nil, mapUserRepoError(err, id)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.userRepo.DeleteUser(ctx, id); err != nil {
		return mapUserRepoError(err, id)
	}
	utils.LogInfo("User deleted", map[string]interface{}{"user_id": id})
	return nil
}
