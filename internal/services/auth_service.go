package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
	"recanto_verde_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 8

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"` // superadmin or waiter; waiter when empty
}

// AuthResponse DTO
type AuthResponse struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
	// EnsureAdmin creates the first superadmin when no user exists yet.
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type authService struct {
	userRepo repositories.UserRepository
	tx       repositories.Transactor
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repositories.UserRepository, tx repositories.Transactor) AuthService {
	return &authService{userRepo: userRepo, tx: tx}
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// RegisterUser handles the business logic for user registration.
func (s *authService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*models.User, error) {
	role := strings.ToLower(strings.TrimSpace(req.Role))
	if role == "" {
		role = models.RoleWaiter
	}
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidRole, req.Role)
	}
	if !utils.IsValidPasswordLength(req.Password, MinPasswordLength) {
		return nil, fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Role:     role,
		IsActive: true,
	}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.userRepo.CreateUser(ctx, exec, user, hashedPassword)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, user.Email)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return user, nil
}

// LoginUser handles user login and token generation.
func (s *authService) LoginUser(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.userRepo.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	accessToken, expiresAt, err := utils.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &AuthResponse{User: user, AccessToken: accessToken, ExpiresAt: expiresAt}, nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	count, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if utils.IsEmpty(email) || utils.IsEmpty(password) {
		return false, fmt.Errorf("no users exist and no admin credentials are configured")
	}
	if utils.IsEmpty(name) {
		name = "Administrator"
	}
	_, err = s.RegisterUser(ctx, RegisterUserRequest{Name: name, Email: email, Password: password, Role: models.RoleSuperadmin})
	if err != nil {
		return false, err
	}
	return true, nil
}
