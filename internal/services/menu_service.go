package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recanto_verde_backend/internal/models"
	"recanto_verde_backend/internal/repositories"
	"recanto_verde_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Data Transfer Objects (DTOs) ---

// CreateMenuItemRequest DTO
type CreateMenuItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" binding:"required"`
	IsAvailable *bool           `json:"is_available"` // true when omitted
}

// UpdateMenuItemRequest DTO
type UpdateMenuItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	IsAvailable *bool            `json:"is_available"`
}

// ErrInvalidMenuItem wraps menu validation failures.
var ErrInvalidMenuItem = errors.New("invalid menu item")

// --- MenuService Interface ---
type MenuService interface {
	CreateMenuItem(ctx context.Context, req CreateMenuItemRequest) (*models.MenuItem, error)
	GetMenuItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error)
	GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id int64, req UpdateMenuItemRequest) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) error
}

type menuService struct {
	menuRepo repositories.MenuRepository
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(menuRepo repositories.MenuRepository) MenuService {
	return &menuService{menuRepo: menuRepo}
}

func validateMenuFields(name string, price decimal.Decimal, category string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMenuItem)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidMenuItem)
	}
	if !models.IsValidMenuCategory(category) {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidMenuItem, category)
	}
	return nil
}

func mapMenuRepoError(err error, id int64) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: id %d", ErrMenuItemNotFound, id)
	case errors.Is(err, repositories.ErrReferenced):
		return fmt.Errorf("%w: id %d", ErrMenuItemInUse, id)
	}
	return err
}

func (s *menuService) CreateMenuItem(ctx context.Context, req CreateMenuItemRequest) (*models.MenuItem, error) {
	category := strings.ToLower(req.Category)
	if err := validateMenuFields(req.Name, req.Price, category); err != nil {
		return nil, err
	}
	item := &models.MenuItem{
		Name:        strings.TrimSpace(req.Name),
		Description: normalizeDescription(req.Description),
		Price:       req.Price.Round(2),
		Category:    models.MenuCategory(category),
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := s.menuRepo.CreateMenuItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *menuService) GetMenuItems(ctx context.Context, filters models.MenuFilters) ([]models.MenuItem, error) {
	return s.menuRepo.GetMenuItems(ctx, filters)
}

func (s *menuService) GetMenuItemByID(ctx context.Context, id int64) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetMenuItemByID(ctx, id)
	if err != nil {
		return nil, mapMenuRepoError(err, id)
	}
	return item, nil
}

// UpdateMenuItem never touches existing order lines; they keep their price snapshot.
func (s *menuService) UpdateMenuItem(ctx context.Context, id int64, req UpdateMenuItemRequest) (*models.MenuItem, error) {
	item, err := s.menuRepo.GetMenuItemByID(ctx, id)
	if err != nil {
		return nil, mapMenuRepoError(err, id)
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = normalizeDescription(req.Description)
	}
	if req.Price != nil {
		item.Price = req.Price.Round(2)
	}
	if req.Category != nil {
		item.Category = models.MenuCategory(strings.ToLower(*req.Category))
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if err := validateMenuFields(item.Name, item.Price, string(item.Category)); err != nil {
		return nil, err
	}
	if err := s.menuRepo.UpdateMenuItem(ctx, item); err != nil {
		return nil, mapMenuRepoError(err, id)
	}
	return item, nil
}

func (s *menuService) DeleteMenuItem(ctx context.Context, id int64) error {
	if err := s.menuRepo.DeleteMenuItem(ctx, id); err != nil {
		return mapMenuRepoError(err, id)
	}
	return nil
}

// normalizeDescription stores blank descriptions as NULL.
func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	return utils.NewNullString(*d)
}
