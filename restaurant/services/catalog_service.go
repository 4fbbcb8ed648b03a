package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quickbite/backend/restaurant/models"
	"github.com/quickbite/backend/restaurant/repository"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

type CreateMenuItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int64  `json:"price" binding:"required,gt=0"`
}

type CreateRestaurantRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// CatalogService serves menu lookups for the order saga plus the minimal
// catalog management endpoints used to seed data.
type CatalogService struct {
	repo   repository.CatalogRepository
	logger *zap.Logger
}

func NewCatalogService(repo repository.CatalogRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// GetMenuItem backs GET /internal/menu-items/:id, the read the order saga
// prices items from. The returned price is a snapshot; the caller freezes it.
func (s *CatalogService) GetMenuItem(ctx context.Context, id uuid.UUID) (*models.MenuItem, *ServiceError) {
	item, err := s.repo.FindMenuItemByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Menu item not found"}
		}
		s.logger.Error("menu item lookup failed", zap.String("menu_item_id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch menu item"}
	}
	return item, nil
}

func (s *CatalogService) GetMenu(ctx context.Context, restaurantID uuid.UUID) ([]models.MenuItem, *ServiceError) {
	items, err := s.repo.FindMenuByRestaurant(ctx, restaurantID)
	if err != nil {
		s.logger.Error("menu fetch failed", zap.String("restaurant_id", restaurantID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch menu"}
	}
	return items, nil
}

func (s *CatalogService) AddMenuItem(ctx context.Context, restaurantID uuid.UUID, req *CreateMenuItemRequest) (*models.MenuItem, *ServiceError) {
	item := &models.MenuItem{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
	}
	if err := s.repo.CreateMenuItem(ctx, item); err != nil {
		s.logger.Error("menu item create failed", zap.String("restaurant_id", restaurantID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create menu item"}
	}
	return item, nil
}

func (s *CatalogService) AddRestaurant(ctx context.Context, req *CreateRestaurantRequest) (*models.Restaurant, *ServiceError) {
	restaurant := &models.Restaurant{
		Name:    req.Name,
		Address: req.Address,
	}
	if err := s.repo.CreateRestaurant(ctx, restaurant); err != nil {
		s.logger.Error("restaurant create failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create restaurant"}
	}
	return restaurant, nil
}

func (s *CatalogService) ListRestaurants(ctx context.Context) ([]models.Restaurant, *ServiceError) {
	restaurants, err := s.repo.FindAllRestaurants(ctx)
	if err != nil {
		s.logger.Error("restaurant list failed", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch restaurants"}
	}
	return restaurants, nil
}
