package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/menuqr/menuqr/internal/domain"
	"github.com/menuqr/menuqr/internal/repository"
	"github.com/menuqr/menuqr/pkg/events"
	"github.com/menuqr/menuqr/pkg/logger"
)

// ErrBaseURLNotSet means the public application URL is missing from the
// environment; shareable menu links cannot be built without it.
var ErrBaseURLNotSet = errors.New("application URL is not configured")

// MenuCacheStore is the slice of the Redis cache the menu service needs.
type MenuCacheStore interface {
	Get(ctx context.Context, restaurantID string) ([]byte, bool)
	Set(ctx context.Context, restaurantID string, payload []byte) error
	Invalidate(ctx context.Context, restaurantID string) error
}

type MenuService interface {
	CreateRestaurant(ctx context.Context, ownerID string, req *domain.CreateRestaurantRequest) (*domain.Restaurant, error)
	ListRestaurants(ctx context.Context, ownerID string) ([]domain.Restaurant, error)
	GetRestaurant(ctx context.Context, ownerID, id string) (*domain.Restaurant, error)
	DeleteRestaurant(ctx context.Context, ownerID, id string) error
	QRInfo(ctx context.Context, ownerID, id string) (*domain.QRInfo, error)

	CreateCategory(ctx context.Context, ownerID string, req *domain.CreateCategoryRequest) (*domain.Category, error)
	ListCategories(ctx context.Context, ownerID, restaurantID string) ([]domain.Category, error)
	DeleteCategory(ctx context.Context, ownerID, id string) error

	CreateDish(ctx context.Context, ownerID string, req *domain.CreateDishRequest) (*domain.Dish, error)
	ListDishes(ctx context.Context, ownerID, restaurantID string) ([]domain.Dish, error)
	DeleteDish(ctx context.Context, ownerID, id string) error

	PublicMenu(ctx context.Context, restaurantID string) (*domain.PublicMenu, error)
}

type menuService struct {
	restaurantRepo repository.RestaurantRepository
	categoryRepo   repository.CategoryRepository
	dishRepo       repository.DishRepository
	cache          MenuCacheStore
	eventBus       events.Publisher
	baseURL        string
}

func NewMenuService(
	restaurantRepo repository.RestaurantRepository,
	categoryRepo repository.CategoryRepository,
	dishRepo repository.DishRepository,
	cache MenuCacheStore,
	eventBus events.Publisher,
	baseURL string,
) MenuService {
	return &menuService{
		restaurantRepo: restaurantRepo,
		categoryRepo:   categoryRepo,
		dishRepo:       dishRepo,
		cache:          cache,
		eventBus:       eventBus,
		baseURL:        baseURL,
	}
}

// ownedRestaurant loads a restaurant for mutation paths where a missing
// restaurant and someone else's restaurant are both reported as
// forbidden (the caller has no business knowing which).
func (s *menuService) ownedRestaurant(ctx context.Context, ownerID, restaurantID string) (*domain.Restaurant, error) {
	rest, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if rest == nil || rest.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	return rest, nil
}

func (s *menuService) CreateRestaurant(ctx context.Context, ownerID string, req *domain.CreateRestaurantRequest) (*domain.Restaurant, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	rest, err := s.restaurantRepo.Create(ctx, ownerID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create restaurant: %w", err)
	}
	return rest, nil
}

func (s *menuService) ListRestaurants(ctx context.Context, ownerID string) ([]domain.Restaurant, error) {
	restaurants, err := s.restaurantRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}

	for i := range restaurants {
		categories, err := s.categoryRepo.ListByRestaurant(ctx, restaurants[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list categories: %w", err)
		}
		restaurants[i].Categories = categories
	}

	return restaurants, nil
}

func (s *menuService) GetRestaurant(ctx context.Context, ownerID, id string) (*domain.Restaurant, error) {
	rest, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if rest == nil {
		return nil, domain.ErrNotFound
	}
	if rest.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	categories, err := s.categoryRepo.ListByRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	dishes, err := s.dishRepo.ListByRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}

	// Attach each dish to the categories it belongs to.
	for i := range categories {
		for _, d := range dishes {
			for _, categoryID := range d.CategoryIDs {
				if categoryID == categories[i].ID {
					categories[i].Dishes = append(categories[i].Dishes, d)
					break
				}
			}
		}
	}

	rest.Categories = categories
	rest.Dishes = dishes
	return rest, nil
}

func (s *menuService) DeleteRestaurant(ctx context.Context, ownerID, id string) error {
	rest, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get restaurant: %w", err)
	}
	if rest == nil {
		return domain.ErrNotFound
	}
	if rest.OwnerID != ownerID {
		return domain.ErrForbidden
	}

	if err := s.restaurantRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete restaurant: %w", err)
	}

	s.menuChanged(ctx, id)
	return nil
}

func (s *menuService) QRInfo(ctx context.Context, ownerID, id string) (*domain.QRInfo, error) {
	rest, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if rest == nil {
		return nil, domain.ErrNotFound
	}
	if rest.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	if s.baseURL == "" {
		return nil, ErrBaseURLNotSet
	}

	return &domain.QRInfo{
		RestaurantID:   rest.ID,
		RestaurantName: rest.Name,
		MenuURL:        fmt.Sprintf("%s/menu/%s", s.baseURL, rest.ID),
	}, nil
}

func (s *menuService) CreateCategory(ctx context.Context, ownerID string, req *domain.CreateCategoryRequest) (*domain.Category, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.ownedRestaurant(ctx, ownerID, req.RestaurantID); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.menuChanged(ctx, req.RestaurantID)
	return category, nil
}

func (s *menuService) ListCategories(ctx context.Context, ownerID, restaurantID string) ([]domain.Category, error) {
	if _, err := s.ownedRestaurant(ctx, ownerID, restaurantID); err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	dishes, err := s.dishRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	for i := range categories {
		for _, d := range dishes {
			for _, categoryID := range d.CategoryIDs {
				if categoryID == categories[i].ID {
					categories[i].Dishes = append(categories[i].Dishes, d)
					break
				}
			}
		}
	}

	return categories, nil
}

func (s *menuService) DeleteCategory(ctx context.Context, ownerID, id string) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return domain.ErrNotFound
	}

	if _, err := s.ownedRestaurant(ctx, ownerID, category.RestaurantID); err != nil {
		return err
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.menuChanged(ctx, category.RestaurantID)
	return nil
}

func (s *menuService) CreateDish(ctx context.Context, ownerID string, req *domain.CreateDishRequest) (*domain.Dish, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.ownedRestaurant(ctx, ownerID, req.RestaurantID); err != nil {
		return nil, err
	}

	dish, err := s.dishRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create dish: %w", err)
	}

	s.menuChanged(ctx, req.RestaurantID)
	return dish, nil
}

func (s *menuService) ListDishes(ctx context.Context, ownerID, restaurantID string) ([]domain.Dish, error) {
	if _, err := s.ownedRestaurant(ctx, ownerID, restaurantID); err != nil {
		return nil, err
	}

	dishes, err := s.dishRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	return dishes, nil
}

func (s *menuService) DeleteDish(ctx context.Context, ownerID, id string) error {
	dish, err := s.dishRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get dish: %w", err)
	}
	if dish == nil {
		return domain.ErrNotFound
	}

	if _, err := s.ownedRestaurant(ctx, ownerID, dish.RestaurantID); err != nil {
		return err
	}

	if err := s.dishRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete dish: %w", err)
	}

	s.menuChanged(ctx, dish.RestaurantID)
	return nil
}

func (s *menuService) PublicMenu(ctx context.Context, restaurantID string) (*domain.PublicMenu, error) {
	ctx = context.WithValue(ctx, logger.RestaurantIDKey, restaurantID)

	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, restaurantID); ok {
			var menu domain.PublicMenu
			if err := json.Unmarshal(payload, &menu); err == nil {
				return &menu, nil
			}
			// Corrupt entry; fall through to the database.
			_ = s.cache.Invalidate(ctx, restaurantID)
		}
	}

	rest, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if rest == nil {
		return nil, domain.ErrNotFound
	}

	categories, err := s.categoryRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	dishes, err := s.dishRepo.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}

	menu := &domain.PublicMenu{
		Restaurant: domain.RestaurantSummary{
			ID:       rest.ID,
			Name:     rest.Name,
			Location: rest.Location,
		},
		Categories: make([]domain.CategorySummary, 0, len(categories)),
		Dishes:     dishes,
	}
	if menu.Dishes == nil {
		menu.Dishes = []domain.Dish{}
	}
	for _, c := range categories {
		menu.Categories = append(menu.Categories, domain.CategorySummary{ID: c.ID, Name: c.Name})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(menu); err == nil {
			if err := s.cache.Set(ctx, restaurantID, payload); err != nil {
				logger.WarnContext(ctx, "Failed to cache public menu", "error", err)
			}
		}
	}

	return menu, nil
}

// menuChanged drops the cached public menu and announces the change.
// Both are best effort; the write already happened.
func (s *menuService) menuChanged(ctx context.Context, restaurantID string) {
	ctx = context.WithValue(ctx, logger.RestaurantIDKey, restaurantID)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, restaurantID); err != nil {
			logger.WarnContext(ctx, "Failed to invalidate menu cache", "error", err)
		}
	}

	if err := s.eventBus.Publish(ctx, events.SubjectMenuUpdated, map[string]any{
		"restaurant_id": restaurantID,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish menu.updated event", "error", err)
	}
}
