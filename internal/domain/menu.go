package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Restaurant struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Location   string     `json:"location"`
	Categories []Category `json:"categories,omitempty"`
	Dishes     []Dish     `json:"dishes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Category struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Dishes       []Dish    `json:"dishes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Dish types
const (
	DishTypeVeg    = "veg"
	DishTypeNonVeg = "non-veg"
)

type Dish struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurant_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	SpiceLevel   *int      `json:"spice_level,omitempty"`
	Type         string    `json:"type"`
	SellingRate  float64   `json:"selling_rate"`
	CategoryIDs  []string  `json:"category_ids"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateRestaurantRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type CreateCategoryRequest struct {
	Name         string `json:"name"`
	RestaurantID string `json:"restaurantId"`
}

type CreateDishRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Image        string   `json:"image"`
	SpiceLevel   *int     `json:"spiceLevel,omitempty"`
	Type         string   `json:"type,omitempty"`
	SellingRate  float64  `json:"sellingRate"`
	Categories   []string `json:"categories"`
	RestaurantID string   `json:"restaurantId"`
}

// PublicMenu is the read-only view served to diners who scan a QR code.
type PublicMenu struct {
	Restaurant RestaurantSummary `json:"restaurant"`
	Categories []CategorySummary `json:"categories"`
	Dishes     []Dish            `json:"dishes"`
}

type RestaurantSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

type CategorySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QRInfo carries everything a client needs to render a shareable QR
// code; the image itself is generated client-side.
type QRInfo struct {
	RestaurantID   string `json:"restaurantId"`
	RestaurantName string `json:"restaurantName"`
	MenuURL        string `json:"menuUrl"`
}

func (r *CreateRestaurantRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Location = strings.TrimSpace(r.Location)
}

func (r *CreateRestaurantRequest) Validate() error {
	if len(r.Name) < 2 {
		return fmt.Errorf("%w: restaurant name must be at least 2 characters", ErrValidation)
	}
	if len(r.Location) < 2 {
		return fmt.Errorf("%w: location must be at least 2 characters", ErrValidation)
	}
	return nil
}

func (r *CreateCategoryRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.RestaurantID = strings.TrimSpace(r.RestaurantID)
}

func (r *CreateCategoryRequest) Validate() error {
	if len(r.Name) < 2 {
		return fmt.Errorf("%w: category name must be at least 2 characters", ErrValidation)
	}
	if r.RestaurantID == "" {
		return fmt.Errorf("%w: restaurantId is required", ErrValidation)
	}
	return nil
}

func (r *CreateDishRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Image = strings.TrimSpace(r.Image)
	r.RestaurantID = strings.TrimSpace(r.RestaurantID)
	if r.Type == "" {
		r.Type = DishTypeVeg
	}
}

func (r *CreateDishRequest) Validate() error {
	if len(r.Name) < 2 {
		return fmt.Errorf("%w: dish name must be at least 2 characters", ErrValidation)
	}
	if len(r.Description) < 10 {
		return fmt.Errorf("%w: description must be at least 10 characters", ErrValidation)
	}
	if u, err := url.Parse(r.Image); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: image must be a valid URL", ErrValidation)
	}
	if r.SpiceLevel != nil && (*r.SpiceLevel < 0 || *r.SpiceLevel > 5) {
		return fmt.Errorf("%w: spice level must be between 0 and 5", ErrValidation)
	}
	if r.Type != DishTypeVeg && r.Type != DishTypeNonVeg {
		return fmt.Errorf("%w: type must be veg or non-veg", ErrValidation)
	}
	if r.SellingRate < 1 {
		return fmt.Errorf("%w: selling rate must be a positive number", ErrValidation)
	}
	if len(r.Categories) < 1 {
		return fmt.Errorf("%w: at least one category is required", ErrValidation)
	}
	if r.RestaurantID == "" {
		return fmt.Errorf("%w: restaurantId is required", ErrValidation)
	}
	return nil
}
