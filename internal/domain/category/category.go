package category

import (
	"context"
	"time"

	"github.com/fpm2025/finance-tracker/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryType mirrors the transaction direction a category applies to
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// IsValid checks if the type is a valid CategoryType
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// String returns the string representation of CategoryType
func (t CategoryType) String() string {
	return string(t)
}

// Category labels transactions. A category with a nil UserID is a system
// default visible to everyone; user categories are private.
type Category struct {
	shared.BaseEntity
	UserID *uuid.UUID   `json:"user_id"`
	Name   string       `json:"name"`
	Type   CategoryType `json:"type"`
	Icon   string       `json:"icon"`
	Color  string       `json:"color"`
}

// NewCategory creates a user-owned category
func NewCategory(userID uuid.UUID, name string, catType CategoryType, icon, color string) (*Category, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 50 {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 50 characters")
	}
	if !catType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Category type must be INCOME or EXPENSE")
	}

	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     &userID,
		Name:       name,
		Type:       catType,
		Icon:       icon,
		Color:      color,
	}, nil
}

// VisibleTo reports whether the category can be used by the given user
func (c *Category) VisibleTo(userID uuid.UUID) bool {
	return c.UserID == nil || *c.UserID == userID
}

// Rename changes the category name
func (c *Category) Rename(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 50 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 50 characters")
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return nil
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByID finds a category by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindAllForUser returns system defaults plus the user's own categories
	FindAllForUser(ctx context.Context, userID uuid.UUID) ([]Category, error)

	// Save creates or updates a category
	Save(ctx context.Context, c *Category) error

	// Delete removes a user-owned category
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
