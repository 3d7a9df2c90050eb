package models

import (
	"github.com/fpm2025/finance-tracker/internal/domain/category"
	"github.com/google/uuid"
)

// CategoryModel is the persistence model for the Category entity.
// A NULL user ID marks a system default category visible to everyone.
type CategoryModel struct {
	BaseModel
	UserID *uuid.UUID            `gorm:"type:uuid;index"`
	Name   string                `gorm:"type:varchar(100);not null"`
	Type   category.CategoryType `gorm:"type:varchar(10);not null;index"`
	Icon   string                `gorm:"type:varchar(50)"`
	Color  string                `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category.
func (m *CategoryModel) ToDomain() *category.Category {
	return &category.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		Name:       m.Name,
		Type:       m.Type,
		Icon:       m.Icon,
		Color:      m.Color,
	}
}

// FromDomain populates the persistence model from a domain Category.
func (m *CategoryModel) FromDomain(c *category.Category) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.UserID = c.UserID
	m.Name = c.Name
	m.Type = c.Type
	m.Icon = c.Icon
	m.Color = c.Color
}

// CategoryModelFromDomain creates a new persistence model from a domain Category.
func CategoryModelFromDomain(c *category.Category) *CategoryModel {
	m := &CategoryModel{}
	m.FromDomain(c)
	return m
}
