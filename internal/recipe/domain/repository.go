package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, recipe *Recipe) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Recipe, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Recipe, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Recipe, error)
	Update(ctx context.Context, db *gorm.DB, recipe *Recipe) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
