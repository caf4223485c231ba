package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, entry *Entry) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Entry, error)
	FindByIDs(ctx context.Context, db *gorm.DB, kind Kind, ids []int64) ([]Entry, error)
	FindBySlug(ctx context.Context, db *gorm.DB, kind Kind, slug string) (*Entry, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Entry, error)
	Update(ctx context.Context, db *gorm.DB, entry *Entry) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}
