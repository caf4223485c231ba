package repository

import (
	"context"

	"github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bluecrumb/recipecost/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO catalog_entries (id, kind, name, slug, price, quantity, unit, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Kind,
		entry.Name,
		entry.Slug,
		entry.Price,
		entry.Quantity,
		entry.Unit,
		entry.Metadata,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Entry, error) {
	var e domain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, name, slug, price, quantity, unit, metadata, created_at, updated_at
		 FROM catalog_entries WHERE id = ?`,
		id,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, kind domain.Kind, ids []int64) ([]domain.Entry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, name, slug, price, quantity, unit, metadata, created_at, updated_at
		 FROM catalog_entries WHERE kind = ? AND id IN ?`,
		kind,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, kind domain.Kind, slug string) (*domain.Entry, error) {
	var e domain.Entry
	err := db.WithContext(ctx).Raw(
		`SELECT id, kind, name, slug, price, quantity, unit, metadata, created_at, updated_at
		 FROM catalog_entries WHERE kind = ? AND slug = ?`,
		kind,
		slug,
	).Scan(&e).Error
	if err != nil {
		return nil, err
	}
	if e.ID == 0 {
		return nil, nil
	}
	return &e, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Entry, error) {
	var items []domain.Entry
	stmt := db.WithContext(ctx).Model(&domain.Entry{})

	if filter.Kind != "" {
		stmt = stmt.Where("kind = ?", filter.Kind)
	}
	if filter.Name != "" {
		stmt = stmt.Where("name LIKE ?", "%"+filter.Name+"%")
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
		"price":      true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	if entry == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE catalog_entries
		 SET name = ?, slug = ?, price = ?, quantity = ?, unit = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		entry.Name,
		entry.Slug,
		entry.Price,
		entry.Quantity,
		entry.Unit,
		entry.Metadata,
		entry.UpdatedAt,
		entry.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM catalog_entries WHERE id = ?`,
		id,
	).Error
}
