package repository

import (
	"context"

	"github.com/bluecrumb/recipecost/internal/recipe/domain"
	"github.com/bluecrumb/recipecost/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, recipe *domain.Recipe) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO recipes (id, title, slug, servings, ingredients, packaging, total_cost, cost_per_serving, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID,
		recipe.Title,
		recipe.Slug,
		recipe.Servings,
		recipe.Ingredients,
		recipe.Packaging,
		recipe.TotalCost,
		recipe.CostPerServing,
		recipe.CreatedAt,
		recipe.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Recipe, error) {
	var rec domain.Recipe
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, servings, ingredients, packaging, total_cost, cost_per_serving, created_at, updated_at
		 FROM recipes WHERE id = ?`,
		id,
	).Scan(&rec).Error
	if err != nil {
		return nil, err
	}
	if rec.ID == 0 {
		return nil, nil
	}
	return &rec, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Recipe
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, servings, ingredients, packaging, total_cost, cost_per_serving, created_at, updated_at
		 FROM recipes WHERE id IN ?`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Recipe, error) {
	var items []domain.Recipe
	stmt := db.WithContext(ctx).Model(&domain.Recipe{})

	if filter.Title != "" {
		stmt = stmt.Where("title LIKE ?", "%"+filter.Title+"%")
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"title":      true,
		"total_cost": true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, recipe *domain.Recipe) error {
	if recipe == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE recipes
		 SET title = ?, slug = ?, servings = ?, ingredients = ?, packaging = ?, total_cost = ?, cost_per_serving = ?, updated_at = ?
		 WHERE id = ?`,
		recipe.Title,
		recipe.Slug,
		recipe.Servings,
		recipe.Ingredients,
		recipe.Packaging,
		recipe.TotalCost,
		recipe.CostPerServing,
		recipe.UpdatedAt,
		recipe.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM recipes WHERE id = ?`,
		id,
	).Error
}
