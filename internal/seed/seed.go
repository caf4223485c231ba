package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type starterEntry struct {
	Kind     domain.Kind
	Name     string
	Price    float64
	Quantity float64
	Unit     string
}

// A small pantry so a fresh install can cost a recipe immediately.
var starterCatalog = []starterEntry{
	{domain.KindIngredient, "All-purpose flour", 2.49, 1000, "g"},
	{domain.KindIngredient, "Granulated sugar", 3.10, 1000, "g"},
	{domain.KindIngredient, "Unsalted butter", 4.99, 500, "g"},
	{domain.KindIngredient, "Eggs", 3.60, 12, "pieces"},
	{domain.KindIngredient, "Whole milk", 1.85, 1000, "ml"},
	{domain.KindIngredient, "Baking powder", 1.99, 250, "g"},
	{domain.KindIngredient, "Vanilla extract", 5.49, 100, "ml"},
	{domain.KindPackaging, "Cake box", 8.50, 10, "pieces"},
	{domain.KindPackaging, "Cupcake liners", 3.25, 100, "pieces"},
	{domain.KindPackaging, "Ribbon", 4.00, 25, "m"},
}

// EnsureStarterCatalog seeds the default ingredient and packaging
// entries on first boot. An already populated catalog is left alone.
func EnsureStarterCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&domain.Entry{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		for _, item := range starterCatalog {
			entry := domain.Entry{
				ID:        int64(node.Generate()),
				Kind:      item.Kind,
				Name:      item.Name,
				Slug:      slug.Make(item.Name),
				Price:     item.Price,
				Quantity:  item.Quantity,
				Unit:      item.Unit,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
