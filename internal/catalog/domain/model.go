package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Kind partitions the catalog into the two purchasable item families.
type Kind string

const (
	KindIngredient Kind = "ingredient"
	KindPackaging  Kind = "packaging"
)

func (k Kind) Valid() bool {
	return k == KindIngredient || k == KindPackaging
}

type Entry struct {
	ID        int64             `json:"id" gorm:"primaryKey"`
	Kind      Kind              `json:"kind" gorm:"type:text;not null;uniqueIndex:ux_catalog_kind_slug,priority:1"`
	Name      string            `json:"name" gorm:"type:text;not null"`
	Slug      string            `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_catalog_kind_slug,priority:2"`
	Price     float64           `json:"price" gorm:"not null;default:0"`
	Quantity  float64           `json:"quantity" gorm:"not null;default:0"`
	Unit      string            `json:"unit" gorm:"type:text;not null;default:''"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Entry) TableName() string { return "catalog_entries" }
