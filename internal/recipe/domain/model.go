package domain

import "time"

// Recipe persists the costed line items as JSON text columns. The rows
// are read back with DecodeLineItems, which tolerates whatever an older
// editor build may have written.
type Recipe struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Title          string    `json:"title" gorm:"type:text;not null"`
	Slug           string    `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_recipes_slug"`
	Servings       int       `json:"servings" gorm:"not null;default:0"`
	Ingredients    string    `json:"ingredients" gorm:"type:text;not null;default:''"`
	Packaging      string    `json:"packaging" gorm:"type:text;not null;default:''"`
	TotalCost      float64   `json:"total_cost" gorm:"not null;default:0"`
	CostPerServing float64   `json:"cost_per_serving" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Recipe) TableName() string { return "recipes" }
