// Package pricecheck compares price snapshots stamped onto saved recipe
// lines against the live catalog and reports drift. The report is
// advisory, it never mutates the recipe.
package pricecheck

import (
	"github.com/bluecrumb/recipecost/internal/costing"
)

// Saved is a persisted line's snapshot view. SavedPrice and
// SavedQuantity are nil on lines written before snapshotting existed.
type Saved struct {
	TermID        string
	Name          string
	SavedPrice    *float64
	SavedQuantity *float64
}

type Change struct {
	TermID       string  `json:"termId"`
	Name         string  `json:"name"`
	OldPrice     float64 `json:"old_price"`
	NewPrice     float64 `json:"new_price"`
	OldQuantity  float64 `json:"old_quantity"`
	NewQuantity  float64 `json:"new_quantity"`
	OldUnitPrice float64 `json:"old_unit_price"`
	NewUnitPrice float64 `json:"new_unit_price"`
}

// Detect reports one change per line whose live price or package
// quantity differs from the stamped snapshot. Lines without a catalog
// link or without a complete snapshot are skipped.
func Detect(lines []Saved, snap costing.Snapshot) []Change {
	changes := make([]Change, 0)

	for _, line := range lines {
		if line.TermID == "" {
			continue
		}
		if line.SavedPrice == nil || line.SavedQuantity == nil {
			continue
		}

		item, ok := snap[line.TermID]
		if !ok {
			continue
		}

		if *line.SavedPrice == item.Price && *line.SavedQuantity == item.Quantity {
			continue
		}

		changes = append(changes, Change{
			TermID:       line.TermID,
			Name:         line.Name,
			OldPrice:     *line.SavedPrice,
			NewPrice:     item.Price,
			OldQuantity:  *line.SavedQuantity,
			NewQuantity:  item.Quantity,
			OldUnitPrice: unitPrice(*line.SavedPrice, *line.SavedQuantity),
			NewUnitPrice: unitPrice(item.Price, item.Quantity),
		})
	}

	return changes
}

func unitPrice(price, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}
	return price / quantity
}
