// Package costing holds the pure cost calculators. Everything here is
// deterministic and side effect free so callers can recompute a full
// breakdown on every save.
package costing

import (
	"strconv"
	"strings"
)

// Item is the live price view a line is costed against.
type Item struct {
	Price    float64
	Quantity float64
	Unit     string
	Name     string
}

// Snapshot maps catalog entry ids (string form) to their live pricing.
type Snapshot map[string]Item

// Line is the minimal input a single cost computation needs. TermID is
// empty while the line is not linked to a catalog entry yet.
type Line struct {
	TermID string
	Amount string
}

// Breakdown is the result of a full recompute. Costs is index aligned
// with the input lines, ingredients first, then packaging.
type Breakdown struct {
	IngredientCosts []float64
	PackagingCosts  []float64
	Total           float64
	PerServing      float64
}

// ParseAmount interprets the free-form amount field. Empty or
// non-numeric input reports false.
func ParseAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// LineCost prices a single line: (price / package quantity) * amount.
// Unlinked lines, lines with no usable amount, unknown catalog ids and
// packages with a non-positive quantity all cost zero.
func LineCost(line Line, snap Snapshot) float64 {
	if line.TermID == "" {
		return 0
	}
	amount, ok := ParseAmount(line.Amount)
	if !ok {
		return 0
	}
	item, ok := snap[line.TermID]
	if !ok {
		return 0
	}
	if item.Quantity <= 0 {
		return 0
	}
	return (item.Price / item.Quantity) * amount
}

// Compute recomputes every line cost plus the recipe totals from
// scratch. Running it twice over its own output changes nothing.
func Compute(ingredients, packaging []Line, servings int, ingSnap, pkgSnap Snapshot) Breakdown {
	b := Breakdown{
		IngredientCosts: make([]float64, len(ingredients)),
		PackagingCosts:  make([]float64, len(packaging)),
	}

	for i, line := range ingredients {
		cost := LineCost(line, ingSnap)
		b.IngredientCosts[i] = cost
		b.Total += cost
	}
	for i, line := range packaging {
		cost := LineCost(line, pkgSnap)
		b.PackagingCosts[i] = cost
		b.Total += cost
	}

	if servings > 0 {
		b.PerServing = b.Total / float64(servings)
	}
	return b
}
