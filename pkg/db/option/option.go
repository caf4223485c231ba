package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type sortBy struct {
	clause string
}

func (o sortBy) Apply(stmt *gorm.DB) *gorm.DB {
	if o.clause == "" {
		return stmt
	}
	return stmt.Order(o.clause)
}

func WithSortBy(clause string) Option {
	return sortBy{clause: clause}
}

// WithQuerySortBy builds an ORDER BY clause from user supplied sort/order
// params, restricted to the allowed column set.
func WithQuerySortBy(field, order string, allowed map[string]bool) string {
	field = strings.TrimSpace(field)
	if field == "" || !allowed[field] {
		field = "created_at"
	}

	direction := "ASC"
	if strings.EqualFold(strings.TrimSpace(order), "desc") {
		direction = "DESC"
	}

	return fmt.Sprintf("%s %s", field, direction)
}
