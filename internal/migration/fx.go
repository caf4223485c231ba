package migration

import (
	"strings"

	catalogdomain "github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bluecrumb/recipecost/internal/config"
	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	"github.com/bluecrumb/recipecost/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(strings.TrimSpace(cfg.DBType), "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned SQL targets postgres. Other dialects
			// derive the schema from the models.
			if err := conn.AutoMigrate(&catalogdomain.Entry{}, &recipedomain.Recipe{}); err != nil {
				return err
			}
		}

		if cfg.SeedCatalog {
			return seed.EnsureStarterCatalog(conn)
		}
		return nil
	}),
)
