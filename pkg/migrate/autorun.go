package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/db/models"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Prepare brings the schema up to date on boot. Sqlite databases are
// auto-migrated from the models and seeded; Postgres runs the embedded goose
// migrations only when auto-migrate is enabled.
func Prepare(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client.Dialect() == "sqlite" {
		logg.Info(ctx, "auto-migrating sqlite schema")
		return AutoMigrate(ctx, client.DB())
	}
	if !cfg.App.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "running goose migrations")
	if err := Run(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}

// AutoMigrate creates the cart tables from the models and seeds the default
// promotions.
func AutoMigrate(ctx context.Context, conn *gorm.DB) error {
	conn = conn.WithContext(ctx)
	if err := conn.AutoMigrate(&models.CartSnapshot{}, &models.Promotion{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	seeds := []models.Promotion{
		{Code: "DISCOUNT10", Kind: "percentage", Value: decimal.NewFromInt(10), Active: true},
		{Code: "SAVE5", Kind: "fixed", Value: decimal.NewFromInt(5), Active: true},
		{Code: "WELCOME15", Kind: "percentage", Value: decimal.NewFromInt(15), Active: true},
	}
	if err := conn.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&seeds).Error; err != nil {
		return fmt.Errorf("seed promotions: %w", err)
	}
	return nil
}
