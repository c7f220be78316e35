package migrate

import (
	"context"
	"fmt"

	"github.com/lfbag/storefront/pkg/config"
	"github.com/lfbag/storefront/pkg/db"
	"github.com/lfbag/storefront/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot when running in dev
// with LFBAG_AUTO_MIGRATE enabled, or always against sqlite, which has no
// separate migrate step.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.FeatureFlags.AutoMigrate && !cfg.DB.IsSQLite() {
		return nil
	}
	if cfg.App.IsProd() && !cfg.DB.IsSQLite() {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dialect": client.Dialect()})
	logg.Info(ctx, "migrate.autorun.start")
	if err := Run(ctx, sqlDB, client.Dialect(), Embedded(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "migrate.autorun.done")
	return nil
}
