package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/infrastructure/logger"
	"storefront/internal/infrastructure/mysql"
	"storefront/internal/product/repository"
	"storefront/internal/product/seed"
)

func main() {
	direction := pflag.StringP("direction", "d", "up", "migration direction: up or down")
	steps := pflag.IntP("steps", "n", 0, "apply only n migrations in the chosen direction (0 means all)")
	seedCatalog := pflag.Bool("seed", false, "seed the catalog after migrating")
	seedFile := pflag.String("seed-file", "", "YAML catalog to seed instead of the bundled one")
	configFile := pflag.StringP("config", "c", "internal/config/config.yaml", "path to the config file")
	pflag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.App.IsProduction())
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := run(cfg, *direction, *steps, zapLogger); err != nil {
		zapLogger.Error("migration failed", zap.Error(err))
		os.Exit(1)
	}

	if *seedCatalog || *seedFile != "" {
		if err := seedProducts(cfg.Database, *seedFile, zapLogger); err != nil {
			zapLogger.Error("seeding catalog failed", zap.Error(err))
			os.Exit(1)
		}
	}
}

func run(cfg *config.Config, direction string, steps int, logger *zap.Logger) error {
	m, err := mysql.NewMigrator(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			return m.Steps(steps)
		}
		return m.Up()
	case "down":
		if steps > 0 {
			return m.Steps(-steps)
		}
		return m.Down()
	default:
		return fmt.Errorf("unknown direction %q, expected up or down", direction)
	}
}

func seedProducts(cfg config.DatabaseConfig, path string, logger *zap.Logger) error {
	var (
		products []domain.Product
		err      error
	)
	if path != "" {
		products, err = seed.LoadFile(path)
	} else {
		products, err = seed.Default()
	}
	if err != nil {
		return err
	}

	db, err := mysql.NewConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	created, err := seed.Apply(context.Background(), repository.NewMySQLRepository(db), products, logger)
	if err != nil {
		return err
	}
	logger.Info("catalog seeded", zap.Int("created", created), zap.Int("total", len(products)))
	return nil
}
