package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/infrastructure/mysql"
)

// TestDatabaseConfig reads TEST_DB_* variables, defaulting to a local
// storefront_test schema.
func TestDatabaseConfig() config.DatabaseConfig {
	port, err := strconv.Atoi(envOr("TEST_DB_PORT", "3306"))
	if err != nil {
		port = 3306
	}
	return config.DatabaseConfig{
		Host:         envOr("TEST_DB_HOST", "localhost"),
		Port:         port,
		User:         envOr("TEST_DB_USER", "root"),
		Password:     os.Getenv("TEST_DB_PASSWORD"),
		Name:         envOr("TEST_DB_NAME", "storefront_test"),
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
}

// SetupTestDB connects to the test database and applies the schema. The
// test is skipped when no database is reachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := TestDatabaseConfig()

	db, err := mysql.NewConnection(cfg)
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	migrator, err := mysql.NewMigrator(cfg, zap.NewNop())
	if err != nil {
		db.Close()
		t.Fatalf("creating migrator: %v", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		db.Close()
		t.Fatalf("applying migrations: %v", err)
	}

	return db
}

// CleanupTestDB empties every table and closes db.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}

	tables := []string{"orders", "profiles", "accounts", "editable_contents", "new_items", "products"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
