package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

const defaultTestDSN = "root:@tcp(localhost:3306)/surplus_test?parseTime=true&loc=UTC"

// SetupTestDB opens the integration database named by TEST_DB_DSN and skips
// the test when it cannot be reached.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties the tables and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	for _, table := range []string{"orders", "restaurants"} {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

func SetupTestTables(t *testing.T, db *sql.DB) {
	tables := []struct {
		name  string
		query string
	}{
		{"restaurants", CreateRestaurantsTable},
		{"orders", CreateOrdersTable},
	}

	for _, tbl := range tables {
		if _, err := db.Exec(tbl.query); err != nil {
			t.Logf("failed to create table %s: %v", tbl.name, err)
		}
	}
}

const CreateRestaurantsTable = `
CREATE TABLE IF NOT EXISTS restaurants (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	delivery_fee DECIMAL(10,2) NOT NULL DEFAULT 0.00,
	tax_rate DECIMAL(6,4) NOT NULL DEFAULT 0.0000,
	packages JSON NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)
)`

const CreateOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
	id CHAR(36) NOT NULL PRIMARY KEY,
	restaurant_id VARCHAR(64) NOT NULL,
	idempotency_key VARCHAR(128) NULL,
	status VARCHAR(32) NOT NULL,
	document JSON NOT NULL,
	version BIGINT NOT NULL DEFAULT 1,
	created_at DATETIME(3) NOT NULL,
	updated_at DATETIME(3) NOT NULL,
	UNIQUE KEY uq_orders_idempotency_key (idempotency_key),
	INDEX idx_orders_restaurant (restaurant_id, status, created_at)
)`
