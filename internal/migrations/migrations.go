package migrations

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The DDL below is valid for both SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            full_name TEXT NOT NULL DEFAULT '',
            phone_number TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS medicines (
            medicine_id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            company TEXT NOT NULL,
            formulation TEXT NOT NULL DEFAULT 'Tablet',
            category TEXT NOT NULL DEFAULT 'General',
            total_stock NUMERIC(14,2) NOT NULL DEFAULT 0,
            reorder_level NUMERIC(14,2) NOT NULL DEFAULT 10,
            buying_price NUMERIC(14,2) NOT NULL DEFAULT 0,
            selling_price NUMERIC(14,2) NOT NULL DEFAULT 0,
            version INTEGER NOT NULL DEFAULT 0,
            date_added TIMESTAMP NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_name ON medicines (name)`,
	`CREATE TABLE IF NOT EXISTS batches (
            id TEXT PRIMARY KEY,
            medicine_id TEXT NOT NULL,
            batch_number TEXT NOT NULL,
            expiry_date TIMESTAMP NOT NULL,
            quantity NUMERIC(14,2) NOT NULL,
            buying_price NUMERIC(14,2) NOT NULL DEFAULT 0,
            date_received TIMESTAMP NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_batches_medicine_expiry ON batches (medicine_id, expiry_date)`,
	`CREATE TABLE IF NOT EXISTS sales (
            id TEXT PRIMARY KEY,
            medicine_id TEXT NOT NULL,
            name TEXT NOT NULL,
            quantity_sold NUMERIC(14,2) NOT NULL,
            total_buying_cost NUMERIC(14,2) NOT NULL,
            total_selling_price NUMERIC(14,2) NOT NULL,
            profit NUMERIC(14,2) NOT NULL,
            pharmacist_id TEXT NOT NULL DEFAULT '',
            pharmacist_name TEXT NOT NULL,
            date TIMESTAMP NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales (date)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
            id TEXT PRIMARY KEY,
            pharmacist_name TEXT NOT NULL,
            action TEXT NOT NULL,
            medicine_name TEXT NOT NULL,
            batch_number TEXT NOT NULL DEFAULT '',
            quantity_changed NUMERIC(14,2) NOT NULL,
            details TEXT NOT NULL DEFAULT '',
            timestamp TIMESTAMP NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON audit_logs (timestamp)`,
}

// Run creates the database schema required for the ledger.
func Run(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
