package repository

import (
	"context"
	"fmt"
	"strings"

	"markethub/marketplace/internal/schema"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Tables lists the collections Migrate creates, in creation order.
func Tables() []schema.Kind {
	return []schema.Kind{schema.Users, schema.Services, schema.Products, schema.Bookings, schema.Purchases, schema.Reviews}
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		user_type     TEXT NOT NULL CHECK (user_type IN ('customer', 'provider', 'seller')),
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id          TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		category    TEXT NOT NULL,
		price       DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		location    TEXT NOT NULL,
		icon        TEXT,
		rating      DOUBLE PRECISION,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		seller_id   TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		category    TEXT NOT NULL,
		price       DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		file_type   TEXT NOT NULL,
		file_url    TEXT NOT NULL,
		icon        TEXT,
		rating      DOUBLE PRECISION,
		downloads   INTEGER NOT NULL DEFAULT 0 CHECK (downloads >= 0),
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           TEXT PRIMARY KEY,
		customer_id  TEXT NOT NULL,
		service_id   TEXT NOT NULL,
		booking_date TEXT NOT NULL,
		booking_time TEXT NOT NULL,
		notes        TEXT NOT NULL,
		status       TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS purchases (
		id             TEXT PRIMARY KEY,
		customer_id    TEXT NOT NULL,
		product_id     TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		amount         DOUBLE PRECISION NOT NULL,
		status         TEXT NOT NULL,
		download_url   TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT PRIMARY KEY,
		item_id    TEXT NOT NULL,
		item_type  TEXT NOT NULL CHECK (item_type IN ('service', 'product')),
		user_id    TEXT NOT NULL,
		rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// IndexSQL renders the CREATE INDEX statement for d.
func IndexSQL(d IndexDef) string {
	unique := ""
	if d.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s)",
		unique, d.Name(), d.Collection, strings.Join(d.Fields, ", "))
}

// Migrate creates every table and index. It is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range tables {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, d := range Indexes {
		if _, err := db.Exec(ctx, IndexSQL(d)); err != nil {
			return fmt.Errorf("failed to create index %s: %w", d.Name(), err)
		}
	}
	return nil
}
