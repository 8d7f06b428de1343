// Command initdb creates the marketplace tables and indexes.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"markethub/marketplace/internal/config"
	"markethub/marketplace/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StoreDriver != config.DriverPostgres {
		log.Fatalf("initdb needs STORE_DRIVER=%s", config.DriverPostgres)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := repository.Migrate(ctx, dbPool); err != nil {
		log.Fatalf("Failed to initialise database: %v", err)
	}

	for _, name := range repository.Tables() {
		fmt.Printf("table %s ready\n", name)
	}
	for _, d := range repository.Indexes {
		fmt.Println(repository.IndexSQL(d))
	}
	fmt.Println("Database initialised")
}
