package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"markethub/marketplace/internal/config"
	"markethub/marketplace/internal/handler"
	"markethub/marketplace/internal/listing"
	"markethub/marketplace/internal/repository"
	"markethub/marketplace/internal/schema"
	"markethub/marketplace/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup storage
	ctx := context.Background()
	var repo repository.Repository
	switch cfg.StoreDriver {
	case config.DriverMemory:
		repo = repository.NewMemoryRepository()
		fmt.Println("Using in-memory store")
	default:
		dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}
		fmt.Println("Connected to database")

		if err := repository.Migrate(ctx, dbPool); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		repo = repository.NewPostgresRepository(dbPool)
	}

	// 3. Setup Logic
	market := service.NewMarketService(repo, schema.New())
	listings := listing.NewService(repo)

	h := handler.NewHandler(market, listings, []byte(cfg.JWTSecret))

	// 4. Setup Server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: h,
	}

	// 5. Run Server with Graceful Shutdown
	go func() {
		fmt.Printf("Starting server on port %s\n", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	fmt.Println("Shutting down server...")

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	fmt.Println("Server exiting")
}
