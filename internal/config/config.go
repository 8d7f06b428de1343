package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServerPort  string
	StoreDriver string
	DatabaseURL string
	JWTSecret   string

	// APIURL is the API base address used by client tooling.
	APIURL string
}

func Load() (*Config, error) {
	// Load .env file if it exists (useful for local dev)
	_ = godotenv.Load()

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	storeDriver := os.Getenv("STORE_DRIVER")
	if storeDriver == "" {
		storeDriver = DriverPostgres
	}
	if storeDriver != DriverPostgres && storeDriver != DriverMemory {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, storeDriver)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" && storeDriver == DriverPostgres {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	apiURL := os.Getenv("API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:" + serverPort
	}

	return &Config{
		ServerPort:  serverPort,
		StoreDriver: storeDriver,
		DatabaseURL: databaseURL,
		JWTSecret:   jwtSecret,
		APIURL:      apiURL,
	}, nil
}
