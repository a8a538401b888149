package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds everything the process needs to talk to the remote bin store
// and serve the storefront. It is built once in main and passed down
// explicitly; nothing reads the environment after startup.
type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	// Remote document store.
	StoreEndpoint string `env:"BINSTORE_ENDPOINT" envDefault:"https://api.jsonbin.io/v3/b"`
	StoreAPIKey   string `env:"BINSTORE_API_KEY,required"`

	// Bin IDs, one per logical collection.
	ProductsBin      string `env:"BIN_PRODUCTS,required"`
	OrdersBin        string `env:"BIN_ORDERS,required"`
	OrderTrackingBin string `env:"BIN_ORDER_TRACKING,required"`
	SystemStatusBin  string `env:"BIN_SYSTEM_STATUS,required"`
	SystemLogBin     string `env:"BIN_SYSTEM_LOG,required"`

	// Shared admin password for the /admin surface.
	AdminPassword string `env:"ADMIN_PASSWORD,required"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}
