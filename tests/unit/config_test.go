package unit

import (
	"os"
	"testing"

	"github.com/karinderya/go-storefront/internal/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BINSTORE_API_KEY", "test-key")
	t.Setenv("BIN_PRODUCTS", "p1")
	t.Setenv("BIN_ORDERS", "o1")
	t.Setenv("BIN_ORDER_TRACKING", "t1")
	t.Setenv("BIN_SYSTEM_STATUS", "s1")
	t.Setenv("BIN_SYSTEM_LOG", "l1")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("ADDR")
	os.Unsetenv("BINSTORE_ENDPOINT")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr ':8080', got %s", cfg.Addr)
	}
	if cfg.StoreEndpoint != "https://api.jsonbin.io/v3/b" {
		t.Fatalf("unexpected default endpoint %s", cfg.StoreEndpoint)
	}
	if cfg.OrdersBin != "o1" {
		t.Fatalf("orders bin mismatch, got %s", cfg.OrdersBin)
	}
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	setRequiredEnv(t)
	os.Unsetenv("BINSTORE_API_KEY")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for missing BINSTORE_API_KEY, got nil")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("addr override not applied, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level override not applied, got %s", cfg.LogLevel)
	}
}
