package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/karinderya/go-storefront/internal/binstore"
	"github.com/karinderya/go-storefront/internal/catalog"
	"github.com/karinderya/go-storefront/internal/config"
	"github.com/karinderya/go-storefront/internal/export"
	"github.com/karinderya/go-storefront/internal/handlers"
	"github.com/karinderya/go-storefront/internal/lifecycle"
	"github.com/karinderya/go-storefront/internal/queue"
	"github.com/karinderya/go-storefront/internal/status"
	"github.com/karinderya/go-storefront/internal/systemlog"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestID())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterStorefrontRoutes(r, cfg)
	handlers.RegisterAdminRoutes(r, cfg)

	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	store := binstore.New(
		&http.Client{Timeout: 15 * time.Second},
		cfg.StoreEndpoint,
		cfg.StoreAPIKey,
		map[binstore.Collection]string{
			binstore.Products:      cfg.ProductsBin,
			binstore.Orders:        cfg.OrdersBin,
			binstore.OrderTracking: cfg.OrderTrackingBin,
			binstore.SystemStatus:  cfg.SystemStatusBin,
			binstore.SystemLog:     cfg.SystemLogBin,
		},
	)
	// Fail-open read defaults: the storefront stays browsable and checkout
	// stays unblocked when the remote store is unreachable.
	if err := store.RegisterDefault(binstore.Products, catalog.Default()); err != nil {
		logrus.Fatalf("failed to register products default: %v", err)
	}
	if err := store.RegisterDefault(binstore.SystemStatus, status.DefaultAvailability()); err != nil {
		logrus.Fatalf("failed to register status default: %v", err)
	}

	recorder := systemlog.NewRecorder(store)
	gate := status.NewGate(store, recorder)
	loader := catalog.NewLoader(store)
	manager := lifecycle.NewManager(store, loader, gate, recorder)
	drainer := queue.NewDrainer(manager, recorder)

	r := setupRouter(handlers.HandlerConfig{
		Manager:       manager,
		Drainer:       drainer,
		Gate:          gate,
		Catalog:       loader,
		Recorder:      recorder,
		Importer:      export.NewImporter(store),
		AdminPassword: cfg.AdminPassword,
	})

	logrus.Infof("storefront listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
