// Command drain runs one queue-drain pass and exits: every queued order in
// the operational collection is advanced to processed. It is the CLI twin of
// POST /admin/drain, for bringing the storefront back online from a shell.
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/karinderya/go-storefront/internal/binstore"
	"github.com/karinderya/go-storefront/internal/catalog"
	"github.com/karinderya/go-storefront/internal/config"
	"github.com/karinderya/go-storefront/internal/lifecycle"
	"github.com/karinderya/go-storefront/internal/queue"
	"github.com/karinderya/go-storefront/internal/status"
	"github.com/karinderya/go-storefront/internal/systemlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
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
	if err := store.RegisterDefault(binstore.Products, catalog.Default()); err != nil {
		logrus.Fatalf("failed to register products default: %v", err)
	}
	if err := store.RegisterDefault(binstore.SystemStatus, status.DefaultAvailability()); err != nil {
		logrus.Fatalf("failed to register status default: %v", err)
	}

	recorder := systemlog.NewRecorder(store)
	gate := status.NewGate(store, recorder)
	manager := lifecycle.NewManager(store, catalog.NewLoader(store), gate, recorder)
	drainer := queue.NewDrainer(manager, recorder)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := drainer.Drain(ctx)
	if err != nil {
		logrus.Fatalf("drain failed: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
		"total":     res.Total,
	}).Info("drain complete")

	if res.Failed > 0 {
		os.Exit(1)
	}
}
