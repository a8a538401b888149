package queue

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/karinderya/go-storefront/internal/lifecycle"
	"github.com/karinderya/go-storefront/internal/orders"
	"github.com/karinderya/go-storefront/internal/systemlog"
)

// Result aggregates one drain pass. Succeeded + Failed == Total.
type Result struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// Drainer advances every queued order to processed. It is invoked when the
// storefront comes back online, either from the admin surface or the drain
// CLI.
type Drainer struct {
	manager *lifecycle.Manager
	log     *systemlog.Recorder
}

func NewDrainer(manager *lifecycle.Manager, log *systemlog.Recorder) *Drainer {
	return &Drainer{manager: manager, log: log}
}

// Drain scans the operational collection for queued orders and transitions
// each one sequentially. One order's failure does not stop the rest; there is
// no rollback on partial failure, only the counts.
func (d *Drainer) Drain(ctx context.Context) (Result, error) {
	list, err := d.manager.OperationalOrders(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read operational orders: %w", err)
	}

	var res Result
	for _, o := range list {
		if o.Status != orders.StatusQueued {
			continue
		}
		res.Total++
		if d.manager.UpdateOrderStatus(ctx, o.OrderID, orders.StatusProcessed, "system") {
			res.Succeeded++
		} else {
			res.Failed++
			logrus.WithField("order_id", o.OrderID).Error("drain: order transition failed")
		}
	}

	d.log.Append(ctx, "queue_drain",
		fmt.Sprintf("drained queue: %d processed, %d failed of %d", res.Succeeded, res.Failed, res.Total),
		"system")
	return res, nil
}
