package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/karinderya/go-storefront/internal/binstore"
	"github.com/karinderya/go-storefront/internal/catalog"
	"github.com/karinderya/go-storefront/internal/orders"
	"github.com/karinderya/go-storefront/internal/status"
	"github.com/karinderya/go-storefront/internal/systemlog"
)

var (
	// ErrEmptyCart rejects a checkout with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInvalidEmail rejects a checkout with a malformed customer email.
	ErrInvalidEmail = errors.New("invalid customer email")

	// ErrInvalidQuantity rejects a cart holding a non-positive quantity.
	ErrInvalidQuantity = errors.New("cart quantity must be positive")
)

// Manager owns order creation and status transitions across the Operational
// Orders and Order Tracking collections. The two collections are projections
// of one logical order table; writes to them are not transactional and the
// manager's job is deciding which half-failures are fatal and which degrade.
type Manager struct {
	store    *binstore.Client
	catalog  *catalog.Loader
	gate     *status.Gate
	log      *systemlog.Recorder
	validate *validatorv10.Validate
	nowFunc  func() time.Time
	rng      *rand.Rand
}

func NewManager(store *binstore.Client, loader *catalog.Loader, gate *status.Gate, log *systemlog.Recorder) *Manager {
	return &Manager{
		store:    store,
		catalog:  loader,
		gate:     gate,
		log:      log,
		validate: validatorv10.New(),
		nowFunc:  time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateOrder validates the cart, prices it against the catalog, decides the
// initial status from the availability gate and persists the order to both
// collections. The operational write is the one that counts: if it fails the
// checkout fails, while a failed tracking write is logged and the order still
// reported as created.
func (m *Manager) CreateOrder(ctx context.Context, cart map[string]int, customerEmail string, details orders.Fulfillment) (*orders.Order, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	for name, qty := range cart {
		if qty <= 0 {
			return nil, fmt.Errorf("%w: %q x %d", ErrInvalidQuantity, name, qty)
		}
	}
	if err := m.validate.Var(customerEmail, "required,email"); err != nil {
		return nil, ErrInvalidEmail
	}

	// Fail-open: a status-read glitch must not block checkout.
	online := m.gate.Online(ctx)

	total, err := m.priceCart(ctx, cart)
	if err != nil {
		return nil, err
	}

	now := m.nowFunc().UTC()
	order := orders.Order{
		Items:           cart,
		TotalAmount:     total,
		CustomerEmail:   customerEmail,
		PaymentMethod:   orders.PaymentCashOnDelivery,
		Status:          orders.StatusQueued,
		QueuedAt:        now,
		DeliveryAddress: details.DeliveryAddress,
		ContactNumber:   details.ContactNumber,
		Notes:           details.Notes,
	}
	if online {
		order.SetStatus(orders.StatusProcessed, now)
	}

	err = binstore.Mutate(ctx, m.store, binstore.Orders, func(existing []orders.Order) ([]orders.Order, error) {
		id, err := orders.NewOrderID(m.rng, func(candidate string) bool {
			for _, o := range existing {
				if o.OrderID == candidate {
					return true
				}
			}
			return false
		})
		if err != nil {
			return nil, err
		}
		order.OrderID = id
		return append(existing, order), nil
	})
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	err = binstore.Mutate(ctx, m.store, binstore.OrderTracking, func(tracked []orders.Order) ([]orders.Order, error) {
		return append(tracked, order), nil
	})
	if err != nil {
		// The customer has a confirmed order; tracking visibility is repaired
		// later via RepairTracking.
		logrus.WithFields(logrus.Fields{"order_id": order.OrderID, "error": err}).
			Warn("order saved but tracking write failed")
	}

	m.log.Append(ctx, "order_created",
		fmt.Sprintf("order %s %s for %s, total %s", order.OrderID, order.Status, order.CustomerEmail, order.TotalAmount.StringFixed(2)),
		"storefront")

	return &order, nil
}

// priceCart sums catalog price x quantity over the cart. Products missing
// from the catalog are excluded from the total rather than rejected.
func (m *Manager) priceCart(ctx context.Context, cart map[string]int) (decimal.Decimal, error) {
	menu, err := m.catalog.Load(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load catalog: %w", err)
	}

	total := decimal.Zero
	for name, qty := range cart {
		price, ok := menu.PriceOf(name)
		if !ok {
			logrus.WithField("product", name).Debug("cart item not in catalog, excluded from total")
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total, nil
}

// UpdateOrderStatus advances the order in both collections, each through its
// own read-modify-write cycle. Absence from one collection skips that
// collection silently. The tracking update is the hard dependency for the
// reported result; an operational failure is logged and the call still
// reports success. ProcessedAt is stamped only on the first transition into
// processed.
func (m *Manager) UpdateOrderStatus(ctx context.Context, orderID string, next orders.Status, updatedBy string) bool {
	now := m.nowFunc().UTC()

	apply := func(list []orders.Order) ([]orders.Order, error) {
		for i := range list {
			if list[i].OrderID != orderID {
				continue
			}
			if !list[i].Status.CanTransitionTo(next) {
				logrus.WithFields(logrus.Fields{
					"order_id": orderID,
					"from":     list[i].Status,
					"to":       next,
				}).Warn("illegal status transition skipped")
				break
			}
			list[i].SetStatus(next, now)
			break
		}
		return list, nil
	}

	if err := binstore.Mutate(ctx, m.store, binstore.Orders, apply); err != nil {
		logrus.WithFields(logrus.Fields{"order_id": orderID, "error": err}).
			Error("operational status update failed")
	}

	trackErr := binstore.Mutate(ctx, m.store, binstore.OrderTracking, apply)
	if trackErr != nil {
		logrus.WithFields(logrus.Fields{"order_id": orderID, "error": trackErr}).
			Error("tracking status update failed")
	}

	// The log records every attempt, confirmed persisted or not.
	m.log.Append(ctx, "order_status_update",
		fmt.Sprintf("order %s set %s", orderID, next), updatedBy)

	return trackErr == nil
}

// OrdersByEmail returns the customer's orders, newest first. The tracking
// collection is the primary source; when it cannot be read the operational
// collection is filtered instead, so lookups survive a desynchronized or
// unreachable tracking bin.
func (m *Manager) OrdersByEmail(ctx context.Context, email string) ([]orders.Order, error) {
	var list []orders.Order
	if _, err := m.store.FetchStrict(ctx, binstore.OrderTracking, &list); err != nil {
		logrus.WithField("error", err).Warn("tracking read failed, falling back to operational orders")
		if ferr := m.store.Fetch(ctx, binstore.Orders, &list); ferr != nil {
			return nil, ferr
		}
	}

	matched := make([]orders.Order, 0)
	for _, o := range list {
		if o.CustomerEmail == email {
			matched = append(matched, o)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].QueuedAt.After(matched[j].QueuedAt)
	})
	return matched, nil
}

// OperationalOrders returns the full operational collection. Read failures
// degrade to the empty default; callers treat the result as a best-effort
// snapshot.
func (m *Manager) OperationalOrders(ctx context.Context) ([]orders.Order, error) {
	var list []orders.Order
	if err := m.store.Fetch(ctx, binstore.Orders, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// RepairTracking copies operational orders that carry a customer email but
// are missing from the tracking collection into tracking. It is the explicit
// reconciliation for the inconsistency window CreateOrder tolerates.
func (m *Manager) RepairTracking(ctx context.Context) (int, error) {
	var operational []orders.Order
	if _, err := m.store.FetchStrict(ctx, binstore.Orders, &operational); err != nil {
		return 0, fmt.Errorf("read operational orders: %w", err)
	}

	added := 0
	err := binstore.Mutate(ctx, m.store, binstore.OrderTracking, func(tracked []orders.Order) ([]orders.Order, error) {
		present := make(map[string]bool, len(tracked))
		for _, o := range tracked {
			present[o.OrderID] = true
		}
		added = 0
		for _, o := range operational {
			if o.CustomerEmail == "" || present[o.OrderID] {
				continue
			}
			tracked = append(tracked, o)
			added++
		}
		return tracked, nil
	})
	if err != nil {
		return 0, fmt.Errorf("repair tracking: %w", err)
	}

	if added > 0 {
		m.log.Append(ctx, "tracking_repair",
			fmt.Sprintf("copied %d orders into tracking", added), "system")
	}
	return added, nil
}
