package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/karinderya/go-storefront/internal/binstore"
	"github.com/karinderya/go-storefront/internal/orders"
)

// Flat-file layout: one header line, then one tab-separated line per order.
// The item map is flattened as "name x qty; name x qty" with names sorted so
// export/import round-trips byte-identically.

const noTimestamp = "-"

var header = []string{
	"order_id", "customer_email", "status", "total_amount",
	"payment_method", "queued_at", "processed_at", "items",
}

// Write renders orders in the flat tabular layout.
func Write(w io.Writer, list []orders.Order) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range list {
		processedAt := noTimestamp
		if o.ProcessedAt != nil {
			processedAt = o.ProcessedAt.Format(time.RFC3339Nano)
		}
		row := []string{
			o.OrderID,
			o.CustomerEmail,
			string(o.Status),
			o.TotalAmount.StringFixed(2),
			o.PaymentMethod,
			o.QueuedAt.Format(time.RFC3339Nano),
			processedAt,
			flattenItems(o.Items),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write order %s: %w", o.OrderID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Parse reads the flat tabular layout back into Order records.
func Parse(r io.Reader) ([]orders.Order, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = len(header)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty export file")
	}

	list := make([]orders.Order, 0, len(rows)-1)
	for i, row := range rows[1:] {
		o, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		list = append(list, o)
	}
	return list, nil
}

func parseRow(row []string) (orders.Order, error) {
	total, err := decimal.NewFromString(row[3])
	if err != nil {
		return orders.Order{}, fmt.Errorf("total_amount %q: %w", row[3], err)
	}
	queuedAt, err := time.Parse(time.RFC3339Nano, row[5])
	if err != nil {
		return orders.Order{}, fmt.Errorf("queued_at %q: %w", row[5], err)
	}

	var processedAt *time.Time
	if row[6] != noTimestamp {
		t, err := time.Parse(time.RFC3339Nano, row[6])
		if err != nil {
			return orders.Order{}, fmt.Errorf("processed_at %q: %w", row[6], err)
		}
		processedAt = &t
	}

	items, err := expandItems(row[7])
	if err != nil {
		return orders.Order{}, err
	}

	st := orders.Status(row[2])
	if !st.Valid() {
		return orders.Order{}, fmt.Errorf("unknown status %q", row[2])
	}

	return orders.Order{
		OrderID:       row[0],
		CustomerEmail: row[1],
		Status:        st,
		TotalAmount:   total,
		PaymentMethod: row[4],
		QueuedAt:      queuedAt,
		ProcessedAt:   processedAt,
		Items:         items,
	}, nil
}

func flattenItems(items map[string]int) string {
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s x %d", name, items[name]))
	}
	return strings.Join(parts, "; ")
}

func expandItems(s string) (map[string]int, error) {
	items := map[string]int{}
	if s == "" {
		return items, nil
	}
	for _, part := range strings.Split(s, "; ") {
		idx := strings.LastIndex(part, " x ")
		if idx < 0 {
			return nil, fmt.Errorf("malformed item %q", part)
		}
		qty, err := strconv.Atoi(part[idx+3:])
		if err != nil {
			return nil, fmt.Errorf("item quantity %q: %w", part, err)
		}
		items[part[:idx]] = qty
	}
	return items, nil
}

// Importer merges exported orders back into the operational collection.
type Importer struct {
	store *binstore.Client
}

func NewImporter(store *binstore.Client) *Importer {
	return &Importer{store: store}
}

// Import parses r and appends its orders, skipping any order_id already in
// the destination collection. Returns how many were added.
func (im *Importer) Import(ctx context.Context, r io.Reader) (int, error) {
	incoming, err := Parse(r)
	if err != nil {
		return 0, err
	}

	added := 0
	err = binstore.Mutate(ctx, im.store, binstore.Orders, func(existing []orders.Order) ([]orders.Order, error) {
		present := make(map[string]bool, len(existing))
		for _, o := range existing {
			present[o.OrderID] = true
		}
		added = 0
		for _, o := range incoming {
			if present[o.OrderID] {
				continue
			}
			existing = append(existing, o)
			present[o.OrderID] = true
			added++
		}
		return existing, nil
	})
	if err != nil {
		return 0, fmt.Errorf("import orders: %w", err)
	}
	return added, nil
}
