package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/karinderya/go-storefront/internal/binstore"
)

// Product is one menu entry in the PRODUCTS collection.
type Product struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Available bool            `json:"available"`
}

// Catalog is the full product list, looked up by exact name.
type Catalog []Product

// PriceOf returns the price for a product name. The second return is false
// when the product is not in the catalog.
func (c Catalog) PriceOf(name string) (decimal.Decimal, bool) {
	for _, p := range c {
		if p.Name == name {
			return p.Price, true
		}
	}
	return decimal.Zero, false
}

// Default is the built-in menu used when the PRODUCTS collection cannot be
// read. The storefront stays browsable on this fallback.
func Default() Catalog {
	price := func(s string) decimal.Decimal {
		d, _ := decimal.NewFromString(s)
		return d
	}
	return Catalog{
		{Name: "SET A", Price: price("900.00"), Category: "set-meals", Available: true},
		{Name: "SET B", Price: price("1200.00"), Category: "set-meals", Available: true},
		{Name: "SET C", Price: price("1500.00"), Category: "set-meals", Available: true},
		{Name: "Garlic Rice", Price: price("60.00"), Category: "sides", Available: true},
		{Name: "Iced Tea (Pitcher)", Price: price("150.00"), Category: "drinks", Available: true},
		{Name: "Leche Flan", Price: price("120.00"), Category: "desserts", Available: true},
	}
}

// Loader fetches the catalog from the remote store.
type Loader struct {
	store *binstore.Client
}

func NewLoader(store *binstore.Client) *Loader {
	return &Loader{store: store}
}

// Load returns the current catalog. A failed read comes back as the
// registered default, so this never blocks browsing.
func (l *Loader) Load(ctx context.Context) (Catalog, error) {
	var c Catalog
	if err := l.store.Fetch(ctx, binstore.Products, &c); err != nil {
		return nil, err
	}
	return c, nil
}
