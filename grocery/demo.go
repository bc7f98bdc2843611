package grocery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"nutricoach/grocery/catalog"
)

// DemoConnector serves a static product catalog in place of the real
// grocery tool. It backs offline development and the demo deployment,
// where no Picnic account exists but the checkout flow should still run
// end to end.
type DemoConnector struct {
	state catalog.State
}

func NewDemoConnector(state catalog.State) *DemoConnector {
	return &DemoConnector{state: state}
}

func (c *DemoConnector) Connect(ctx context.Context) (Client, error) {
	b, err := c.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(b, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &demoClient{products: products, cartID: "demo"}, nil
}

type demoClient struct {
	products []Product
	cartID   string

	mu    sync.Mutex
	lines map[string]int // productID -> count
}

// Search matches catalog products whose name contains any word of the
// query, case-insensitively. Good enough for a fixture catalog.
func (d *demoClient) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	words := strings.Fields(strings.ToLower(query))
	out := make([]Product, 0, limit)
	for _, p := range d.products {
		name := strings.ToLower(p.Name)
		for _, w := range words {
			if strings.Contains(name, w) {
				out = append(out, p)
				break
			}
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (d *demoClient) AddToCart(ctx context.Context, productID string, count int) error {
	if productID == "" {
		return fmt.Errorf("missing product id")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lines == nil {
		d.lines = make(map[string]int)
	}
	d.lines[productID] += count
	return nil
}

func (d *demoClient) GetCart(ctx context.Context) (Cart, error) {
	return Cart{ID: d.cartID}, nil
}

func (d *demoClient) ClearCart(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = nil
	return nil
}

func (d *demoClient) Close() error { return nil }
