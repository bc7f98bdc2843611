package grocery

import "context"

// Product is one search result from the grocery tool. A product
// without an ID cannot be added to a cart.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Cart is the grocery tool's cart payload, reduced to the identifiers
// needed for deriving a shareable cart URL. Different tool versions
// expose the id under different keys.
type Cart struct {
	ID     string `json:"id"`
	CartID string `json:"cart_id"`
}

// Identifier returns the cart id under whichever key it was exposed.
func (c Cart) Identifier() string {
	if c.ID != "" {
		return c.ID
	}
	return c.CartID
}

// Client is a session-scoped connection to the external grocery tool.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Product, error)
	AddToCart(ctx context.Context, productID string, count int) error
	GetCart(ctx context.Context) (Cart, error)
	ClearCart(ctx context.Context) error
	Close() error
}

// Connector establishes one grocery tool session per checkout run.
// Connect failures abort the whole checkout rather than a single item.
type Connector interface {
	Connect(ctx context.Context) (Client, error)
}
