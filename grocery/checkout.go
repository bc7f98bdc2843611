package grocery

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"nutricoach"

	"go.opentelemetry.io/otel"
)

// DemoCartURL is returned whenever a real cart could not be produced:
// missing credentials or a tool session that failed outright.
const DemoCartURL = "https://example.com/demo-cart"

// countableUnits are unit families denoting discrete packaging. Their
// quantities become whole cart counts with a floor of one.
var countableUnits = map[string]bool{
	"count": true, "counts": true,
	"pc": true, "pcs": true,
	"piece": true, "pieces": true,
	"item": true, "items": true,
	"pack": true, "packs": true,
	"package": true, "packages": true,
	"bag": true, "bags": true,
	"bottle": true, "bottles": true,
	"jar": true, "jars": true,
}

// Checkout drives the external grocery tool to populate a cart from an
// aggregated shopping list. It is best-effort throughout: per-item
// failures are logged and streamed as progress events, and Run never
// returns an error to its caller.
type Checkout struct {
	connector Connector
	cfg       nutricoach.CheckoutConfig
	logger    nutricoach.CheckoutLogger
}

// NewCheckout initializes a checkout pipeline. A nil logger disables
// audit logging.
func NewCheckout(connector Connector, cfg nutricoach.CheckoutConfig, logger nutricoach.CheckoutLogger) *Checkout {
	if logger == nil {
		logger = nutricoach.NewNoOpCheckoutLogger()
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.CartBaseURL == "" {
		cfg.CartBaseURL = "https://app.picnic.app/cart"
	}
	return &Checkout{connector: connector, cfg: cfg, logger: logger}
}

// Run places the ingredients in an external cart and returns its URL.
// Empty lists and missing credentials short-circuit without touching
// the tool; a session that cannot start falls back to the demo URL.
func (c *Checkout) Run(ctx context.Context, ingredients []nutricoach.Ingredient, progress nutricoach.ProgressFunc) string {
	ctx, span := otel.Tracer(nutricoach.TracerNameCheckout).Start(ctx, "Checkout.Run")
	defer span.End()

	if len(ingredients) == 0 {
		progress.Emit(nutricoach.ProgressEvent{
			Type:    nutricoach.EventStatus,
			Message: "Shopping list empty; skipping cart creation.",
		})
		return c.cfg.CartBaseURL
	}

	if c.cfg.Username == "" || c.cfg.Password == "" {
		slog.Debug("CHECKOUT: Credentials missing; returning demo cart URL")
		progress.Emit(nutricoach.ProgressEvent{
			Type:    nutricoach.EventStatus,
			Message: "Grocery credentials missing; returning demo cart URL.",
		})
		return DemoCartURL
	}

	url, err := c.runSession(ctx, ingredients, progress)
	if err != nil {
		slog.Error("CHECKOUT: Grocery session failed; returning demo cart URL", "error", err)
		progress.Emit(nutricoach.ProgressEvent{
			Type:    nutricoach.EventStatus,
			Message: "Grocery checkout failed; returning demo cart URL.",
		})
		return DemoCartURL
	}
	return url
}

// runSession holds the single tool session. The only error paths here
// are session-level (connect, close-worthy setup); item-level failures
// are swallowed inside the loop.
func (c *Checkout) runSession(ctx context.Context, ingredients []nutricoach.Ingredient, progress nutricoach.ProgressFunc) (string, error) {
	progress.Emit(nutricoach.ProgressEvent{Type: nutricoach.EventTool, Tool: "grocery_session", Phase: nutricoach.PhaseStart})

	client, err := c.connector.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to connect grocery tool: %w", err)
	}
	defer client.Close()

	progress.Emit(nutricoach.ProgressEvent{Type: nutricoach.EventTool, Tool: "grocery_session", Phase: nutricoach.PhaseReady})

	if c.cfg.ClearCart {
		if err := client.ClearCart(ctx); err != nil {
			slog.Warn("CHECKOUT: Failed to clear existing cart", "error", err)
		}
	}

	var successes, failures []nutricoach.ItemLog

	for _, ingredient := range ingredients {
		item := c.processItem(ctx, client, ingredient, progress)
		if item.Failed() {
			failures = append(failures, item)
		} else {
			successes = append(successes, item)
		}
		if err := c.logger.LogItem(item); err != nil {
			slog.Error("CHECKOUT: Failed to log checkout item", "error", err, "ingredient", item.Ingredient)
		}
	}

	// One cart fetch after the loop, regardless of item outcomes.
	cart, err := client.GetCart(ctx)
	if err != nil {
		slog.Warn("CHECKOUT: Failed to fetch cart for URL derivation", "error", err)
	} else {
		progress.Emit(nutricoach.ProgressEvent{Type: nutricoach.EventTool, Tool: "grocery_get_cart", Phase: nutricoach.PhaseSuccess})
	}

	if len(failures) > 0 {
		slog.Info("CHECKOUT: Cart issues", "failures", failures)
	}
	if len(successes) > 0 {
		slog.Info("CHECKOUT: Cart additions", "successes", successes)
	}

	return c.deriveCartURL(cart), nil
}

// processItem runs search -> match -> add for one ingredient. All
// failure modes are recorded on the returned ItemLog; nothing escapes.
func (c *Checkout) processItem(ctx context.Context, client Client, ingredient nutricoach.Ingredient, progress nutricoach.ProgressFunc) nutricoach.ItemLog {
	query := searchQuery(ingredient)
	item := nutricoach.ItemLog{Ingredient: ingredient.Name, Timestamp: time.Now(), Query: query}

	progress.Emit(nutricoach.ProgressEvent{
		Type: nutricoach.EventTool, Tool: "grocery_search", Phase: nutricoach.PhaseStart,
		Ingredient: ingredient.Name, Query: query,
	})

	results, err := client.Search(ctx, query, c.cfg.SearchLimit)
	if err != nil {
		slog.Warn("CHECKOUT: Search failed", "ingredient", ingredient.Name, "error", err)
		item.Reason = "search_failed"
		progress.Emit(nutricoach.ProgressEvent{
			Type: nutricoach.EventTool, Tool: "grocery_search", Phase: nutricoach.PhaseError,
			Ingredient: ingredient.Name, Query: query, Reason: item.Reason,
		})
		return item
	}

	if len(results) == 0 {
		item.Reason = "no_results"
		progress.Emit(nutricoach.ProgressEvent{
			Type: nutricoach.EventTool, Tool: "grocery_search", Phase: nutricoach.PhaseError,
			Ingredient: ingredient.Name, Query: query, Reason: item.Reason,
		})
		return item
	}

	product := pickProduct(results, ingredient)
	if product.ID == "" {
		item.Reason = "no_match"
		progress.Emit(nutricoach.ProgressEvent{
			Type: nutricoach.EventTool, Tool: "grocery_search", Phase: nutricoach.PhaseError,
			Ingredient: ingredient.Name, Query: query, Reason: item.Reason,
		})
		return item
	}

	progress.Emit(nutricoach.ProgressEvent{
		Type: nutricoach.EventTool, Tool: "grocery_search", Phase: nutricoach.PhaseSuccess,
		Ingredient: ingredient.Name, Query: query, Product: product.Name, Results: len(results),
	})

	count := CartQuantity(ingredient)
	item.Product = product.Name
	item.Count = count

	progress.Emit(nutricoach.ProgressEvent{
		Type: nutricoach.EventTool, Tool: "grocery_add_to_cart", Phase: nutricoach.PhaseStart,
		Ingredient: ingredient.Name, Product: product.Name, Count: count,
	})

	if err := client.AddToCart(ctx, product.ID, count); err != nil {
		slog.Warn("CHECKOUT: Failed to add to cart", "ingredient", ingredient.Name, "error", err)
		item.Reason = "add_failed"
		progress.Emit(nutricoach.ProgressEvent{
			Type: nutricoach.EventTool, Tool: "grocery_add_to_cart", Phase: nutricoach.PhaseError,
			Ingredient: ingredient.Name, Product: product.Name, Count: count, Reason: item.Reason,
		})
		return item
	}

	progress.Emit(nutricoach.ProgressEvent{
		Type: nutricoach.EventTool, Tool: "grocery_add_to_cart", Phase: nutricoach.PhaseSuccess,
		Ingredient: ingredient.Name, Product: product.Name, Count: count,
	})
	return item
}

// searchQuery builds the tool query from the ingredient name and unit.
func searchQuery(ingredient nutricoach.Ingredient) string {
	base := strings.TrimSpace(ingredient.Name)
	unit := strings.TrimSpace(ingredient.Unit)
	if unit == "" {
		return base
	}
	return base + " " + unit
}

// pickProduct prefers a case-insensitive exact name match, falling back
// to the first result. Names vary in free text, so matching is loose on
// purpose; units are never part of the match.
func pickProduct(results []Product, ingredient nutricoach.Ingredient) Product {
	target := strings.ToLower(ingredient.Name)
	for _, candidate := range results {
		if strings.ToLower(candidate.Name) == target {
			return candidate
		}
	}
	return results[0]
}

// CartQuantity derives a whole cart count from a recipe quantity.
// Countable packaging rounds up with a floor of one; other units round
// up when at least one, otherwise default to one — never zero.
func CartQuantity(ingredient nutricoach.Ingredient) int {
	unit := strings.ToLower(strings.TrimSpace(ingredient.Unit))
	qty := ingredient.Qty
	if qty == 0 {
		qty = 1
	}
	if countableUnits[unit] {
		return max(1, int(math.Ceil(qty)))
	}
	if qty >= 1 {
		return int(math.Ceil(qty))
	}
	return 1
}

func (c *Checkout) deriveCartURL(cart Cart) string {
	if id := cart.Identifier(); id != "" {
		return c.cfg.CartBaseURL + "?cartId=" + id
	}
	return c.cfg.CartBaseURL
}
