package grocery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"nutricoach"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names exposed by the mcp-picnic server.
const (
	toolSearch    = "picnic_search"
	toolAddToCart = "picnic_add_to_cart"
	toolGetCart   = "picnic_get_cart"
	toolClearCart = "picnic_clear_cart"
)

// MCPConnector spawns the grocery MCP server as a child process and
// speaks to it over stdio. One process per checkout run.
type MCPConnector struct {
	cfg nutricoach.CheckoutConfig
}

func NewMCPConnector(cfg nutricoach.CheckoutConfig) *MCPConnector {
	return &MCPConnector{cfg: cfg}
}

// Connect starts the MCP server process and performs the protocol
// handshake. Credentials travel via the child's environment, never via
// tool arguments.
func (c *MCPConnector) Connect(ctx context.Context) (Client, error) {
	args := strings.Fields(c.cfg.MCPArgs)
	if len(args) == 0 {
		args = []string{"-y", "mcp-picnic"}
	}
	command := c.cfg.MCPCommand
	if command == "" {
		command = "npx"
	}

	cmd := exec.Command(command, args...)
	cmd.Env = append(os.Environ(),
		"PICNIC_USERNAME="+c.cfg.Username,
		"PICNIC_PASSWORD="+c.cfg.Password,
	)

	client := mcp.NewClient(&mcp.Implementation{Name: "nutricoach", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, mcp.NewCommandTransport(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to start grocery MCP session: %w", err)
	}

	return &mcpClient{session: session}, nil
}

type mcpClient struct {
	session *mcp.ClientSession
}

func (m *mcpClient) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	payload, err := m.call(ctx, toolSearch, map[string]any{"query": query, "limit": limit})
	if err != nil {
		return nil, err
	}

	wrapper, ok := payload.(map[string]any)
	if !ok {
		return nil, nil
	}
	raw, err := json.Marshal(wrapper["results"])
	if err != nil {
		return nil, fmt.Errorf("failed to re-marshal search results: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	return products, nil
}

func (m *mcpClient) AddToCart(ctx context.Context, productID string, count int) error {
	_, err := m.call(ctx, toolAddToCart, map[string]any{"productId": productID, "count": count})
	return err
}

func (m *mcpClient) GetCart(ctx context.Context) (Cart, error) {
	payload, err := m.call(ctx, toolGetCart, map[string]any{})
	if err != nil {
		return Cart{}, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to re-marshal cart payload: %w", err)
	}
	var cart Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		return Cart{}, fmt.Errorf("failed to parse cart payload: %w", err)
	}
	return cart, nil
}

func (m *mcpClient) ClearCart(ctx context.Context) error {
	_, err := m.call(ctx, toolClearCart, map[string]any{})
	return err
}

func (m *mcpClient) Close() error {
	return m.session.Close()
}

// call invokes one MCP tool and extracts its JSON payload, preferring
// structured content and falling back to the first parseable text block.
func (m *mcpClient) call(ctx context.Context, name string, args map[string]any) (any, error) {
	res, err := m.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("tool %q failed: %w", name, err)
	}
	if res.IsError {
		return nil, fmt.Errorf("tool %q returned an error result", name)
	}
	return extractPayload(res), nil
}

func extractPayload(res *mcp.CallToolResult) any {
	if res == nil {
		return nil
	}
	if res.StructuredContent != nil {
		return res.StructuredContent
	}
	for _, entry := range res.Content {
		text, ok := entry.(*mcp.TextContent)
		if !ok || text.Text == "" {
			continue
		}
		var payload any
		if err := json.Unmarshal([]byte(text.Text), &payload); err == nil {
			return payload
		}
	}
	return nil
}
