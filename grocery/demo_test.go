package grocery

import (
	"context"
	"testing"

	"nutricoach/grocery/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `[
	{"id": "p1", "name": "Rolled oats"},
	{"id": "p2", "name": "Greek yogurt"},
	{"id": "p3", "name": "Oat milk"},
	{"id": "p4", "name": "Eggs"}
]`

func TestDemoConnector_Connect(t *testing.T) {
	t.Run("loads the catalog", func(t *testing.T) {
		connector := NewDemoConnector(catalog.NewTestState([]byte(testCatalog)))
		client, err := connector.Connect(context.Background())
		require.NoError(t, err)
		defer client.Close()
	})

	t.Run("load failure", func(t *testing.T) {
		connector := NewDemoConnector(catalog.NewTestStateWithError())
		_, err := connector.Connect(context.Background())
		assert.Error(t, err)
	})

	t.Run("corrupt catalog", func(t *testing.T) {
		connector := NewDemoConnector(catalog.NewTestState([]byte("not json")))
		_, err := connector.Connect(context.Background())
		assert.Error(t, err)
	})
}

func TestDemoClient(t *testing.T) {
	connector := NewDemoConnector(catalog.NewTestState([]byte(testCatalog)))
	client, err := connector.Connect(context.Background())
	require.NoError(t, err)
	defer client.Close()

	t.Run("search matches words case-insensitively", func(t *testing.T) {
		results, err := client.Search(context.Background(), "OATS", 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Rolled oats", results[0].Name)
	})

	t.Run("any query word can match", func(t *testing.T) {
		results, err := client.Search(context.Background(), "oat cup", 5)
		require.NoError(t, err)
		// "oat" matches both "Rolled oats" and "Oat milk".
		assert.Len(t, results, 2)
	})

	t.Run("limit is honored", func(t *testing.T) {
		results, err := client.Search(context.Background(), "oat", 1)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("no matches", func(t *testing.T) {
		results, err := client.Search(context.Background(), "dragonfruit", 5)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("add get and clear cart", func(t *testing.T) {
		require.NoError(t, client.AddToCart(context.Background(), "p1", 2))
		require.NoError(t, client.AddToCart(context.Background(), "p1", 1))

		cart, err := client.GetCart(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "demo", cart.Identifier())

		require.NoError(t, client.ClearCart(context.Background()))
	})

	t.Run("add without product id fails", func(t *testing.T) {
		assert.Error(t, client.AddToCart(context.Background(), "", 1))
	})
}

func TestCartIdentifier(t *testing.T) {
	assert.Equal(t, "a", Cart{ID: "a"}.Identifier())
	assert.Equal(t, "b", Cart{CartID: "b"}.Identifier())
	assert.Equal(t, "a", Cart{ID: "a", CartID: "b"}.Identifier())
	assert.Equal(t, "", Cart{}.Identifier())
}
