package nutricoach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateIngredients(t *testing.T) {
	tests := []struct {
		name    string
		recipes []Recipe
		want    []Ingredient
	}{
		{
			name: "case-insensitive names combine, units stay separate",
			recipes: []Recipe{
				{Ingredients: []Ingredient{
					{Name: "Onion", Qty: 1, Unit: "cup"},
					{Name: "Olive oil", Qty: 1, Unit: "tbsp"},
				}},
				{Ingredients: []Ingredient{
					{Name: "onion", Qty: 2, Unit: "cup"},
					{Name: "onion", Qty: 0.5, Unit: "piece"},
				}},
			},
			want: []Ingredient{
				{Name: "onion", Qty: 3, Unit: "cup"},
				{Name: "olive oil", Qty: 1, Unit: "tbsp"},
				{Name: "onion", Qty: 0.5, Unit: "piece"},
			},
		},
		{
			name: "quantities round to two decimals",
			recipes: []Recipe{
				{Ingredients: []Ingredient{{Name: "rice", Qty: 0.333, Unit: "cup"}}},
				{Ingredients: []Ingredient{{Name: "rice", Qty: 0.333, Unit: "cup"}}},
			},
			want: []Ingredient{{Name: "rice", Qty: 0.67, Unit: "cup"}},
		},
		{
			name:    "no recipes",
			recipes: nil,
			want:    []Ingredient{},
		},
		{
			name: "recipe without ingredients",
			recipes: []Recipe{
				{Title: "Toast"},
				{Ingredients: []Ingredient{{Name: "bread", Qty: 2, Unit: "slices"}}},
			},
			want: []Ingredient{{Name: "bread", Qty: 2, Unit: "slices"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateIngredients(tt.recipes))
		})
	}
}

func TestAggregateIngredients_Deterministic(t *testing.T) {
	recipes := []Recipe{
		{Ingredients: []Ingredient{
			{Name: "spinach", Qty: 1, Unit: "cup"},
			{Name: "eggs", Qty: 2, Unit: "count"},
			{Name: "garlic", Qty: 1, Unit: "clove"},
		}},
		{Ingredients: []Ingredient{
			{Name: "eggs", Qty: 3, Unit: "count"},
			{Name: "spinach", Qty: 2, Unit: "cup"},
		}},
	}

	first := AggregateIngredients(recipes)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, AggregateIngredients(recipes))
	}

	// Order follows each key's first occurrence.
	names := make([]string, 0, len(first))
	for _, item := range first {
		names = append(names, item.Name)
	}
	assert.Equal(t, []string{"spinach", "eggs", "garlic"}, names)
}

func TestAggregateIngredients_DoubledInputDoublesTotals(t *testing.T) {
	recipe := Recipe{Ingredients: []Ingredient{{Name: "milk", Qty: 1.5, Unit: "cup"}}}

	single := AggregateIngredients([]Recipe{recipe})
	double := AggregateIngredients([]Recipe{recipe, recipe})

	assert.Equal(t, 1.5, single[0].Qty)
	assert.Equal(t, 3.0, double[0].Qty)
}
