package nutricoach

import (
	"math"
	"strings"
)

type ingredientKey struct {
	name string // lowercased
	unit string // exact
}

// AggregateIngredients merges ingredient quantities across recipes.
// Names are keyed case-insensitively, units exactly: "Onion"/"onion"
// combine, but "cup" and "tbsp" stay separate. Output order is the
// insertion order of each key's first occurrence, so a fixed input
// yields a fixed output. Quantities are summed (aggregating a list with
// itself doubles them) and rounded to 2 decimal places.
func AggregateIngredients(recipes []Recipe) []Ingredient {
	totals := make(map[ingredientKey]float64)
	order := make([]ingredientKey, 0)

	for _, recipe := range recipes {
		for _, item := range recipe.Ingredients {
			key := ingredientKey{name: strings.ToLower(item.Name), unit: item.Unit}
			if _, seen := totals[key]; !seen {
				order = append(order, key)
			}
			totals[key] += item.Qty
		}
	}

	out := make([]Ingredient, 0, len(order))
	for _, key := range order {
		out = append(out, Ingredient{
			Name: key.name,
			Qty:  math.Round(totals[key]*100) / 100,
			Unit: key.unit,
		})
	}
	return out
}
