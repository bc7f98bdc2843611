package bedrock

import (
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// Tool describes a recording tool the model is forced to call. The
// input schema doubles as the structured-output schema.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

const collectSystemPrompt = `You are a nutrition coach collecting a client's intake.
From the user's latest reply, extract any of: sex, age, height in cm, weight in kg,
activity level, goal direction (lose/gain), goal rate (slow/moderate/fast), and food
preferences (favorite breakfasts, favorite mains, dislikes, allergies).
Heights given in feet/inches and weights in pounds must be converted to metric.
Record only fields the user actually stated; leave everything else empty.
In "say", ask briefly and warmly for whatever required intake fields are still missing
given the known state. Do not repeat questions about fields already known.`

const recipesSystemPrompt = `You are a nutrition coach building a one-week meal plan.
Given the user's profile, daily calorie target, and food preferences, produce exactly
2 breakfast recipes and 3 main (lunch/dinner) recipes built around foods they like,
avoiding their dislikes and allergies. Per-serving calories across a day of one
breakfast and two mains should land near the daily target. Every recipe needs a title,
estimated calories per serving, and an ingredient list with name, quantity, and unit
(metric or count units). In "say", give a one-sentence upbeat summary of the plan.`

func recordIntakeTool() Tool {
	return Tool{
		Name:        "record_intake",
		Description: "Record the intake fields extracted from the user's reply, plus a short conversational response.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"say"},
			Properties: map[string]*jsonschema.Schema{
				"say": {Type: "string", Description: "Short conversational reply asking for whatever is still missing."},
				"profile": {
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"sex":       {Type: "string", Enum: []any{"male", "female"}},
						"age":       {Type: "integer", Description: "Age in years."},
						"height_cm": {Type: "number", Description: "Height in centimeters."},
						"weight_kg": {Type: "number", Description: "Weight in kilograms."},
						"activity":  {Type: "string", Enum: []any{"sedentary", "light", "moderate", "very", "extreme"}},
					},
				},
				"goal": {
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"direction":     {Type: "string", Enum: []any{"loss", "gain"}},
						"rate_category": {Type: "string", Enum: []any{"low", "mid", "fast"}, Description: "low=gentle, mid=moderate, fast=aggressive pace."},
					},
				},
				"prefs": {
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"breakfasts_like": {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"mains_like":      {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"dislikes":        {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"allergies":       {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
						"cuisines":        {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
					},
				},
			},
		},
	}
}

func recordRecipesTool() Tool {
	recipe := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"title", "calories_per_serving", "ingredients"},
		Properties: map[string]*jsonschema.Schema{
			"title":                {Type: "string"},
			"calories_per_serving": {Type: "integer"},
			"ingredients": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type:     "object",
					Required: []string{"name", "qty", "unit"},
					Properties: map[string]*jsonschema.Schema{
						"name": {Type: "string"},
						"qty":  {Type: "number"},
						"unit": {Type: "string"},
					},
				},
			},
		},
	}

	return Tool{
		Name:        "record_recipes",
		Description: "Record the generated week of recipes plus a short conversational response.",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"say", "breakfasts", "mains"},
			Properties: map[string]*jsonschema.Schema{
				"say":        {Type: "string", Description: "One-sentence upbeat summary of the plan."},
				"breakfasts": {Type: "array", Items: recipe, MinItems: intptr(2), MaxItems: intptr(2)},
				"mains":      {Type: "array", Items: recipe, MinItems: intptr(3), MaxItems: intptr(3)},
			},
		},
	}
}

func intptr(v int) *int { return &v }
