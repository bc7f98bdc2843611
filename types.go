package nutricoach

import (
	"context"
	"encoding/json"
	"net/http"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Extraction is the structured result of running the field-extraction
// capability over one user reply. Only fields the capability could
// infer are populated; the stage orchestrator merges them into state.
type Extraction struct {
	Say     string    `json:"say"`
	Profile Profile   `json:"profile"`
	Goal    Goal      `json:"goal"`
	Prefs   FoodPrefs `json:"prefs"`
}

// RecipeSet is the structured result of the recipe-generation
// capability: two breakfasts and three mains.
type RecipeSet struct {
	Say        string   `json:"say"`
	Breakfasts []Recipe `json:"breakfasts"`
	Mains      []Recipe `json:"mains"`
}

// FieldExtractor infers profile, goal, and preference fields from free
// text, given a compact summary of the known session state.
type FieldExtractor interface {
	Extract(ctx context.Context, promptContext string) (Extraction, error)
}

// RecipeGenerator produces the weekly recipe set from the full session
// state summary.
type RecipeGenerator interface {
	GenerateRecipes(ctx context.Context, promptContext string) (RecipeSet, error)
}

// Transcriber converts an audio payload to text. A nil Transcriber at
// the API boundary means speech input is unavailable, not a crash.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// PlanResponse bundles everything the generate-plan stage returns.
type PlanResponse struct {
	Say          string       `json:"say"`
	Plan         *WeekPlan    `json:"plan"`
	ShoppingList []Ingredient `json:"shopping_list"`
	CartURL      string       `json:"cart_url"`
}

// Summary renders the state as compact JSON for capability prompts.
// Plan and cart URL are dropped to keep the payload small.
func (s *CoachState) Summary() string {
	trimmed := struct {
		Profile        Profile   `json:"profile"`
		Goal           Goal      `json:"goal"`
		Prefs          FoodPrefs `json:"prefs"`
		TDEE           int       `json:"tdee,omitempty"`
		TargetCalories int       `json:"target_calories,omitempty"`
	}{s.Profile, s.Goal, s.Prefs, s.TDEE, s.TargetCalories}

	b, err := json.Marshal(trimmed)
	if err != nil {
		return "{}"
	}
	return string(b)
}
