// Package rule implements the extraction and recipe-generation
// capabilities with deterministic keyword and regex rules. It backs the
// offline/demo deployment and gives tests a realistic capability
// without a model behind it.
package rule

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"nutricoach"
)

var (
	ageRe    = regexp.MustCompile(`(\d{2})\s*(?:years?|yo|yr)`)
	heightRe = regexp.MustCompile(`(\d{3})\s*(?:cm|centimet)`)
	weightRe = regexp.MustCompile(`(\d{2,3}(?:\.\d+)?)\s*(?:kg|kilogram)`)

	// The user reply arrives embedded in a prompt that carries the known
	// state summary; only the text after the marker is parsed.
	replyMarker = "New user reply: "
)

type Capability struct{}

func New() *Capability { return &Capability{} }

// Extract fills profile, goal, and preference fields it can recognize
// in the reply. Unrecognized fields stay zero so the merge never
// clobbers known state.
func (c *Capability) Extract(ctx context.Context, promptContext string) (nutricoach.Extraction, error) {
	text := promptContext
	known := nutricoach.CoachState{}
	if i := strings.LastIndex(promptContext, replyMarker); i >= 0 {
		known = stateFromPrompt(promptContext[:i])
		text = promptContext[i+len(replyMarker):]
	}
	lower := strings.ToLower(text)

	var out nutricoach.Extraction

	// "female" contains "male"; check it first.
	if strings.Contains(lower, "female") {
		out.Profile.Sex = nutricoach.SexFemale
	} else if strings.Contains(lower, "male") {
		out.Profile.Sex = nutricoach.SexMale
	}

	if m := ageRe.FindStringSubmatch(lower); m != nil {
		if age, err := strconv.Atoi(m[1]); err == nil {
			out.Profile.Age = age
		}
	}
	if m := heightRe.FindStringSubmatch(lower); m != nil {
		if height, err := strconv.ParseFloat(m[1], 64); err == nil {
			out.Profile.HeightCM = height
		}
	}
	if m := weightRe.FindStringSubmatch(lower); m != nil {
		if weight, err := strconv.ParseFloat(m[1], 64); err == nil {
			out.Profile.WeightKG = weight
		}
	}

	switch {
	case strings.Contains(lower, "sedentary"):
		out.Profile.Activity = nutricoach.ActivitySedentary
	case strings.Contains(lower, "light"):
		out.Profile.Activity = nutricoach.ActivityLight
	case strings.Contains(lower, "extreme"):
		out.Profile.Activity = nutricoach.ActivityExtreme
	case strings.Contains(lower, "very"):
		out.Profile.Activity = nutricoach.ActivityVery
	case strings.Contains(lower, "moderate"), strings.Contains(lower, "active"):
		out.Profile.Activity = nutricoach.ActivityModerate
	}

	if containsAny(lower, "lose", "deficit", "cut", "fat loss") {
		out.Goal.Direction = nutricoach.DirectionLoss
	} else if containsAny(lower, "gain", "bulk", "surplus") {
		out.Goal.Direction = nutricoach.DirectionGain
	}

	if containsAny(lower, "fast", "quick") {
		out.Goal.RateCategory = nutricoach.RateFast
	} else if containsAny(lower, "slow", "steady", "gradual") {
		out.Goal.RateCategory = nutricoach.RateLow
	} else if out.Goal.Direction != "" {
		out.Goal.RateCategory = nutricoach.RateMid
	}

	// A reply that yielded biometric or goal fields is intake text;
	// treating its fragments as food names would pollute preferences.
	if out.Profile == (nutricoach.Profile{}) && out.Goal == (nutricoach.Goal{}) {
		c.extractPrefs(text, &out.Prefs)
	}

	// The reply alone rarely carries the whole picture; fold in the
	// known state from the prompt before deciding what to ask next.
	known.Profile.Merge(out.Profile)
	known.Goal.Merge(out.Goal)
	known.Prefs.Merge(out.Prefs)
	out.Say = c.followUp(known)
	return out, nil
}

// extractPrefs splits a reply into food items: "no X" entries become
// dislikes, anything mentioning allergies is recorded as an allergy,
// and the rest fill breakfasts (first two) then mains (next three).
func (c *Capability) extractPrefs(text string, prefs *nutricoach.FoodPrefs) {
	var foods []string
	seen := map[string]bool{}

	for _, raw := range regexp.MustCompile(`[\n,;]+`).Split(text, -1) {
		item := strings.Trim(raw, " .")
		if item == "" {
			continue
		}
		lower := strings.ToLower(item)
		if strings.HasPrefix(lower, "no ") {
			entry := strings.TrimSpace(item[3:])
			if entry != "" {
				prefs.Dislikes = append(prefs.Dislikes, entry)
			}
			continue
		}
		if strings.Contains(lower, "allerg") {
			prefs.Allergies = append(prefs.Allergies, item)
			continue
		}
		if !seen[lower] {
			seen[lower] = true
			foods = append(foods, item)
		}
	}

	if len(foods) >= 2 {
		prefs.BreakfastsLike = foods[:2]
	}
	if len(foods) >= 3 {
		prefs.MainsLike = foods[2:min(5, len(foods))]
	}
}

// followUp names the profile fields still missing, then steers toward
// preferences until those are complete too.
func (c *Capability) followUp(known nutricoach.CoachState) string {
	var missing []string
	if known.Profile.Sex == "" {
		missing = append(missing, "sex")
	}
	if known.Profile.Age == 0 {
		missing = append(missing, "age")
	}
	if known.Profile.HeightCM == 0 {
		missing = append(missing, "height (cm)")
	}
	if known.Profile.WeightKG == 0 {
		missing = append(missing, "weight (kg)")
	}
	if known.Profile.Activity == "" {
		missing = append(missing, "activity level")
	}
	if known.Goal.Direction == "" {
		missing = append(missing, "goal (lose/gain weight)")
	}

	if len(missing) > 0 {
		return "Thanks! I still need: " + strings.Join(missing, ", ") + "."
	}
	if !known.Prefs.Complete() {
		return "Great start! Please list at least two breakfasts and three mains you enjoy, " +
			"plus any dislikes with 'no ...' statements."
	}
	return "Got it, your preferences are all set."
}

// Default rotations used when the collected preferences come up short.
var (
	defaultBreakfasts = []string{"Overnight oats", "Tofu scramble"}
	defaultMains      = []string{"Chickpea curry", "Lentil tacos", "Veggie stir fry"}
)

// GenerateRecipes builds a deterministic weekly plan from the state
// summary embedded in the prompt, padding short preference lists from
// the default rotations.
func (c *Capability) GenerateRecipes(ctx context.Context, promptContext string) (nutricoach.RecipeSet, error) {
	state := stateFromPrompt(promptContext)

	breakfastsLike := pad(state.Prefs.BreakfastsLike, defaultBreakfasts, 2)
	mainsLike := pad(state.Prefs.MainsLike, defaultMains, 3)

	var out nutricoach.RecipeSet
	for _, name := range breakfastsLike {
		out.Breakfasts = append(out.Breakfasts, recipeFromName(name, 400))
	}
	for _, name := range mainsLike {
		out.Mains = append(out.Mains, recipeFromName(name, 650))
	}

	out.Say = fmt.Sprintf(
		"Your weekly plan is ready! Breakfast rotation: %s. Mains lineup: %s. "+
			"I'll also include a consolidated shopping list and a quick cart link.",
		strings.Join(breakfastsLike, ", "), strings.Join(mainsLike, ", "),
	)
	return out, nil
}

func pad(have, defaults []string, want int) []string {
	out := append([]string{}, have...)
	for _, d := range defaults {
		if len(out) >= want {
			break
		}
		out = append(out, d)
	}
	return out[:want]
}

// stateFromPrompt recovers the JSON state summary embedded in the
// prompt text. An unparseable prompt yields an empty state, which the
// default rotations then cover.
func stateFromPrompt(promptContext string) nutricoach.CoachState {
	start := strings.Index(promptContext, "{")
	end := strings.LastIndex(promptContext, "}")
	var state nutricoach.CoachState
	if start < 0 || end <= start {
		return state
	}
	_ = json.Unmarshal([]byte(promptContext[start:end+1]), &state)
	return state
}

func recipeFromName(name string, calories int) nutricoach.Recipe {
	title := titleCase(name)
	return nutricoach.Recipe{
		Title:              title,
		Servings:           2,
		CaloriesPerServing: calories,
		Ingredients: []nutricoach.Ingredient{
			{Name: title, Qty: 1.0, Unit: "serving"},
			{Name: "Mixed veggies", Qty: 1.0, Unit: "cup"},
			{Name: "Olive oil", Qty: 1.0, Unit: "tbsp"},
		},
		Steps: []string{
			"Prep ingredients for " + title + ".",
			"Cook " + title + " until ready and serve.",
		},
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		first, size := utf8.DecodeRuneInString(w)
		words[i] = strings.ToUpper(string(first)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
