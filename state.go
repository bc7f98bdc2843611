package nutricoach

// Sex is the biological sex used by the resting-rate formula.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Activity is a self-reported activity level.
type Activity string

const (
	ActivitySedentary Activity = "sedentary"
	ActivityLight     Activity = "light"
	ActivityModerate  Activity = "moderate"
	ActivityVery      Activity = "very"
	ActivityExtreme   Activity = "extreme"
)

// Direction is the goal direction: lose or gain weight.
type Direction string

const (
	DirectionLoss Direction = "loss"
	DirectionGain Direction = "gain"
)

// RateCategory buckets how aggressively the user wants to move.
type RateCategory string

const (
	RateLow  RateCategory = "low"
	RateMid  RateCategory = "mid"
	RateFast RateCategory = "fast"
)

// Profile holds the user's biometrics. Fields are filled in incrementally
// as the intake conversation progresses; the zero value means "unknown".
type Profile struct {
	Sex      Sex      `json:"sex,omitempty"`
	Age      int      `json:"age,omitempty"`
	HeightCM float64  `json:"height_cm,omitempty"`
	WeightKG float64  `json:"weight_kg,omitempty"`
	Activity Activity `json:"activity,omitempty"`
}

// Merge copies the known fields of in onto p. Unknown (zero) incoming
// fields never clear a field that was already set.
func (p *Profile) Merge(in Profile) {
	if in.Sex != "" {
		p.Sex = in.Sex
	}
	if in.Age != 0 {
		p.Age = in.Age
	}
	if in.HeightCM != 0 {
		p.HeightCM = in.HeightCM
	}
	if in.WeightKG != 0 {
		p.WeightKG = in.WeightKG
	}
	if in.Activity != "" {
		p.Activity = in.Activity
	}
}

// Complete reports whether every intake field has been provided.
func (p Profile) Complete() bool {
	return p.Sex != "" &&
		p.Age != 0 &&
		p.HeightCM != 0 &&
		p.WeightKG != 0 &&
		p.Activity != ""
}

// Goal captures the direction and pace of the user's weight goal.
// Weeks and TargetDeltaKG are recorded when mentioned but do not feed
// the calorie math.
type Goal struct {
	Direction     Direction    `json:"direction,omitempty"`
	RateCategory  RateCategory `json:"rate_category,omitempty"`
	Weeks         int          `json:"weeks,omitempty"`
	TargetDeltaKG float64      `json:"target_delta_kg,omitempty"`
}

// Merge copies the known fields of in onto g.
func (g *Goal) Merge(in Goal) {
	if in.Direction != "" {
		g.Direction = in.Direction
	}
	if in.RateCategory != "" {
		g.RateCategory = in.RateCategory
	}
	if in.Weeks != 0 {
		g.Weeks = in.Weeks
	}
	if in.TargetDeltaKG != 0 {
		g.TargetDeltaKG = in.TargetDeltaKG
	}
}

// Complete reports whether direction and rate category are both set.
func (g Goal) Complete() bool {
	return g.Direction != "" && g.RateCategory != ""
}

// FoodPrefs holds food preference lists. Insertion order is preserved.
type FoodPrefs struct {
	Dislikes       []string `json:"dislikes,omitempty"`
	Allergies      []string `json:"allergies,omitempty"`
	Cuisines       []string `json:"cuisines,omitempty"`
	BreakfastsLike []string `json:"breakfasts_like,omitempty"`
	MainsLike      []string `json:"mains_like,omitempty"`
}

// Merge replaces each list with the incoming one when it is non-empty.
// A partial extraction never wipes a list that was already collected.
func (f *FoodPrefs) Merge(in FoodPrefs) {
	if len(in.Dislikes) > 0 {
		f.Dislikes = in.Dislikes
	}
	if len(in.Allergies) > 0 {
		f.Allergies = in.Allergies
	}
	if len(in.Cuisines) > 0 {
		f.Cuisines = in.Cuisines
	}
	if len(in.BreakfastsLike) > 0 {
		f.BreakfastsLike = in.BreakfastsLike
	}
	if len(in.MainsLike) > 0 {
		f.MainsLike = in.MainsLike
	}
}

// Complete reports whether enough preferences were collected to plan a
// week: two breakfasts and three mains.
func (f FoodPrefs) Complete() bool {
	return len(f.BreakfastsLike) >= 2 && len(f.MainsLike) >= 3
}

// Ingredient is a quantity of a named ingredient. Names are matched
// case-insensitively during aggregation; units are matched exactly.
type Ingredient struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty"`
	Unit string  `json:"unit"`
}

// Recipe is a single generated recipe.
type Recipe struct {
	Title              string       `json:"title"`
	Servings           int          `json:"servings"`
	CaloriesPerServing int          `json:"calories_per_serving"`
	Ingredients        []Ingredient `json:"ingredients"`
	Steps              []string     `json:"steps"`
}

// WeekPlan is the weekly recipe rotation, stamped with the calorie
// targets that were in effect when it was generated.
type WeekPlan struct {
	Breakfasts     []Recipe `json:"breakfasts"`
	Mains          []Recipe `json:"mains"`
	TargetCalories int      `json:"target_calories"`
	TDEE           int      `json:"tdee"`
}

// CoachState is the per-session aggregate. TDEE and TargetCalories are
// set together exactly once, when profile and goal first become
// complete, and are never recomputed. Zero means "not yet computed".
type CoachState struct {
	Profile        Profile   `json:"profile"`
	Goal           Goal      `json:"goal"`
	Prefs          FoodPrefs `json:"prefs"`
	TDEE           int       `json:"tdee,omitempty"`
	TargetCalories int       `json:"target_calories,omitempty"`
	Plan           *WeekPlan `json:"plan,omitempty"`
	CartURL        string    `json:"cart_url,omitempty"`
}

// TargetsComputed reports whether ComputeTargets has already run for
// this session.
func (s *CoachState) TargetsComputed() bool {
	return s.TDEE != 0 && s.TargetCalories != 0
}
