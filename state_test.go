package nutricoach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileMerge(t *testing.T) {
	base := Profile{Sex: SexFemale, Age: 34, HeightCM: 168}

	base.Merge(Profile{WeightKG: 64, Activity: ActivityLight})
	assert.Equal(t, Profile{Sex: SexFemale, Age: 34, HeightCM: 168, WeightKG: 64, Activity: ActivityLight}, base)

	// Zero-valued incoming fields never clear existing ones.
	base.Merge(Profile{Age: 35})
	assert.Equal(t, Profile{Sex: SexFemale, Age: 35, HeightCM: 168, WeightKG: 64, Activity: ActivityLight}, base)
}

func TestProfileComplete(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{
			name:    "all fields set",
			profile: Profile{Sex: SexMale, Age: 29, HeightCM: 178, WeightKG: 82, Activity: ActivityModerate},
			want:    true,
		},
		{
			name:    "missing activity",
			profile: Profile{Sex: SexMale, Age: 29, HeightCM: 178, WeightKG: 82},
			want:    false,
		},
		{
			name:    "empty",
			profile: Profile{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.Complete())
		})
	}
}

func TestGoalMerge(t *testing.T) {
	goal := Goal{Direction: DirectionLoss}
	goal.Merge(Goal{RateCategory: RateMid, Weeks: 12})
	assert.Equal(t, Goal{Direction: DirectionLoss, RateCategory: RateMid, Weeks: 12}, goal)

	goal.Merge(Goal{})
	assert.Equal(t, Goal{Direction: DirectionLoss, RateCategory: RateMid, Weeks: 12}, goal)
}

func TestFoodPrefsMerge(t *testing.T) {
	prefs := FoodPrefs{BreakfastsLike: []string{"oatmeal", "yogurt"}}

	// Non-empty incoming lists replace wholesale.
	prefs.Merge(FoodPrefs{MainsLike: []string{"salmon", "tacos", "stir fry"}})
	assert.Equal(t, []string{"oatmeal", "yogurt"}, prefs.BreakfastsLike)
	assert.Equal(t, []string{"salmon", "tacos", "stir fry"}, prefs.MainsLike)

	// Empty incoming lists leave collected lists alone.
	prefs.Merge(FoodPrefs{Dislikes: []string{"mushrooms"}})
	assert.Equal(t, []string{"oatmeal", "yogurt"}, prefs.BreakfastsLike)
	assert.Equal(t, []string{"mushrooms"}, prefs.Dislikes)

	prefs.Merge(FoodPrefs{BreakfastsLike: []string{"smoothie", "eggs"}})
	assert.Equal(t, []string{"smoothie", "eggs"}, prefs.BreakfastsLike)
}

func TestFoodPrefsComplete(t *testing.T) {
	tests := []struct {
		name  string
		prefs FoodPrefs
		want  bool
	}{
		{
			name:  "two breakfasts three mains",
			prefs: FoodPrefs{BreakfastsLike: []string{"a", "b"}, MainsLike: []string{"c", "d", "e"}},
			want:  true,
		},
		{
			name:  "one breakfast short",
			prefs: FoodPrefs{BreakfastsLike: []string{"a"}, MainsLike: []string{"c", "d", "e"}},
			want:  false,
		},
		{
			name:  "one main short",
			prefs: FoodPrefs{BreakfastsLike: []string{"a", "b"}, MainsLike: []string{"c", "d"}},
			want:  false,
		},
		{
			name:  "extras are fine",
			prefs: FoodPrefs{BreakfastsLike: []string{"a", "b", "x"}, MainsLike: []string{"c", "d", "e", "f"}},
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.prefs.Complete())
		})
	}
}

func TestCoachStateSummary(t *testing.T) {
	state := CoachState{
		Profile:        Profile{Sex: SexMale, Age: 29},
		TDEE:           2778,
		TargetCalories: 1953,
		Plan:           &WeekPlan{TargetCalories: 1953},
		CartURL:        "https://example.com/cart",
	}

	summary := state.Summary()
	assert.Contains(t, summary, `"tdee":2778`)
	assert.Contains(t, summary, `"target_calories":1953`)
	assert.NotContains(t, summary, "plan")
	assert.NotContains(t, summary, "cart_url")
}
