package nutricoach

import (
	"fmt"
	"math"
)

// activityFactors maps activity levels to their TDEE multiplier.
var activityFactors = map[Activity]float64{
	ActivitySedentary: 1.2,
	ActivityLight:     1.375,
	ActivityModerate:  1.55,
	ActivityVery:      1.725,
	ActivityExtreme:   1.9,
}

// Weekly kg change per rate category. Gain rates are deliberately
// slower than loss rates.
var (
	lossRates = map[RateCategory]float64{RateLow: 0.25, RateMid: 0.5, RateFast: 0.75}
	gainRates = map[RateCategory]float64{RateLow: 0.125, RateMid: 0.25, RateFast: 0.5}
)

// kcalPerKG is the energy equivalent of one kilogram of body mass.
const kcalPerKG = 7700.0

// RestingRate returns the resting metabolic rate in kcal/day using the
// Mifflin-St Jeor formula. Pathological inputs (e.g. zero height) can
// produce negative values; callers validate, this function does not.
func RestingRate(sex Sex, weightKG, heightCM float64, age int) float64 {
	adjustment := -161.0
	if sex == SexMale {
		adjustment = 5.0
	}
	return 10*weightKG + 6.25*heightCM - 5*float64(age) + adjustment
}

// MaintenanceEnergy computes total daily energy expenditure from a
// profile. Activity defaults to moderate when unset. The result is
// rounded with math.Round, i.e. halves round away from zero (round-half-up
// for the positive values produced here).
func MaintenanceEnergy(p Profile) (int, error) {
	if p.Sex == "" || p.Age == 0 {
		return 0, fmt.Errorf("profile missing sex or age for maintenance calculation")
	}
	if p.HeightCM == 0 || p.WeightKG == 0 {
		return 0, fmt.Errorf("profile missing height or weight for maintenance calculation")
	}

	rate := RestingRate(p.Sex, p.WeightKG, p.HeightCM, p.Age)

	activity := p.Activity
	if activity == "" {
		activity = ActivityModerate
	}
	factor, ok := activityFactors[activity]
	if !ok {
		return 0, fmt.Errorf("unknown activity level %q", activity)
	}

	return int(math.Round(rate * factor)), nil
}

// DailyCalorieDelta returns the daily kcal surplus or deficit implied by
// the chosen rate category.
func DailyCalorieDelta(direction Direction, rate RateCategory) (float64, error) {
	var rates map[RateCategory]float64
	switch direction {
	case DirectionLoss:
		rates = lossRates
	case DirectionGain:
		rates = gainRates
	default:
		return 0, fmt.Errorf("unknown goal direction %q", direction)
	}

	kgPerWeek, ok := rates[rate]
	if !ok {
		return 0, fmt.Errorf("unknown rate category %q", rate)
	}
	return kgPerWeek * kcalPerKG / 7.0, nil
}

// ComputeTargets populates TDEE and TargetCalories on the state.
// Contract: call exactly once per session, after profile and goal are
// complete. It does not guard against recomputation itself; the stage
// orchestrator checks TargetsComputed before calling.
func (s *CoachState) ComputeTargets() error {
	if s.Profile.Sex == "" {
		return fmt.Errorf("profile sex required before computing targets")
	}
	if s.Goal.Direction == "" || s.Goal.RateCategory == "" {
		return fmt.Errorf("goal direction and rate required before computing targets")
	}

	tdee, err := MaintenanceEnergy(s.Profile)
	if err != nil {
		return err
	}
	delta, err := DailyCalorieDelta(s.Goal.Direction, s.Goal.RateCategory)
	if err != nil {
		return err
	}

	target := float64(tdee) + delta
	if s.Goal.Direction == DirectionLoss {
		target = float64(tdee) - delta
	}

	s.TDEE = tdee
	s.TargetCalories = int(math.Round(target))
	return nil
}
