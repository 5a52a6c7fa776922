package nutrition

import "math"

const (
	proteinShare = 0.3
	carbsShare   = 0.4
	fatsShare    = 0.3

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:   1.2,
	Light:       1.375,
	Moderate:    1.55,
	VeryActive:  1.725,
	ExtraActive: 1.9,
}

var objectiveAdjustments = map[Objective]float64{
	Lose:     -500,
	Maintain: 0,
	Gain:     500,
}

// bmr estimates basal metabolic rate with the Mifflin-St Jeor equation
func bmr(p Profile) float64 {
	val := 10*p.Weight + 6.25*p.Height - 5*float64(p.Age)
	if p.Sex == Male {
		return val + 5
	}
	return val - 161
}

// ComputeGoals returns the daily calorie and macronutrient targets for the profile.
// The profile is expected to be validated and normalized to centimeters already.
func ComputeGoals(p Profile) Goals {
	basal := bmr(p)
	tdee := basal * activityMultipliers[p.Activity]
	calories := tdee + objectiveAdjustments[p.Objective]
	return Goals{
		BMR:      math.Round(basal),
		Calories: int(math.Round(calories)),
		Protein:  math.Round(calories * proteinShare / kcalPerGramProtein),
		Carbs:    math.Round(calories * carbsShare / kcalPerGramCarbs),
		Fats:     math.Round(calories * fatsShare / kcalPerGramFat),
	}
}

// MacroCalories returns the energy implied by the macro targets
func (g Goals) MacroCalories() float64 {
	return kcalPerGramProtein*g.Protein + kcalPerGramCarbs*g.Carbs + kcalPerGramFat*g.Fats
}
