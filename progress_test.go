package nutrition_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bzimmer/nutrition"
)

func TestAggregate(t *testing.T) {
	a := assert.New(t)
	a.Equal(nutrition.DailyTotals{}, nutrition.Aggregate(nil))
	a.Equal(nutrition.DailyTotals{}, nutrition.Aggregate([]*nutrition.Meal{}))

	meals := []*nutrition.Meal{
		{ID: "a", Name: "oats", Calories: 350, Protein: 20, Carbs: 30, Fats: 15},
		{ID: "b", Name: "apple", Calories: 200, Protein: 10, Carbs: 20, Fats: 5},
	}
	a.Equal(nutrition.DailyTotals{Calories: 550, Protein: 30, Carbs: 50, Fats: 20}, nutrition.Aggregate(meals))
}

func permutations(meals []*nutrition.Meal) [][]*nutrition.Meal {
	if len(meals) <= 1 {
		return [][]*nutrition.Meal{meals}
	}
	var res [][]*nutrition.Meal
	for i := range meals {
		rest := make([]*nutrition.Meal, 0, len(meals)-1)
		rest = append(rest, meals[:i]...)
		rest = append(rest, meals[i+1:]...)
		for _, p := range permutations(rest) {
			res = append(res, append([]*nutrition.Meal{meals[i]}, p...))
		}
	}
	return res
}

func TestAggregateOrder(t *testing.T) {
	a := assert.New(t)
	meals := []*nutrition.Meal{
		{ID: "a", Calories: 101, Protein: 0.1, Carbs: 12.7, Fats: 3.3},
		{ID: "b", Calories: 240, Protein: 0.2, Carbs: 0.7, Fats: 1.1},
		{ID: "c", Calories: 17, Protein: 0.3, Carbs: 33.3, Fats: 0.01},
		{ID: "d", Calories: 612, Protein: 41.9, Carbs: 1e-3, Fats: 27.45},
	}
	expected := nutrition.Aggregate(meals)
	a.Equal(970, expected.Calories)
	a.Equal(42.5, expected.Protein)
	for _, p := range permutations(meals) {
		a.Equal(expected, nutrition.Aggregate(p))
	}
}

func TestHistory(t *testing.T) {
	a := assert.New(t)
	day := func(d, h int) time.Time {
		return time.Date(2024, time.May, d, h, 0, 0, 0, time.UTC)
	}
	meals := []*nutrition.Meal{
		{ID: "a", Calories: 300, Protein: 10, Timestamp: day(2, 8)},
		{ID: "b", Calories: 500, Protein: 20, Timestamp: day(1, 12)},
		{ID: "c", Calories: 250, Protein: 5, Timestamp: day(2, 19)},
	}
	days := nutrition.History(meals, time.UTC)
	a.Len(days, 2)
	a.Equal(day(1, 0), days[0].Date)
	a.Equal(500, days[0].Totals.Calories)
	a.Len(days[0].Meals, 1)
	a.Equal(day(2, 0), days[1].Date)
	a.Equal(nutrition.DailyTotals{Calories: 550, Protein: 15}, days[1].Totals)
	a.Equal("a", days[1].Meals[0].ID)
	a.Equal("c", days[1].Meals[1].ID)

	a.Empty(nutrition.History(nil, time.UTC))
}
