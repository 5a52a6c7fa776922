package nutrition

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Aggregate sums the calories and macronutrients of all meals.
// Sums are accumulated exactly so the result does not depend on meal order.
func Aggregate(meals []*Meal) DailyTotals {
	var calories int
	protein, carbs, fats := decimal.Zero, decimal.Zero, decimal.Zero
	for _, meal := range meals {
		calories += meal.Calories
		protein = protein.Add(decimal.NewFromFloat(meal.Protein))
		carbs = carbs.Add(decimal.NewFromFloat(meal.Carbs))
		fats = fats.Add(decimal.NewFromFloat(meal.Fats))
	}
	return DailyTotals{
		Calories: calories,
		Protein:  toFloat(protein),
		Carbs:    toFloat(carbs),
		Fats:     toFloat(fats),
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// History groups meals into calendar days in loc with each day's totals
func History(meals []*Meal, loc *time.Location) []*Day {
	// group all meals into days
	d := make(map[time.Time][]*Meal)
	for _, meal := range meals {
		t := meal.Timestamp.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		d[day] = append(d[day], meal)
	}
	// summarize each day
	var res []*Day
	for day, meals := range d {
		res = append(res, &Day{
			Date:   day,
			Totals: Aggregate(meals),
			Meals:  meals,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Date.Before(res[j].Date)
	})
	return res
}
