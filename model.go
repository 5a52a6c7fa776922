package nutrition

import "time"

type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

type ActivityLevel string

const (
	Sedentary   ActivityLevel = "sedentary"
	Light       ActivityLevel = "light"
	Moderate    ActivityLevel = "moderate"
	VeryActive  ActivityLevel = "very-active"
	ExtraActive ActivityLevel = "extra-active"
)

type Objective string

const (
	Lose     Objective = "lose"
	Maintain Objective = "maintain"
	Gain     Objective = "gain"
)

// Profile is the biometric input to ComputeGoals with height in centimeters
type Profile struct {
	Age       int           `json:"age"`
	Weight    float64       `json:"weight"`
	Height    float64       `json:"height"`
	Sex       Sex           `json:"sex"`
	Activity  ActivityLevel `json:"activity"`
	Objective Objective     `json:"objective"`
}

// Goals are the daily targets derived from a Profile
type Goals struct {
	BMR      float64 `json:"bmr"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

type Source string

const (
	Manual Source = "manual"
	Photo  Source = "photo"
)

// Meal is a single logged entry; meals are never mutated after creation
type Meal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Calories  int       `json:"calories"`
	Protein   float64   `json:"protein"`
	Carbs     float64   `json:"carbs"`
	Fats      float64   `json:"fats"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// DailyTotals is the pointwise sum of a collection of meals
type DailyTotals struct {
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

type Day struct {
	Date   time.Time   `json:"date"`
	Totals DailyTotals `json:"totals"`
	Meals  []*Meal     `json:"meals"`
}

type Progress struct {
	Goals  Goals       `json:"goals"`
	Totals DailyTotals `json:"totals"`
	Meals  []*Meal     `json:"meals"`
}
