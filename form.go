package nutrition

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/martinlindhe/unit"
)

var ErrInvalidProfile = errors.New("invalid profile")

const (
	Centimeters = "cm"
	FeetInches  = "ft"
)

// ProfileForm is the raw setup input before validation and unit normalization
type ProfileForm struct {
	Age           int     `json:"age"`
	Weight        float64 `json:"weight"`
	Height        float64 `json:"height"`
	HeightUnit    string  `json:"heightUnit"`
	HeightFeet    float64 `json:"heightFeet"`
	HeightInches  float64 `json:"heightInches"`
	Sex           string  `json:"sex"`
	ActivityLevel string  `json:"activityLevel"`
	Objective     string  `json:"objective"`
}

var activityAliases = map[string]ActivityLevel{
	"sedentary":    Sedentary,
	"light":        Light,
	"moderate":     Moderate,
	"very-active":  VeryActive,
	"very":         VeryActive,
	"extra-active": ExtraActive,
	"extra":        ExtraActive,
}

func invalid(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidProfile, field, fmt.Sprintf(format, args...))
}

func between(field string, val, lo, hi float64) error {
	if math.IsNaN(val) || val < lo || val > hi {
		return invalid(field, "must be between %g and %g, got %g", lo, hi, val)
	}
	return nil
}

// FeetInchesToCentimeters converts a height to the nearest whole centimeter
func FeetInchesToCentimeters(feet, inches float64) float64 {
	length := unit.Length(feet)*unit.Foot + unit.Length(inches)*unit.Inch
	// snap away conversion noise so exact halves (6ft 3in is 190.5cm) round up
	cm := math.Round(length.Centimeters()*1e6) / 1e6
	return math.Round(cm)
}

// CentimetersToFeetInches converts a height for display in feet and inches
func CentimetersToFeetInches(cm float64) (feet, inches int) {
	total := (unit.Length(cm) * unit.Centimeter).Inches()
	feet = int(math.Floor(total / 12))
	inches = int(math.Round(math.Mod(total, 12)))
	if inches == 12 {
		feet, inches = feet+1, 0
	}
	return feet, inches
}

// height resolves the form height to centimeters
func (f ProfileForm) height() (float64, error) {
	switch strings.ToLower(f.HeightUnit) {
	case "", Centimeters:
		return f.Height, nil
	case FeetInches:
		if err := between("heightFeet", f.HeightFeet, 4, 8); err != nil {
			return 0, err
		}
		if err := between("heightInches", f.HeightInches, 0, 11); err != nil {
			return 0, err
		}
		return FeetInchesToCentimeters(f.HeightFeet, f.HeightInches), nil
	default:
		return 0, invalid("heightUnit", "must be %q or %q, got %q", Centimeters, FeetInches, f.HeightUnit)
	}
}

// Profile validates the form and returns a Profile with height in centimeters
func (f ProfileForm) Profile() (Profile, error) {
	if f.Age < 1 || f.Age > 120 {
		return Profile{}, invalid("age", "must be between 1 and 120, got %d", f.Age)
	}
	if err := between("weight", f.Weight, 20, 300); err != nil {
		return Profile{}, err
	}
	height, err := f.height()
	if err != nil {
		return Profile{}, err
	}
	if err = between("height", height, 100, 250); err != nil {
		return Profile{}, err
	}
	sex := Sex(strings.ToLower(f.Sex))
	switch sex {
	case Male, Female:
	default:
		return Profile{}, invalid("sex", "must be male or female, got %q", f.Sex)
	}
	activity, ok := activityAliases[strings.ToLower(f.ActivityLevel)]
	if !ok {
		return Profile{}, invalid("activityLevel", "unknown level %q", f.ActivityLevel)
	}
	objective := Objective(strings.ToLower(f.Objective))
	if _, ok := objectiveAdjustments[objective]; !ok {
		return Profile{}, invalid("objective", "must be lose, maintain or gain, got %q", f.Objective)
	}
	return Profile{
		Age:       f.Age,
		Weight:    f.Weight,
		Height:    height,
		Sex:       sex,
		Activity:  activity,
		Objective: objective,
	}, nil
}
