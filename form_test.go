package nutrition_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzimmer/nutrition"
)

func form() nutrition.ProfileForm {
	return nutrition.ProfileForm{
		Age:           25,
		Weight:        70,
		Height:        170,
		HeightUnit:    "cm",
		Sex:           "male",
		ActivityLevel: "moderate",
		Objective:     "maintain",
	}
}

func TestProfileForm(t *testing.T) {
	a := assert.New(t)
	p, err := form().Profile()
	a.NoError(err)
	a.Equal(nutrition.Profile{
		Age:       25,
		Weight:    70,
		Height:    170,
		Sex:       nutrition.Male,
		Activity:  nutrition.Moderate,
		Objective: nutrition.Maintain,
	}, p)
}

func TestFeetInchesToCentimeters(t *testing.T) {
	a := assert.New(t)
	for feet := 4.0; feet <= 8; feet++ {
		for inches := 0.0; inches <= 11; inches++ {
			a.Equal(math.Round(float64(feet*30.48)+float64(inches*2.54)), nutrition.FeetInchesToCentimeters(feet, inches), "%g'%g\"", feet, inches)
		}
	}
}

func TestProfileFormFeetInches(t *testing.T) {
	tests := []struct {
		name         string
		feet, inches float64
		height       float64
		err          bool
	}{
		{name: "five ten", feet: 5, inches: 10, height: 178},
		{name: "four even", feet: 4, inches: 0, height: 122},
		{name: "six two", feet: 6, inches: 2, height: 188},
		{name: "six three", feet: 6, inches: 3, height: 191},
		{name: "too tall", feet: 8, inches: 11, err: true},
		{name: "too many inches", feet: 5, inches: 12, err: true},
		{name: "too few feet", feet: 3, inches: 11, err: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := assert.New(t)
			f := form()
			f.Height = 0
			f.HeightUnit = "ft"
			f.HeightFeet = tt.feet
			f.HeightInches = tt.inches
			p, err := f.Profile()
			if tt.err {
				a.ErrorIs(err, nutrition.ErrInvalidProfile)
				return
			}
			a.NoError(err)
			a.Equal(tt.height, p.Height)
		})
	}
}

func TestProfileFormInvalid(t *testing.T) {
	tests := []struct {
		name string
		edit func(*nutrition.ProfileForm)
	}{
		{name: "age zero", edit: func(f *nutrition.ProfileForm) { f.Age = 0 }},
		{name: "age too high", edit: func(f *nutrition.ProfileForm) { f.Age = 121 }},
		{name: "weight low", edit: func(f *nutrition.ProfileForm) { f.Weight = 19.9 }},
		{name: "weight high", edit: func(f *nutrition.ProfileForm) { f.Weight = 301 }},
		{name: "height low", edit: func(f *nutrition.ProfileForm) { f.Height = 99 }},
		{name: "height high", edit: func(f *nutrition.ProfileForm) { f.Height = 251 }},
		{name: "height unit", edit: func(f *nutrition.ProfileForm) { f.HeightUnit = "m" }},
		{name: "sex", edit: func(f *nutrition.ProfileForm) { f.Sex = "other" }},
		{name: "activity", edit: func(f *nutrition.ProfileForm) { f.ActivityLevel = "couch" }},
		{name: "objective", edit: func(f *nutrition.ProfileForm) { f.Objective = "bulk" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := form()
			tt.edit(&f)
			_, err := f.Profile()
			assert.ErrorIs(t, err, nutrition.ErrInvalidProfile)
		})
	}
}

func TestProfileFormAliases(t *testing.T) {
	a := assert.New(t)
	for alias, level := range map[string]nutrition.ActivityLevel{
		"very":         nutrition.VeryActive,
		"very-active":  nutrition.VeryActive,
		"extra":        nutrition.ExtraActive,
		"Extra-Active": nutrition.ExtraActive,
		"SEDENTARY":    nutrition.Sedentary,
	} {
		f := form()
		f.ActivityLevel = alias
		p, err := f.Profile()
		require.NoError(t, err)
		a.Equal(level, p.Activity)
	}
}

func TestCentimetersToFeetInches(t *testing.T) {
	a := assert.New(t)
	feet, inches := nutrition.CentimetersToFeetInches(178)
	a.Equal(5, feet)
	a.Equal(10, inches)
	feet, inches = nutrition.CentimetersToFeetInches(188)
	a.Equal(6, feet)
	a.Equal(2, inches)
	feet, inches = nutrition.CentimetersToFeetInches(182.6)
	a.Equal(6, feet)
	a.Equal(0, inches)
}
