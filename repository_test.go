package nutrition_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzimmer/nutrition"
)

func repository(t *testing.T) *nutrition.Repository {
	repo, err := nutrition.Open(filepath.Join(t.TempDir(), "nutrition.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepositoryAccount(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	repo := repository(t)

	acct, err := repo.Account(ctx, "alice")
	a.NoError(err)
	a.Nil(acct)

	p := profile()
	expected := &nutrition.Account{Profile: p, Goals: nutrition.ComputeGoals(p), SetupCompleted: true}
	a.NoError(repo.SaveAccount(ctx, "alice", expected))
	acct, err = repo.Account(ctx, "alice")
	a.NoError(err)
	a.Equal(expected, acct)

	p.Objective = nutrition.Lose
	expected = &nutrition.Account{Profile: p, Goals: nutrition.ComputeGoals(p), SetupCompleted: true}
	a.NoError(repo.SaveAccount(ctx, "alice", expected))
	acct, err = repo.Account(ctx, "alice")
	a.NoError(err)
	a.Equal(2094, acct.Goals.Calories)
	a.Equal(nutrition.Lose, acct.Profile.Objective)

	acct, err = repo.Account(ctx, "bob")
	a.NoError(err)
	a.Nil(acct)
}

func TestRepositoryMeals(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	repo := repository(t)

	at := func(d, h int) time.Time {
		return time.Date(2024, time.May, d, h, 0, 0, 0, time.UTC)
	}
	for _, meal := range []*nutrition.Meal{
		{ID: "c", Name: "dinner", Calories: 700, Protein: 40, Source: nutrition.Manual, Timestamp: at(1, 19)},
		{ID: "a", Name: "breakfast", Calories: 300, Carbs: 50, Source: nutrition.Manual, Timestamp: at(1, 8)},
		{ID: "b", Name: "lunch", Calories: 500, Fats: 12.5, Source: nutrition.Photo,
			ImageURL: "http://localhost/images/b", Timestamp: at(1, 12)},
		{ID: "d", Name: "breakfast", Calories: 320, Source: nutrition.Manual, Timestamp: at(2, 8)},
	} {
		a.NoError(repo.SaveMeal(ctx, "alice", meal))
	}
	a.NoError(repo.SaveMeal(ctx, "bob", &nutrition.Meal{ID: "e", Name: "x", Timestamp: at(1, 9)}))

	meals, err := repo.Meals(ctx, "alice", at(1, 0), at(2, 0))
	a.NoError(err)
	require.Len(t, meals, 3)
	a.Equal("a", meals[0].ID)
	a.Equal("b", meals[1].ID)
	a.Equal("c", meals[2].ID)
	a.Equal(nutrition.Photo, meals[1].Source)
	a.Equal("http://localhost/images/b", meals[1].ImageURL)
	a.Equal(12.5, meals[1].Fats)
	a.True(at(1, 12).Equal(meals[1].Timestamp))

	a.NoError(repo.DeleteMeal(ctx, "alice", "b"))
	a.ErrorIs(repo.DeleteMeal(ctx, "alice", "b"), nutrition.ErrMealNotFound)
	a.ErrorIs(repo.DeleteMeal(ctx, "alice", "e"), nutrition.ErrMealNotFound)

	meals, err = repo.Meals(ctx, "alice", at(1, 0), at(3, 0))
	a.NoError(err)
	a.Len(meals, 3)
}

func TestRepositoryImage(t *testing.T) {
	a := assert.New(t)
	ctx := context.Background()
	repo := repository(t)

	img, err := repo.Image(ctx, "missing")
	a.NoError(err)
	a.Nil(img)

	a.NoError(repo.SaveImage(ctx, "alice", &nutrition.Image{ID: "i", ContentType: "image/png", Data: []byte{1, 2, 3}}))
	img, err = repo.Image(ctx, "i")
	a.NoError(err)
	a.Equal(&nutrition.Image{ID: "i", ContentType: "image/png", Data: []byte{1, 2, 3}}, img)

	a.NoError(repo.DeleteImage(ctx, "i"))
	img, err = repo.Image(ctx, "i")
	a.NoError(err)
	a.Nil(img)
	a.NoError(repo.DeleteImage(ctx, "missing"))
}
