package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type profileRecord struct {
	UserID         string `gorm:"primaryKey"`
	Age            int
	Weight         float64
	Height         float64
	Sex            string
	Activity       string
	Objective      string
	BMR            float64
	DailyCalories  int
	ProteinGoal    float64
	CarbsGoal      float64
	FatsGoal       float64
	SetupCompleted bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (profileRecord) TableName() string { return "profiles" }

type mealRecord struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Name      string
	Calories  int
	Protein   float64
	Carbs     float64
	Fats      float64
	ImageURL  string
	Source    string
	CreatedAt time.Time `gorm:"index"`
}

func (mealRecord) TableName() string { return "meals" }

type imageRecord struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index"`
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

func (imageRecord) TableName() string { return "images" }

// Account is the persisted setup state of a user
type Account struct {
	Profile        Profile `json:"profile"`
	Goals          Goals   `json:"goals"`
	SetupCompleted bool    `json:"setupCompleted"`
}

// Repository persists profiles, meals and meal images
type Repository struct {
	db *gorm.DB
}

// Open connects to the sqlite database at path and migrates the schema
func Open(path string) (*Repository, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err = db.AutoMigrate(&profileRecord{}, &mealRecord{}, &imageRecord{}); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// SaveAccount replaces the profile and goals of the user
func (r *Repository) SaveAccount(ctx context.Context, user string, acct *Account) error {
	rec := &profileRecord{
		UserID:         user,
		Age:            acct.Profile.Age,
		Weight:         acct.Profile.Weight,
		Height:         acct.Profile.Height,
		Sex:            string(acct.Profile.Sex),
		Activity:       string(acct.Profile.Activity),
		Objective:      string(acct.Profile.Objective),
		BMR:            acct.Goals.BMR,
		DailyCalories:  acct.Goals.Calories,
		ProteinGoal:    acct.Goals.Protein,
		CarbsGoal:      acct.Goals.Carbs,
		FatsGoal:       acct.Goals.Fats,
		SetupCompleted: acct.SetupCompleted,
	}
	return r.db.WithContext(ctx).Save(rec).Error
}

// Account returns the user's account or nil if the user has none
func (r *Repository) Account(ctx context.Context, user string) (*Account, error) {
	var rec profileRecord
	err := r.db.WithContext(ctx).First(&rec, "user_id = ?", user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &Account{
		Profile: Profile{
			Age:       rec.Age,
			Weight:    rec.Weight,
			Height:    rec.Height,
			Sex:       Sex(rec.Sex),
			Activity:  ActivityLevel(rec.Activity),
			Objective: Objective(rec.Objective),
		},
		Goals: Goals{
			BMR:      rec.BMR,
			Calories: rec.DailyCalories,
			Protein:  rec.ProteinGoal,
			Carbs:    rec.CarbsGoal,
			Fats:     rec.FatsGoal,
		},
		SetupCompleted: rec.SetupCompleted,
	}, nil
}

func (r *Repository) SaveMeal(ctx context.Context, user string, meal *Meal) error {
	return r.db.WithContext(ctx).Create(&mealRecord{
		ID:        meal.ID,
		UserID:    user,
		Name:      meal.Name,
		Calories:  meal.Calories,
		Protein:   meal.Protein,
		Carbs:     meal.Carbs,
		Fats:      meal.Fats,
		ImageURL:  meal.ImageURL,
		Source:    string(meal.Source),
		CreatedAt: meal.Timestamp.UTC(),
	}).Error
}

func (r *Repository) DeleteMeal(ctx context.Context, user, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", user).Delete(&mealRecord{ID: id})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMealNotFound
	}
	return nil
}

// Meals returns the user's meals logged in [from, to) in chronological order
func (r *Repository) Meals(ctx context.Context, user string, from, to time.Time) ([]*Meal, error) {
	var recs []mealRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", user, from.UTC(), to.UTC()).
		Order("created_at asc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	meals := make([]*Meal, 0, len(recs))
	for _, rec := range recs {
		meals = append(meals, &Meal{
			ID:        rec.ID,
			Name:      rec.Name,
			Calories:  rec.Calories,
			Protein:   rec.Protein,
			Carbs:     rec.Carbs,
			Fats:      rec.Fats,
			ImageURL:  rec.ImageURL,
			Source:    Source(rec.Source),
			Timestamp: rec.CreatedAt,
		})
	}
	return meals, nil
}

func (r *Repository) SaveImage(ctx context.Context, user string, img *Image) error {
	return r.db.WithContext(ctx).Create(&imageRecord{
		ID:          img.ID,
		UserID:      user,
		ContentType: img.ContentType,
		Data:        img.Data,
	}).Error
}

func (r *Repository) DeleteImage(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&imageRecord{ID: id}).Error
}

// Image returns the image or nil if it does not exist
func (r *Repository) Image(ctx context.Context, id string) (*Image, error) {
	var rec imageRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return &Image{ID: rec.ID, ContentType: rec.ContentType, Data: rec.Data}, nil
}
