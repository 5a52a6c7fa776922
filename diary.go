package nutrition

import (
	"errors"
	"sync"
)

var ErrMealNotFound = errors.New("meal not found")

// Diary holds one user's goals and ordered meal list.
// Totals are recomputed with Aggregate after every change to the meals.
type Diary struct {
	mu       sync.RWMutex
	goals    Goals
	meals    []*Meal
	totals   DailyTotals
	onChange func(DailyTotals)
}

type DiaryOption func(*Diary)

// WithObserver registers a function called with the new totals after each change.
// Calls are made in change order while the diary is locked so f must not call back into the Diary.
func WithObserver(f func(DailyTotals)) DiaryOption {
	return func(d *Diary) {
		d.onChange = f
	}
}

func NewDiary(goals Goals, meals []*Meal, opts ...DiaryOption) *Diary {
	d := &Diary{goals: goals, meals: append([]*Meal(nil), meals...)}
	for _, opt := range opts {
		opt(d)
	}
	d.totals = Aggregate(d.meals)
	return d
}

func (d *Diary) Goals() Goals {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.goals
}

// SetGoals replaces the goals wholesale
func (d *Diary) SetGoals(goals Goals) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.goals = goals
}

// Meals returns a copy of the meals in insertion order
func (d *Diary) Meals() []*Meal {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]*Meal(nil), d.meals...)
}

func (d *Diary) Totals() DailyTotals {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.totals
}

func (d *Diary) Progress() *Progress {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return &Progress{
		Goals:  d.goals,
		Totals: d.totals,
		Meals:  append([]*Meal(nil), d.meals...),
	}
}

func (d *Diary) Add(meal *Meal) DailyTotals {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.meals = append(d.meals, meal)
	totals := d.recompute()
	d.notify(totals)
	return totals
}

func (d *Diary) Remove(id string) (DailyTotals, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := -1
	for i, meal := range d.meals {
		if meal.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return DailyTotals{}, ErrMealNotFound
	}
	meals := make([]*Meal, 0, len(d.meals)-1)
	meals = append(meals, d.meals[:idx]...)
	d.meals = append(meals, d.meals[idx+1:]...)
	totals := d.recompute()
	d.notify(totals)
	return totals, nil
}

// recompute must be called with the lock held
func (d *Diary) recompute() DailyTotals {
	d.totals = Aggregate(d.meals)
	return d.totals
}

// notify must be called with the lock held
func (d *Diary) notify(totals DailyTotals) {
	if d.onChange != nil {
		d.onChange(totals)
	}
}
