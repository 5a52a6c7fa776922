package nutrition

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var ErrSetupIncomplete = errors.New("setup not completed")

var ErrInvalidMeal = errors.New("invalid meal")

// Store persists accounts, meals and images
type Store interface {
	SaveAccount(ctx context.Context, user string, acct *Account) error
	Account(ctx context.Context, user string) (*Account, error)
	SaveMeal(ctx context.Context, user string, meal *Meal) error
	DeleteMeal(ctx context.Context, user, id string) error
	Meals(ctx context.Context, user string, from, to time.Time) ([]*Meal, error)
	SaveImage(ctx context.Context, user string, img *Image) error
	DeleteImage(ctx context.Context, id string) error
	Image(ctx context.Context, id string) (*Image, error)
}

// MealEntry holds the fields of a meal to log
type MealEntry struct {
	Name     string  `json:"name"`
	Calories int     `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Source   Source  `json:"-"`
}

func (e *MealEntry) validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMeal)
	}
	if e.Calories < 0 {
		return fmt.Errorf("%w: calories must be non-negative", ErrInvalidMeal)
	}
	for _, x := range []struct {
		name string
		val  float64
	}{{"protein", e.Protein}, {"carbs", e.Carbs}, {"fats", e.Fats}} {
		if math.IsNaN(x.val) || math.IsInf(x.val, 0) || x.val < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidMeal, x.name)
		}
	}
	return nil
}

type userState struct {
	day   time.Time
	setup bool
	diary *Diary
}

// Service coordinates setup, meal logging and progress for all users
type Service struct {
	store    Store
	analyzer ImageAnalyzer
	config   func() *Config
	baseURL  string
	loc      *time.Location
	now      func() time.Time

	mu     sync.Mutex
	states map[string]*userState
}

type Option func(*Service)

// WithClock sets the function used for the current time
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation sets the location used to determine calendar days
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.loc = loc
	}
}

// NewService creates a Service; image URLs are rooted at baseURL
func NewService(store Store, analyzer ImageAnalyzer, config func() *Config, baseURL string, opts ...Option) *Service {
	s := &Service{
		store:    store,
		analyzer: analyzer,
		config:   config,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		loc:      time.Local,
		now:      time.Now,
		states:   make(map[string]*userState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	t := s.now().In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}

// state returns the user's cached state, loading it at the start of a session or day
func (s *Service) state(ctx context.Context, user string) (*userState, error) {
	today := s.today()
	if sess := s.cached(user, today); sess != nil {
		return sess, nil
	}

	sess, err := s.load(ctx, user, today)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have loaded the state while this one read the store
	if cur, ok := s.states[user]; ok && cur.day.Equal(today) {
		return cur, nil
	}
	s.states[user] = sess
	log.Info().Str("user", user).Bool("setup", sess.setup).Int("meals", len(sess.diary.Meals())).Msg("session")
	return sess, nil
}

func (s *Service) cached(user string, today time.Time) *userState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.states[user]; ok && sess.day.Equal(today) {
		return sess
	}
	return nil
}

// load reads the user's goals and the day's meals from the store
func (s *Service) load(ctx context.Context, user string, today time.Time) (*userState, error) {
	acct, err := s.store.Account(ctx, user)
	if err != nil {
		return nil, err
	}
	goals, setup := s.config().Goals, false
	if acct != nil && acct.SetupCompleted {
		goals, setup = acct.Goals, true
	}
	meals, err := s.store.Meals(ctx, user, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	diary := NewDiary(goals, meals, WithObserver(func(totals DailyTotals) {
		log.Debug().
			Str("user", user).
			Int("calories", totals.Calories).
			Float64("protein", totals.Protein).
			Float64("carbs", totals.Carbs).
			Float64("fats", totals.Fats).
			Msg("totals")
	}))
	return &userState{day: today, setup: setup, diary: diary}, nil
}

// Forget drops the cached state for the user
func (s *Service) Forget(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, user)
}

// Setup validates the form, computes goals and stores them
func (s *Service) Setup(ctx context.Context, user string, form *ProfileForm) (*Account, error) {
	profile, err := form.Profile()
	if err != nil {
		return nil, err
	}
	acct := &Account{
		Profile:        profile,
		Goals:          ComputeGoals(profile),
		SetupCompleted: true,
	}
	if err = s.store.SaveAccount(ctx, user, acct); err != nil {
		return nil, err
	}
	sess, err := s.state(ctx, user)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	sess.setup = true
	s.mu.Unlock()
	sess.diary.SetGoals(acct.Goals)
	log.Info().Str("user", user).Int("calories", acct.Goals.Calories).Msg("setup")
	return acct, nil
}

// Account returns the user's stored account, or an empty one before setup
func (s *Service) Account(ctx context.Context, user string) (*Account, error) {
	acct, err := s.store.Account(ctx, user)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return &Account{Goals: s.config().Goals}, nil
	}
	return acct, nil
}

func (s *Service) Goals(ctx context.Context, user string) (Goals, error) {
	sess, err := s.state(ctx, user)
	if err != nil {
		return Goals{}, err
	}
	return sess.diary.Goals(), nil
}

func (s *Service) Progress(ctx context.Context, user string) (*Progress, error) {
	sess, err := s.state(ctx, user)
	if err != nil {
		return nil, err
	}
	return sess.diary.Progress(), nil
}

func (s *Service) setupState(ctx context.Context, user string) (*userState, error) {
	sess, err := s.state(ctx, user)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	setup := sess.setup
	s.mu.Unlock()
	if !setup {
		return nil, ErrSetupIncomplete
	}
	return sess, nil
}

// AddMeal logs a meal for today
func (s *Service) AddMeal(ctx context.Context, user string, entry *MealEntry) (*Meal, error) {
	if err := entry.validate(); err != nil {
		return nil, err
	}
	sess, err := s.setupState(ctx, user)
	if err != nil {
		return nil, err
	}
	source := entry.Source
	if source == "" {
		source = Manual
	}
	meal := &Meal{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(entry.Name),
		Calories:  entry.Calories,
		Protein:   entry.Protein,
		Carbs:     entry.Carbs,
		Fats:      entry.Fats,
		ImageURL:  entry.ImageURL,
		Source:    source,
		Timestamp: s.now(),
	}
	if err = s.store.SaveMeal(ctx, user, meal); err != nil {
		return nil, err
	}
	totals := sess.diary.Add(meal)
	log.Info().
		Str("user", user).
		Str("meal", meal.ID).
		Str("name", meal.Name).
		Int("calories", meal.Calories).
		Int("total", totals.Calories).
		Msg("add")
	return meal, nil
}

// LogPhoto stores the image and analyzes it concurrently, then logs the resulting meal
func (s *Service) LogPhoto(ctx context.Context, user string, img *Image) (*Meal, error) {
	if _, err := s.setupState(ctx, user); err != nil {
		return nil, err
	}
	img.ID = uuid.NewString()

	var analysis *Analysis
	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		return s.store.SaveImage(gctx, user, img)
	})
	grp.Go(func() error {
		var err error
		analysis, err = s.analyzer.Analyze(gctx, img)
		return err
	})
	if err := grp.Wait(); err != nil {
		// the save may have landed before the analysis failed
		s.discardImage(ctx, user, img.ID)
		return nil, err
	}
	meal, err := s.AddMeal(ctx, user, analysis.Entry(s.ImageURL(img.ID)))
	if err != nil {
		s.discardImage(ctx, user, img.ID)
		return nil, err
	}
	return meal, nil
}

// discardImage removes an image no meal refers to
func (s *Service) discardImage(ctx context.Context, user, id string) {
	if err := s.store.DeleteImage(context.WithoutCancel(ctx), id); err != nil {
		log.Error().Err(err).Str("user", user).Str("image", id).Msg("discard")
	}
}

func (s *Service) ImageURL(id string) string {
	return s.baseURL + "/images/" + id
}

func (s *Service) Image(ctx context.Context, id string) (*Image, error) {
	return s.store.Image(ctx, id)
}

// DeleteMeal removes a meal logged today
func (s *Service) DeleteMeal(ctx context.Context, user, id string) error {
	sess, err := s.state(ctx, user)
	if err != nil {
		return err
	}
	if err = s.store.DeleteMeal(ctx, user, id); err != nil {
		return err
	}
	// meals from earlier days are not in the diary
	if _, err = sess.diary.Remove(id); err != nil && !errors.Is(err, ErrMealNotFound) {
		return err
	}
	log.Info().Str("user", user).Str("meal", id).Int("total", sess.diary.Totals().Calories).Msg("delete")
	return nil
}

// History returns the user's meals and totals for each of the last n days
func (s *Service) History(ctx context.Context, user string, n int) ([]*Day, error) {
	if n < 1 {
		n = 1
	}
	today := s.today()
	meals, err := s.store.Meals(ctx, user, today.AddDate(0, 0, 1-n), today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return History(meals, s.loc), nil
}
