package grading

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultDateLayout renders creation times the way a US browser locale does.
const DefaultDateLayout = "1/2/2006, 3:04:05 PM"

// Entry is one grade calculation. Entries are never mutated once created.
type Entry struct {
	ID          string  `json:"id"`
	Earned      float64 `json:"earned"`
	Total       float64 `json:"total"`
	Percentage  float64 `json:"percentage"`
	LetterGrade string  `json:"letterGrade"`
	Message     string  `json:"message"`
	Date        string  `json:"date"`
}

// Evaluator turns validated (earned, total) pairs into entries.
type Evaluator struct {
	now    func() time.Time
	newID  func() string
	layout string
}

// Engine options

type Option func(*config)

type config struct {
	Now        func() time.Time
	NewID      func() string
	DateLayout string
}

func WithClock(now func() time.Time) Option { return func(c *config) { c.Now = now } }
func WithIDFunc(f func() string) Option     { return func(c *config) { c.NewID = f } }
func WithDateLayout(l string) Option        { return func(c *config) { c.DateLayout = l } }

// NewEvaluator returns an evaluator using wall-clock time and random UUIDs
// unless overridden.
func NewEvaluator(opts ...Option) *Evaluator {
	cfg := &config{
		Now:        time.Now,
		NewID:      func() string { return uuid.NewString() },
		DateLayout: DefaultDateLayout,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = DefaultDateLayout
	}
	return &Evaluator{now: cfg.Now, newID: cfg.NewID, layout: cfg.DateLayout}
}

// Evaluate assumes 0 <= earned <= total and total > 0; callers validate first.
func (e *Evaluator) Evaluate(earned, total float64) Entry {
	pct := Percentage(earned, total)
	letter := LetterFor(pct)
	return Entry{
		ID:          e.newID(),
		Earned:      earned,
		Total:       total,
		Percentage:  pct,
		LetterGrade: letter,
		Message:     MessageFor(letter),
		Date:        e.now().Format(e.layout),
	}
}

// Percentage is earned/total*100 rounded to two decimal places.
func Percentage(earned, total float64) float64 {
	return math.Round(earned/total*100*100) / 100
}
