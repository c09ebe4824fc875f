// Package mutate applies the closed set of structured edit operations to the
// live day-plan and the baseline collections. Every operation loads whole
// values from the store, works on copies, and saves whole values back, so a
// caller never observes a partially applied edit.
package mutate

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chris/kairos/internal/plan"
	"github.com/chris/kairos/internal/store"
)

// Fields carries the optional values an operation may set. Zero values mean
// "leave unchanged" for edits and "use the default" for inserts.
type Fields struct {
	Title         string
	Description   string
	StartTime     string
	EndTime       string
	Duration      int
	EnergyCost    plan.EnergyCost
	RecurringDays []int
}

// Engine owns all plan/baseline mutations. The "today" operations resolve
// the calendar day from the injected clock on every call, so a long-lived
// engine follows the wall clock across midnight.
type Engine struct {
	store store.Store
	now   func() time.Time
}

// New builds an engine over the store. now supplies the wall clock; nil
// means time.Now.
func New(s store.Store, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: s, now: now}
}

// Date returns the calendar day the "today" operations currently act on.
func (e *Engine) Date() string { return e.now().Format("2006-01-02") }

// AddFixedAnchor appends a new hard-block task to the fixed pool. Start and
// end times are required; duration is derived from them when absent. An
// empty recurring set defaults to every day.
func (e *Engine) AddFixedAnchor(f Fields) (plan.Task, error) {
	if strings.TrimSpace(f.Title) == "" {
		return plan.Task{}, fmt.Errorf("mutate: anchor title required")
	}
	duration := f.Duration
	if duration <= 0 {
		duration = spanMinutes(f.StartTime, f.EndTime)
	}
	days := f.RecurringDays
	if len(days) == 0 {
		days = []int{0, 1, 2, 3, 4, 5, 6}
	}
	task := plan.Task{
		ID:            uuid.NewString(),
		Title:         f.Title,
		Duration:      duration,
		EnergyCost:    costOr(f.EnergyCost, plan.EnergyMedium),
		IsHardBlock:   true,
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		RecurringDays: days,
	}
	b := e.store.Baseline()
	b.FixedAnchors = append(b.FixedAnchors, task)
	if err := e.store.SaveBaseline(b); err != nil {
		return plan.Task{}, err
	}
	return task, nil
}

// AddWish appends a flexible goal to the wish pool.
func (e *Engine) AddWish(f Fields) (plan.Task, error) {
	if strings.TrimSpace(f.Title) == "" {
		return plan.Task{}, fmt.Errorf("mutate: wish title required")
	}
	duration := f.Duration
	if duration <= 0 {
		duration = 30
	}
	task := plan.Task{
		ID:         uuid.NewString(),
		Title:      f.Title,
		Duration:   duration,
		EnergyCost: costOr(f.EnergyCost, plan.EnergyMedium),
		IsWish:     true,
	}
	b := e.store.Baseline()
	b.WishPool = append(b.WishPool, task)
	if err := e.store.SaveBaseline(b); err != nil {
		return plan.Task{}, err
	}
	return task, nil
}

// InsertToday adds an ad-hoc task to today's plan and re-sorts by start
// time. A day plan only exists once the check-in has recorded an energy
// score, so inserting before then is refused rather than conjuring a record
// with no score.
func (e *Engine) InsertToday(f Fields) (plan.Task, error) {
	if strings.TrimSpace(f.Title) == "" {
		return plan.Task{}, fmt.Errorf("mutate: task title required")
	}
	date := e.Date()
	rec, ok := e.store.Day(date)
	if !ok {
		return plan.Task{}, fmt.Errorf("mutate: no plan for %s yet, check in first", date)
	}
	duration := f.Duration
	if duration <= 0 {
		duration = 30
	}
	task := plan.Task{
		ID:          uuid.NewString(),
		Title:       f.Title,
		Description: f.Description,
		Duration:    duration,
		EnergyCost:  costOr(f.EnergyCost, plan.EnergyMedium),
		StartTime:   f.StartTime,
	}
	if st := task.StartMinutes(); st >= 0 {
		task.EndTime = plan.FormatClock(st + task.Duration)
	}
	rec.Tasks = append(rec.Tasks, task)
	plan.SortByStart(rec.Tasks)
	if err := e.store.SaveDay(rec); err != nil {
		return plan.Task{}, err
	}
	return task, nil
}

// EditToday merges the provided fields into the matching task and re-sorts.
// An unknown id is a no-op: the task may have been removed by a concurrent
// edit, and that is not an error.
func (e *Engine) EditToday(id string, f Fields) error {
	rec, ok := e.store.Day(e.Date())
	if !ok {
		return nil
	}
	found := false
	for i := range rec.Tasks {
		if rec.Tasks[i].ID != id {
			continue
		}
		t := &rec.Tasks[i]
		if f.Title != "" {
			t.Title = f.Title
		}
		if f.Description != "" {
			t.Description = f.Description
		}
		if f.StartTime != "" {
			t.StartTime = f.StartTime
		}
		if f.Duration > 0 {
			t.Duration = f.Duration
		}
		if f.EnergyCost != "" {
			t.EnergyCost = costOr(f.EnergyCost, t.EnergyCost)
		}
		if st := t.StartMinutes(); st >= 0 {
			t.EndTime = plan.FormatClock(st + t.Duration)
		}
		found = true
		break
	}
	if !found {
		return nil
	}
	plan.SortByStart(rec.Tasks)
	return e.store.SaveDay(rec)
}

// RemoveByTitle deletes every task whose title contains the fragment,
// case-insensitively, from today's plan and from both baseline pools in one
// pass. The broad scope is deliberate: a spoken "delete X" should work
// without knowing which collection X lives in. Substring matching means
// "Reading" also removes "Reading II"; callers surfacing free text should
// echo what was removed.
func (e *Engine) RemoveByTitle(fragment string) (removed int, err error) {
	if strings.TrimSpace(fragment) == "" {
		return 0, nil
	}

	b := e.store.Baseline()
	var anchors, wishes []plan.Task
	for _, t := range b.FixedAnchors {
		if plan.TitleMatches(t.Title, fragment) {
			removed++
			continue
		}
		anchors = append(anchors, t)
	}
	for _, t := range b.WishPool {
		if plan.TitleMatches(t.Title, fragment) {
			removed++
			continue
		}
		wishes = append(wishes, t)
	}
	b.FixedAnchors = anchors
	b.WishPool = wishes

	rec, hasDay := e.store.Day(e.Date())
	if !hasDay {
		if err := e.store.SaveBaseline(b); err != nil {
			return 0, err
		}
		return removed, nil
	}

	// Both collections are staged before either write lands; a failed second
	// write rolls the first back so the delete never half-applies.
	original := rec.Clone()
	var kept []plan.Task
	for _, t := range rec.Tasks {
		if plan.TitleMatches(t.Title, fragment) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	rec.Tasks = kept
	if err := e.store.SaveDay(rec); err != nil {
		return 0, err
	}
	if err := e.store.SaveBaseline(b); err != nil {
		if rbErr := e.store.SaveDay(original); rbErr != nil {
			return 0, fmt.Errorf("baseline save failed (%v), day rollback failed: %w", err, rbErr)
		}
		return 0, err
	}
	return removed, nil
}

// ToggleCompletion flips the completion flag of a task in today's plan.
// Unknown ids are a no-op.
func (e *Engine) ToggleCompletion(id string) error {
	rec, ok := e.store.Day(e.Date())
	if !ok {
		return nil
	}
	for i := range rec.Tasks {
		if rec.Tasks[i].ID == id {
			rec.Tasks[i].IsCompleted = !rec.Tasks[i].IsCompleted
			return e.store.SaveDay(rec)
		}
	}
	return nil
}

// ModifyActiveHours merges non-empty fields into the baseline window.
func (e *Engine) ModifyActiveHours(start, end string) error {
	b := e.store.Baseline()
	if start != "" {
		b.ActiveHours.Start = start
	}
	if end != "" {
		b.ActiveHours.End = end
	}
	return e.store.SaveBaseline(b)
}

func costOr(c, fallback plan.EnergyCost) plan.EnergyCost {
	if c.Valid() {
		return c
	}
	return fallback
}

// spanMinutes derives a duration from a start/end pair, defaulting to an
// hour when the pair is missing or inverted.
func spanMinutes(start, end string) int {
	s, err1 := plan.ParseClock(start)
	e, err2 := plan.ParseClock(end)
	if err1 != nil || err2 != nil || e <= s {
		return 60
	}
	return e - s
}
