// Package plan holds the schedulable-task data model: tasks, the long-lived
// baseline (active hours, fixed anchors, wish pool), and the per-day record.
// Everything here is a plain value; callers copy, never alias.
package plan

import (
	"fmt"
	"sort"
	"strings"
)

// EnergyCost is the coarse pacing classification for a task.
type EnergyCost string

const (
	EnergyLow    EnergyCost = "low"
	EnergyMedium EnergyCost = "medium"
	EnergyHigh   EnergyCost = "high"
)

// Valid reports whether c is one of the three known cost levels.
func (c EnergyCost) Valid() bool {
	return c == EnergyLow || c == EnergyMedium || c == EnergyHigh
}

// Task is a schedulable unit. Anchors carry a fixed start/end and recurring
// weekdays; wishes carry only a target duration. Filler tasks invented during
// synthesis have both flags false.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Duration      int        `json:"duration"` // minutes
	EnergyCost    EnergyCost `json:"energyCost"`
	IsHardBlock   bool       `json:"isHardBlock"`
	IsWish        bool       `json:"isWish,omitempty"`
	IsCompleted   bool       `json:"isCompleted,omitempty"`
	StartTime     string     `json:"startTime,omitempty"` // HH:mm
	EndTime       string     `json:"endTime,omitempty"`   // HH:mm
	RecurringDays []int      `json:"recurringDays,omitempty"` // 0=Sunday..6=Saturday
}

// StartMinutes returns the task's start as minutes after midnight,
// or -1 if the task has no parsable start time.
func (t Task) StartMinutes() int {
	m, err := ParseClock(t.StartTime)
	if err != nil {
		return -1
	}
	return m
}

// EndMinutes returns start + duration in minutes after midnight,
// or -1 if the task has no parsable start time.
func (t Task) EndMinutes() int {
	start := t.StartMinutes()
	if start < 0 {
		return -1
	}
	return start + t.Duration
}

// RecursOn reports whether an anchor is eligible on the given weekday index.
func (t Task) RecursOn(weekday int) bool {
	for _, d := range t.RecurringDays {
		if d == weekday {
			return true
		}
	}
	return false
}

// ActiveHours bounds a day's schedulable window. Start and End are HH:mm on
// the same calendar day.
type ActiveHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Minutes returns the window bounds as minutes after midnight.
func (h ActiveHours) Minutes() (start, end int, err error) {
	start, err = ParseClock(h.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("window start: %w", err)
	}
	end, err = ParseClock(h.End)
	if err != nil {
		return 0, 0, fmt.Errorf("window end: %w", err)
	}
	return start, end, nil
}

// Baseline is the long-lived user configuration, independent of any single
// day's realized plan.
type Baseline struct {
	ActiveHours  ActiveHours `json:"activeHours"`
	FixedAnchors []Task      `json:"fixedAnchors"`
	WishPool     []Task      `json:"wishPool"`
}

// AnchorsFor returns copies of the anchors eligible on the given weekday,
// sorted by start time.
func (b Baseline) AnchorsFor(weekday int) []Task {
	var out []Task
	for _, t := range b.FixedAnchors {
		if t.RecursOn(weekday) {
			out = append(out, t)
		}
	}
	SortByStart(out)
	return out
}

// DailyRecord is the persisted outcome for one calendar date. It exists only
// once a non-zero energy score has been recorded for that date.
type DailyRecord struct {
	Date   string `json:"date"` // YYYY-MM-DD
	Energy int    `json:"energy"`
	Tasks  []Task `json:"tasks"`
}

// ParseClock parses an HH:mm string into minutes after midnight.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as HH:mm.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SortByStart orders tasks by start time in place. Tasks without a start
// time sort last, matching how the day plan lists unplaced entries.
func SortByStart(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].StartTime, tasks[j].StartTime
		if a == "" || b == "" {
			return b == "" && a != ""
		}
		return a < b
	})
}

// Overlaps reports whether any two tasks in the list occupy overlapping
// [start, start+duration) intervals. Tasks without a start time are skipped.
func Overlaps(tasks []Task) bool {
	placed := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.StartMinutes() >= 0 {
			placed = append(placed, t)
		}
	}
	SortByStart(placed)
	for i := 1; i < len(placed); i++ {
		if placed[i].StartMinutes() < placed[i-1].EndMinutes() {
			return true
		}
	}
	return false
}

// TitleMatches reports whether the task title contains the fragment,
// case-insensitively. This is the matching rule the removal operation uses
// across all collections.
func TitleMatches(title, fragment string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(strings.TrimSpace(fragment)))
}

// CloneTasks returns a deep-enough copy of a task list. Tasks contain one
// slice field (RecurringDays), which is copied as well so the caller can
// mutate freely.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	copy(out, tasks)
	for i := range out {
		if out[i].RecurringDays != nil {
			days := make([]int, len(out[i].RecurringDays))
			copy(days, out[i].RecurringDays)
			out[i].RecurringDays = days
		}
	}
	return out
}

// Clone returns an independent copy of the baseline.
func (b Baseline) Clone() Baseline {
	return Baseline{
		ActiveHours:  b.ActiveHours,
		FixedAnchors: CloneTasks(b.FixedAnchors),
		WishPool:     CloneTasks(b.WishPool),
	}
}

// Clone returns an independent copy of the record.
func (r DailyRecord) Clone() DailyRecord {
	return DailyRecord{Date: r.Date, Energy: r.Energy, Tasks: CloneTasks(r.Tasks)}
}
