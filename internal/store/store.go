// Package store persists the baseline collections, per-day records, and the
// last-synced baseline fingerprint under namespaced keys. The core logic only
// sees the Store interface; production uses a diskv-backed implementation and
// tests use the in-memory one.
package store

import (
	"log"
	"time"

	"github.com/chris/kairos/internal/plan"
)

const (
	keyActiveHours = "active_hours"
	keyFixedTasks  = "fixed_tasks"
	keyWishes      = "wishes"
	keyFingerprint = "synced_fingerprint"
	keyWeekDone    = "week_done"
	dayKeyPrefix   = "day_"

	// RetentionDays is the horizon beyond which daily records are eligible
	// for the housekeeping purge.
	RetentionDays = 7
)

// Store is the typed persistence contract. Loads of absent or corrupt values
// return the zero value and false; they never fail. Saves replace the whole
// value under the key.
type Store interface {
	Baseline() plan.Baseline
	SaveBaseline(b plan.Baseline) error

	Day(date string) (plan.DailyRecord, bool)
	SaveDay(rec plan.DailyRecord) error
	DeleteDay(date string) error
	DayDates() []string

	SyncedFingerprint() string
	SaveSyncedFingerprint(fp string) error

	// WeekDone tracks the ISO week number of the last completed
	// recalibration pass; zero means none recorded.
	WeekDone() int
	SaveWeekDone(week int) error
}

// DefaultBaseline seeds a first-run baseline: a breakfast anchor every day,
// a pilates anchor three times a week, and two high-cost wishes.
func DefaultBaseline(dayStart, dayEnd string) plan.Baseline {
	return plan.Baseline{
		ActiveHours: plan.ActiveHours{Start: dayStart, End: dayEnd},
		FixedAnchors: []plan.Task{
			{
				ID: "f-0", Title: "Nourishing breakfast", Duration: 30,
				EnergyCost: plan.EnergyLow, IsHardBlock: true,
				StartTime: "09:00", EndTime: "09:30",
				RecurringDays: []int{0, 1, 2, 3, 4, 5, 6},
			},
			{
				ID: "f-1", Title: "Pilates class", Duration: 120,
				EnergyCost: plan.EnergyMedium, IsHardBlock: true,
				StartTime: "12:00", EndTime: "14:00",
				RecurringDays: []int{1, 3, 5},
			},
		},
		WishPool: []plan.Task{
			{ID: "w-1", Title: "Financial study", Duration: 45, EnergyCost: plan.EnergyHigh, IsWish: true},
			{ID: "w-2", Title: "Creative writing", Duration: 60, EnergyCost: plan.EnergyHigh, IsWish: true},
		},
	}
}

// PruneOldDays deletes daily records older than RetentionDays relative to
// today. Unparsable dates are left alone. Best-effort: failures are logged,
// not returned, because retention is housekeeping rather than correctness.
func PruneOldDays(s Store, today time.Time) int {
	cutoff := today.AddDate(0, 0, -RetentionDays)
	pruned := 0
	for _, date := range s.DayDates() {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}
		if d.Before(cutoff) {
			if err := s.DeleteDay(date); err != nil {
				log.Printf("store: pruning day %s: %v", date, err)
				continue
			}
			pruned++
		}
	}
	return pruned
}
