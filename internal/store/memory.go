package store

import (
	"sort"

	"github.com/chris/kairos/internal/plan"
)

// Memory is an in-memory Store used by tests and ephemeral runs. Values are
// cloned on the way in and out so no caller retains an alias into the store.
type Memory struct {
	baseline    plan.Baseline
	days        map[string]plan.DailyRecord
	fingerprint string
	weekDone    int
}

func NewMemory() *Memory {
	return &Memory{days: make(map[string]plan.DailyRecord)}
}

func (s *Memory) Baseline() plan.Baseline {
	return s.baseline.Clone()
}

func (s *Memory) SaveBaseline(b plan.Baseline) error {
	s.baseline = b.Clone()
	return nil
}

func (s *Memory) Day(date string) (plan.DailyRecord, bool) {
	rec, ok := s.days[date]
	if !ok {
		return plan.DailyRecord{}, false
	}
	return rec.Clone(), true
}

func (s *Memory) SaveDay(rec plan.DailyRecord) error {
	s.days[rec.Date] = rec.Clone()
	return nil
}

func (s *Memory) DeleteDay(date string) error {
	delete(s.days, date)
	return nil
}

func (s *Memory) DayDates() []string {
	dates := make([]string, 0, len(s.days))
	for date := range s.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

func (s *Memory) SyncedFingerprint() string { return s.fingerprint }

func (s *Memory) SaveSyncedFingerprint(fp string) error {
	s.fingerprint = fp
	return nil
}

func (s *Memory) WeekDone() int { return s.weekDone }

func (s *Memory) SaveWeekDone(week int) error {
	s.weekDone = week
	return nil
}
