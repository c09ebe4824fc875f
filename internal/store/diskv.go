package store

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/chris/kairos/internal/plan"
)

// Disk is a diskv-backed Store. Every value is a JSON blob under a flat key;
// corrupt or missing blobs read as absent.
type Disk struct {
	d *diskv.Diskv
}

// Open creates a disk store rooted at basePath.
func Open(basePath string) (*Disk, error) {
	if basePath == "" {
		return nil, fmt.Errorf("store: base path required")
	}
	return &Disk{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}, nil
}

func (s *Disk) read(key string, target any) bool {
	val, err := s.d.Read(key)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(val, target); err != nil {
		// A corrupt record is treated as absent, never surfaced.
		log.Printf("store: unreadable record %q: %v", key, err)
		return false
	}
	return true
}

func (s *Disk) write(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encoding %q: %w", key, err)
	}
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("store: writing %q: %w", key, err)
	}
	return nil
}

func (s *Disk) Baseline() plan.Baseline {
	var b plan.Baseline
	s.read(keyActiveHours, &b.ActiveHours)
	s.read(keyFixedTasks, &b.FixedAnchors)
	s.read(keyWishes, &b.WishPool)
	return b
}

func (s *Disk) SaveBaseline(b plan.Baseline) error {
	if err := s.write(keyActiveHours, b.ActiveHours); err != nil {
		return err
	}
	if err := s.write(keyFixedTasks, b.FixedAnchors); err != nil {
		return err
	}
	return s.write(keyWishes, b.WishPool)
}

func (s *Disk) Day(date string) (plan.DailyRecord, bool) {
	var rec plan.DailyRecord
	if !s.read(dayKeyPrefix+date, &rec) {
		return plan.DailyRecord{}, false
	}
	return rec, true
}

func (s *Disk) SaveDay(rec plan.DailyRecord) error {
	return s.write(dayKeyPrefix+rec.Date, rec)
}

func (s *Disk) DeleteDay(date string) error {
	if err := s.d.Erase(dayKeyPrefix + date); err != nil {
		return fmt.Errorf("store: deleting day %s: %w", date, err)
	}
	return nil
}

func (s *Disk) DayDates() []string {
	var dates []string
	for key := range s.d.Keys(nil) {
		if strings.HasPrefix(key, dayKeyPrefix) {
			dates = append(dates, strings.TrimPrefix(key, dayKeyPrefix))
		}
	}
	sort.Strings(dates)
	return dates
}

func (s *Disk) SyncedFingerprint() string {
	var fp string
	s.read(keyFingerprint, &fp)
	return fp
}

func (s *Disk) SaveSyncedFingerprint(fp string) error {
	return s.write(keyFingerprint, fp)
}

func (s *Disk) WeekDone() int {
	var raw string
	if !s.read(keyWeekDone, &raw) {
		return 0
	}
	week, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return week
}

func (s *Disk) SaveWeekDone(week int) error {
	return s.write(keyWeekDone, strconv.Itoa(week))
}
