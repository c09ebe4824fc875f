package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chris/kairos/internal/plan"
)

func openTestStores(t *testing.T) []Store {
	t.Helper()
	disk, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("opening disk store: %v", err)
	}
	return []Store{disk, NewMemory()}
}

func TestBaselineRoundTrip(t *testing.T) {
	for _, s := range openTestStores(t) {
		b := DefaultBaseline("08:00", "23:00")
		if err := s.SaveBaseline(b); err != nil {
			t.Fatalf("SaveBaseline: %v", err)
		}
		got := s.Baseline()
		if got.ActiveHours.Start != "08:00" || got.ActiveHours.End != "23:00" {
			t.Errorf("active hours = %+v", got.ActiveHours)
		}
		if len(got.FixedAnchors) != 2 || len(got.WishPool) != 2 {
			t.Fatalf("expected 2 anchors and 2 wishes, got %d and %d", len(got.FixedAnchors), len(got.WishPool))
		}
		if got.FixedAnchors[0].Title != "Nourishing breakfast" {
			t.Errorf("anchor title = %q", got.FixedAnchors[0].Title)
		}
		if !got.FixedAnchors[1].RecursOn(3) {
			t.Error("pilates anchor lost its recurring days")
		}
	}
}

func TestDayRoundTrip(t *testing.T) {
	for _, s := range openTestStores(t) {
		if _, ok := s.Day("2026-08-31"); ok {
			t.Error("expected no record for a fresh date")
		}

		rec := plan.DailyRecord{
			Date:   "2026-08-31",
			Energy: 4,
			Tasks:  []plan.Task{{ID: "t1", Title: "Breakfast", StartTime: "09:00", Duration: 30}},
		}
		if err := s.SaveDay(rec); err != nil {
			t.Fatalf("SaveDay: %v", err)
		}

		got, ok := s.Day("2026-08-31")
		if !ok {
			t.Fatal("saved day not found")
		}
		if got.Energy != 4 || len(got.Tasks) != 1 || got.Tasks[0].Title != "Breakfast" {
			t.Errorf("unexpected record: %+v", got)
		}

		// Overwrite, not append.
		rec.Energy = 2
		if err := s.SaveDay(rec); err != nil {
			t.Fatalf("SaveDay (overwrite): %v", err)
		}
		got, _ = s.Day("2026-08-31")
		if got.Energy != 2 {
			t.Errorf("overwrite lost: energy = %d", got.Energy)
		}
	}
}

func TestFingerprintRoundTrip(t *testing.T) {
	for _, s := range openTestStores(t) {
		if fp := s.SyncedFingerprint(); fp != "" {
			t.Errorf("fresh store fingerprint = %q, want empty", fp)
		}
		if err := s.SaveSyncedFingerprint("abc123"); err != nil {
			t.Fatalf("SaveSyncedFingerprint: %v", err)
		}
		if fp := s.SyncedFingerprint(); fp != "abc123" {
			t.Errorf("fingerprint = %q, want abc123", fp)
		}
	}
}

func TestWeekDoneRoundTrip(t *testing.T) {
	for _, s := range openTestStores(t) {
		if s.WeekDone() != 0 {
			t.Error("fresh store should have no week recorded")
		}
		if err := s.SaveWeekDone(35); err != nil {
			t.Fatalf("SaveWeekDone: %v", err)
		}
		if got := s.WeekDone(); got != 35 {
			t.Errorf("WeekDone = %d, want 35", got)
		}
	}
}

func TestPruneOldDays(t *testing.T) {
	for _, s := range openTestStores(t) {
		today := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
		for _, date := range []string{"2026-08-20", "2026-08-23", "2026-08-25", "2026-08-31"} {
			if err := s.SaveDay(plan.DailyRecord{Date: date, Energy: 3}); err != nil {
				t.Fatalf("SaveDay(%s): %v", date, err)
			}
		}

		pruned := PruneOldDays(s, today)
		if pruned != 2 {
			t.Errorf("pruned %d records, want 2", pruned)
		}

		if _, ok := s.Day("2026-08-20"); ok {
			t.Error("record beyond horizon survived the sweep")
		}
		if _, ok := s.Day("2026-08-25"); !ok {
			t.Error("record within horizon was pruned")
		}
		if _, ok := s.Day("2026-08-31"); !ok {
			t.Error("today's record was pruned")
		}
	}
}

func TestCorruptRecordReadsAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "day_2026-08-30"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing corrupt record: %v", err)
	}

	if _, ok := s.Day("2026-08-30"); ok {
		t.Error("corrupt record should read as absent")
	}

	// And it stays writable.
	if err := s.SaveDay(plan.DailyRecord{Date: "2026-08-30", Energy: 3}); err != nil {
		t.Fatalf("SaveDay over corrupt record: %v", err)
	}
	if rec, ok := s.Day("2026-08-30"); !ok || rec.Energy != 3 {
		t.Errorf("rewrite failed: %+v ok=%v", rec, ok)
	}
}

func TestMemoryStoreValueSemantics(t *testing.T) {
	s := NewMemory()
	rec := plan.DailyRecord{Date: "2026-08-31", Energy: 3, Tasks: []plan.Task{{ID: "t1", Title: "Breakfast"}}}
	if err := s.SaveDay(rec); err != nil {
		t.Fatalf("SaveDay: %v", err)
	}

	rec.Tasks[0].Title = "mutated after save"
	got, _ := s.Day("2026-08-31")
	if got.Tasks[0].Title != "Breakfast" {
		t.Error("store shares memory with the caller's slice")
	}

	got.Tasks[0].Title = "mutated after load"
	again, _ := s.Day("2026-08-31")
	if again.Tasks[0].Title != "Breakfast" {
		t.Error("loaded value aliases the stored value")
	}
}
