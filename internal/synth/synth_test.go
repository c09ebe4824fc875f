package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/chris/kairos/internal/plan"
)

type fakeOracle struct {
	raw string
	err error
}

func (f fakeOracle) ProposeSchedule(ctx context.Context, req ProposalRequest) (string, error) {
	return f.raw, f.err
}

func window(start, end string) plan.ActiveHours {
	return plan.ActiveHours{Start: start, End: end}
}

func breakfastAnchor() plan.Task {
	return plan.Task{
		ID: "f-0", Title: "Breakfast", Duration: 30, EnergyCost: plan.EnergyLow,
		IsHardBlock: true, StartTime: "09:00", EndTime: "09:30",
		RecurringDays: []int{0, 1, 2, 3, 4, 5, 6},
	}
}

func readingWish(minutes int) plan.Task {
	return plan.Task{ID: "w-1", Title: "Reading", Duration: minutes, EnergyCost: plan.EnergyHigh, IsWish: true}
}

// checkTiling verifies the gap-free, overlap-free window coverage contract.
func checkTiling(t *testing.T, tasks []plan.Task, w plan.ActiveHours) {
	t.Helper()
	if len(tasks) == 0 {
		t.Fatal("empty plan")
	}
	startM, endM, err := w.Minutes()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	cursor := startM
	for _, task := range tasks {
		if task.StartMinutes() != cursor {
			t.Fatalf("task %q starts at %s, expected %s", task.Title, task.StartTime, plan.FormatClock(cursor))
		}
		cursor = task.EndMinutes()
	}
	if cursor != endM {
		t.Fatalf("plan ends at %s, window ends at %s", plan.FormatClock(cursor), w.End)
	}
}

func TestSynthesizeInvalidWindow(t *testing.T) {
	s := New(fakeOracle{}, 0)
	if _, err := s.Synthesize(context.Background(), 3, nil, window("23:00", "08:00")); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := s.Synthesize(context.Background(), 3, nil, window("08:00", "08:00")); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for empty window, got %v", err)
	}
}

func TestSynthesizeOracleFailureFallsBack(t *testing.T) {
	candidates := []plan.Task{readingWish(90), breakfastAnchor()}
	s := New(fakeOracle{err: errors.New("boom")}, 0)

	got, err := s.Synthesize(context.Background(), 3, candidates, window("08:00", "23:00"))
	if err != nil {
		t.Fatalf("oracle failure must not surface: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("fallback should contain only anchors, got %d tasks", len(got))
	}
	if got[0].Title != "Breakfast" || got[0].StartTime != "09:00" || got[0].IsCompleted {
		t.Errorf("unexpected fallback task: %+v", got[0])
	}
}

func TestSynthesizeMalformedProposalFallsBack(t *testing.T) {
	candidates := []plan.Task{breakfastAnchor(), readingWish(90)}
	for _, raw := range []string{"", "not json", `{"tasks": []}`, `[{"title": "x"}]`} {
		s := New(fakeOracle{raw: raw}, 0)
		got, err := s.Synthesize(context.Background(), 3, candidates, window("08:00", "23:00"))
		if err != nil {
			t.Fatalf("raw %q: %v", raw, err)
		}
		if len(got) != 1 || got[0].Title != "Breakfast" {
			t.Errorf("raw %q: expected anchors-only fallback, got %d tasks", raw, len(got))
		}
	}
}

func TestFallbackSortsAnchors(t *testing.T) {
	candidates := []plan.Task{
		{ID: "f-1", Title: "Pilates", IsHardBlock: true, StartTime: "12:00", EndTime: "14:00", Duration: 120, IsCompleted: true},
		readingWish(45),
		breakfastAnchor(),
	}
	got := Fallback(candidates)
	if len(got) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(got))
	}
	if got[0].Title != "Breakfast" || got[1].Title != "Pilates" {
		t.Errorf("anchors not sorted by start: %q, %q", got[0].Title, got[1].Title)
	}
	for _, task := range got {
		if task.IsCompleted {
			t.Errorf("fallback task %q not reset to incomplete", task.Title)
		}
	}
}

func TestSynthesizeAcceptsValidProposal(t *testing.T) {
	candidates := []plan.Task{breakfastAnchor(), readingWish(90)}
	raw := `[
		{"id": "w-1", "title": "Reading", "description": "", "duration": 60, "energyCost": "high", "isHardBlock": false, "isWish": true, "startTime": "08:00"},
		{"id": "f-0", "title": "Breakfast", "description": "", "duration": 30, "energyCost": "low", "isHardBlock": true, "isWish": false, "startTime": "09:00"},
		{"id": "x-1", "title": "Gentle stretching", "description": "Loosen up.", "duration": 30, "energyCost": "low", "isHardBlock": false, "isWish": false, "startTime": "09:30"}
	]`
	s := New(fakeOracle{raw: raw}, 0)

	got, err := s.Synthesize(context.Background(), 3, candidates, window("08:00", "10:00"))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkTiling(t, got, window("08:00", "10:00"))
	if len(got) != 3 {
		t.Fatalf("expected proposal accepted verbatim, got %d tasks", len(got))
	}
	if got[0].Title != "Reading" || got[0].EndTime != "09:00" {
		t.Errorf("first task = %+v", got[0])
	}
	if got[1].Title != "Breakfast" || got[1].StartTime != "09:00" || got[1].EndTime != "09:30" {
		t.Errorf("anchor drifted: %+v", got[1])
	}
	for _, task := range got {
		if task.IsCompleted {
			t.Errorf("task %q not reset to incomplete", task.Title)
		}
	}
}

func TestSynthesizeRepairsOverlongWish(t *testing.T) {
	// The oracle hands back a single 90-minute Reading block: over the cap,
	// not tiling the window. Repair should re-lay it out around the anchor.
	candidates := []plan.Task{breakfastAnchor(), readingWish(90)}
	raw := `[{"id": "w-1", "title": "Reading", "duration": 90, "energyCost": "high", "isHardBlock": false, "isWish": true, "startTime": "08:00"}]`
	s := New(fakeOracle{raw: raw}, 0)

	w := window("08:00", "23:00")
	got, err := s.Synthesize(context.Background(), 3, candidates, w)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkTiling(t, got, w)

	readingTotal := 0
	foundAnchor := false
	for _, task := range got {
		if task.Title == "Reading" {
			readingTotal += task.Duration
			if task.Duration > MaxTaskMinutes {
				t.Errorf("Reading segment of %d minutes exceeds cap", task.Duration)
			}
		}
		if task.Title == "Breakfast" && task.StartTime == "09:00" && task.EndTime == "09:30" && task.Duration == 30 {
			foundAnchor = true
		}
	}
	if !foundAnchor {
		t.Error("breakfast anchor missing or moved")
	}
	if readingTotal == 0 || readingTotal > 90 {
		t.Errorf("Reading total = %d minutes, want (0, 90]", readingTotal)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].EnergyCost == plan.EnergyHigh && got[i].EnergyCost == plan.EnergyHigh {
			t.Errorf("adjacent high-cost tasks %q and %q", got[i-1].Title, got[i].Title)
		}
	}
}

func TestSynthesizeSeparatesAdjacentHighs(t *testing.T) {
	candidates := []plan.Task{
		readingWish(45),
		{ID: "w-2", Title: "Writing", Duration: 45, EnergyCost: plan.EnergyHigh, IsWish: true},
	}
	raw := `[
		{"id": "w-1", "title": "Reading", "duration": 45, "energyCost": "high", "isWish": true, "startTime": "08:00"},
		{"id": "w-2", "title": "Writing", "duration": 45, "energyCost": "high", "isWish": true, "startTime": "08:45"},
		{"id": "x-1", "title": "Deep breathing", "duration": 30, "energyCost": "low", "startTime": "09:30"}
	]`
	s := New(fakeOracle{raw: raw}, 0)

	w := window("08:00", "10:00")
	got, err := s.Synthesize(context.Background(), 4, candidates, w)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkTiling(t, got, w)

	sawBuffer := false
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.EnergyCost == plan.EnergyHigh && cur.EnergyCost == plan.EnergyHigh {
			t.Fatalf("adjacent high-cost tasks %q and %q survived", prev.Title, cur.Title)
		}
		if prev.Title == "Reading" && cur.EnergyCost == plan.EnergyLow && cur.Duration >= RecoveryMinutes {
			sawBuffer = true
		}
	}
	if !sawBuffer {
		t.Error("expected a recovery buffer of at least 15 minutes after the first high task")
	}
}

func TestSynthesizeRejectsInventedHardBlock(t *testing.T) {
	// A proposal may not smuggle an oversized task past the duration cap by
	// marking it as a hard block the baseline never granted.
	candidates := []plan.Task{readingWish(30)}
	raw := `[
		{"id": "x-1", "title": "All-day sprint", "duration": 270, "energyCost": "high", "isHardBlock": true, "startTime": "08:00"},
		{"id": "w-1", "title": "Reading", "duration": 30, "energyCost": "high", "isWish": true, "startTime": "12:30"}
	]`
	s := New(fakeOracle{raw: raw}, 0)

	w := window("08:00", "13:00")
	got, err := s.Synthesize(context.Background(), 3, candidates, w)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	checkTiling(t, got, w)
	for _, task := range got {
		if task.Title == "All-day sprint" {
			t.Fatalf("invented hard block accepted: %+v", task)
		}
		if task.IsHardBlock {
			t.Errorf("task %q kept a fixed-slot claim with no matching anchor", task.Title)
		}
		if task.Duration > MaxTaskMinutes {
			t.Errorf("task %q duration %d exceeds the cap", task.Title, task.Duration)
		}
	}
}

func TestSynthesizeNilOracle(t *testing.T) {
	s := New(nil, 0)
	got, err := s.Synthesize(context.Background(), 3, []plan.Task{breakfastAnchor()}, window("08:00", "23:00"))
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Breakfast" {
		t.Errorf("expected anchors-only plan without an oracle, got %+v", got)
	}
}

func TestValidateRejections(t *testing.T) {
	w := window("08:00", "10:00")
	anchor := breakfastAnchor()
	candidates := []plan.Task{anchor, readingWish(90)}

	base := []plan.Task{
		{ID: "a", Title: "Reading", Duration: 60, EnergyCost: plan.EnergyHigh, IsWish: true, StartTime: "08:00"},
		{ID: "f-0", Title: "Breakfast", Duration: 30, EnergyCost: plan.EnergyLow, IsHardBlock: true, StartTime: "09:00", EndTime: "09:30"},
		{ID: "b", Title: "Hydration break", Duration: 30, EnergyCost: plan.EnergyLow, StartTime: "09:30"},
	}
	if err := Validate(base, 3, candidates, w); err != nil {
		t.Fatalf("baseline plan should validate: %v", err)
	}

	gap := plan.CloneTasks(base)
	gap[2].StartTime = "09:45"
	gap[2].Duration = 15
	if err := Validate(gap, 3, candidates, w); err == nil {
		t.Error("gap after the anchor not rejected")
	}

	moved := plan.CloneTasks(base)
	moved[1].StartTime = "09:15"
	moved[0].Duration = 75
	if err := Validate(moved, 3, candidates, w); err == nil {
		t.Error("moved anchor not rejected")
	}

	renamed := plan.CloneTasks(base)
	renamed[0].ID = "w-1"
	renamed[0].Title = "Reading (improved)"
	if err := Validate(renamed, 3, candidates, w); err == nil {
		t.Error("altered candidate title not rejected")
	}

	over := []plan.Task{{ID: "a", Title: "Reading", Duration: 90, EnergyCost: plan.EnergyHigh, IsWish: true, StartTime: "08:00"}}
	if err := Validate(over, 5, []plan.Task{readingWish(90)}, window("08:00", "09:30")); err == nil {
		t.Error("non-anchor task above the cap not rejected")
	}

	dup := plan.CloneTasks(base)
	dup[2].ID = "a"
	if err := Validate(dup, 3, candidates, w); err == nil {
		t.Error("duplicate ids not rejected")
	}

	claimed := plan.CloneTasks(base)
	claimed[2].IsHardBlock = true
	if err := Validate(claimed, 3, candidates, w); err == nil {
		t.Error("fixed-slot claim without a matching anchor not rejected")
	}
}

func TestScaledDuration(t *testing.T) {
	if got := ScaledDuration(3, 90); got != 70 {
		t.Errorf("ScaledDuration(3, 90) = %d, want 70", got)
	}
	if ScaledDuration(1, 90) >= ScaledDuration(5, 90) {
		t.Error("low energy should allot less than high energy")
	}
	if ScaledDuration(4, 90) != 90 {
		t.Errorf("ScaledDuration(4, 90) = %d, want nominal", ScaledDuration(4, 90))
	}
	if ScaledDuration(5, 90) <= 90 {
		t.Error("top energy may exceed nominal")
	}
	if got := ScaledDuration(1, 20); got != RecoveryMinutes {
		t.Errorf("ScaledDuration(1, 20) = %d, want the %d-minute floor", got, RecoveryMinutes)
	}
}
