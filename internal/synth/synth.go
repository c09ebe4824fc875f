// Package synth turns an energy score, the day's candidate tasks, and the
// active-hours window into a concrete gap-free plan. The creative selection
// is delegated to an external oracle; this package owns validation, repair,
// and the deterministic anchors-only fallback.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/chris/kairos/internal/plan"
)

const (
	// MaxTaskMinutes caps every synthesized non-anchor task; longer wishes
	// are split into same-titled segments.
	MaxTaskMinutes = 60

	// RecoveryMinutes is the length of the low-cost buffer inserted between
	// split segments and after two consecutive high-cost tasks.
	RecoveryMinutes = 15
)

// ErrInvalidWindow is the only synthesis failure surfaced to callers; every
// oracle or constraint fault degrades to the fallback plan instead.
var ErrInvalidWindow = errors.New("synth: window start must precede window end")

// ProposalRequest is what the oracle sees: the score, the eligible anchors
// plus the full wish pool, and the day's window.
type ProposalRequest struct {
	Energy     int
	Candidates []plan.Task
	Window     plan.ActiveHours
}

// Oracle produces a schedule proposal as raw JSON text. The response is
// untrusted; the synthesizer validates everything.
type Oracle interface {
	ProposeSchedule(ctx context.Context, req ProposalRequest) (string, error)
}

type Synthesizer struct {
	oracle  Oracle
	timeout time.Duration
}

// New builds a synthesizer. A nil oracle is allowed and always yields the
// fallback plan. timeout bounds each oracle call; zero means no bound.
func New(oracle Oracle, timeout time.Duration) *Synthesizer {
	return &Synthesizer{oracle: oracle, timeout: timeout}
}

// Synthesize produces the day's ordered task list. candidates is the union
// of the weekday-eligible fixed anchors and the whole wish pool.
//
// The result is, in order of preference: the oracle's proposal verbatim when
// it passes validation, the proposal re-laid-out by the repair step, or the
// anchors-only fallback. Only a malformed window is an error.
func (s *Synthesizer) Synthesize(ctx context.Context, energy int, candidates []plan.Task, window plan.ActiveHours) ([]plan.Task, error) {
	startM, endM, err := window.Minutes()
	if err != nil || startM >= endM {
		return nil, ErrInvalidWindow
	}

	anchors := anchorsOf(candidates)

	if s.oracle == nil {
		return Fallback(candidates), nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.oracle.ProposeSchedule(ctx, ProposalRequest{Energy: energy, Candidates: candidates, Window: window})
	if err != nil {
		log.Printf("synth: oracle unavailable, using fallback: %v", err)
		return Fallback(candidates), nil
	}

	proposal, ok := ParseProposal(raw)
	if !ok {
		log.Printf("synth: malformed oracle proposal, using fallback")
		return Fallback(candidates), nil
	}
	normalize(proposal)

	verr := Validate(proposal, energy, candidates, window)
	if verr == nil {
		return proposal, nil
	}
	log.Printf("synth: proposal rejected (%v), attempting repair", verr)

	flex := flexibleOf(proposal, anchors)
	clampToCandidates(flex, energy, candidates)
	if repaired, ok := layout(flex, anchors, startM, endM); ok {
		rerr := Validate(repaired, energy, candidates, window)
		if rerr == nil {
			return repaired, nil
		}
		log.Printf("synth: repair still invalid (%v), using fallback", rerr)
	}

	return Fallback(candidates), nil
}

// Fallback is the terminal recovery path: the hard-block candidates sorted
// by start time, everything reset to incomplete, wish fill dropped entirely.
// It never fails.
func Fallback(candidates []plan.Task) []plan.Task {
	out := plan.CloneTasks(anchorsOf(candidates))
	for i := range out {
		out[i].IsCompleted = false
	}
	plan.SortByStart(out)
	return out
}

// Validate checks a synthesized list against the hard output guarantees:
// window tiling with no overlap or gap, anchor immutability, title fidelity
// for candidate-derived tasks, the non-anchor duration cap, energy pacing,
// and the energy-scaled wish allotment.
func Validate(tasks []plan.Task, energy int, candidates []plan.Task, window plan.ActiveHours) error {
	startM, endM, err := window.Minutes()
	if err != nil || startM >= endM {
		return ErrInvalidWindow
	}
	if len(tasks) == 0 {
		return fmt.Errorf("empty plan")
	}

	// Gap-free tiling of [window.start, window.end).
	cursor := startM
	for i, t := range tasks {
		st := t.StartMinutes()
		if st < 0 {
			return fmt.Errorf("task %d (%q) has no start time", i, t.Title)
		}
		if st != cursor {
			return fmt.Errorf("task %q starts at %s, expected %s", t.Title, t.StartTime, plan.FormatClock(cursor))
		}
		if t.Duration <= 0 {
			return fmt.Errorf("task %q has non-positive duration", t.Title)
		}
		cursor = st + t.Duration
		if cursor > endM {
			return fmt.Errorf("task %q runs past the window end", t.Title)
		}
	}
	if cursor != endM {
		return fmt.Errorf("plan ends at %s, window ends at %s", plan.FormatClock(cursor), window.End)
	}

	// Anchor lock: every candidate anchor appears byte-identical.
	anchors := anchorsOf(candidates)
	for _, a := range anchors {
		found := false
		for _, t := range tasks {
			if t.IsHardBlock && t.Title == a.Title && t.StartTime == a.StartTime &&
				t.EndTime == a.EndTime && t.Duration == a.Duration {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("anchor %q missing or moved", a.Title)
		}
	}

	// The reverse direction: a hard-block claim is only honored when it
	// matches a candidate anchor slot. Anything else would dodge the duration
	// cap and the wish budget on the oracle's say-so.
	for _, t := range tasks {
		if !t.IsHardBlock {
			continue
		}
		matched := false
		for _, a := range anchors {
			if t.Title == a.Title && t.StartTime == a.StartTime &&
				t.EndTime == a.EndTime && t.Duration == a.Duration {
				matched = true
				break
			}
		}
		if !matched {
			return fmt.Errorf("task %q claims a fixed slot it was not given", t.Title)
		}
	}

	// Title fidelity for candidate-derived tasks, matched by id.
	byID := make(map[string]plan.Task, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	for _, t := range tasks {
		if c, ok := byID[t.ID]; ok && c.Title != t.Title {
			return fmt.Errorf("task %s title altered: %q -> %q", t.ID, c.Title, t.Title)
		}
	}

	// Duration cap on non-anchor tasks.
	for _, t := range tasks {
		if !t.IsHardBlock && t.Duration > MaxTaskMinutes {
			return fmt.Errorf("task %q exceeds the %d-minute cap", t.Title, MaxTaskMinutes)
		}
	}

	// Energy pacing: no two adjacent high-cost tasks; a recovery buffer must
	// sit between them.
	for i := 1; i < len(tasks); i++ {
		if tasks[i-1].EnergyCost == plan.EnergyHigh && tasks[i].EnergyCost == plan.EnergyHigh {
			return fmt.Errorf("adjacent high-cost tasks %q and %q", tasks[i-1].Title, tasks[i].Title)
		}
	}

	// ID uniqueness within the day's plan. Split wish segments carry the
	// same title but must not share an id.
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			return fmt.Errorf("task %q has no id", t.Title)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate task id %s", t.ID)
		}
		seen[t.ID] = true
	}

	// Energy-to-load correlation: per-wish total stays within the scaled
	// allotment for the reported score. Segments are matched by title since
	// each segment gets its own id.
	wishByTitle := make(map[string]string, len(candidates))
	for _, c := range candidates {
		if c.IsWish {
			wishByTitle[c.Title] = c.ID
		}
	}
	wishTotals := make(map[string]int)
	for _, t := range tasks {
		if id, ok := wishByTitle[t.Title]; ok {
			wishTotals[id] += t.Duration
		}
	}
	for _, c := range candidates {
		if !c.IsWish {
			continue
		}
		if total := wishTotals[c.ID]; total > ScaledDuration(energy, c.Duration) {
			return fmt.Errorf("wish %q allotted %d minutes, scaled budget is %d", c.Title, total, ScaledDuration(energy, c.Duration))
		}
	}

	return nil
}

// ScaledDuration maps a wish's nominal duration to its allotment for the
// reported energy score: trimmed at low energy, full or slightly above at
// high energy. Rounded to 5 minutes, floored at 15.
func ScaledDuration(energy, nominal int) int {
	factor := map[int]float64{1: 0.5, 2: 0.6, 3: 0.8, 4: 1.0, 5: 1.15}[clampEnergy(energy)]
	scaled := int(float64(nominal)*factor/5+0.5) * 5
	if scaled < RecoveryMinutes {
		scaled = RecoveryMinutes
	}
	return scaled
}

func clampEnergy(energy int) int {
	if energy < 1 {
		return 1
	}
	if energy > 5 {
		return 5
	}
	return energy
}

func anchorsOf(tasks []plan.Task) []plan.Task {
	var out []plan.Task
	for _, t := range tasks {
		if t.IsHardBlock {
			out = append(out, t)
		}
	}
	return out
}

// flexibleOf extracts the proposal's non-anchor entries in proposal order,
// merging split segments of the same task back into one item so the layout
// walk can re-chunk them.
func flexibleOf(proposal, anchors []plan.Task) []plan.Task {
	anchorTitles := make(map[string]bool, len(anchors))
	for _, a := range anchors {
		anchorTitles[a.Title] = true
	}
	var out []plan.Task
	index := make(map[string]int)
	for _, t := range proposal {
		if t.IsHardBlock || anchorTitles[t.Title] {
			continue
		}
		key := t.ID
		if key == "" {
			key = t.Title
		}
		if i, ok := index[key]; ok {
			out[i].Duration += t.Duration
			continue
		}
		index[key] = len(out)
		item := t
		item.StartTime = ""
		item.EndTime = ""
		out = append(out, item)
	}
	return out
}

// normalize resets completion state and recomputes end times so downstream
// code never trusts those fields from the oracle.
func normalize(tasks []plan.Task) {
	for i := range tasks {
		tasks[i].IsCompleted = false
		if !tasks[i].EnergyCost.Valid() {
			tasks[i].EnergyCost = plan.EnergyMedium
		}
		if st := tasks[i].StartMinutes(); st >= 0 {
			tasks[i].EndTime = plan.FormatClock(st + tasks[i].Duration)
		}
	}
}
