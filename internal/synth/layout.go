package synth

import (
	"github.com/google/uuid"

	"github.com/chris/kairos/internal/plan"
)

// fillers is the vocabulary for synthetic recovery and gap tasks. All are
// low-cost so they double as pacing buffers.
var fillers = []struct{ title, desc string }{
	{"Mindful meditation", "Sit comfortably and follow the breath. Let thoughts pass without chasing them."},
	{"Gentle stretching", "Loosen the neck, shoulders, and lower back. Slow movements, no strain."},
	{"Hydration break", "A full glass of water, away from any screen."},
	{"Deep breathing", "Five slow breaths, exhale longer than the inhale."},
}

const fillerMaxMinutes = 30

// clampToCandidates restores candidate titles on id-matched items and trims
// each wish item to its energy-scaled allotment, so a proposal that drifted
// on either front is repairable instead of discarded.
func clampToCandidates(items []plan.Task, energy int, candidates []plan.Task) {
	byID := make(map[string]plan.Task, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	for i := range items {
		c, ok := byID[items[i].ID]
		if !ok {
			continue
		}
		items[i].Title = c.Title
		items[i].IsWish = c.IsWish
		if c.IsWish {
			if budget := ScaledDuration(energy, c.Duration); items[i].Duration > budget {
				items[i].Duration = budget
			}
		}
	}
}

// layout deterministically re-times an ordered list of flexible items around
// the locked anchors, tiling [startM, endM) exactly. Items longer than the
// cap are split into same-titled segments with a recovery buffer between
// them; after two consecutive high-cost placements a recovery buffer is
// forced; leftover space is filled from the filler vocabulary.
//
// Returns false when the anchors themselves cannot be honored (outside the
// window or mutually overlapping).
func layout(items, anchors []plan.Task, startM, endM int) ([]plan.Task, bool) {
	anchors = plan.CloneTasks(anchors)
	plan.SortByStart(anchors)

	cursor := startM
	for _, a := range anchors {
		st := a.StartMinutes()
		if st < 0 || a.Duration <= 0 || st < cursor || st+a.Duration > endM {
			return nil, false
		}
		cursor = st + a.Duration
	}

	pending := plan.CloneTasks(items)
	var out []plan.Task
	t := startM
	ai := 0
	itemIdx := 0
	fillerIdx := 0
	highRun := 0
	needRecovery := false

	place := func(task plan.Task) {
		task.StartTime = plan.FormatClock(t)
		task.EndTime = plan.FormatClock(t + task.Duration)
		task.IsCompleted = false
		out = append(out, task)
		t += task.Duration
		if task.EnergyCost == plan.EnergyHigh {
			highRun++
		} else {
			highRun = 0
		}
	}

	newFiller := func(gap, max int) plan.Task {
		d := max
		if gap < d {
			d = gap
		}
		f := fillers[fillerIdx%len(fillers)]
		fillerIdx++
		return plan.Task{
			ID:          uuid.NewString(),
			Title:       f.title,
			Description: f.desc,
			Duration:    d,
			EnergyCost:  plan.EnergyLow,
		}
	}

	for t < endM {
		if ai < len(anchors) && anchors[ai].StartMinutes() == t {
			a := anchors[ai]
			ai++
			a.IsCompleted = false
			out = append(out, a)
			t = a.StartMinutes() + a.Duration
			if a.EnergyCost == plan.EnergyHigh {
				highRun++
			} else {
				highRun = 0
			}
			// The anchor itself separates split segments.
			needRecovery = false
			continue
		}

		boundary := endM
		if ai < len(anchors) {
			boundary = anchors[ai].StartMinutes()
		}
		gap := boundary - t
		if gap <= 0 {
			return nil, false
		}

		if needRecovery {
			place(newFiller(gap, RecoveryMinutes))
			needRecovery = false
			continue
		}

		for itemIdx < len(pending) && pending[itemIdx].Duration <= 0 {
			itemIdx++
		}
		if itemIdx < len(pending) {
			item := &pending[itemIdx]
			if item.EnergyCost == plan.EnergyHigh {
				// Never place a high-cost segment directly after a
				// high-cost task.
				if highRun >= 1 {
					place(newFiller(gap, RecoveryMinutes))
					continue
				}
				// Leave room for a buffer when the next anchor is also
				// high-cost and this segment would butt against it.
				if ai < len(anchors) && anchors[ai].EnergyCost == plan.EnergyHigh && gap <= RecoveryMinutes {
					place(newFiller(gap, RecoveryMinutes))
					continue
				}
			}
			seg := item.Duration
			if seg > MaxTaskMinutes {
				seg = MaxTaskMinutes
			}
			if seg > gap {
				seg = gap
			}
			if item.EnergyCost == plan.EnergyHigh && ai < len(anchors) &&
				anchors[ai].EnergyCost == plan.EnergyHigh && seg == gap {
				seg = gap - RecoveryMinutes
			}
			segment := *item
			segment.Duration = seg
			segment.ID = uuid.NewString()
			item.Duration -= seg
			// A cap split inside the same free region needs a recovery
			// buffer; a boundary split is already separated by the anchor.
			needRecovery = item.Duration > 0 && seg < gap
			place(segment)
			continue
		}

		place(newFiller(gap, fillerMaxMinutes))
	}

	return out, true
}
