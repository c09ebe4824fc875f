package assistant

import (
	"fmt"
	"strings"

	"github.com/chris/kairos/internal/plan"
	"github.com/chris/kairos/internal/store"
)

// BuildPlanContext renders the state the model needs to reason about: the
// active window, today's energy and plan with task ids, and the baseline
// pools. Task ids are included so edit and toggle calls can reference them.
func BuildPlanContext(s store.Store, date string) string {
	var b strings.Builder
	baseline := s.Baseline()

	fmt.Fprintf(&b, "## Today (%s)\n", date)
	fmt.Fprintf(&b, "Active hours: %s to %s\n", baseline.ActiveHours.Start, baseline.ActiveHours.End)

	rec, ok := s.Day(date)
	if !ok || rec.Energy == 0 {
		b.WriteString("No check-in yet today; there is no plan to edit, only the baseline.\n")
	} else {
		fmt.Fprintf(&b, "Energy score: %d/5\n\n### Plan\n", rec.Energy)
		for _, t := range rec.Tasks {
			writeTaskLine(&b, t)
		}
	}

	b.WriteString("\n### Fixed commitments (baseline)\n")
	if len(baseline.FixedAnchors) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range baseline.FixedAnchors {
		fmt.Fprintf(&b, "- [%s] %s %s-%s, days %v, %s\n", t.ID, t.Title, t.StartTime, t.EndTime, t.RecurringDays, t.EnergyCost)
	}

	b.WriteString("\n### Flexible goals (baseline)\n")
	if len(baseline.WishPool) == 0 {
		b.WriteString("(none)\n")
	}
	for _, t := range baseline.WishPool {
		fmt.Fprintf(&b, "- [%s] %s, target %d min, %s\n", t.ID, t.Title, t.Duration, t.EnergyCost)
	}

	return b.String()
}

func writeTaskLine(b *strings.Builder, t plan.Task) {
	mark := " "
	if t.IsCompleted {
		mark = "x"
	}
	kind := ""
	switch {
	case t.IsHardBlock:
		kind = " (fixed)"
	case t.IsWish:
		kind = " (wish)"
	}
	fmt.Fprintf(b, "- [%s] %s-%s %s%s, %d min, %s energy [id %s]\n",
		mark, t.StartTime, t.EndTime, t.Title, kind, t.Duration, t.EnergyCost, t.ID)
}
