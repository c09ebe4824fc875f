package synth

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/chris/kairos/internal/plan"
)

// ParseProposal is the strict schema boundary between the oracle and the
// rest of the system. It accepts a JSON array of task objects and rejects
// anything else: invalid JSON, a non-array root, entries missing title,
// startTime, or duration, unparsable clock times, or non-positive durations.
// Field presence is never assumed.
func ParseProposal(raw string) ([]plan.Task, bool) {
	raw = strings.TrimSpace(raw)
	raw = stripFence(raw)
	if raw == "" || !gjson.Valid(raw) {
		return nil, false
	}
	root := gjson.Parse(raw)
	if !root.IsArray() {
		return nil, false
	}

	var tasks []plan.Task
	ok := true
	root.ForEach(func(_, v gjson.Result) bool {
		if !v.IsObject() {
			ok = false
			return false
		}
		title := strings.TrimSpace(v.Get("title").String())
		start := v.Get("startTime").String()
		duration := int(v.Get("duration").Int())
		if title == "" || duration <= 0 {
			ok = false
			return false
		}
		if _, err := plan.ParseClock(start); err != nil {
			ok = false
			return false
		}

		id := v.Get("id").String()
		if id == "" {
			id = uuid.NewString()
		}
		cost := plan.EnergyCost(v.Get("energyCost").String())
		if !cost.Valid() {
			cost = plan.EnergyMedium
		}
		tasks = append(tasks, plan.Task{
			ID:          id,
			Title:       title,
			Description: v.Get("description").String(),
			Duration:    duration,
			EnergyCost:  cost,
			IsHardBlock: v.Get("isHardBlock").Bool(),
			IsWish:      v.Get("isWish").Bool(),
			StartTime:   start,
		})
		return true
	})
	if !ok || len(tasks) == 0 {
		return nil, false
	}
	return tasks, true
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
