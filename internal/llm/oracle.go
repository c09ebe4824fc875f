package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chris/kairos/internal/synth"
)

const schedulePrompt = `You are a schedule generator. Given an energy score, a set of candidate tasks, and an active-hours window, produce one day's timetable as a JSON array of task objects.

Rules, all mandatory:
1. The first task starts exactly at the window start. Tasks are contiguous with no gaps or overlaps, and the last task ends exactly at the window end.
2. Tasks with "isHardBlock": true keep their exact startTime, endTime, duration, and title. Never move, resize, or rename them.
3. Keep every candidate task's id and title verbatim. Only tasks you invent yourself (rest or buffer activities) get new titles, and those must have "energyCost": "low".
4. No task other than a hard block may exceed 60 minutes. Split longer wishes into several segments with the same title, separated by a short low-cost buffer.
5. Never place two high-cost tasks back to back; put a low-cost buffer of at least 15 minutes between them.
6. Scale wish time to the energy score: at 1-2 schedule well under each wish's target duration, at 3 around 80 percent, at 4-5 the full target.
7. Each task object has: id, title, description, duration (minutes), energyCost (low|medium|high), isHardBlock, isWish, startTime (HH:mm).

Respond with ONLY the JSON array. No prose, no code fences.`

// ScheduleOracle adapts a chat client to the synthesizer's proposal
// interface. It sends one tool-free request and returns the raw text; the
// synthesizer does all validation.
type ScheduleOracle struct {
	client Client
}

func NewScheduleOracle(c Client) *ScheduleOracle {
	return &ScheduleOracle{client: c}
}

func (o *ScheduleOracle) ProposeSchedule(ctx context.Context, req synth.ProposalRequest) (string, error) {
	candidates, err := json.Marshal(req.Candidates)
	if err != nil {
		return "", fmt.Errorf("marshaling candidates: %w", err)
	}
	user := fmt.Sprintf("Energy score: %d (1=exhausted, 5=energized)\nActive window: %s to %s\nCandidate tasks:\n%s",
		req.Energy, req.Window.Start, req.Window.End, candidates)

	resp, err := o.client.Chat(ctx, schedulePrompt, []Message{{Role: "user", Content: user}}, nil)
	if err != nil {
		return "", fmt.Errorf("schedule proposal: %w", err)
	}
	return resp.Content, nil
}
