// Package insight aggregates the trailing week of daily records into simple
// statistics and a short narrative summary. It is a read-only consumer of
// the store; missing days count as zero-activity days.
package insight

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/chris/kairos/internal/llm"
	"github.com/chris/kairos/internal/store"
)

// WindowDays is how far back the weekly aggregation reaches.
const WindowDays = 7

// FallbackSummary is used whenever the narrative oracle is unavailable. The
// numbers still render; only the prose degrades.
const FallbackSummary = "You showed up for yourself this week. Carry whatever worked into the next one, gently."

// Stats is the weekly aggregate over the last WindowDays calendar days.
type Stats struct {
	Days           int     // days with a recorded check-in
	TasksPlanned   int
	TasksCompleted int
	CompletionRate float64 // 0..1, zero when nothing was planned
	FocusedMinutes int     // sum of completed task durations
	AverageEnergy  float64 // over days with a check-in
	TopTitles      []string
}

// Collect walks the last WindowDays ending at today. Absent or corrupt
// records are treated as days with no activity.
func Collect(s store.Store, today time.Time) Stats {
	var st Stats
	energySum := 0
	titleCounts := make(map[string]int)

	for i := WindowDays - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format("2006-01-02")
		rec, ok := s.Day(date)
		if !ok || rec.Energy == 0 {
			continue
		}
		st.Days++
		energySum += rec.Energy
		for _, t := range rec.Tasks {
			st.TasksPlanned++
			if t.IsCompleted {
				st.TasksCompleted++
				st.FocusedMinutes += t.Duration
				titleCounts[t.Title]++
			}
		}
	}

	if st.TasksPlanned > 0 {
		st.CompletionRate = float64(st.TasksCompleted) / float64(st.TasksPlanned)
	}
	if st.Days > 0 {
		st.AverageEnergy = float64(energySum) / float64(st.Days)
	}
	st.TopTitles = topTitles(titleCounts, 3)
	return st
}

func topTitles(counts map[string]int, n int) []string {
	titles := make([]string, 0, len(counts))
	for t := range counts {
		titles = append(titles, t)
	}
	sort.Slice(titles, func(i, j int) bool {
		if counts[titles[i]] != counts[titles[j]] {
			return counts[titles[i]] > counts[titles[j]]
		}
		return titles[i] < titles[j]
	})
	if len(titles) > n {
		titles = titles[:n]
	}
	return titles
}

const summaryPrompt = `You are Kairos, a gentle weekly-review companion. Given one week of planning statistics, write a warm, encouraging summary in two or three sentences. Acknowledge effort over output, mention one concrete number, and suggest one small thing to carry into next week. Plain text only.`

// Reporter turns weekly stats into a short narrative. A nil client always
// yields FallbackSummary.
type Reporter struct {
	client llm.Client
}

func NewReporter(c llm.Client) *Reporter {
	return &Reporter{client: c}
}

func (r *Reporter) WeeklySummary(ctx context.Context, st Stats) string {
	if r.client == nil {
		return FallbackSummary
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Days with a check-in: %d of %d\n", st.Days, WindowDays)
	fmt.Fprintf(&b, "Tasks completed: %d of %d planned (%.0f%%)\n", st.TasksCompleted, st.TasksPlanned, st.CompletionRate*100)
	fmt.Fprintf(&b, "Focused minutes: %d\n", st.FocusedMinutes)
	fmt.Fprintf(&b, "Average energy: %.1f/5\n", st.AverageEnergy)
	if len(st.TopTitles) > 0 {
		fmt.Fprintf(&b, "Most completed: %s\n", strings.Join(st.TopTitles, ", "))
	}

	resp, err := r.client.Chat(ctx, summaryPrompt, []llm.Message{{Role: "user", Content: b.String()}}, nil)
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		log.Printf("insight: summary oracle unavailable: %v", err)
		return FallbackSummary
	}
	return strings.TrimSpace(resp.Content)
}
