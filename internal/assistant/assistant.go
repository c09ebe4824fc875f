// Package assistant runs the conversational interface: a tool-calling loop
// that turns free-text requests into mutation-engine operations. The model
// is an alternate command source; every change goes through the same engine
// a direct API call would.
package assistant

import (
	"context"
	"encoding/json"
	"log"

	"github.com/chris/kairos/internal/llm"
	"github.com/chris/kairos/internal/mutate"
	"github.com/chris/kairos/internal/plan"
	"github.com/chris/kairos/internal/store"
)

const maxToolRounds = 10

// FallbackReply is returned whenever the model cannot be reached or keeps
// calling tools past the round limit. The plan is never left half-edited by
// a failed conversation.
const FallbackReply = "I'm having trouble thinking clearly right now. Your plan is safe and unchanged; please try me again in a moment."

type Assistant struct {
	store            store.Store
	engine           *mutate.Engine
	client           llm.Client
	MaxContextTokens int
}

func New(s store.Store, engine *mutate.Engine, client llm.Client, maxContextTokens int) *Assistant {
	return &Assistant{store: s, engine: engine, client: client, MaxContextTokens: maxContextTokens}
}

// Run takes a user message, runs the tool-calling loop, and returns the final
// text reply plus the updated history. Model failures degrade to FallbackReply
// rather than an error; only the tool calls already executed have applied.
func (a *Assistant) Run(ctx context.Context, history []llm.Message, userMessage string) (string, []llm.Message) {
	messages := make([]llm.Message, len(history))
	copy(messages, history)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})

	system := llm.SystemPrompt + "\n\n" + BuildPlanContext(a.store, a.engine.Date())

	// Fixed costs: system prompt + tool definitions.
	fixedTokens := llm.EstimateTokens(system) + llm.EstimateToolsTokens(llm.AssistantTools)
	messageBudget := a.MaxContextTokens - fixedTokens
	if messageBudget < 1000 {
		messageBudget = 1000 // floor so we always have room for at least the current turn
	}

	for i := 0; i < maxToolRounds; i++ {
		trimmed := llm.TrimMessages(messages, messageBudget)
		if len(trimmed) < len(messages) {
			log.Printf("assistant: context trimmed: %d -> %d messages", len(messages), len(trimmed))
		}
		resp, err := a.client.Chat(ctx, system, trimmed, llm.AssistantTools)
		if err != nil {
			log.Printf("assistant: chat failed: %v", err)
			messages = append(messages, llm.Message{Role: "assistant", Content: FallbackReply})
			return FallbackReply, messages
		}

		// No tool calls means a final answer.
		if len(resp.ToolCalls) == 0 {
			messages = append(messages, llm.Message{Role: "assistant", Content: resp.Content})
			return resp.Content, messages
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			result := a.executeTool(tc.Name, tc.Params)
			log.Printf("assistant: tool %s -> %s", tc.Name, truncate(result, 200))
			messages = append(messages, llm.Message{
				Role:       "user",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	messages = append(messages, llm.Message{Role: "assistant", Content: FallbackReply})
	return FallbackReply, messages
}

func (a *Assistant) executeTool(name string, params map[string]any) string {
	var result any
	var err error

	switch name {
	case "add_fixed_task":
		title, _ := getString(params, "title")
		start, _ := getString(params, "start_time")
		end, _ := getString(params, "end_time")
		cost, _ := getString(params, "energy_cost")
		task, e := a.engine.AddFixedAnchor(mutate.Fields{
			Title:         title,
			StartTime:     start,
			EndTime:       end,
			EnergyCost:    plan.EnergyCost(cost),
			RecurringDays: getIntSlice(params, "recurring_days"),
		})
		if e != nil {
			err = e
		} else {
			result = map[string]any{"id": task.ID, "status": "added"}
		}

	case "add_wish_task":
		title, _ := getString(params, "title")
		duration, _ := getInt(params, "duration")
		cost, _ := getString(params, "energy_cost")
		task, e := a.engine.AddWish(mutate.Fields{
			Title:      title,
			Duration:   int(duration),
			EnergyCost: plan.EnergyCost(cost),
		})
		if e != nil {
			err = e
		} else {
			result = map[string]any{"id": task.ID, "status": "added"}
		}

	case "modify_today_plan":
		action, _ := getString(params, "action")
		id, _ := getString(params, "id")
		fields := fieldsFrom(params)
		switch action {
		case "insert":
			task, e := a.engine.InsertToday(fields)
			if e != nil {
				err = e
			} else {
				result = map[string]any{"id": task.ID, "status": "inserted"}
			}
		case "edit":
			err = a.engine.EditToday(id, fields)
			if err == nil {
				result = map[string]any{"status": "updated"}
			}
		case "toggle_completion":
			err = a.engine.ToggleCompletion(id)
			if err == nil {
				result = map[string]any{"status": "toggled"}
			}
		default:
			result = map[string]any{"error": "unknown action: " + action}
		}

	case "remove_task":
		title, _ := getString(params, "title")
		removed, e := a.engine.RemoveByTitle(title)
		if e != nil {
			err = e
		} else {
			result = map[string]any{"removed": removed, "status": "removed"}
		}

	case "modify_active_window":
		start, _ := getString(params, "start")
		end, _ := getString(params, "end")
		err = a.engine.ModifyActiveHours(start, end)
		if err == nil {
			result = map[string]any{"status": "updated"}
		}

	default:
		result = map[string]any{"error": "unknown tool: " + name}
	}

	if err != nil {
		result = map[string]any{"error": err.Error()}
	}

	b, _ := json.Marshal(result) // result is always a simple map; marshal cannot fail
	return string(b)
}

func fieldsFrom(params map[string]any) mutate.Fields {
	title, _ := getString(params, "title")
	desc, _ := getString(params, "description")
	start, _ := getString(params, "start_time")
	duration, _ := getInt(params, "duration")
	cost, _ := getString(params, "energy_cost")
	return mutate.Fields{
		Title:       title,
		Description: desc,
		StartTime:   start,
		Duration:    int(duration),
		EnergyCost:  plan.EnergyCost(cost),
	}
}

// Param extraction helpers — LLMs send numbers as float64 in JSON.
func getInt(params map[string]any, key string) (int64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func getString(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getIntSlice(params map[string]any, key string) []int {
	v, ok := params[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []int
	for _, e := range arr {
		if n, ok := e.(float64); ok {
			out = append(out, int(n))
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
