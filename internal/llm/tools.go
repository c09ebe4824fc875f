package llm

// AssistantTools is the closed set of plan mutations the conversational
// model may invoke. Each maps onto one mutation-engine operation; the model
// is an alternate command source, never a bypass.
var AssistantTools = []Tool{
	{
		Name:        "add_fixed_task",
		Description: "Add a recurring fixed-time commitment (anchor) to the baseline. Anchors keep their exact time slot; the planner schedules everything else around them.",
		Parameters: objReq(map[string]any{
			"title":      prop("string", "What the commitment is"),
			"start_time": prop("string", "Start time in HH:mm"),
			"end_time":   prop("string", "End time in HH:mm"),
			"energy_cost": prop("string", "Energy cost: low, medium, high"),
			"recurring_days": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "Weekdays the commitment recurs on, 0=Sunday..6=Saturday. Omit for every day.",
			},
		}, "title", "start_time", "end_time"),
	},
	{
		Name:        "add_wish_task",
		Description: "Add a flexible goal (wish) to the baseline. Wishes have a target duration but no fixed slot; the planner fits them in where energy allows.",
		Parameters: objReq(map[string]any{
			"title":       prop("string", "What the goal is"),
			"duration":    prop("integer", "Target duration in minutes"),
			"energy_cost": prop("string", "Energy cost: low, medium, high"),
		}, "title"),
	},
	{
		Name:        "modify_today_plan",
		Description: "Change today's plan directly: insert a one-off task, edit an existing task's fields, or toggle a task's completion. Use the task ids from the plan context.",
		Parameters: objReq(map[string]any{
			"action":      prop("string", "One of: insert, edit, toggle_completion"),
			"id":          prop("string", "Task id, required for edit and toggle_completion"),
			"title":       prop("string", "Task title (insert) or new title (edit)"),
			"description": prop("string", "Short advisory text"),
			"start_time":  prop("string", "Start time in HH:mm"),
			"duration":    prop("integer", "Duration in minutes"),
			"energy_cost": prop("string", "Energy cost: low, medium, high"),
		}, "action"),
	},
	{
		Name:        "remove_task",
		Description: "Remove tasks whose title contains the given text, case-insensitively, from today's plan and from the baseline pools at once. Matching is by substring, so prefer the most specific title fragment the user gave.",
		Parameters: objReq(map[string]any{
			"title": prop("string", "Title or title fragment to remove"),
		}, "title"),
	},
	{
		Name:        "modify_active_window",
		Description: "Change the daily active-hours window the planner schedules within.",
		Parameters: obj(map[string]any{
			"start": prop("string", "New window start in HH:mm"),
			"end":   prop("string", "New window end in HH:mm"),
		}),
	},
}

// Helper functions for building JSON Schema objects.

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func obj(properties map[string]any) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func objReq(properties map[string]any, required ...string) map[string]any {
	s := obj(properties)
	s["required"] = required
	return s
}
