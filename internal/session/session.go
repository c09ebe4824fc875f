// Package session drives the focus-session lifecycle: check-in, dashboard,
// focused execution with a countdown, and the cooldown after a completion.
// Time is injected so the whole machine is testable without real waits.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/chris/kairos/internal/plan"
	"github.com/chris/kairos/internal/store"
)

// State is the machine's current phase.
type State int

const (
	StateIdle State = iota
	StateCheckin
	StateDashboard
	StateFocused
	StateCooldown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckin:
		return "checkin"
	case StateDashboard:
		return "dashboard"
	case StateFocused:
		return "focused"
	case StateCooldown:
		return "cooldown"
	}
	return "unknown"
}

// Clock supplies wall-clock time. Production uses WallClock; tests inject a
// fake they can advance by hand.
type Clock interface {
	Now() time.Time
}

// WallClock reads the real system clock.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }

// Machine is the session state machine. All transitions run under one lock
// and complete before the next trigger is processed; the countdown advances
// only through Tick, driven by the caller's one-second ticker.
type Machine struct {
	mu    sync.Mutex
	store store.Store
	clock Clock

	state      State
	focusedID  string
	remaining  int // seconds, captured once at focus entry
	generation uint64

	// onComplete fires on the Focused -> Cooldown transition, after the
	// task is marked completed. May be nil.
	onComplete func(task plan.Task)
}

func New(s store.Store, c Clock) *Machine {
	return &Machine{store: s, clock: c, state: StateIdle}
}

// OnComplete registers a hook fired once per completion transition.
func (m *Machine) OnComplete(fn func(task plan.Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = fn
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// FocusedID returns the id of the task currently in focus, if any.
func (m *Machine) FocusedID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focusedID
}

// Remaining returns the focused countdown in whole seconds.
func (m *Machine) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Date returns the calendar day the session is operating on.
func (m *Machine) Date() string {
	return m.clock.Now().Format("2006-01-02")
}

// BeginCheckin starts a new check-in from idle.
func (m *Machine) BeginCheckin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return fmt.Errorf("session: check-in from %s", m.state)
	}
	m.state = StateCheckin
	return nil
}

// CancelCheckin abandons a check-in that did not produce a plan, returning
// to idle so the next attempt starts cleanly.
func (m *Machine) CancelCheckin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCheckin {
		return fmt.Errorf("session: cancel check-in from %s", m.state)
	}
	m.state = StateIdle
	return nil
}

// BeginSynthesis invalidates any in-flight synthesis and returns the token
// the eventual result must present to AdoptPlan. Callable from Checkin (the
// first synthesis of the day) and Dashboard (a re-sync after baseline edits).
func (m *Machine) BeginSynthesis() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCheckin && m.state != StateDashboard {
		return 0, fmt.Errorf("session: synthesis from %s", m.state)
	}
	m.generation++
	return m.generation, nil
}

// AdoptPlan persists a synthesis result and moves to the dashboard. A stale
// token means the user has since started a newer synthesis for the same day;
// the result is dropped without touching the store.
func (m *Machine) AdoptPlan(token uint64, rec plan.DailyRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != m.generation {
		return false, nil
	}
	if err := m.store.SaveDay(rec); err != nil {
		return false, err
	}
	if m.state == StateCheckin {
		m.state = StateDashboard
	}
	return true, nil
}

// EnterFocus selects an incomplete task from today's plan and starts its
// countdown. The initial value is captured here and never re-derived: the
// remaining wall-clock time when the task is already underway, or the full
// duration when it has not started yet.
func (m *Machine) EnterFocus(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDashboard {
		return fmt.Errorf("session: focus from %s", m.state)
	}
	now := m.clock.Now()
	rec, ok := m.store.Day(now.Format("2006-01-02"))
	if !ok {
		return fmt.Errorf("session: no plan for today")
	}
	for _, t := range rec.Tasks {
		if t.ID != id {
			continue
		}
		if t.IsCompleted {
			return fmt.Errorf("session: task %q already completed", t.Title)
		}
		if active, secs, ok := ActiveTask([]plan.Task{t}, now); ok && active.ID == id {
			m.remaining = secs
		} else {
			m.remaining = t.Duration * 60
		}
		m.focusedID = id
		m.state = StateFocused
		return nil
	}
	return fmt.Errorf("session: task not in today's plan")
}

// Tick advances the focused countdown by one second. When it reaches zero
// the completion transition fires exactly once; ticks in any other state are
// ignored.
func (m *Machine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFocused {
		return
	}
	m.remaining--
	if m.remaining > 0 {
		return
	}
	m.remaining = 0
	m.completeLocked()
}

// ConfirmCompletion ends the focus session early, marking the task done.
func (m *Machine) ConfirmCompletion() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFocused {
		return fmt.Errorf("session: complete from %s", m.state)
	}
	m.completeLocked()
	return nil
}

// CancelFocus abandons the focus session; the task stays incomplete.
func (m *Machine) CancelFocus() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateFocused {
		return fmt.Errorf("session: cancel from %s", m.state)
	}
	m.focusedID = ""
	m.remaining = 0
	m.state = StateDashboard
	return nil
}

// Dismiss leaves the cooldown screen.
func (m *Machine) Dismiss() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCooldown {
		return fmt.Errorf("session: dismiss from %s", m.state)
	}
	m.state = StateDashboard
	return nil
}

// completeLocked marks the focused task done and enters cooldown. The store
// write is set-true rather than a toggle so a repeated trigger cannot undo
// the completion.
func (m *Machine) completeLocked() {
	date := m.clock.Now().Format("2006-01-02")
	var done plan.Task
	if rec, ok := m.store.Day(date); ok {
		for i := range rec.Tasks {
			if rec.Tasks[i].ID == m.focusedID {
				rec.Tasks[i].IsCompleted = true
				done = rec.Tasks[i]
				if err := m.store.SaveDay(rec); err != nil {
					done = plan.Task{}
				}
				break
			}
		}
	}
	m.focusedID = ""
	m.remaining = 0
	m.state = StateCooldown
	if m.onComplete != nil && done.ID != "" {
		m.onComplete(done)
	}
}

// ActiveTask scans the plan for the first incomplete task whose interval
// contains now. Remaining time is max(1, end-now) in whole seconds; it is
// recomputed from the clock on every call, never cached.
func ActiveTask(tasks []plan.Task, now time.Time) (plan.Task, int, bool) {
	secOfDay := now.Hour()*3600 + now.Minute()*60 + now.Second()
	for _, t := range tasks {
		if t.IsCompleted {
			continue
		}
		start, end := t.StartMinutes(), t.EndMinutes()
		if start < 0 {
			continue
		}
		if secOfDay >= start*60 && secOfDay < end*60 {
			remaining := end*60 - secOfDay
			if remaining < 1 {
				remaining = 1
			}
			return t, remaining, true
		}
	}
	return plan.Task{}, 0, false
}
