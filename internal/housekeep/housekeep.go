// Package housekeep runs the nightly maintenance sweep: pruning daily
// records past the retention horizon and opening a new weekly cycle when the
// ISO week rolls over, which triggers the weekly review.
package housekeep

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chris/kairos/internal/insight"
	"github.com/chris/kairos/internal/store"
)

type Sweeper struct {
	cron     *cron.Cron
	store    store.Store
	reporter *insight.Reporter
	now      func() time.Time

	// deliver receives the weekly review text. May be nil, in which case
	// the review is only logged.
	deliver func(content string)
}

func New(s store.Store, reporter *insight.Reporter, now func() time.Time, deliver func(string)) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		cron:     cron.New(),
		store:    s,
		reporter: reporter,
		now:      now,
		deliver:  deliver,
	}
}

// Start registers the sweep under the given cron expression and runs one
// sweep immediately so a long-stopped instance catches up on launch.
func (w *Sweeper) Start(cronExpr string) error {
	if _, err := w.cron.AddFunc(cronExpr, w.RunOnce); err != nil {
		return err
	}
	w.cron.Start()
	go w.RunOnce()
	log.Printf("housekeep: started with cron %q", cronExpr)
	return nil
}

func (w *Sweeper) Stop() {
	w.cron.Stop()
}

// RunOnce performs a single sweep: retention pruning, then the weekly
// rollover check. Everything here is best-effort; a failed sweep is retried
// on the next cron fire.
func (w *Sweeper) RunOnce() {
	now := w.now()

	if pruned := store.PruneOldDays(w.store, now); pruned > 0 {
		log.Printf("housekeep: pruned %d old daily record(s)", pruned)
	}

	_, week := now.ISOWeek()
	last := w.store.WeekDone()
	if last == week {
		return
	}

	// First ever sweep just records the current week; there is no finished
	// week to review yet.
	if last != 0 {
		stats := insight.Collect(w.store, now)
		summary := insight.FallbackSummary
		if w.reporter != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			summary = w.reporter.WeeklySummary(ctx, stats)
			cancel()
		}
		log.Printf("housekeep: weekly review (week %d -> %d): %s", last, week, summary)
		if w.deliver != nil {
			w.deliver(summary)
		}
	}

	if err := w.store.SaveWeekDone(week); err != nil {
		log.Printf("housekeep: recording week %d: %v", week, err)
	}
}
