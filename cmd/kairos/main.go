package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chris/kairos/config"
	"github.com/chris/kairos/internal/assistant"
	"github.com/chris/kairos/internal/discord"
	"github.com/chris/kairos/internal/housekeep"
	"github.com/chris/kairos/internal/insight"
	"github.com/chris/kairos/internal/llm"
	"github.com/chris/kairos/internal/mutate"
	"github.com/chris/kairos/internal/plan"
	"github.com/chris/kairos/internal/service"
	"github.com/chris/kairos/internal/session"
	"github.com/chris/kairos/internal/store"
	"github.com/chris/kairos/internal/synth"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "install":
			fatalOnErr(service.Install())
			return
		case "uninstall":
			fatalOnErr(service.Uninstall())
			return
		case "start":
			fatalOnErr(service.Start())
			return
		case "stop":
			fatalOnErr(service.Stop())
			return
		case "restart":
			fatalOnErr(service.Restart())
			return
		case "status":
			fatalOnErr(service.Status())
			return
		case "logs":
			fatalOnErr(service.Logs())
			return
		case "run":
			// fall through to the normal run path
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
			os.Exit(1)
		}
	}

	cfg := config.Load()

	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	// First run: seed the baseline so there is always something to plan with.
	if b := st.Baseline(); b.ActiveHours.Start == "" {
		if err := st.SaveBaseline(store.DefaultBaseline(cfg.DayStart, cfg.DayEnd)); err != nil {
			log.Fatalf("failed to seed baseline: %v", err)
		}
		log.Println("seeded default baseline")
	}

	apiKey := cfg.AnthropicKey
	if cfg.LLMProvider == "openai" {
		apiKey = cfg.OpenAIKey
	}
	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:  cfg.LLMProvider,
		APIKey:    apiKey,
		AuthToken: cfg.AnthropicToken,
		Model:     cfg.LLMModel,
		BaseURL:   cfg.OllamaBaseURL,
	})
	if err != nil {
		log.Fatalf("failed to create LLM client: %v", err)
	}

	machine := session.New(st, session.WallClock{})
	a := &app{
		cfg:       cfg,
		store:     st,
		machine:   machine,
		synth:     synth.New(llm.NewScheduleOracle(client), cfg.OracleTimeout),
		assistant: assistant.New(st, mutate.New(st, nil), client, cfg.MaxContextTokens),
		reporter:  insight.NewReporter(client),
	}

	// The countdown and active-task recomputation keep running regardless of
	// any oracle call in flight.
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for range t.C {
			machine.Tick()
		}
	}()

	sweeper := housekeep.New(st, a.reporter, nil, func(review string) {
		fmt.Printf("\n-- weekly review --\n%s\n", review)
	})
	if err := sweeper.Start(cfg.HousekeepCron); err != nil {
		log.Fatalf("failed to start housekeeping: %v", err)
	}
	defer sweeper.Stop()

	if cfg.DiscordToken != "" {
		a.runBot()
		return
	}
	a.runCLI()
}

type app struct {
	cfg       *config.Config
	store     store.Store
	machine   *session.Machine
	synth     *synth.Synthesizer
	assistant *assistant.Assistant
	reporter  *insight.Reporter
}

func (a *app) runBot() {
	bot, err := discord.NewBot(a.cfg.DiscordToken, a.assistant)
	if err != nil {
		log.Fatalf("failed to start Discord bot: %v", err)
	}
	defer bot.Close()

	log.Println("bot is running. Press Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down.")
}

func (a *app) runCLI() {
	a.machine.OnComplete(func(task plan.Task) {
		fmt.Printf("\n%q is done. Take a breath before the next one.\n", task.Title)
	})

	scanner := bufio.NewScanner(os.Stdin)

	// Check if stdin is a pipe (non-interactive)
	stat, _ := os.Stdin.Stat()
	isPipe := (stat.Mode() & os.ModeCharDevice) == 0

	if !isPipe {
		fmt.Println("Commands: checkin <1-5>, plan, sync, focus <id>, done, cancel, dismiss, week, quit. Anything else is a chat message.")
		fmt.Print("kairos> ")
	}

	var history []llm.Message

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			if !isPipe {
				fmt.Print("kairos> ")
			}
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		a.dispatch(input, &history)

		if isPipe {
			break // single exchange in pipe mode
		}
		fmt.Print("kairos> ")
	}
}

func (a *app) dispatch(input string, history *[]llm.Message) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "checkin":
		if len(fields) != 2 {
			fmt.Println("usage: checkin <1-5>")
			return
		}
		energy, err := strconv.Atoi(fields[1])
		if err != nil || energy < 1 || energy > 5 {
			fmt.Println("energy must be a number from 1 to 5")
			return
		}
		if err := a.machine.BeginCheckin(); err != nil {
			fmt.Printf("already checked in: %v\n", err)
			return
		}
		if err := a.synthesize(energy); err != nil {
			// Back to idle so a corrected check-in can be retried.
			if cerr := a.machine.CancelCheckin(); cerr != nil {
				log.Printf("cancel check-in: %v", cerr)
			}
			fmt.Printf("error: %v\n", err)
			return
		}
		a.printToday()

	case "plan":
		a.printToday()

	case "sync":
		rec, ok := a.store.Day(a.machine.Date())
		if !ok {
			fmt.Println("no check-in yet; use: checkin <1-5>")
			return
		}
		if err := a.synthesize(rec.Energy); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		a.printToday()

	case "focus":
		if len(fields) != 2 {
			fmt.Println("usage: focus <task id>")
			return
		}
		if err := a.machine.EnterFocus(fields[1]); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Printf("focused; %s on the clock\n", formatSeconds(a.machine.Remaining()))

	case "done":
		if err := a.machine.ConfirmCompletion(); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "cancel":
		if err := a.machine.CancelFocus(); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "dismiss":
		if err := a.machine.Dismiss(); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "week":
		stats := insight.Collect(a.store, time.Now())
		fmt.Printf("Check-ins: %d/%d days. Completed %d of %d tasks, %d focused minutes, average energy %.1f.\n",
			stats.Days, insight.WindowDays, stats.TasksCompleted, stats.TasksPlanned, stats.FocusedMinutes, stats.AverageEnergy)
		if len(stats.TopTitles) > 0 {
			fmt.Printf("Most completed: %s\n", strings.Join(stats.TopTitles, ", "))
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.OracleTimeout)
		fmt.Println(a.reporter.WeeklySummary(ctx, stats))
		cancel()

	default:
		reply, newHistory := a.assistant.Run(context.Background(), *history, input)
		fmt.Println(reply)
		*history = newHistory
	}
}

// synthesize runs one generation attempt and adopts the result unless a newer
// synthesis has started in the meantime.
func (a *app) synthesize(energy int) error {
	token, err := a.machine.BeginSynthesis()
	if err != nil {
		return err
	}

	baseline := a.store.Baseline()
	weekday := int(time.Now().Weekday())
	candidates := append(baseline.AnchorsFor(weekday), plan.CloneTasks(baseline.WishPool)...)

	tasks, err := a.synth.Synthesize(context.Background(), energy, candidates, baseline.ActiveHours)
	if err != nil {
		return err
	}

	adopted, err := a.machine.AdoptPlan(token, plan.DailyRecord{
		Date:   a.machine.Date(),
		Energy: energy,
		Tasks:  tasks,
	})
	if err != nil {
		return err
	}
	if !adopted {
		log.Println("stale synthesis result dropped")
		return nil
	}
	return a.store.SaveSyncedFingerprint(plan.Fingerprint(baseline))
}

func (a *app) printToday() {
	rec, ok := a.store.Day(a.machine.Date())
	if !ok {
		fmt.Println("no plan yet; use: checkin <1-5>")
		return
	}
	fmt.Printf("%s, energy %d/5\n", rec.Date, rec.Energy)
	for _, t := range rec.Tasks {
		mark := " "
		if t.IsCompleted {
			mark = "x"
		}
		fmt.Printf("  [%s] %s-%s %-28s %3d min  %-6s %s\n", mark, t.StartTime, t.EndTime, t.Title, t.Duration, t.EnergyCost, t.ID)
	}
	if task, secs, ok := session.ActiveTask(rec.Tasks, time.Now()); ok {
		fmt.Printf("now: %q, %s remaining\n", task.Title, formatSeconds(secs))
	}
	if plan.IsDirty(a.store.Baseline(), a.store.SyncedFingerprint()) {
		fmt.Println("baseline has changed since this plan was made; run `sync` to refresh")
	}
}

func formatSeconds(secs int) string {
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func fatalOnErr(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
