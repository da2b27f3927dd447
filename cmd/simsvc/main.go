package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"crewarena/internal/combat"
	"crewarena/internal/config"
	"crewarena/internal/report"
	"crewarena/internal/scheduler"
	"crewarena/internal/store"
	"crewarena/internal/util"
)

type liveReport struct {
	Battle  *combat.Battle  `json:"battle"`
	Outcome *combat.Outcome `json:"outcome,omitempty"`
	Units   []combat.Unit   `json:"units"`
}

func main() {
	var cfgDir, out, format, dsn, p1, p2 string
	var seed int64
	var n, workers int
	var saveLog, realtime, verbose bool
	flag.StringVar(&cfgDir, "config", "assets", "config dir")
	flag.StringVar(&out, "out", "out.json", "output file (single) or summary file (batch)")
	flag.StringVar(&format, "format", "json", "report format: json or msgpack")
	flag.StringVar(&dsn, "dsn", "", "postgres connection string; rosters are read from and outcomes written to it")
	flag.StringVar(&p1, "p1", "", "left side owner (defaults to the first roster side)")
	flag.StringVar(&p2, "p2", "", "right side owner (defaults to the second roster side)")
	flag.Int64Var(&seed, "seed", 12345, "seed")
	flag.IntVar(&n, "n", 1, "number of simulations")
	flag.IntVar(&workers, "workers", 8, "batch workers")
	flag.BoolVar(&saveLog, "log", true, "save full event log when n==1")
	flag.BoolVar(&realtime, "realtime", false, "drive a single battle through the tick scheduler on the wall clock")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, cfgDir, out, format, dsn, p1, p2, seed, n, workers, saveLog, realtime); err != nil {
		log.Error("simsvc failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfgDir, out, format, dsn, p1, p2 string, seed int64, n, workers int, saveLog, realtime bool) error {
	fmtOut, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	tc, ic, rc, err := config.LoadAll(cfgDir)
	if err != nil {
		return err
	}
	factory := combat.NewUnitFactory(combat.NewItemBook(ic, log), tc, log)

	ctx := context.Background()
	var st *store.Store
	var left, right combat.RosterSide
	if dsn != "" {
		st, err = store.Open(dsn, log)
		if err != nil {
			return err
		}
		defer st.Close()
		if p1 == "" || p2 == "" {
			return errors.New("-p1 and -p2 are required with -dsn")
		}
		if left, err = st.LoadSide(ctx, p1); err != nil {
			return err
		}
		if right, err = st.LoadSide(ctx, p2); err != nil {
			return err
		}
	} else {
		left, right, err = pickSides(combat.RosterFromConfig(rc), p1, p2)
		if err != nil {
			return err
		}
	}

	newBattle := func() (*combat.Battle, error) {
		b := combat.NewBattle(left.Owner, left.Bounty)
		if err := b.Join(right.Owner, right.Bounty); err != nil {
			return nil, err
		}
		if err := b.Seed(factory, left, right); err != nil {
			return nil, err
		}
		return b, nil
	}
	record := func(o combat.Outcome) {
		if st == nil {
			return
		}
		if err := st.RecordOutcome(ctx, o); err != nil {
			log.Error("record outcome", "battle_id", o.BattleID, "err", err)
		}
	}

	if n <= 1 {
		b, err := newBattle()
		if err != nil {
			return err
		}
		if realtime {
			return runRealtime(log, tc, b, seed, out, fmtOut, record)
		}
		env := &combat.Env{Rng: util.New(seed)}
		res := combat.RunSingle(env, b, combat.NewPipeline(tc, log), tc.MaxTicks, saveLog)
		if o, ok := b.Outcome(); ok {
			record(o)
		}
		if err := writeReport(out, res, fmtOut); err != nil {
			return err
		}
		fmt.Printf("Single simsvc finished. Winner=%s, Ticks=%d, T=%.2fs -> %s\n", res.Winner, res.Ticks, res.Duration, out)
		return nil
	}

	type stat struct {
		Wins     [2]int
		TimedOut int
		SumTicks uint64
		SumT     float64
		ByUnit   map[string]float64
		Failed   int
	}
	var s = stat{ByUnit: map[string]float64{}}
	var mu sync.Mutex
	wg := sync.WaitGroup{}
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			pipe := combat.NewPipeline(tc, log.With("worker", workerID))
			for i := range jobs {
				b, err := newBattle()
				if err != nil {
					log.Error("seed battle", "job", i, "err", err)
					mu.Lock()
					s.Failed++
					mu.Unlock()
					continue
				}
				env := &combat.Env{Rng: util.New(util.Derive(seed, workerID, i))}
				res := combat.RunSingle(env, b, pipe, tc.MaxTicks, false)
				if o, ok := b.Outcome(); ok {
					record(o)
				}

				mu.Lock()
				if res.WinnerSide != nil {
					s.Wins[*res.WinnerSide]++
				} else {
					s.TimedOut++
				}
				s.SumTicks += res.Ticks
				s.SumT += res.Duration
				for k, v := range res.DamageByUnit {
					s.ByUnit[k] += v
				}
				mu.Unlock()
			}
		}(w)
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	runs := n - s.Failed
	if runs <= 0 {
		return fmt.Errorf("all %d battles failed to seed", n)
	}
	totalDmg := 0.0
	for _, v := range s.ByUnit {
		totalDmg += v
	}
	byUnit := map[string]any{}
	for k, v := range s.ByUnit {
		share := 0.0
		if totalDmg > 0 {
			share = v / totalDmg
		}
		byUnit[k] = map[string]any{"total": v, "ratio": share}
	}
	summary := map[string]any{
		"runs":           runs,
		"failed":         s.Failed,
		"left":           left.Owner,
		"right":          right.Owner,
		"left_win_rate":  float64(s.Wins[combat.SideLeft]) / float64(runs),
		"right_win_rate": float64(s.Wins[combat.SideRight]) / float64(runs),
		"timed_out":      s.TimedOut,
		"avg_ticks":      float64(s.SumTicks) / float64(runs),
		"avg_time":       s.SumT / float64(runs),
		"total_damage":   totalDmg,
		"by_unit":        byUnit,
	}
	if err := writeReport(out, summary, fmtOut); err != nil {
		return err
	}
	fmt.Printf("Batch %d done -> %s\n", n, filepath.Base(out))
	return nil
}

func pickSides(sides []combat.RosterSide, p1, p2 string) (combat.RosterSide, combat.RosterSide, error) {
	find := func(owner string, fallback int) (combat.RosterSide, error) {
		if owner == "" {
			if fallback < len(sides) {
				return sides[fallback], nil
			}
			return combat.RosterSide{}, fmt.Errorf("roster has %d sides, need two", len(sides))
		}
		for _, s := range sides {
			if s.Owner == owner {
				return s, nil
			}
		}
		return combat.RosterSide{}, fmt.Errorf("no roster side for owner %q", owner)
	}
	l, err := find(p1, 0)
	if err != nil {
		return l, l, err
	}
	r, err := find(p2, 1)
	return l, r, err
}

func runRealtime(log *slog.Logger, tc *config.Tunables, b *combat.Battle, seed int64, out string, f report.Format, record func(combat.Outcome)) error {
	var (
		mu      sync.Mutex
		outcome *combat.Outcome
	)
	sch := scheduler.New(tc, scheduler.Options{
		Logger: log,
		OnFinished: func(o combat.Outcome) {
			mu.Lock()
			outcome = &o
			mu.Unlock()
			record(o)
		},
	})
	if err := sch.Add(b, seed); err != nil {
		return err
	}
	if err := sch.Start(b.ID); err != nil {
		return err
	}
	limit := time.Duration(tc.MaxTicks) * tc.TickPeriod()
	select {
	case <-sch.Wait(b.ID):
	case <-time.After(limit):
		log.Warn("battle still running at tick cap, removing", "battle_id", b.ID)
	}
	final, ok := sch.Battle(b.ID)
	sch.Remove(b.ID)
	if !ok {
		return fmt.Errorf("battle %s vanished", b.ID)
	}

	mu.Lock()
	rep := liveReport{Battle: final, Outcome: outcome}
	mu.Unlock()
	for _, u := range final.Units() {
		rep.Units = append(rep.Units, *u)
	}
	if err := writeReport(out, rep, f); err != nil {
		return err
	}
	fmt.Printf("Realtime battle finished. Status=%s, Turn=%d, Winner=%s -> %s\n", final.Status, final.Turn, final.Winner, out)
	return nil
}

func writeReport(path string, v any, f report.Format) error {
	b, err := report.Marshal(v, f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
