// Command park runs the amusement park concurrency simulation: a cashier,
// a fleet of guides, and a population of arriving visitors coordinating
// over three shared attractions. Grounded on original_source/src/main.cpp's
// top-level driver.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/AlayenPL/Projekt-SO/internal/config"
	"github.com/AlayenPL/Projekt-SO/internal/parklog"
	"github.com/AlayenPL/Projekt-SO/internal/parkmetrics"
	"github.com/AlayenPL/Projekt-SO/internal/parkrand"
	"github.com/AlayenPL/Projekt-SO/internal/sim"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	cfg, err := config.ParseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	runID := uuid.New().String()
	if cfg.LogPath == "" {
		cfg.LogPath = fmt.Sprintf("logs/sim-%s.log", runID)
	}

	log, err := parklog.New(cfg.LogPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer log.Close()

	met := parkmetrics.NewRecorder()
	rng := parkrand.New(cfg.Seed)

	log.Emitf("MAIN", "START run_id=%s", runID)

	park := sim.NewPark(cfg, log, met, rng)
	park.Start(context.Background())

	var visitorWG sync.WaitGroup
	t0 := time.Now()
	deadline := t0.Add(time.Duration(cfg.DurationMs) * time.Millisecond)

	for i := 0; i < cfg.TouristsTotal; i++ {
		if time.Now().After(deadline) {
			break
		}

		age := rng.Int(0, 75)
		vip := rng.Bool(cfg.VipProb)
		v := sim.NewVisitor(i+1, age, vip, park)

		visitorWG.Add(1)
		go func() {
			defer visitorWG.Done()
			v.Run()
		}()

		delay := rng.Int(0, cfg.ArrivalJitterMs)
		time.Sleep(time.Duration(delay) * time.Millisecond)
	}

	// Race visitorWG.Wait against the duration deadline rather than
	// sleeping to it first: Stop is the only thing that unblocks a
	// straggler batch smaller than M still parked in the group-formation
	// queue (internal/sim/park.go's dequeueGroup only returns a partial
	// batch once the park closes), so waiting on visitorWG strictly before
	// calling Stop can hang forever.
	visitorsDone := make(chan struct{})
	go func() {
		visitorWG.Wait()
		close(visitorsDone)
	}()

	select {
	case <-visitorsDone:
	case <-time.After(time.Until(deadline)):
	}

	park.Stop()
	<-visitorsDone

	log.Emit("MAIN", "STOP")

	printSummary(stdout, runID, cfg, met)
	return 0
}

func printSummary(w *os.File, runID string, cfg *config.Config, met *parkmetrics.Recorder) {
	rm, err := met.Snapshot(context.Background())
	if err != nil {
		fmt.Fprintln(w, "simulation finished; metrics snapshot unavailable:", err)
		return
	}

	entered := parkmetrics.SumInt64(rm, "park.cashier.enter")
	bridgeCrossings := parkmetrics.SumInt64(rm, "park.bridge.enter")
	towerEntries := parkmetrics.SumInt64(rm, "park.tower.enter") + parkmetrics.SumInt64(rm, "park.tower.group_enter")
	ferryBoardings := parkmetrics.SumInt64(rm, "park.ferry.board") + parkmetrics.SumInt64(rm, "park.ferry.group_board")

	bold := func(s string) string { return s }
	if isatty.IsTerminal(w.Fd()) {
		bold = func(s string) string { return "\033[1m" + s + "\033[0m" }
	}

	fmt.Fprintf(w, "%s run=%s log=%s\n", bold("Simulation finished."), runID, cfg.LogPath)
	fmt.Fprintf(w, "  admitted:        %s / %s\n", humanize.Comma(entered), humanize.Comma(int64(cfg.N)))
	fmt.Fprintf(w, "  bridge crossings: %s\n", humanize.Comma(bridgeCrossings))
	fmt.Fprintf(w, "  tower entries:    %s\n", humanize.Comma(towerEntries))
	fmt.Fprintf(w, "  ferry boardings:  %s\n", humanize.Comma(ferryBoardings))
}
