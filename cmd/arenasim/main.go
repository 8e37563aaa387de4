package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/logging"
	"github.com/brensch/snekarena/session"
	"github.com/brensch/snekarena/store"
	"github.com/brensch/snekarena/tracedb"
)

var (
	totalTicks    atomic.Int64
	totalSessions atomic.Int64
	totalDeaths   atomic.Int64
)

type result struct {
	ID     string
	Worker int
	Ticks  uint64
	Score  float64
	Status game.Status
}

func main() {
	def := game.DefaultConfig()

	sessions := flag.Int("sessions", 8, "Number of autopilot sessions to play")
	workers := flag.Int("workers", 4, "Sessions simulated in parallel")
	maxTicks := flag.Uint64("max-ticks", 60*60*5, "Stop a session that is still alive after this many ticks")
	traceDir := flag.String("trace-dir", "traces", "Record parquet traces under this directory; empty disables")
	frameEvery := flag.Int("frame-every", store.DefaultFrameEvery, "Record one frame every N ticks")
	seed := flag.Int64("seed", 1, "Base RNG seed; session i uses seed+i. 0 picks seeds from the clock")
	aiCount := flag.Int("ai", def.AICount, "AI roster cap")
	food := flag.Int("food", def.InitialFood, "Initial food count")
	arena := flag.Float64("arena", def.ArenaSize, "Arena side length")
	logFormat := flag.String("log-format", logging.FormatText, "Log format: pretty, json or text")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	flag.Parse()

	if *sessions <= 0 || *workers <= 0 {
		log.Fatalf("-sessions and -workers must be positive")
	}
	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Bad -log-level: %v", err)
	}
	logger, err := logging.New(os.Stderr, *logFormat, level)
	if err != nil {
		log.Fatalf("Bad -log-format: %v", err)
	}

	base := session.DefaultConfig()
	base.Game.AICount = *aiCount
	base.Game.InitialFood = *food
	base.Game.ArenaSize = *arena
	base.Autopilot = true
	if err := base.Game.Validate(); err != nil {
		log.Fatalf("Invalid arena config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting simulation", "sessions", *sessions, "workers", *workers, "max_ticks", *maxTicks, "trace_dir", *traceDir)
	start := time.Now()

	results := make([]result, *sessions)
	jobs := make(chan int)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i := range *sessions {
			select {
			case jobs <- i:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := range *workers {
		g.Go(func() error {
			wlog := logger.With("worker", w)

			var rec *store.Recorder
			if *traceDir != "" {
				rec = store.NewRecorder(*traceDir, *frameEvery, "autopilot", wlog)
				defer func() {
					if err := rec.Close(); err != nil {
						wlog.Error("final trace flush failed", "err", err)
					}
				}()
			}

			for i := range jobs {
				cfg := base
				if *seed != 0 {
					cfg.Game.Seed = *seed + int64(i)
				}
				res, err := play(gctx, cfg, rec, *maxTicks, wlog)
				if err != nil {
					return err
				}
				res.Worker = w
				results[i] = res
				n := totalSessions.Add(1)
				wlog.Info("session finished", "n", n, "session", res.ID, "ticks", res.Ticks, "score", res.Score, "status", res.Status)
			}
			return nil
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		last := int64(0)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				ticks := totalTicks.Load()
				if totalSessions.Load() == int64(*sessions) {
					return nil
				}
				logger.Info("stats", "ticks_per_sec", ticks-last, "sessions", totalSessions.Load(), "ai_deaths", totalDeaths.Load())
				last = ticks
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Simulation failed: %v", err)
	}

	elapsed := time.Since(start)
	fmt.Println()
	fmt.Printf("%-38s %6s %8s %10s %s\n", "SESSION", "WORKER", "TICKS", "SCORE", "STATUS")
	for _, r := range results {
		if r.ID == "" {
			continue
		}
		fmt.Printf("%-38s %6d %8d %10.0f %s\n", r.ID, r.Worker, r.Ticks, r.Score, r.Status)
	}
	fmt.Printf("\n%d sessions, %d ticks in %s (%.0f ticks/s), %d AI deaths\n",
		totalSessions.Load(), totalTicks.Load(), elapsed.Round(time.Millisecond),
		float64(totalTicks.Load())/elapsed.Seconds(), totalDeaths.Load())

	if *traceDir != "" {
		printBest(*traceDir, logger)
	}
}

// countingRecorder tallies AI deaths on the way to the trace recorder.
type countingRecorder struct {
	next *store.Recorder
}

func (c countingRecorder) Record(id string, snap game.Snapshot, events []game.Event) error {
	for _, e := range events {
		if e.Kind == game.EventDeath && e.Archetype.IsAI() {
			totalDeaths.Add(1)
		}
	}
	if c.next == nil {
		return nil
	}
	return c.next.Record(id, snap, events)
}

// play runs one autopilot session to game over or maxTicks.
func play(ctx context.Context, cfg session.Config, rec *store.Recorder, maxTicks uint64, log *slog.Logger) (result, error) {
	sess := session.New(cfg, log)
	sess.SetRecorder(countingRecorder{next: rec})
	id := sess.Start(nil)

	for sess.Step() {
		totalTicks.Add(1)
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		if sess.Snapshot().Tick >= maxTicks {
			break
		}
	}
	snap := sess.Snapshot()
	return result{ID: id, Ticks: snap.Tick, Score: snap.Score, Status: sess.Status()}, nil
}

func printBest(root string, logger *slog.Logger) {
	db, err := tracedb.Open(root)
	if err != nil {
		logger.Warn("trace summary unavailable", "err", err)
		return
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	summaries, err := db.Sessions(ctx)
	if err != nil {
		logger.Warn("trace summary unavailable", "err", err)
		return
	}
	if len(summaries) == 0 {
		return
	}
	best := summaries[0]
	fmt.Printf("best recorded session: %s score=%.0f frames=%d meals=%d (%d sessions under %s)\n",
		best.SessionID, best.MaxScore, best.Frames, best.Meals, len(summaries), root)
}
