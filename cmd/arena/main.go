package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekarena/client"
	"github.com/brensch/snekarena/game"
	"github.com/brensch/snekarena/logging"
	"github.com/brensch/snekarena/protocol"
	"github.com/brensch/snekarena/rules"
	"github.com/brensch/snekarena/server"
	"github.com/brensch/snekarena/session"
	"github.com/brensch/snekarena/store"
	"github.com/brensch/snekarena/tracedb"
	"github.com/brensch/snekarena/tui"
)

func main() {
	def := game.DefaultConfig()

	addr := flag.String("addr", "", "Serve the websocket stream and API on this address (e.g. :8080); empty disables")
	connect := flag.String("connect", "", "Watch and steer a remote arena at this websocket URL instead of running one")
	codecName := flag.String("codec", "msgpack", "Websocket codec when connecting: json or msgpack")
	headless := flag.Bool("headless", false, "Run without the terminal UI (requires -addr)")
	viewOnly := flag.Bool("view-only", false, "Do not let websocket clients steer or restart the session")

	traceDir := flag.String("trace-dir", "", "Record parquet traces under this directory; empty disables")
	frameEvery := flag.Int("frame-every", store.DefaultFrameEvery, "Record one frame every N ticks")

	arena := flag.Float64("arena", def.ArenaSize, "Arena side length")
	aiCount := flag.Int("ai", def.AICount, "AI roster cap")
	food := flag.Int("food", def.InitialFood, "Initial food count")
	tickRate := flag.Int("tick-rate", def.TickRate, "Ticks per second")
	respawn := flag.Duration("respawn", def.RespawnDelay, "Delay before a dead AI is replaced")
	seed := flag.Int64("seed", 0, "RNG seed; 0 picks one from the clock")
	skinName := flag.String("skin", "smooth", "Player skin: smooth, block, spiky or mecha")
	hue := flag.Float64("hue", 0.5, "Player hue in [0, 1]")
	autopilot := flag.Bool("autopilot", false, "Let the SmartAI steering drive the player")

	logFormat := flag.String("log-format", logging.FormatPretty, "Log format: pretty, json or text")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn or error")
	logFile := flag.String("log-file", "", "Write logs here; defaults to arena.log while the terminal UI runs")
	flag.Parse()

	useTUI := !*headless
	logger, closeLog, err := newLogger(*logFormat, *logLevel, *logFile, useTUI)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *connect != "" {
		if err := runRemote(sigCtx, *connect, *codecName, logger); err != nil {
			log.Fatalf("Remote session failed: %v", err)
		}
		return
	}

	if *headless && *addr == "" {
		log.Fatalf("-headless needs -addr, otherwise nothing can see or steer the session")
	}

	skin, err := game.ParseSkin(*skinName)
	if err != nil {
		log.Fatalf("Bad -skin: %v", err)
	}
	if *hue < 0 || *hue > 1 {
		log.Fatalf("Bad -hue %v: must be in [0, 1]", *hue)
	}

	cfg := session.DefaultConfig()
	cfg.Game.ArenaSize = *arena
	cfg.Game.AICount = *aiCount
	cfg.Game.InitialFood = *food
	cfg.Game.TickRate = *tickRate
	cfg.Game.RespawnDelay = *respawn
	cfg.Game.Seed = *seed
	cfg.Player = rules.PlayerOptions{Skin: skin, Color: game.HSL{H: *hue, S: 1, L: 0.5}}
	cfg.Autopilot = *autopilot
	if err := cfg.Game.Validate(); err != nil {
		log.Fatalf("Invalid arena config: %v", err)
	}

	sess := session.New(cfg, logger)

	var traces *tracedb.DB
	if *traceDir != "" {
		source := "interactive"
		if *autopilot {
			source = "autopilot"
		} else if *headless {
			source = "server"
		}
		rec := store.NewRecorder(*traceDir, *frameEvery, source, logger)
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error("final trace flush failed", "err", err)
			}
		}()
		sess.SetRecorder(rec)

		if *addr != "" {
			traces, err = tracedb.Open(*traceDir)
			if err != nil {
				log.Fatalf("Failed to open trace database: %v", err)
			}
			defer traces.Close()
		}
	}

	if !useTUI || *autopilot {
		sess.Start(nil)
	}

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error { return sess.Run(ctx) })

	if *addr != "" {
		srvCfg := server.DefaultConfig()
		srvCfg.Addr = *addr
		srvCfg.Control = !*viewOnly
		srv := server.New(srvCfg, sess, traces, logger)
		g.Go(func() error { return srv.ListenAndServe(ctx) })
	}

	if useTUI {
		g.Go(func() error {
			snaps, unsubscribe := sess.Subscribe()
			defer unsubscribe()
			return runTUI(ctx, tui.New(snaps, tui.Local(sess)))
		})
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errQuit) {
		log.Fatalf("Arena stopped: %v", err)
	}
	snap := sess.Snapshot()
	logger.Info("arena stopped", "session", sess.ID(), "status", snap.Status, "score", snap.Score, "ticks", snap.Tick)
}

// errQuit ends the errgroup when the user leaves the terminal UI.
var errQuit = errors.New("quit")

func runTUI(ctx context.Context, m tui.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return errQuit
}

func runRemote(ctx context.Context, url, codecName string, logger *slog.Logger) error {
	codec, err := protocol.ParseCodec(codecName)
	if err != nil {
		return err
	}
	cfg := client.DefaultConfig()
	cfg.URL = url
	cfg.Codec = codec

	c, err := client.Dial(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	var ctrl tui.Controller
	if c.Welcome().Control {
		ctrl = tui.Remote(c)
	}

	snaps := make(chan game.Snapshot, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(snaps)
		err := c.Stream(gctx, snaps)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error { return runTUI(gctx, tui.New(snaps, ctrl)) })

	err = g.Wait()
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func newLogger(format, levelName, path string, tuiActive bool) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	if path == "" && tuiActive {
		// Logs would tear the alternate screen.
		path = "arena.log"
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() {
			_ = f.Sync()
			_ = f.Close()
		}
	}

	logger, err := logging.New(w, format, level)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return logger, closeFn, nil
}
