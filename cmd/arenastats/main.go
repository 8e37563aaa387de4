package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/brensch/snekarena/tracedb"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7fdbff")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
)

func main() {
	traceDir := flag.String("trace-dir", "traces", "Trace root written by arena or arenasim")
	sessionID := flag.String("session", "", "Show one session with its deaths by archetype")
	limit := flag.Int("limit", 20, "Maximum sessions to list; 0 lists all")
	timeline := flag.Int("timeline", 0, "With -session, also print every Nth recorded frame; 0 skips the timeline")
	asJSON := flag.Bool("json", false, "Print JSON instead of a table")
	flag.Parse()

	db, err := tracedb.Open(*traceDir)
	if err != nil {
		log.Fatalf("Failed to open traces: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *sessionID != "" {
		if err := showSession(ctx, db, *sessionID, *timeline, *asJSON); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Fatalf("No recorded session %q under %s", *sessionID, *traceDir)
			}
			log.Fatalf("Failed to load session: %v", err)
		}
		return
	}

	sessions, err := db.Sessions(ctx)
	if err != nil {
		log.Fatalf("Failed to list sessions: %v", err)
	}
	if *limit > 0 && len(sessions) > *limit {
		sessions = sessions[:*limit]
	}
	if *asJSON {
		printJSON(sessions)
		return
	}
	if len(sessions) == 0 {
		fmt.Printf("no sessions recorded under %s\n", *traceDir)
		return
	}

	t := newTable("SESSION", "SOURCE", "FRAMES", "TICKS", "TIME", "MAX", "FINAL", "STATUS", "MEALS", "AI DEATHS")
	for _, s := range sessions {
		t.Row(s.SessionID, s.Source, itoa(s.Frames), itoa(s.LastTick), duration(s.ElapsedMs),
			score(s.MaxScore), score(s.FinalScore), s.FinalStatus, itoa(s.Meals), itoa(s.AIDeaths))
	}
	fmt.Println(t.Render())
}

func showSession(ctx context.Context, db *tracedb.DB, id string, every int, asJSON bool) error {
	summary, err := db.Session(ctx, id)
	if err != nil {
		return err
	}
	deaths, err := db.Deaths(ctx, id)
	if err != nil {
		return err
	}
	var points []tracedb.FramePoint
	if every > 0 {
		all, err := db.Timeline(ctx, id)
		if err != nil {
			return err
		}
		for i, p := range all {
			if i%every == 0 || i == len(all)-1 {
				points = append(points, p)
			}
		}
	}
	if asJSON {
		printJSON(struct {
			Summary  tracedb.SessionSummary `json:"summary"`
			Deaths   []tracedb.DeathCount   `json:"deaths"`
			Timeline []tracedb.FramePoint   `json:"timeline,omitempty"`
		}{summary, deaths, points})
		return nil
	}

	info := newTable("FIELD", "VALUE")
	info.Row("session", summary.SessionID)
	info.Row("source", summary.Source)
	info.Row("frames", itoa(summary.Frames))
	info.Row("last tick", itoa(summary.LastTick))
	info.Row("time", duration(summary.ElapsedMs))
	info.Row("max score", score(summary.MaxScore))
	info.Row("final score", score(summary.FinalScore))
	info.Row("final status", summary.FinalStatus)
	info.Row("most snakes", itoa(summary.MaxSnakes))
	info.Row("meals", itoa(summary.Meals))
	fmt.Println(info.Render())

	if len(deaths) == 0 {
		fmt.Println("no deaths recorded")
	} else {
		dt := newTable("ARCHETYPE", "DEATHS", "SEGMENTS DROPPED")
		for _, d := range deaths {
			dt.Row(d.Archetype, itoa(d.Deaths), itoa(d.Segments))
		}
		fmt.Println(dt.Render())
	}

	if len(points) > 0 {
		tt := newTable("TICK", "TIME", "STATUS", "SCORE", "SNAKES", "FOOD", "LENGTH", "SIZE")
		for _, p := range points {
			tt.Row(itoa(p.Tick), duration(p.ElapsedMs), p.Status, score(p.Score), itoa(p.Snakes),
				itoa(p.Food), itoa(p.PlayerLength), strconv.FormatFloat(p.PlayerScale, 'f', 2, 64))
		}
		fmt.Println(tt.Render())
	}
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("Failed to encode JSON: %v", err)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func score(f float64) string { return strconv.FormatFloat(f, 'f', 0, 64) }

func duration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}
