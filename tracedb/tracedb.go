// Package tracedb queries recorded session traces with DuckDB.
package tracedb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/brensch/snekarena/store"
)

// SessionSummary aggregates the frames and events of one recorded session.
type SessionSummary struct {
	SessionID   string  `json:"session_id"`
	Source      string  `json:"source"`
	Frames      int64   `json:"frames"`
	LastTick    int64   `json:"last_tick"`
	ElapsedMs   int64   `json:"elapsed_ms"`
	MaxScore    float64 `json:"max_score"`
	FinalScore  float64 `json:"final_score"`
	FinalStatus string  `json:"final_status"`
	MaxSnakes   int64   `json:"max_snakes"`
	Meals       int64   `json:"meals"`
	AIDeaths    int64   `json:"ai_deaths"`
}

// DeathCount is the number of deaths of one archetype in a session.
type DeathCount struct {
	Archetype string `json:"archetype"`
	Deaths    int64  `json:"deaths"`
	Segments  int64  `json:"segments"`
}

// FramePoint is one recorded frame reduced to the numbers a timeline plots.
type FramePoint struct {
	Tick         int64   `json:"tick"`
	ElapsedMs    int64   `json:"elapsed_ms"`
	Status       string  `json:"status"`
	Score        float64 `json:"score"`
	Snakes       int64   `json:"snakes"`
	Food         int64   `json:"food"`
	PlayerLength int64   `json:"player_length"`
	PlayerScale  float64 `json:"player_scale"`
}

// DB is an in-memory DuckDB with frames and events views over a trace root.
// Views are rebuilt before each query so new traces show up.
type DB struct {
	root string

	mu sync.Mutex
	db *sql.DB
}

func Open(root string) (*DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Ignore errors for compatibility across versions.
	_, _ = db.Exec("PRAGMA threads=4")

	d := &DB{root: root, db: db}
	if err := d.refresh(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

const emptyFrames = `CREATE OR REPLACE VIEW frames AS
	SELECT * FROM (
		SELECT
			NULL::VARCHAR AS session_id,
			NULL::BIGINT AS tick,
			NULL::BIGINT AS elapsed_ms,
			NULL::VARCHAR AS status,
			NULL::DOUBLE AS score,
			NULL::DOUBLE AS arena,
			NULL::FLOAT[] AS food_x,
			NULL::FLOAT[] AS food_z,
			NULL::FLOAT[] AS food_value,
			NULL::STRUCT(
				id BIGINT,
				archetype VARCHAR,
				skin VARCHAR,
				alive BOOLEAN,
				boosting BOOLEAN,
				scale FLOAT,
				color VARCHAR,
				body_x FLOAT[],
				body_z FLOAT[]
			)[] AS snakes,
			NULL::VARCHAR AS source
	) WHERE 1=0`

const emptyEvents = `CREATE OR REPLACE VIEW events AS
	SELECT * FROM (
		SELECT
			NULL::VARCHAR AS session_id,
			NULL::BIGINT AS tick,
			NULL::VARCHAR AS kind,
			NULL::BIGINT AS snake_id,
			NULL::VARCHAR AS archetype,
			NULL::DOUBLE AS delta,
			NULL::DOUBLE AS score,
			NULL::VARCHAR AS status,
			NULL::INTEGER AS length
	) WHERE 1=0`

func (d *DB) refresh(ctx context.Context) error {
	if d.db == nil {
		return fmt.Errorf("tracedb is closed")
	}
	if err := createView(ctx, d.db, "frames", filepath.Join(d.root, store.FramesDir), emptyFrames); err != nil {
		return err
	}
	return createView(ctx, d.db, "events", filepath.Join(d.root, store.EventsDir), emptyEvents)
}

// createView points name at every published parquet file in dir. DuckDB
// fails on a glob with no matches, so an empty typed view stands in.
func createView(ctx context.Context, db *sql.DB, name, dir, empty string) error {
	glob := filepath.Join(dir, "*.parquet")
	matches, err := filepath.Glob(glob)
	if err != nil {
		return fmt.Errorf("glob %s: %w", glob, err)
	}
	if len(matches) == 0 {
		if _, err := db.ExecContext(ctx, empty); err != nil {
			return fmt.Errorf("create empty %s view: %w", name, err)
		}
		return nil
	}

	sqlText := `CREATE OR REPLACE VIEW ` + name + ` AS
		SELECT * FROM read_parquet('` + escapeSQLString(glob) + `', union_by_name=true)`
	if _, err := db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("create %s view: %w", name, err)
	}
	return nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

const sessionsQuery = `WITH f AS (
		SELECT
			session_id,
			MIN(source)::VARCHAR AS source,
			COUNT(*)::BIGINT AS frames,
			MAX(tick)::BIGINT AS last_tick,
			MAX(elapsed_ms)::BIGINT AS elapsed_ms,
			MAX(score)::DOUBLE AS max_score,
			arg_max(score, tick * 2 + CASE WHEN status = 'GAMEOVER' THEN 1 ELSE 0 END)::DOUBLE AS final_score,
			arg_max(status, tick * 2 + CASE WHEN status = 'GAMEOVER' THEN 1 ELSE 0 END)::VARCHAR AS final_status,
			MAX(len(snakes))::BIGINT AS max_snakes
		FROM frames
		GROUP BY session_id
	),
	e AS (
		SELECT
			session_id,
			COUNT(*) FILTER (WHERE kind = 'score')::BIGINT AS meals,
			COUNT(*) FILTER (WHERE kind = 'death' AND archetype <> 'player')::BIGINT AS ai_deaths
		FROM events
		GROUP BY session_id
	)
	SELECT
		f.session_id, f.source, f.frames, f.last_tick, f.elapsed_ms,
		f.max_score, f.final_score, f.final_status, f.max_snakes,
		COALESCE(e.meals, 0)::BIGINT, COALESCE(e.ai_deaths, 0)::BIGINT
	FROM f
	LEFT JOIN e ON f.session_id = e.session_id`

// Sessions summarizes every recorded session, best final score first.
func (d *DB) Sessions(ctx context.Context) ([]SessionSummary, error) {
	return d.querySessions(ctx, sessionsQuery+` ORDER BY f.final_score DESC, f.session_id`)
}

// Session summarizes one session. It returns os.ErrNotExist when the
// session has no recorded frames.
func (d *DB) Session(ctx context.Context, id string) (SessionSummary, error) {
	out, err := d.querySessions(ctx, sessionsQuery+` WHERE f.session_id = ?`, id)
	if err != nil {
		return SessionSummary{}, err
	}
	if len(out) == 0 {
		return SessionSummary{}, fmt.Errorf("session %s: %w", id, os.ErrNotExist)
	}
	return out[0], nil
}

func (d *DB) querySessions(ctx context.Context, query string, args ...any) ([]SessionSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refresh(ctx); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.SessionID, &s.Source, &s.Frames, &s.LastTick, &s.ElapsedMs,
			&s.MaxScore, &s.FinalScore, &s.FinalStatus, &s.MaxSnakes, &s.Meals, &s.AIDeaths); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// Deaths counts deaths and dropped segments per archetype in one session.
func (d *DB) Deaths(ctx context.Context, id string) ([]DeathCount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refresh(ctx); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `SELECT archetype, COUNT(*)::BIGINT, COALESCE(SUM(length), 0)::BIGINT
		FROM events
		WHERE kind = 'death' AND session_id = ?
		GROUP BY archetype
		ORDER BY archetype`, id)
	if err != nil {
		return nil, fmt.Errorf("query deaths: %w", err)
	}
	defer rows.Close()

	var out []DeathCount
	for rows.Next() {
		var c DeathCount
		if err := rows.Scan(&c.Archetype, &c.Deaths, &c.Segments); err != nil {
			return nil, fmt.Errorf("scan deaths: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Timeline returns the recorded frames of one session in tick order. It
// returns os.ErrNotExist when the session has no recorded frames.
func (d *DB) Timeline(ctx context.Context, id string) ([]FramePoint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.refresh(ctx); err != nil {
		return nil, err
	}

	// The player, when present, is always the first snake of a frame.
	rows, err := d.db.QueryContext(ctx, `SELECT
			tick::BIGINT,
			elapsed_ms::BIGINT,
			status::VARCHAR,
			score::DOUBLE,
			COALESCE(len(snakes), 0)::BIGINT,
			COALESCE(len(food_x), 0)::BIGINT,
			CASE WHEN snakes[1].archetype = 'player' THEN len(snakes[1].body_x) ELSE 0 END::BIGINT,
			CASE WHEN snakes[1].archetype = 'player' THEN snakes[1].scale ELSE 0 END::DOUBLE
		FROM frames
		WHERE session_id = ?
		ORDER BY tick, CASE WHEN status = 'GAMEOVER' THEN 1 ELSE 0 END`, id)
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	out := make([]FramePoint, 0, 256)
	for rows.Next() {
		var p FramePoint
		if err := rows.Scan(&p.Tick, &p.ElapsedMs, &p.Status, &p.Score, &p.Snakes, &p.Food, &p.PlayerLength, &p.PlayerScale); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate frames: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, os.ErrNotExist)
	}
	return out, nil
}
