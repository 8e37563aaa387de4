package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Schema tags written to the parquet key/value metadata.
const (
	FrameSchema = "arena_frame_v1"
	EventSchema = "arena_event_v1"
)

// WriteEventsParquet writes the events of one session into <root>/events,
// going through <root>/events/tmp. It returns the final path, or an empty
// path when there is nothing to write.
func WriteEventsParquet(root, sessionID string, rows []EventRow) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	dir := filepath.Join(root, EventsDir)
	tmp := filepath.Join(dir, tmpDir)
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return "", fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("events_%s_%d.parquet", sessionID, time.Now().UnixNano())
	finalPath := filepath.Join(dir, name)
	tmpPath := filepath.Join(tmp, name+".tmp")
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", EventSchema),
		parquet.KeyValueMetadata("session_id", sessionID),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("rename parquet: %w", err)
	}
	return finalPath, nil
}

func ReadFrames(path string) ([]FrameRow, error) {
	rows, err := parquet.ReadFile[FrameRow](path)
	if err != nil {
		return nil, fmt.Errorf("read frames %s: %w", path, err)
	}
	return rows, nil
}

func ReadEvents(path string) ([]EventRow, error) {
	rows, err := parquet.ReadFile[EventRow](path)
	if err != nil {
		return nil, fmt.Errorf("read events %s: %w", path, err)
	}
	return rows, nil
}
