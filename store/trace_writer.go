package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// Subdirectories of a trace root. Frames and events have different schemas
// so they are globbed separately.
const (
	FramesDir = "frames"
	EventsDir = "events"
	tmpDir    = "tmp"
)

// TraceWriter streams the frames of one session into a parquet file under
// <root>/frames/tmp and moves it into <root>/frames on Finalize, so readers
// never see a partial file.
type TraceWriter struct {
	root    string
	name    string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[FrameRow]

	frames int
}

// NewTraceWriter opens a frame trace for sessionID. meta is stored as
// parquet key/value metadata alongside the schema tag.
func NewTraceWriter(root, sessionID string, meta map[string]string) (*TraceWriter, error) {
	if root == "" {
		return nil, fmt.Errorf("trace root is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id is required")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = root
	}
	framesDir := filepath.Join(absRoot, FramesDir)
	tmp := filepath.Join(framesDir, tmpDir)
	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("frames_%s_%d.parquet", sessionID, time.Now().UnixNano())
	tmpPath := filepath.Join(tmp, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[FrameRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", FrameSchema)
	w.SetKeyValueMetadata("session_id", sessionID)
	for k, v := range meta {
		w.SetKeyValueMetadata(k, v)
	}

	return &TraceWriter{
		root:    absRoot,
		name:    name,
		tmpPath: tmpPath,
		outPath: filepath.Join(framesDir, name),
		file:    f,
		writer:  w,
	}, nil
}

func (t *TraceWriter) TmpPath() string { return t.tmpPath }
func (t *TraceWriter) OutPath() string { return t.outPath }
func (t *TraceWriter) Frames() int     { return t.frames }

func (t *TraceWriter) WriteFrames(rows []FrameRow) error {
	if t.writer == nil || t.file == nil {
		return fmt.Errorf("trace writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := t.writer.Write(rows); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	t.frames += len(rows)
	return nil
}

// Finalize closes the writer and publishes the file. A trace with no frames
// is removed and returns an empty path.
func (t *TraceWriter) Finalize() (outPath string, frames int, err error) {
	if t.writer == nil && t.file == nil {
		return "", 0, nil
	}

	var closeErr, fileErr error
	if t.writer != nil {
		closeErr = t.writer.Close()
		t.writer = nil
	}
	if t.file != nil {
		_ = t.file.Sync()
		fileErr = t.file.Close()
		t.file = nil
	}
	if closeErr != nil {
		_ = os.Remove(t.tmpPath)
		return "", 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		_ = os.Remove(t.tmpPath)
		return "", 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if t.frames == 0 {
		_ = os.Remove(t.tmpPath)
		return "", 0, nil
	}
	if err := os.Rename(t.tmpPath, t.outPath); err != nil {
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}
	return t.outPath, t.frames, nil
}
