package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/service"
)

const (
	HighScoreFilename = "high_score.json"
	RunsFilename      = "runs.json"
)

// FileStore keeps the high score and run history as JSON files in one directory
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// persistedHighScore is the on-disk shape. When is kept as text so that
// timestamps written without a zone still load.
type persistedHighScore struct {
	HighScore storedScore `json:"high_score"`
	When      string      `json:"when,omitempty"`
}

// storedScore reads 7, 7.0 and "7" alike, since the file may be edited by hand.
// Fractions are rejected.
type storedScore int

func (s *storedScore) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return fmt.Errorf("high score %v is not a whole number", v)
		}
		*s = storedScore(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("high score %q is not a whole number", v)
		}
		*s = storedScore(n)
	default:
		return fmt.Errorf("high score has unexpected type %T", raw)
	}
	return nil
}

var whenLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// LoadHighScore reads high_score.json. A bare number or numeric string is
// accepted too.
func (fs *FileStore) LoadHighScore(ctx context.Context) (*service.HighScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path(HighScoreFilename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read high score file: %w", err)
	}
	return decodeHighScore(data)
}

func decodeHighScore(data []byte) (*service.HighScoreRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty high score file", ErrCorruptRecord)
	}

	var persisted persistedHighScore
	if data[0] == '{' {
		if err := json.Unmarshal(data, &persisted); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
	} else if err := json.Unmarshal(data, &persisted.HighScore); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	if persisted.HighScore < 0 {
		return nil, fmt.Errorf("%w: negative high score %d", ErrCorruptRecord, persisted.HighScore)
	}

	record := &service.HighScoreRecord{HighScore: int(persisted.HighScore)}
	for _, layout := range whenLayouts {
		if when, err := time.Parse(layout, persisted.When); err == nil {
			record.When = when
			break
		}
	}
	return record, nil
}

// SaveHighScore replaces high_score.json
func (fs *FileStore) SaveHighScore(ctx context.Context, record *service.HighScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	persisted := persistedHighScore{
		HighScore: storedScore(record.HighScore),
		When:      record.When.UTC().Format(time.RFC3339Nano),
	}
	return fs.writeJSON(HighScoreFilename, persisted)
}

// AppendRun adds a run to runs.json
func (fs *FileStore) AppendRun(ctx context.Context, run *service.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	runs, err := fs.readRuns()
	if err != nil {
		return err
	}
	runs = append(runs, run)
	return fs.writeJSON(RunsFilename, runs)
}

// ListRuns returns every recorded run, oldest first
func (fs *FileStore) ListRuns(ctx context.Context) ([]*service.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.readRuns()
}

// Close is a no-op
func (fs *FileStore) Close() error {
	return nil
}

func (fs *FileStore) readRuns() ([]*service.RunRecord, error) {
	data, err := os.ReadFile(fs.path(RunsFilename))
	if errors.Is(err, os.ErrNotExist) {
		return []*service.RunRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read runs file: %w", err)
	}

	var runs []*service.RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("%w: runs file: %v", ErrCorruptRecord, err)
	}
	if runs == nil {
		runs = []*service.RunRecord{}
	}
	return runs, nil
}

// writeJSON writes through a temp file and rename so readers never see a
// partial file.
func (fs *FileStore) writeJSON(name string, v any) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(fs.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(jsonData); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), fs.path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (fs *FileStore) path(name string) string {
	return filepath.Join(fs.dir, name)
}
