package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/snakegame/game/service"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const globalSlot = "global"

// SQLiteStore persists the high score and run history in SQLite.
type SQLiteStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens the database at path and applies embedded migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// applyMigrations executes each embedded file at most once.
func applyMigrations(sqlDB *sql.DB) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		var count int
		if err := sqlDB.QueryRow(`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, file).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if count > 0 {
			continue
		}

		content, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", file, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, file, toMillis(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadHighScore reads the global slot.
func (s *SQLiteStore) LoadHighScore(ctx context.Context) (*service.HighScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var score int
	var updatedAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT high_score, updated_at FROM high_scores WHERE slot = ?`, globalSlot,
	).Scan(&score, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("get high score: %w", err)
	}
	if score < 0 {
		return nil, fmt.Errorf("%w: negative high score %d", ErrCorruptRecord, score)
	}
	return &service.HighScoreRecord{HighScore: score, When: fromMillis(updatedAt)}, nil
}

// SaveHighScore upserts the global slot.
func (s *SQLiteStore) SaveHighScore(ctx context.Context, record *service.HighScoreRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if record == nil {
		return fmt.Errorf("record cannot be nil")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO high_scores (slot, high_score, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET high_score = excluded.high_score, updated_at = excluded.updated_at`,
		globalSlot, record.HighScore, toMillis(record.When),
	)
	if err != nil {
		return fmt.Errorf("put high score: %w", err)
	}
	return nil
}

// AppendRun inserts one finished run.
func (s *SQLiteStore) AppendRun(ctx context.Context, run *service.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO runs (id, preset, score, length, cause, started_at, ended_at, new_high_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Preset, run.Score, run.Length, run.Cause,
		toMillis(run.StartedAt), toMillis(run.EndedAt), run.NewHighScore,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// ListRuns returns runs in insertion order.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]*service.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, preset, score, length, cause, started_at, ended_at, new_high_score
		 FROM runs ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []*service.RunRecord{}
	for rows.Next() {
		var (
			run                service.RunRecord
			startedAt, endedAt int64
		)
		if err := rows.Scan(&run.ID, &run.Preset, &run.Score, &run.Length, &run.Cause,
			&startedAt, &endedAt, &run.NewHighScore); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = fromMillis(startedAt)
		run.EndedAt = fromMillis(endedAt)
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
