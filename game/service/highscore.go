package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const storeTimeout = 2 * time.Second

// highScoreAdapter turns a RecordStore into the engine's HighScoreStore.
// Store failures are logged and swallowed; the engine only ever sees an int.
// Save runs under the service lock, so it only queues the record; flush
// writes it once the lock is released.
type highScoreAdapter struct {
	records RecordStore
	logger  zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	last    *HighScoreRecord
	pending *HighScoreRecord
}

func newHighScoreAdapter(records RecordStore, logger zerolog.Logger, now func() time.Time) *highScoreAdapter {
	return &highScoreAdapter{records: records, logger: logger, now: now}
}

// Load implements engine.HighScoreStore
func (a *highScoreAdapter) Load() int {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	record, err := a.records.LoadHighScore(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoRecord) {
			a.logger.Warn().Err(err).Msg("high score unreadable, starting from 0")
		}
		return 0
	}
	if record.HighScore < 0 {
		a.logger.Warn().Int("high_score", record.HighScore).Msg("negative high score stored, starting from 0")
		return 0
	}

	a.mu.Lock()
	a.last = record
	a.mu.Unlock()
	return record.HighScore
}

// Save implements engine.HighScoreStore
func (a *highScoreAdapter) Save(score int) {
	record := &HighScoreRecord{HighScore: score, When: a.now().UTC()}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.last = record
	a.pending = record
}

// flush writes the queued record, if any. Only the tick loop calls it, so
// writes land in the order they were queued.
func (a *highScoreAdapter) flush() {
	a.mu.Lock()
	record := a.pending
	a.pending = nil
	a.mu.Unlock()

	if record == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := a.records.SaveHighScore(ctx, record); err != nil {
		a.logger.Warn().Err(err).Int("high_score", record.HighScore).Msg("failed to save high score")
	}
}

// When reports the timestamp of the last record loaded or saved.
func (a *highScoreAdapter) When() *time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return nil
	}
	when := a.last.When
	return &when
}
