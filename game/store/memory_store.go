package store

import (
	"context"
	"sync"

	"github.com/wricardo/mcp-training/snakegame/game/service"
)

// MemoryStore keeps records for the life of the process
type MemoryStore struct {
	mu        sync.RWMutex
	highScore *service.HighScoreRecord
	runs      []*service.RunRecord
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) LoadHighScore(ctx context.Context) (*service.HighScoreRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.highScore == nil {
		return nil, ErrNoRecord
	}
	record := *m.highScore
	return &record, nil
}

func (m *MemoryStore) SaveHighScore(ctx context.Context, record *service.HighScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *record
	m.highScore = &copied
	return nil
}

func (m *MemoryStore) AppendRun(ctx context.Context, run *service.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *run
	m.runs = append(m.runs, &copied)
	return nil
}

func (m *MemoryStore) ListRuns(ctx context.Context) ([]*service.RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]*service.RunRecord, len(m.runs))
	for i, r := range m.runs {
		copied := *r
		runs[i] = &copied
	}
	return runs, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
