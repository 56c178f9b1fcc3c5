package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// MockConfigManager implements ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
	saved   map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	small := testConfig()
	big := testConfig()
	big.Name = "big"
	big.Cols, big.Rows = 40, 30
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{"test": &small, "big": &big},
		saved:   make(map[string]*engine.GameConfig),
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	if c, ok := m.configs[name]; ok {
		return c, nil
	}
	return nil, errors.New("configuration not found")
}

func (m *MockConfigManager) ListConfigs() ([]*ConfigInfo, error) {
	var infos []*ConfigInfo
	for id, c := range m.configs {
		infos = append(infos, &ConfigInfo{ConfigID: id, Name: c.Name, Cols: c.Cols, Rows: c.Rows})
	}
	return infos, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["test"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	m.saved[name] = config
	return nil
}

// MockRecordStore implements RecordStore in memory
type MockRecordStore struct {
	mu      sync.Mutex
	record  *HighScoreRecord
	runs    []*RunRecord
	loadErr error
	saveErr error
	saves   int

	// onSave runs before a high score save is recorded
	onSave func()
}

func (m *MockRecordStore) LoadHighScore(ctx context.Context) (*HighScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.record == nil {
		return nil, ErrNoRecord
	}
	return m.record, nil
}

func (m *MockRecordStore) SaveHighScore(ctx context.Context, record *HighScoreRecord) error {
	if m.onSave != nil {
		m.onSave()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.record = record
	return nil
}

func (m *MockRecordStore) AppendRun(ctx context.Context, run *RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *MockRecordStore) ListRuns(ctx context.Context) ([]*RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*RunRecord, len(m.runs))
	copy(out, m.runs)
	return out, nil
}

func (m *MockRecordStore) Close() error { return nil }

// cycleRand replays values in order, wrapping around. The default script
// places food at (0,0) first and (19,19) second.
type cycleRand struct {
	values []int
	next   int
}

func (r *cycleRand) Intn(n int) int {
	v := r.values[r.next%len(r.values)]
	r.next++
	return v % n
}

func testConfig() engine.GameConfig {
	return engine.GameConfig{
		Name:              "test",
		Cols:              20,
		Rows:              20,
		InitialIntervalMs: 20,
		MinIntervalMs:     10,
		SpeedMultiplier:   0.9,
		InitialLength:     3,
	}
}

func newTestService(t *testing.T, records *MockRecordStore, opts ...Option) *gameServiceImpl {
	t.Helper()
	opts = append([]Option{WithRand(&cycleRand{values: []int{0, 0, 19, 19}})}, opts...)
	svc, err := NewGameService(NewMockConfigManager(), records, opts...)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return svc.(*gameServiceImpl)
}

func TestNewGameService(t *testing.T) {
	t.Run("Uses default preset", func(t *testing.T) {
		svc := newTestService(t, &MockRecordStore{})
		state, _ := svc.GetState(context.Background())
		if state.Preset != "test" || state.State != engine.StatePaused {
			t.Errorf("Expected paused test preset, got %s/%v", state.Preset, state.State)
		}
	})

	t.Run("Loads stored high score", func(t *testing.T) {
		when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		svc := newTestService(t, &MockRecordStore{record: &HighScoreRecord{HighScore: 17, When: when}})

		info, _ := svc.GetHighScore(context.Background())
		if info.HighScore != 17 {
			t.Errorf("Expected high score 17, got %d", info.HighScore)
		}
		if info.When == nil || !info.When.Equal(when) {
			t.Errorf("Expected when %v, got %v", when, info.When)
		}
	})

	t.Run("Explicit preset", func(t *testing.T) {
		svc := newTestService(t, &MockRecordStore{}, WithPreset("big"))
		state, _ := svc.GetState(context.Background())
		if state.Grid.Cols != 40 {
			t.Errorf("Expected big preset, got %+v", state.Grid)
		}
	})

	t.Run("Unknown preset", func(t *testing.T) {
		_, err := NewGameService(NewMockConfigManager(), &MockRecordStore{}, WithPreset("nope"))
		if err == nil {
			t.Error("Expected error for unknown preset")
		}
	})
}

func TestHighScoreLoadFailures(t *testing.T) {
	t.Run("Corrupt record warns and reads zero", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)
		records := &MockRecordStore{loadErr: fmt.Errorf("%w: bad json", ErrCorruptRecord)}

		svc := newTestService(t, records, WithLogger(logger))
		info, _ := svc.GetHighScore(context.Background())
		if info.HighScore != 0 {
			t.Errorf("Expected 0, got %d", info.HighScore)
		}
		if !strings.Contains(buf.String(), "high score unreadable") {
			t.Errorf("Expected a warning, got log %q", buf.String())
		}
	})

	t.Run("Missing record is silent", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf).Level(zerolog.WarnLevel)

		newTestService(t, &MockRecordStore{}, WithLogger(logger))
		if buf.Len() != 0 {
			t.Errorf("Expected no warnings, got %q", buf.String())
		}
	})
}

func TestActions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &MockRecordStore{})

	result, err := svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !result.Changed || result.Snapshot.State != engine.StateRunning {
		t.Errorf("Expected running after start, got %+v", result)
	}
	if len(result.Events) != 1 || result.Events[0].Type != EventRunStarted {
		t.Errorf("Expected run_started event, got %+v", result.Events)
	}
	runID := svc.run.id

	result, _ = svc.Start(ctx)
	if result.Changed {
		t.Error("Second start should be a no-op")
	}

	result, _ = svc.Pause(ctx)
	if result.Snapshot.State != engine.StatePaused || result.Events[0].Type != EventPaused {
		t.Errorf("Expected paused, got %+v", result)
	}

	result, _ = svc.Toggle(ctx)
	if result.Snapshot.State != engine.StateRunning || result.Events[0].Type != EventResumed {
		t.Errorf("Expected resumed, got %+v", result)
	}
	if svc.run.id != runID {
		t.Error("Resuming should keep the same run")
	}

	result, _ = svc.Restart(ctx)
	if result.Snapshot.State != engine.StateRunning || result.Events[0].Type != EventRunStarted {
		t.Errorf("Expected a new run, got %+v", result)
	}
	if svc.run.id == runID {
		t.Error("Restart should begin a new run")
	}
}

func TestSetDirection(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &MockRecordStore{})

	if _, err := svc.SetDirection(ctx, "sideways"); !errors.Is(err, engine.ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}

	result, err := svc.SetDirection(ctx, "left")
	if err != nil {
		t.Fatalf("SetDirection failed: %v", err)
	}
	if result.Changed || result.Snapshot.Direction != engine.Right {
		t.Errorf("Reversal should be ignored, got %+v", result)
	}

	result, _ = svc.SetDirection(ctx, "UP")
	if !result.Changed || result.Snapshot.Direction != engine.Up {
		t.Errorf("Expected heading up, got %+v", result)
	}
}

func TestTickRecordsFinishedRun(t *testing.T) {
	ctx := context.Background()
	records := &MockRecordStore{}
	svc := newTestService(t, records)

	var mu sync.Mutex
	var updates []Update
	svc.Subscribe(func(u Update) {
		mu.Lock()
		updates = append(updates, u)
		mu.Unlock()
	})

	svc.Start(ctx)
	svc.SetDirection(ctx, "up")

	// Head starts at (10,10); food sits at (0,0). Ten moves up reach row 0,
	// the eleventh hits the wall.
	for i := 0; i < 11; i++ {
		svc.tick()
	}

	state, _ := svc.GetState(ctx)
	if state.State != engine.StateGameOver || state.Cause != engine.CauseWall {
		t.Fatalf("Expected game over by wall, got %v/%v", state.State, state.Cause)
	}
	if svc.run != nil {
		t.Error("Run should be cleared after game over")
	}

	runs, _ := records.ListRuns(ctx)
	if len(runs) != 1 {
		t.Fatalf("Expected one recorded run, got %d", len(runs))
	}
	if runs[0].Cause != "wall" || runs[0].Score != 0 || runs[0].Length != 3 {
		t.Errorf("Unexpected run record: %+v", runs[0])
	}
	if records.saves != 0 {
		t.Errorf("A zero score should not save a high score, got %d saves", records.saves)
	}

	// Ticks after game over are ignored and publish nothing.
	mu.Lock()
	count := len(updates)
	mu.Unlock()
	svc.tick()
	mu.Lock()
	defer mu.Unlock()
	if len(updates) != count {
		t.Errorf("Expected no update after game over, got %d more", len(updates)-count)
	}

	last := updates[len(updates)-1]
	if last.Events[0].Type != EventGameOver {
		t.Errorf("Expected game_over event last, got %+v", last.Events)
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Snapshot.Version <= updates[i-1].Snapshot.Version {
			t.Fatalf("Versions must increase: %d then %d", updates[i-1].Snapshot.Version, updates[i].Snapshot.Version)
		}
	}
}

// steerToFirstFood eats the food at (0,0) and leaves the head on it, facing
// the left wall.
func steerToFirstFood(svc *gameServiceImpl) {
	ctx := context.Background()
	svc.Start(ctx)

	svc.SetDirection(ctx, "up")
	for i := 0; i < 10; i++ {
		svc.tick()
	}
	svc.SetDirection(ctx, "left")
	for i := 0; i < 10; i++ {
		svc.tick()
	}
}

func TestTickEatsAndSetsHighScore(t *testing.T) {
	ctx := context.Background()
	records := &MockRecordStore{}
	svc := newTestService(t, records)

	ate := false
	svc.Subscribe(func(u Update) {
		for _, e := range u.Events {
			if e.Type == EventFoodEaten {
				ate = true
			}
		}
	})
	steerToFirstFood(svc)

	state, _ := svc.GetState(ctx)
	if !ate || state.Score != 1 {
		t.Fatalf("Expected to eat once, score %d", state.Score)
	}
	if state.IntervalMs != 18 {
		t.Errorf("Expected interval 18ms after one food, got %d", state.IntervalMs)
	}

	// Next move left hits the wall and beats the stored zero.
	svc.tick()
	if records.saves != 1 || records.record.HighScore != 1 {
		t.Errorf("Expected one high score save of 1, got %d saves %+v", records.saves, records.record)
	}
	runs, _ := records.ListRuns(ctx)
	if len(runs) != 1 || !runs[0].NewHighScore {
		t.Errorf("Expected a recorded run with a new high score, got %+v", runs)
	}
}

func TestHighScoreSavedOutsideLock(t *testing.T) {
	ctx := context.Background()
	records := &MockRecordStore{}
	svc := newTestService(t, records)
	steerToFirstFood(svc)

	// A store that calls back into the service must not deadlock the tick
	var seen *HighScoreInfo
	records.onSave = func() {
		seen, _ = svc.GetHighScore(ctx)
	}

	done := make(chan struct{})
	go func() {
		svc.tick()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the tick to finish while the high score is written")
	}

	if seen == nil || seen.HighScore != 1 || seen.When == nil {
		t.Errorf("Expected the new high score to be visible during the save, got %+v", seen)
	}
	if records.saves != 1 || records.record.HighScore != 1 {
		t.Errorf("Expected one high score save of 1, got %d saves %+v", records.saves, records.record)
	}

	t.Run("failed saves keep the in-memory score", func(t *testing.T) {
		failing := &MockRecordStore{saveErr: errors.New("disk full")}
		svc := newTestService(t, failing)
		steerToFirstFood(svc)
		svc.tick()

		info, _ := svc.GetHighScore(ctx)
		if info.HighScore != 1 {
			t.Errorf("Expected high score 1, got %d", info.HighScore)
		}
		if failing.saves != 1 {
			t.Errorf("Expected one save attempt, got %d", failing.saves)
		}
	})
}

func TestSubscribeCancel(t *testing.T) {
	svc := newTestService(t, &MockRecordStore{})

	calls := 0
	cancel := svc.Subscribe(func(Update) { calls++ })
	svc.Start(context.Background())
	cancel()
	svc.Pause(context.Background())

	if calls != 1 {
		t.Errorf("Expected one delivery before cancel, got %d", calls)
	}
}

func TestApplyConfig(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &MockRecordStore{})
	svc.Start(ctx)

	result, err := svc.ApplyConfig(ctx, "big")
	if err != nil {
		t.Fatalf("ApplyConfig failed: %v", err)
	}
	if result.Snapshot.Preset != "big" || result.Snapshot.State != engine.StatePaused {
		t.Errorf("Expected paused big preset, got %s/%v", result.Snapshot.Preset, result.Snapshot.State)
	}
	if svc.run != nil {
		t.Error("Applying a preset should abandon the current run")
	}

	if _, err := svc.ApplyConfig(ctx, "missing"); err == nil {
		t.Error("Expected error for unknown preset")
	}
}

func TestGetRunHistory(t *testing.T) {
	ctx := context.Background()
	records := &MockRecordStore{}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		records.runs = append(records.runs, &RunRecord{
			ID:      fmt.Sprintf("run-%02d", i),
			Score:   i,
			EndedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	svc := newTestService(t, records)

	t.Run("Default is newest first", func(t *testing.T) {
		history, err := svc.GetRunHistory(ctx, HistoryOptions{})
		if err != nil {
			t.Fatalf("GetRunHistory failed: %v", err)
		}
		if history.TotalRuns != 25 || history.TotalPages != 2 || len(history.Runs) != 20 {
			t.Errorf("Unexpected page: total=%d pages=%d len=%d", history.TotalRuns, history.TotalPages, len(history.Runs))
		}
		if history.Runs[0].ID != "run-24" {
			t.Errorf("Expected newest first, got %s", history.Runs[0].ID)
		}
		if !history.HasNext || history.HasPrevious {
			t.Errorf("Expected next only, got next=%v prev=%v", history.HasNext, history.HasPrevious)
		}
	})

	t.Run("Second page ascending", func(t *testing.T) {
		history, _ := svc.GetRunHistory(ctx, HistoryOptions{Page: 2, Limit: 10, Order: "asc"})
		if len(history.Runs) != 10 || history.Runs[0].ID != "run-10" {
			t.Errorf("Unexpected page: %d runs starting %s", len(history.Runs), history.Runs[0].ID)
		}
	})

	t.Run("Past the end is empty", func(t *testing.T) {
		history, _ := svc.GetRunHistory(ctx, HistoryOptions{Page: 9, Limit: 10})
		if history.Runs == nil || len(history.Runs) != 0 {
			t.Errorf("Expected empty non-nil page, got %v", history.Runs)
		}
	})
}

func TestRunDrivesTicks(t *testing.T) {
	svc := newTestService(t, &MockRecordStore{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	start, _ := svc.GetState(context.Background())
	svc.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for {
		state, _ := svc.GetState(context.Background())
		if state.Head() != start.Head() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Snake never moved while running")
		}
		time.Sleep(2 * time.Millisecond)
	}

	svc.Pause(context.Background())
	paused, _ := svc.GetState(context.Background())
	time.Sleep(100 * time.Millisecond)
	after, _ := svc.GetState(context.Background())
	if after.Head() != paused.Head() {
		t.Errorf("Snake moved while paused: %v -> %v", paused.Head(), after.Head())
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
