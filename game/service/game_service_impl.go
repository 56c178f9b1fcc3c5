package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
)

// schedule is what the tick source should be doing.
type schedule struct {
	running  bool
	interval time.Duration
}

// activeRun tracks the run in progress between start and game over.
type activeRun struct {
	id        string
	startedAt time.Time
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	configs ConfigManager
	records RecordStore
	logger  zerolog.Logger
	now     func() time.Time
	rng     engine.Rand
	preset  string

	mu         sync.Mutex
	session    engine.Engine
	highScores *highScoreAdapter
	keeper     *engine.HighScoreKeeper
	version    uint64
	run        *activeRun

	observers    map[uint64]Observer
	nextObserver uint64

	// schedule holds at most the latest request; senders hold mu.
	schedule chan schedule
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = logger }
}

// WithRand sets the food placement source.
func WithRand(rng engine.Rand) Option {
	return func(s *gameServiceImpl) { s.rng = rng }
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *gameServiceImpl) { s.now = now }
}

// WithPreset picks the starting preset instead of the config manager default.
func WithPreset(name string) Option {
	return func(s *gameServiceImpl) { s.preset = name }
}

// NewGameService loads the high score once and builds a Paused session from
// the starting preset.
func NewGameService(configs ConfigManager, records RecordStore, opts ...Option) (GameService, error) {
	s := &gameServiceImpl{
		configs:   configs,
		records:   records,
		logger:    zerolog.Nop(),
		now:       time.Now,
		observers: make(map[uint64]Observer),
		schedule:  make(chan schedule, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = engine.NewRand(0)
	}

	config := configs.GetDefault()
	if s.preset != "" {
		loaded, err := configs.LoadConfig(s.preset)
		if err != nil {
			return nil, fmt.Errorf("failed to load preset %s: %w", s.preset, err)
		}
		config = loaded
	}
	if config == nil {
		return nil, fmt.Errorf("no game configuration available")
	}

	s.highScores = newHighScoreAdapter(records, s.logger, s.now)
	s.keeper = engine.NewHighScoreKeeper(s.highScores)

	session, err := engine.NewGameSession(*config, s.keeper, s.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to create game session: %w", err)
	}
	s.session = session

	s.logger.Info().
		Str("preset", config.Name).
		Int("high_score", s.keeper.Value()).
		Msg("game service ready")
	return s, nil
}

// GetState returns the current snapshot
func (s *gameServiceImpl) GetState(ctx context.Context) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

// Start moves a paused game to running
func (s *gameServiceImpl) Start(ctx context.Context) (*ActionResult, error) {
	return s.apply("start", func() (bool, error) {
		return s.session.Start(), nil
	})
}

// Pause freezes a running game
func (s *gameServiceImpl) Pause(ctx context.Context) (*ActionResult, error) {
	return s.apply("pause", func() (bool, error) {
		return s.session.Pause(), nil
	})
}

// Toggle flips pause, restarting a finished game
func (s *gameServiceImpl) Toggle(ctx context.Context) (*ActionResult, error) {
	return s.apply("toggle", func() (bool, error) {
		return true, s.session.Toggle()
	})
}

// Restart begins a new run from any state
func (s *gameServiceImpl) Restart(ctx context.Context) (*ActionResult, error) {
	return s.apply("restart", func() (bool, error) {
		return true, s.session.Restart()
	})
}

// PrimaryAction starts the game, or restarts it after game over
func (s *gameServiceImpl) PrimaryAction(ctx context.Context) (*ActionResult, error) {
	return s.apply("primary", func() (bool, error) {
		before := s.session.State()
		if err := s.session.PrimaryAction(); err != nil {
			return false, err
		}
		return before != s.session.State() || before == engine.StateGameOver, nil
	})
}

// SetDirection queues a turn for the next tick
func (s *gameServiceImpl) SetDirection(ctx context.Context, direction string) (*ActionResult, error) {
	d, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	return s.apply("direction", func() (bool, error) {
		return s.session.SetDirection(d), nil
	})
}

// apply runs one transition under the lock, tracks the run lifecycle,
// re-arms the tick source and publishes the result.
func (s *gameServiceImpl) apply(action string, fn func() (bool, error)) (*ActionResult, error) {
	s.mu.Lock()

	before := s.session.State()
	changed, err := fn()
	after := s.session.State()
	now := s.now()

	var events []GameEvent
	restarted := after == engine.StateRunning && (action == "restart" || before == engine.StateGameOver)
	switch {
	case restarted:
		s.abandonRunLocked("restarted")
		events = append(events, s.beginRunLocked(now))
	case before == engine.StatePaused && after == engine.StateRunning:
		if s.run == nil {
			events = append(events, s.beginRunLocked(now))
		} else {
			events = append(events, GameEvent{Type: EventResumed, Message: "Game resumed", Timestamp: now})
		}
	case before == engine.StateRunning && after == engine.StatePaused:
		events = append(events, GameEvent{Type: EventPaused, Message: "Game paused", Timestamp: now})
	}
	if action == "direction" && changed {
		events = append(events, GameEvent{
			Type:      EventDirection,
			Message:   fmt.Sprintf("Heading %s", s.session.Direction()),
			Timestamp: now,
		})
	}

	update, observers := s.commitLocked(events)
	s.mu.Unlock()

	s.publish(update, observers)
	if err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("action failed")
		return nil, err
	}

	return &ActionResult{
		Action:   action,
		Changed:  changed,
		Message:  describeTransition(action, changed, update.Snapshot),
		Snapshot: update.Snapshot,
		Events:   events,
	}, nil
}

// tick advances the game one step. Stale ticks that arrive after a pause
// are no-ops inside the session.
func (s *gameServiceImpl) tick() {
	s.mu.Lock()

	result, err := s.session.Tick()
	if err != nil {
		s.logger.Error().Err(err).Msg("tick ended the run")
	}
	if !result.Moved && !result.Ended {
		s.mu.Unlock()
		return
	}

	now := s.now()
	var events []GameEvent
	var finished *RunRecord

	if result.Ate {
		eaten := s.session.Head()
		events = append(events, GameEvent{
			Type:      EventFoodEaten,
			Message:   fmt.Sprintf("Score %d", s.session.Score()),
			Timestamp: now,
			Position:  &eaten,
		})
		if result.IntervalChanged {
			events = append(events, GameEvent{
				Type:      EventSpeedUp,
				Message:   fmt.Sprintf("Move interval %v", result.Interval),
				Timestamp: now,
			})
		}
	}
	if result.Ended {
		finished = s.finishRunLocked(result, now)
		events = append(events, GameEvent{Type: EventGameOver, Message: result.Cause.Describe(), Timestamp: now})
		if result.NewHighScore {
			events = append(events, GameEvent{
				Type:      EventHighScore,
				Message:   fmt.Sprintf("New high score %d", s.session.Score()),
				Timestamp: now,
			})
		}
	}

	update, observers := s.commitLocked(events)
	s.mu.Unlock()

	if finished != nil {
		s.highScores.flush()
		s.persistRun(finished)
	}
	s.publish(update, observers)
}

func (s *gameServiceImpl) beginRunLocked(now time.Time) GameEvent {
	s.run = &activeRun{id: uuid.New().String(), startedAt: now}
	s.logger.Info().
		Str("run_id", s.run.id).
		Str("preset", s.session.Config().Name).
		Msg("run started")
	return GameEvent{Type: EventRunStarted, Message: "New run started", Timestamp: now}
}

func (s *gameServiceImpl) abandonRunLocked(reason string) {
	if s.run == nil {
		return
	}
	s.logger.Debug().Str("run_id", s.run.id).Str("reason", reason).Msg("run abandoned")
	s.run = nil
}

func (s *gameServiceImpl) finishRunLocked(result engine.TickResult, now time.Time) *RunRecord {
	record := &RunRecord{
		Preset:       s.session.Config().Name,
		Score:        s.session.Score(),
		Length:       s.session.SnakeLength(),
		Cause:        result.Cause.String(),
		StartedAt:    now,
		EndedAt:      now,
		NewHighScore: result.NewHighScore,
	}
	if s.run != nil {
		record.ID = s.run.id
		record.StartedAt = s.run.startedAt
	} else {
		record.ID = uuid.New().String()
	}
	s.run = nil

	s.logger.Info().
		Str("run_id", record.ID).
		Int("score", record.Score).
		Int("length", record.Length).
		Str("cause", record.Cause).
		Bool("new_high_score", record.NewHighScore).
		Msg("run ended")
	return record
}

func (s *gameServiceImpl) persistRun(record *RunRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.records.AppendRun(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("run_id", record.ID).Msg("failed to record run")
	}
}

// commitLocked bumps the version, captures the snapshot, re-arms the tick
// source and copies the observer list for publishing after unlock.
func (s *gameServiceImpl) commitLocked(events []GameEvent) (Update, []Observer) {
	s.version++
	update := Update{Snapshot: s.snapshotLocked(), Events: events}
	s.requestScheduleLocked()

	observers := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		observers = append(observers, o)
	}
	return update, observers
}

func (s *gameServiceImpl) snapshotLocked() *engine.Snapshot {
	snap := s.session.Snapshot()
	snap.Version = s.version
	return snap
}

// requestScheduleLocked replaces any pending request with the current one.
func (s *gameServiceImpl) requestScheduleLocked() {
	next := schedule{
		running:  s.session.State() == engine.StateRunning,
		interval: s.session.MoveInterval(),
	}
	select {
	case <-s.schedule:
	default:
	}
	s.schedule <- next
}

func (s *gameServiceImpl) publish(update Update, observers []Observer) {
	for _, o := range observers {
		o(update)
	}
}

// Subscribe registers an observer
func (s *gameServiceImpl) Subscribe(observer Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = observer

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Run drives Tick at the session's move interval while it is running and
// stays idle otherwise. It returns ctx.Err() once ctx is done.
func (s *gameServiceImpl) Run(ctx context.Context) error {
	var (
		ticker  *time.Ticker
		ticks   <-chan time.Time
		current schedule
	)
	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, ticks = nil, nil
		}
	}
	defer stop()

	s.mu.Lock()
	s.requestScheduleLocked()
	s.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case next := <-s.schedule:
			if next == current {
				continue
			}
			current = next
			stop()
			if next.running {
				ticker = time.NewTicker(next.interval)
				ticks = ticker.C
				s.logger.Debug().Dur("interval", next.interval).Msg("tick source armed")
			}

		case <-ticks:
			s.tick()
		}
	}
}

// GetHighScore returns the best score and when it was set
func (s *gameServiceImpl) GetHighScore(ctx context.Context) (*HighScoreInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &HighScoreInfo{
		HighScore: s.keeper.Value(),
		When:      s.highScores.When(),
	}, nil
}

// GetRunHistory retrieves finished runs with pagination
func (s *gameServiceImpl) GetRunHistory(ctx context.Context, opts HistoryOptions) (*HistoryResponse, error) {
	history, err := s.records.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var runs []*RunRecord
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			runs = append(runs, history[i])
		}
	} else if start < total {
		runs = history[start:end]
	}

	if runs == nil {
		runs = []*RunRecord{}
	}

	return &HistoryResponse{
		Runs:        runs,
		TotalRuns:   total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a configuration
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ApplyConfig replaces the game with a fresh paused session on another preset
func (s *gameServiceImpl) ApplyConfig(ctx context.Context, configName string) (*ActionResult, error) {
	config, err := s.configs.LoadConfig(configName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
	}

	s.mu.Lock()
	session, err := engine.NewGameSession(*config, s.keeper, s.rng)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to create game session: %w", err)
	}
	s.abandonRunLocked("preset changed")
	s.session = session

	now := s.now()
	events := []GameEvent{{
		Type:      EventPresetApplied,
		Message:   fmt.Sprintf("Preset %s applied", config.Name),
		Timestamp: now,
	}}
	update, observers := s.commitLocked(events)
	s.mu.Unlock()

	s.logger.Info().Str("preset", config.Name).Msg("preset applied")
	s.publish(update, observers)

	return &ActionResult{
		Action:   "apply_config",
		Changed:  true,
		Message:  fmt.Sprintf("Preset %s applied, press start to play", config.Name),
		Snapshot: update.Snapshot,
		Events:   events,
	}, nil
}

func describeTransition(action string, changed bool, snap *engine.Snapshot) string {
	if action == "direction" {
		if changed {
			return fmt.Sprintf("Heading %s", snap.Direction)
		}
		return "Direction ignored (cannot reverse)"
	}
	if !changed {
		return fmt.Sprintf("Nothing to %s, game is %s", action, snap.State)
	}
	return fmt.Sprintf("Game is %s", snap.State)
}
