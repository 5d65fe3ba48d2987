package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muli0525/ChineseChessAssistant/internal/domain"
	"github.com/muli0525/ChineseChessAssistant/internal/engine"
	"github.com/muli0525/ChineseChessAssistant/internal/xiangqi"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameOver         = errors.New("game already over")
	ErrInvalidMove      = errors.New("invalid move")
	ErrTooManyGames     = errors.New("too many concurrent games")
	ErrUndoNotAvailable = errors.New("no moves available to undo")
	ErrNoSuggestion     = errors.New("engine produced no suggestion")
)

// Analyzer is the engine-facing seam. engine.Session satisfies it; tests
// substitute a canned implementation.
type Analyzer interface {
	State() engine.State
	Analyze(ctx context.Context, board *xiangqi.Board, depth int) (*engine.Suggestion, error)
}

type Config struct {
	DefaultPreset      string
	HistoryLimit       int
	MaxConcurrentGames int
}

type game struct {
	mu        sync.Mutex
	id        string
	preset    engine.Preset
	board     *xiangqi.Board
	startedAt time.Time
	updatedAt time.Time
}

// GameState is the caller-facing snapshot of one tracked game.
type GameState struct {
	GameID    string
	Preset    string
	FEN       string
	Turn      string
	Status    string
	InCheck   bool
	Moves     []string
	MoveCount int
	StartedAt time.Time
	UpdatedAt time.Time
}

// SuggestionView is the caller-facing shape of one engine reply.
type SuggestionView struct {
	GameID     string
	Token      string
	Ponder     string
	Depth      int
	Nodes      int64
	TimeMillis int64
	FromCache  bool
}

// Service tracks live games and mediates between the rules engine, the
// analysis subprocess, the cache and persistence.
type Service struct {
	analyzer Analyzer
	cache    *SuggestionCache
	repo     Repository
	cfg      Config
	logger   *zap.Logger

	mu    sync.RWMutex
	games map[string]*game
}

func NewService(analyzer Analyzer, cache *SuggestionCache, repo Repository, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 200
	}
	if cfg.MaxConcurrentGames <= 0 {
		cfg.MaxConcurrentGames = 100
	}
	return &Service{
		analyzer: analyzer,
		cache:    cache,
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
		games:    make(map[string]*game),
	}
}

// EngineState reports the analyzer lifecycle state for health reporting.
func (s *Service) EngineState() engine.State {
	if s.analyzer == nil {
		return engine.StateIdle
	}
	return s.analyzer.State()
}

// NewGame starts tracking a fresh game from the standard opening setup.
func (s *Service) NewGame(presetName string) (*GameState, error) {
	if strings.TrimSpace(presetName) == "" {
		presetName = s.cfg.DefaultPreset
	}
	preset, err := engine.GetPreset(presetName)
	if err != nil {
		return nil, err
	}

	board := xiangqi.NewBoard()
	board.SetupInitialPosition()
	now := time.Now()
	g := &game{
		id:        uuid.NewString(),
		preset:    preset,
		board:     board,
		startedAt: now,
		updatedAt: now,
	}

	g.mu.Lock()
	snap := snapshotLocked(g)
	g.mu.Unlock()

	s.mu.Lock()
	if len(s.games) >= s.cfg.MaxConcurrentGames {
		s.mu.Unlock()
		return nil, ErrTooManyGames
	}
	s.games[g.id] = g
	s.mu.Unlock()

	s.logger.Info("game created",
		zap.String("game", g.id),
		zap.String("preset", preset.Name))
	return snap, nil
}

func (s *Service) lookup(gameID string) (*game, error) {
	s.mu.RLock()
	g, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// State returns the current snapshot of a tracked game.
func (s *Service) State(gameID string) (*GameState, error) {
	g, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return snapshotLocked(g), nil
}

// PlayMove applies one move token to the game. Rule violations come back as
// ErrInvalidMove; moves after checkmate or stalemate as ErrGameOver.
func (s *Service) PlayMove(gameID, token string) (*GameState, error) {
	g, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}

	from, to, err := xiangqi.ParseMoveToken(token)
	if err != nil {
		return nil, ErrInvalidMove
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if st := g.board.GameState(); st == xiangqi.StateCheckmate || st == xiangqi.StateStalemate {
		return nil, ErrGameOver
	}
	if len(g.board.History()) >= s.cfg.HistoryLimit {
		return nil, ErrGameOver
	}
	if !g.board.MakeMove(xiangqi.Move{From: from, To: to}) {
		return nil, ErrInvalidMove
	}
	g.updatedAt = time.Now()
	return snapshotLocked(g), nil
}

// Undo rolls back the latest move.
func (s *Service) Undo(gameID string) (*GameState, error) {
	g, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.board.UndoMove() {
		return nil, ErrUndoNotAvailable
	}
	g.updatedAt = time.Now()
	return snapshotLocked(g), nil
}

// Suggest asks the engine for the best move in the current position,
// consulting the cache first. Cache and persistence failures degrade to a
// log line; only engine failures surface to the caller.
func (s *Service) Suggest(ctx context.Context, gameID string) (*SuggestionView, error) {
	g, err := s.lookup(gameID)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	fen := g.board.EncodeFEN()
	depth := g.preset.Depth

	if cached, err := s.cache.Get(ctx, fen, depth); err != nil {
		s.logger.Warn("suggestion cache read failed", zap.Error(err))
	} else if cached != nil {
		return &SuggestionView{
			GameID:     g.id,
			Token:      cached.Token,
			Ponder:     cached.Ponder,
			Depth:      cached.Depth,
			Nodes:      cached.Nodes,
			TimeMillis: cached.TimeMillis,
			FromCache:  true,
		}, nil
	}

	if s.analyzer == nil {
		return nil, ErrNoSuggestion
	}
	sug, err := s.analyzer.Analyze(ctx, g.board, depth)
	if err != nil {
		return nil, err
	}
	if sug == nil || sug.Token == "" {
		return nil, ErrNoSuggestion
	}

	cached := &CachedSuggestion{
		Token:      sug.Token,
		Ponder:     sug.Ponder,
		Depth:      sug.Depth,
		Nodes:      sug.Info.Nodes,
		TimeMillis: sug.Info.TimeMillis,
	}
	if err := s.cache.Put(ctx, fen, depth, cached); err != nil {
		s.logger.Warn("suggestion cache write failed", zap.Error(err))
	}
	if _, err := s.repo.InsertSuggestion(ctx, &domain.SuggestionRecord{
		SessionUUID: g.id,
		FEN:         fen,
		Token:       sug.Token,
		Depth:       sug.Depth,
		Nodes:       sug.Info.Nodes,
		TimeMillis:  sug.Info.TimeMillis,
	}); err != nil {
		s.logger.Warn("suggestion record insert failed", zap.Error(err))
	}

	return &SuggestionView{
		GameID:     g.id,
		Token:      sug.Token,
		Ponder:     sug.Ponder,
		Depth:      sug.Depth,
		Nodes:      sug.Info.Nodes,
		TimeMillis: sug.Info.TimeMillis,
	}, nil
}

// Finish stops tracking the game and persists its record. An empty result is
// derived from the final board state.
func (s *Service) Finish(ctx context.Context, gameID, result string) (int64, error) {
	g, err := s.lookup(gameID)
	if err != nil {
		return 0, err
	}

	g.mu.Lock()
	if strings.TrimSpace(result) == "" {
		result = deriveResult(g.board)
	}
	record := &domain.GameRecord{
		SessionUUID: g.id,
		Preset:      g.preset.Name,
		Result:      result,
		MoveTokens:  historyTokens(g.board),
		FinalFEN:    g.board.EncodeFEN(),
		StartedAt:   g.startedAt,
		EndedAt:     time.Now(),
		MoveCount:   len(g.board.History()),
	}
	record.Duration = record.EndedAt.Sub(record.StartedAt)
	g.mu.Unlock()

	id, err := s.repo.InsertGame(ctx, record)
	if err != nil && !errors.Is(err, ErrDuplicateGame) {
		return 0, err
	}

	s.mu.Lock()
	delete(s.games, gameID)
	s.mu.Unlock()

	s.logger.Info("game finished",
		zap.String("game", gameID),
		zap.String("result", result),
		zap.Int("moves", record.MoveCount))
	return id, nil
}

// RecentGames lists persisted game records, newest first.
func (s *Service) RecentGames(ctx context.Context, limit int) ([]*domain.GameRecord, error) {
	return s.repo.GetRecentGames(ctx, limit)
}

func snapshotLocked(g *game) *GameState {
	st := g.board.GameState()
	return &GameState{
		GameID:    g.id,
		Preset:    g.preset.Name,
		FEN:       g.board.EncodeFEN(),
		Turn:      g.board.SideToMove().String(),
		Status:    st.String(),
		InCheck:   st == xiangqi.StateCheck || st == xiangqi.StateCheckmate,
		Moves:     historyTokens(g.board),
		MoveCount: len(g.board.History()),
		StartedAt: g.startedAt,
		UpdatedAt: g.updatedAt,
	}
}

func historyTokens(b *xiangqi.Board) []string {
	hist := b.History()
	tokens := make([]string, len(hist))
	for i, m := range hist {
		tokens[i] = m.Token()
	}
	return tokens
}

func deriveResult(b *xiangqi.Board) string {
	switch b.GameState() {
	case xiangqi.StateCheckmate:
		// The side to move is the one mated.
		if b.SideToMove() == xiangqi.SideRed {
			return "black_won"
		}
		return "red_won"
	case xiangqi.StateStalemate:
		if b.SideToMove() == xiangqi.SideRed {
			return "black_won"
		}
		return "red_won"
	default:
		return "unfinished"
	}
}
