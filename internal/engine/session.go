package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muli0525/ChineseChessAssistant/internal/engine/uci"
	"github.com/muli0525/ChineseChessAssistant/internal/xiangqi"
)

var (
	ErrNotReady      = errors.New("engine: session not ready")
	ErrProcessExited = errors.New("engine: process exited unexpectedly")
)

// State is the orchestrator's supervising state machine, observable by UI
// collaborators.
type State int

const (
	StateIdle State = iota
	StateStarting
	StateReady
	StateAnalyzing
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStarting:
		return "Starting"
	case StateReady:
		return "Ready"
	case StateAnalyzing:
		return "Analyzing"
	case StateError:
		return "Error"
	default:
		return ""
	}
}

// Suggestion is an engine reply mapped back into the rules engine's
// coordinates and validated against the board it was requested for.
type Suggestion struct {
	Move    xiangqi.Move
	Token   string
	Ponder  string
	Depth   int
	Info    uci.SearchInfo
	Elapsed time.Duration
}

// Session bridges a rules-engine board and one external engine process.
// The session and the process share a lifetime: Shutdown ends both, and an
// unexpected process death moves the session to StateError until the caller
// restarts it.
type Session struct {
	id        string
	logger    *zap.Logger
	clientCfg uci.Config

	mu       sync.Mutex
	client   *uci.Client
	state    State
	reason   string
	info     uci.EngineInfo
	latest   *Suggestion
	gen      uint64
	cancelib context.CancelFunc

	updates chan struct{}
}

func NewSession(logger *zap.Logger, clientCfg uci.Config) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	clientCfg.Logger = logger
	return &Session{
		id:        uuid.NewString(),
		logger:    logger,
		clientCfg: clientCfg,
		state:     StateIdle,
		updates:   make(chan struct{}, 1),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StateReason explains the last transition into StateError.
func (s *Session) StateReason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Session) Info() uci.EngineInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// LatestSuggestion returns the most recent suggestion, or nil if none has
// been produced since the session started.
func (s *Session) LatestSuggestion() *Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Updates signals state or suggestion changes. The channel coalesces: a
// slow consumer sees at least one tick per burst of changes.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

func (s *Session) setStateLocked(st State, reason string) {
	s.state = st
	s.reason = reason
	s.notify()
}

// Start spawns and handshakes the engine binary. Idle -> Starting -> Ready
// on success, Idle -> Starting -> Error on failure.
func (s *Session) Start(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrNotReady
	}
	client := uci.NewClient(s.clientCfg)
	s.client = client
	s.setStateLocked(StateStarting, "")
	s.mu.Unlock()

	if err := client.Start(ctx, path); err != nil {
		s.mu.Lock()
		s.setStateLocked(StateError, err.Error())
		s.client = nil
		s.mu.Unlock()
		return err
	}

	info := client.Handshake(ctx)
	s.mu.Lock()
	s.info = info
	s.setStateLocked(StateReady, "")
	s.mu.Unlock()
	s.logger.Info("engine session ready",
		zap.String("session", s.id),
		zap.String("engine", info.Name),
		zap.Int("options", len(info.Options)))

	go s.watchExit(client)
	return nil
}

// watchExit surfaces an unexpected subprocess death as StateError. A death
// after Shutdown is the expected teardown and is ignored.
func (s *Session) watchExit(client *uci.Client) {
	<-client.Exited()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != client {
		return
	}
	if s.state == StateIdle {
		return
	}
	s.logger.Warn("engine process exited unexpectedly", zap.String("session", s.id))
	s.setStateLocked(StateError, ErrProcessExited.Error())
	s.client = nil
}

// SetOption forwards one engine option to the running subprocess.
func (s *Session) SetOption(name, value string) error {
	s.mu.Lock()
	client := s.client
	ready := s.state == StateReady
	s.mu.Unlock()
	if !ready || client == nil {
		return ErrNotReady
	}
	client.SetOption(name, value)
	return nil
}

// Analyze serializes the board, drives one fixed-depth search and maps the
// reply back to a domain move. Starting a new analysis cancels the previous
// job's ability to publish and explicitly asks the subprocess to stop its
// old search first. A reply referencing an empty origin square yields
// (nil, nil), not an error.
func (s *Session) Analyze(ctx context.Context, board *xiangqi.Board, depth int) (*Suggestion, error) {
	s.mu.Lock()
	if s.state != StateReady && s.state != StateAnalyzing {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	client := s.client
	if s.cancelib != nil {
		s.cancelib()
	}
	if s.state == StateAnalyzing {
		// The previous search still owns the pipe; tell the engine to wrap
		// it up rather than letting it run to completion unobserved.
		client.Stop()
	}
	jobCtx, cancel := context.WithCancel(ctx)
	s.cancelib = cancel
	s.gen++
	myGen := s.gen
	s.setStateLocked(StateAnalyzing, "")
	fen := board.EncodeFEN()
	s.mu.Unlock()

	start := time.Now()
	reply := client.Search(jobCtx, fen, nil, depth)
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != myGen {
		// Superseded by a newer Analyze; this result must not publish.
		return nil, nil
	}
	if s.state == StateAnalyzing {
		s.setStateLocked(StateReady, "")
	}
	if reply.Move == "" {
		s.logger.Warn("analysis produced no move",
			zap.String("session", s.id), zap.Int("depth", depth), zap.String("fen", fen))
		return nil, nil
	}

	move, ok := mapEngineMove(board, reply.Move)
	if !ok {
		s.logger.Warn("engine move does not match board",
			zap.String("session", s.id), zap.String("token", reply.Move))
		return nil, nil
	}

	sg := &Suggestion{
		Move:    move,
		Token:   reply.Move,
		Ponder:  reply.Ponder,
		Depth:   depth,
		Info:    client.LastSearchInfo(),
		Elapsed: elapsed,
	}
	s.latest = sg
	s.notify()
	return sg, nil
}

// TopMoves exists for API completeness. The protocol as consumed here
// yields a single best move, so at most one suggestion is returned no
// matter how many were requested.
func (s *Session) TopMoves(ctx context.Context, board *xiangqi.Board, count, depth int) ([]Suggestion, error) {
	if count <= 0 {
		return nil, nil
	}
	sg, err := s.Analyze(ctx, board, depth)
	if err != nil || sg == nil {
		return nil, err
	}
	return []Suggestion{*sg}, nil
}

// Shutdown releases the subprocess and returns the session to Idle. Safe
// from any state and on every termination path.
func (s *Session) Shutdown() {
	s.mu.Lock()
	if s.cancelib != nil {
		s.cancelib()
		s.cancelib = nil
	}
	client := s.client
	s.client = nil
	s.setStateLocked(StateIdle, "")
	s.mu.Unlock()

	if client != nil {
		client.Quit()
	}
}

// mapEngineMove converts a wire move token into a domain move validated
// against the board's actual occupant at the origin square.
func mapEngineMove(board *xiangqi.Board, token string) (xiangqi.Move, bool) {
	from, to, err := xiangqi.ParseMoveToken(token)
	if err != nil {
		return xiangqi.Move{}, false
	}
	piece, ok := board.PieceAt(from)
	if !ok {
		return xiangqi.Move{}, false
	}
	move := xiangqi.Move{From: from, To: to, Piece: piece}
	if victim, ok := board.PieceAt(to); ok {
		v := victim
		move.Captured = &v
	}
	return move, true
}
