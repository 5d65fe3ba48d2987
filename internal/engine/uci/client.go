package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	defaultStartTimeout     = 5 * time.Second
	defaultHandshakeTimeout = 4 * time.Second
	defaultQuitGrace        = 2 * time.Second
)

var (
	ErrEngineUnavailable = errors.New("uci: engine unavailable")
	ErrProcessExited     = errors.New("uci: engine process exited")
	ErrAlreadyStarted    = errors.New("uci: client already started")
)

// State tracks the protocol client's lifecycle.
type State int32

const (
	StateNotStarted State = iota
	StateStarting
	StateHandshaking
	StateReady
	StateThinking
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StateStarting:
		return "Starting"
	case StateHandshaking:
		return "Handshaking"
	case StateReady:
		return "Ready"
	case StateThinking:
		return "Thinking"
	case StateStopped:
		return "Stopped"
	default:
		return ""
	}
}

type Config struct {
	StartTimeout     time.Duration
	HandshakeTimeout time.Duration
	QuitGrace        time.Duration
	Logger           *zap.Logger
}

func (c *Config) fill() {
	if c.StartTimeout <= 0 {
		c.StartTimeout = defaultStartTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.QuitGrace <= 0 {
		c.QuitGrace = defaultQuitGrace
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Client owns one external engine process and speaks the line-oriented
// request/response protocol over its merged standard streams. The process's
// pipes belong exclusively to the Client; commands are written by a single
// writer and reply lines are consumed in arrival order on a dedicated
// reader goroutine.
type Client struct {
	cfg    Config
	logger *zap.Logger

	state atomic.Int32

	mu    sync.Mutex // guards stdin and process handles
	cmd   *exec.Cmd
	stdin io.WriteCloser

	search   sync.Mutex // one in-flight command sequence at a time
	orphaned bool       // guarded by search: an abandoned search still owes its terminator

	lines   chan string
	exited  chan struct{}
	exitErr error // written once before exited closes

	infoMu   sync.Mutex
	lastInfo SearchInfo
}

func NewClient(cfg Config) *Client {
	cfg.fill()
	return &Client{
		cfg:    cfg,
		logger: cfg.Logger,
		exited: make(chan struct{}),
	}
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Exited is closed when the engine process terminates for any reason.
func (c *Client) Exited() <-chan struct{} {
	return c.exited
}

// LastSearchInfo returns the most recent telemetry parsed from info lines.
func (c *Client) LastSearchInfo() SearchInfo {
	c.infoMu.Lock()
	defer c.infoMu.Unlock()
	return c.lastInfo
}

// Start spawns the engine binary with stderr merged into stdout and blocks
// until the process emits its first output line. No output within the start
// timeout is a startup failure, not a hang.
func (c *Client) Start(ctx context.Context, path string) error {
	if !c.state.CompareAndSwap(int32(StateNotStarted), int32(StateStarting)) {
		return ErrAlreadyStarted
	}

	cmd := exec.CommandContext(ctx, path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.setState(StateStopped)
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		c.setState(StateStopped)
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdoutPipe.Close()
		c.setState(StateStopped)
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	c.mu.Lock()
	c.cmd = cmd
	c.stdin = stdin
	c.lines = make(chan string, 64)
	c.mu.Unlock()

	go c.readLoop(stdoutPipe)
	go func() {
		err := cmd.Wait()
		c.mu.Lock()
		c.exitErr = err
		c.mu.Unlock()
		c.setState(StateStopped)
		close(c.exited)
	}()

	startCtx, cancel := context.WithTimeout(ctx, c.cfg.StartTimeout)
	defer cancel()
	line, err := c.readLine(startCtx)
	if err != nil {
		c.logger.Warn("engine produced no output, killing", zap.String("path", path), zap.Error(err))
		c.kill()
		return ErrEngineUnavailable
	}
	c.logger.Debug("engine banner", zap.String("line", line))
	c.setState(StateHandshaking)
	return nil
}

func (c *Client) readLoop(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		c.lines <- strings.TrimSpace(scanner.Text())
	}
	close(c.lines)
}

func (c *Client) readLine(ctx context.Context) (string, error) {
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return "", ErrProcessExited
			}
			if line == "" {
				continue
			}
			return line, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Send writes one command line and flushes immediately. Fire and forget:
// write failures are logged and swallowed, never propagated, so a broken
// pipe degrades a single call instead of corrupting the session.
func (c *Client) Send(command string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stdin == nil {
		return
	}
	if _, err := io.WriteString(c.stdin, command+"\n"); err != nil {
		c.logger.Warn("engine write failed", zap.String("command", command), zap.Error(err))
	}
}

// EngineInfo is the engine's identification, accumulated during handshake.
type EngineInfo struct {
	Name    string
	Author  string
	Options []Option
}

// Handshake sends the identification request and accumulates name, author
// and option lines until the termination token. If the token never arrives
// before the timeout the partial (possibly empty) info is returned as-is.
func (c *Client) Handshake(ctx context.Context) EngineInfo {
	c.search.Lock()
	defer c.search.Unlock()

	var info EngineInfo
	c.Send("uci")

	hsCtx, cancel := context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
	defer cancel()
	for {
		line, err := c.readLine(hsCtx)
		if err != nil {
			c.logger.Warn("handshake incomplete", zap.Error(err))
			return info
		}
		switch {
		case line == "uciok":
			c.setState(StateReady)
			return info
		case strings.HasPrefix(line, "id name "):
			info.Name = strings.TrimSpace(strings.TrimPrefix(line, "id name "))
		case strings.HasPrefix(line, "id author "):
			info.Author = strings.TrimSpace(strings.TrimPrefix(line, "id author "))
		case strings.HasPrefix(line, "option "):
			if opt, ok := parseOption(line); ok {
				info.Options = append(info.Options, opt)
			}
		}
	}
}

// SetOption emits a setoption command. No reply is expected.
func (c *Client) SetOption(name, value string) {
	c.Send(fmt.Sprintf("setoption name %s value %s", name, value))
}

// SetPosition emits a position command for the given wire-format position
// and move list. No reply is expected.
func (c *Client) SetPosition(fen string, moves []string) {
	var sb strings.Builder
	if strings.TrimSpace(fen) == "" || fen == "startpos" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(fen)
	}
	if len(moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(moves, " "))
	}
	c.Send(sb.String())
}

// EngineMove is the engine's reply to a search request. Zero value means
// the search produced nothing before the deadline.
type EngineMove struct {
	Move   string
	Ponder string
}

// Go starts a fixed-depth search and reads lines until the best-move
// terminator or a read timeout. Intermediate info lines are parsed
// opportunistically for telemetry; anything else is ignored, never an
// error.
func (c *Client) Go(ctx context.Context, depth int) EngineMove {
	c.search.Lock()
	defer c.search.Unlock()
	return c.goLocked(ctx, depth)
}

// Search emits the position and go commands as one sequence under the
// search mutex, then reads the reply. Concurrent callers cannot interleave
// their position/go pairs on the pipe.
func (c *Client) Search(ctx context.Context, fen string, moves []string, depth int) EngineMove {
	c.search.Lock()
	defer c.search.Unlock()
	c.SetPosition(fen, moves)
	return c.goLocked(ctx, depth)
}

func (c *Client) goLocked(ctx context.Context, depth int) EngineMove {
	if s := c.State(); s != StateReady && s != StateThinking {
		return EngineMove{}
	}
	c.setState(StateThinking)
	defer func() {
		if c.State() == StateThinking {
			c.setState(StateReady)
		}
	}()

	if c.orphaned {
		c.reclaimOrphan()
	}

	c.Send("go depth " + strconv.Itoa(depth))

	searchCtx, cancel := context.WithTimeout(ctx, searchTimeout(depth))
	defer cancel()
	for {
		line, err := c.readLine(searchCtx)
		if err != nil {
			if !errors.Is(err, ErrProcessExited) {
				c.abandonSearch(depth)
			}
			c.logger.Warn("search yielded no best move", zap.Int("depth", depth), zap.Error(err))
			return EngineMove{}
		}
		switch {
		case strings.HasPrefix(line, "bestmove"):
			mv, _ := parseBestMove(line)
			return mv
		case strings.HasPrefix(line, "info"):
			if si, ok := parseInfo(line); ok {
				c.infoMu.Lock()
				c.lastInfo = si
				c.infoMu.Unlock()
			}
		}
	}
}

// abandonSearch handles a search whose caller gave up waiting: the engine
// is told to stop, and the overdue terminator is consumed within a bounded
// window. A terminator left unconsumed here would be served to the next
// search as its answer, so if it is still outstanding after the window the
// client remembers it and reclaims it before the next go command.
func (c *Client) abandonSearch(depth int) {
	c.Stop()
	if !c.consumeBestMove(c.cfg.QuitGrace) {
		c.logger.Warn("abandoned search still owes its best move", zap.Int("depth", depth))
		c.orphaned = true
	}
}

// reclaimOrphan gives a previously abandoned search one more bounded window
// to deliver its terminator before a fresh search is issued.
func (c *Client) reclaimOrphan() {
	if !c.consumeBestMove(c.cfg.QuitGrace) {
		c.logger.Warn("orphaned best move never arrived")
	}
	c.orphaned = false
}

// consumeBestMove reads and discards lines until a best-move terminator or
// the deadline. Reports whether the terminator was seen.
func (c *Client) consumeBestMove(wait time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	for {
		line, err := c.readLine(ctx)
		if err != nil {
			return false
		}
		if strings.HasPrefix(line, "bestmove") {
			return true
		}
	}
}

func searchTimeout(depth int) time.Duration {
	if depth <= 0 {
		return 6 * time.Second
	}
	d := time.Duration(depth) * 500 * time.Millisecond
	if d < 6*time.Second {
		d = 6 * time.Second
	}
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

// Stop asks the engine to abort an in-progress search. The engine replies
// with a bestmove line at its leisure; no immediate reply is guaranteed.
func (c *Client) Stop() {
	c.Send("stop")
}

// Quit sends the terminate command, waits a bounded grace period for the
// process to exit on its own, then kills it. Safe to call from every
// teardown path.
func (c *Client) Quit() {
	c.Send("quit")
	select {
	case <-c.exited:
	case <-time.After(c.cfg.QuitGrace):
		c.logger.Warn("engine ignored quit, killing")
		c.kill()
	}
	c.mu.Lock()
	if c.stdin != nil {
		c.stdin.Close()
		c.stdin = nil
	}
	c.mu.Unlock()
	c.setState(StateStopped)
}

func (c *Client) kill() {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	c.setState(StateStopped)
}
